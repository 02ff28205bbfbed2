package kv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/xiaohuihuib/Rin/internal/domain"
)

func newRedisCache(t *testing.T) *RedisCache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb, domain.NamespaceCache)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	rc := newRedisCache(t)
	ctx := context.Background()

	if _, ok, err := rc.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := rc.Set(ctx, "k", "v", true); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := rc.Get(ctx, "k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("get: v=%q ok=%v err=%v", v, ok, err)
	}

	v, err = rc.GetOrDefault(ctx, "missing", "fallback")
	if err != nil || v != "fallback" {
		t.Fatalf("GetOrDefault: %q %v", v, err)
	}

	// Save is a no-op on the Redis backend.
	if err := rc.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestRedisCacheAllAndPrefixes(t *testing.T) {
	rc := newRedisCache(t)
	ctx := context.Background()

	seed := map[string]string{
		"moments_p1_l10": "a",
		"moments_p2_l10": "b",
		"feed_rss":       "c",
	}
	for k, v := range seed {
		if err := rc.Set(ctx, k, v, true); err != nil {
			t.Fatalf("seed %s: %v", k, err)
		}
	}

	all, err := rc.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 3 || all["feed_rss"] != "c" {
		t.Fatalf("All = %v", all)
	}

	if err := rc.DeletePrefix(ctx, "moments_"); err != nil {
		t.Fatalf("delete prefix: %v", err)
	}
	all, err = rc.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 || all["feed_rss"] != "c" {
		t.Fatalf("prefix delete wrong survivors: %v", all)
	}

	if err := rc.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if all, _ := rc.All(ctx); len(all) != 0 {
		t.Fatalf("clear left keys: %v", all)
	}
}

func TestRedisCacheGetOrSet(t *testing.T) {
	rc := newRedisCache(t)
	ctx := context.Background()

	calls := 0
	compute := func() (string, error) {
		calls++
		return "computed", nil
	}

	v, err := rc.GetOrSet(ctx, "k", compute)
	if err != nil || v != "computed" {
		t.Fatalf("miss: %q %v", v, err)
	}
	v, err = rc.GetOrSet(ctx, "k", compute)
	if err != nil || v != "computed" {
		t.Fatalf("hit: %q %v", v, err)
	}
	if calls != 1 {
		t.Fatalf("compute ran %d times, want 1", calls)
	}
}

func TestRedisCacheDelete(t *testing.T) {
	rc := newRedisCache(t)
	ctx := context.Background()

	if err := rc.Set(ctx, "k", "v", true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := rc.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := rc.Get(ctx, "k"); ok {
		t.Fatal("key survived delete")
	}
	// Absent key: no error.
	if err := rc.Delete(ctx, "k"); err != nil {
		t.Fatalf("double delete: %v", err)
	}
}
