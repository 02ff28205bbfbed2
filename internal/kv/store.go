// Package kv provides the namespaced key/value abstraction shared by the
// cache and the two config stores. All instances sit on top of the same
// "info" table, discriminated by a namespace name; clearing one namespace is
// guaranteed to leave every other namespace untouched.
//
// Two contracts are exposed:
//   - Store: read/write access with optional write buffering (Set with
//     autoSave=false stages the write until Save is called).
//   - Cache: a Store that can additionally delete keys, delete by prefix,
//     clear itself, and resolve get-or-compute in one call.
//
// The default implementation persists through the repo layer into SQLite.
// A Redis-backed Cache lives in redis.go for deployments that want the
// ephemeral namespace off the main database.
package kv

import (
	"context"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/xiaohuihuib/Rin/internal/repo"
)

// Store is the read/write contract of one key/value namespace.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes key=value. With autoSave the write is persisted
	// immediately; otherwise it is staged until Save.
	Set(ctx context.Context, key, value string, autoSave bool) error

	// Save flushes staged writes.
	Save(ctx context.Context) error

	// All returns every key/value pair in the namespace, staged writes
	// included.
	All(ctx context.Context) (map[string]string, error)

	// GetOrDefault returns the value for key, or def when absent.
	GetOrDefault(ctx context.Context, key, def string) (string, error)
}

// Cache extends Store with eviction operations used by the ephemeral
// namespace.
type Cache interface {
	Store

	// Delete removes a single key. Removing an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key that textually starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes every key in this namespace and nothing else.
	Clear(ctx context.Context) error

	// GetOrSet returns the existing value, or invokes compute exactly once,
	// stores its result, and returns it.
	GetOrSet(ctx context.Context, key string, compute func() (string, error)) (string, error)
}

// Namespace is the SQLite-backed implementation of Cache (and therefore
// Store). It is safe for concurrent use; staged writes are guarded by a
// mutex and flushed in a single transaction on Save.
type Namespace struct {
	db   *gorm.DB
	name string

	mu      sync.Mutex
	pending map[string]string
}

// NewNamespace returns a Namespace bound to the given discriminator value
// (e.g. domain.NamespaceCache).
func NewNamespace(db *gorm.DB, name string) *Namespace {
	return &Namespace{
		db:      db,
		name:    name,
		pending: make(map[string]string),
	}
}

// Name returns the namespace discriminator.
func (n *Namespace) Name() string { return n.name }

// Get returns the value for key, preferring a staged write over the
// persisted row.
func (n *Namespace) Get(ctx context.Context, key string) (string, bool, error) {
	n.mu.Lock()
	if v, ok := n.pending[key]; ok {
		n.mu.Unlock()
		return v, true, nil
	}
	n.mu.Unlock()

	s, err := repo.GetSetting(ctx, n.db, n.name, key)
	if err != nil {
		if err == repo.ErrNotFound {
			return "", false, nil
		}
		return "", false, err
	}
	return s.Value, true, nil
}

// Set writes key=value, persisting immediately when autoSave is true.
func (n *Namespace) Set(ctx context.Context, key, value string, autoSave bool) error {
	if autoSave {
		return repo.UpsertSetting(ctx, n.db, n.name, key, value)
	}
	n.mu.Lock()
	n.pending[key] = value
	n.mu.Unlock()
	return nil
}

// Save flushes staged writes inside one transaction. Staged entries are
// kept on failure so a retry can flush them again.
func (n *Namespace) Save(ctx context.Context) error {
	n.mu.Lock()
	if len(n.pending) == 0 {
		n.mu.Unlock()
		return nil
	}
	staged := n.pending
	n.pending = make(map[string]string)
	n.mu.Unlock()

	err := n.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for k, v := range staged {
			if err := repo.UpsertSetting(ctx, tx, n.name, k, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		n.mu.Lock()
		for k, v := range staged {
			if _, exists := n.pending[k]; !exists {
				n.pending[k] = v
			}
		}
		n.mu.Unlock()
	}
	return err
}

// All returns the merged view of persisted rows and staged writes.
func (n *Namespace) All(ctx context.Context) (map[string]string, error) {
	out, err := repo.ListSettings(ctx, n.db, n.name)
	if err != nil {
		return nil, err
	}
	n.mu.Lock()
	for k, v := range n.pending {
		out[k] = v
	}
	n.mu.Unlock()
	return out, nil
}

// GetOrDefault returns the value for key, or def when absent.
func (n *Namespace) GetOrDefault(ctx context.Context, key, def string) (string, error) {
	v, ok, err := n.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// Delete removes a single key from the namespace.
func (n *Namespace) Delete(ctx context.Context, key string) error {
	n.mu.Lock()
	delete(n.pending, key)
	n.mu.Unlock()
	return repo.DeleteSetting(ctx, n.db, n.name, key)
}

// DeletePrefix removes every key starting with prefix, staged writes
// included.
func (n *Namespace) DeletePrefix(ctx context.Context, prefix string) error {
	n.mu.Lock()
	for k := range n.pending {
		if strings.HasPrefix(k, prefix) {
			delete(n.pending, k)
		}
	}
	n.mu.Unlock()
	return repo.DeleteSettingsByPrefix(ctx, n.db, n.name, prefix)
}

// Clear removes every key in this namespace. Rows belonging to other
// namespaces share the same table but are never touched: the delete is
// scoped by the type column.
func (n *Namespace) Clear(ctx context.Context) error {
	n.mu.Lock()
	n.pending = make(map[string]string)
	n.mu.Unlock()
	return repo.ClearNamespace(ctx, n.db, n.name)
}

// GetOrSet returns the existing value for key, or computes, stores, and
// returns a fresh one. compute runs at most once per call.
func (n *Namespace) GetOrSet(ctx context.Context, key string, compute func() (string, error)) (string, error) {
	v, ok, err := n.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if ok {
		return v, nil
	}
	v, err = compute()
	if err != nil {
		return "", err
	}
	if err := n.Set(ctx, key, v, true); err != nil {
		return "", err
	}
	return v, nil
}
