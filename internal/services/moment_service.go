// Package services – MomentService
//
// This file implements the MomentService, which manages the micro-blog
// posts. It validates content, serves the public listing through the cache,
// and invalidates every cached page whenever a write lands. Service-level
// errors (ErrMomentNotFound, ErrEmptyContent) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/xiaohuihuib/Rin/internal/domain"
	"github.com/xiaohuihuib/Rin/internal/kv"
	"github.com/xiaohuihuib/Rin/internal/repo"
)

// MomentCachePrefix prefixes every cached listing page. Writes invalidate
// the whole prefix rather than individual pages: a single insert shifts the
// content of every page after it.
const MomentCachePrefix = "moments_"

const (
	defaultMomentPage  = 1
	defaultMomentLimit = 10
	maxMomentLimit     = 50
)

// MomentPage is the listing payload: one page of moments plus enough
// metadata for the client to keep paging.
type MomentPage struct {
	Data    []domain.Moment `json:"data"`
	HasNext bool            `json:"hasNext"`
	Size    int64           `json:"size"`
}

// MomentService provides CRUD over moments with read-through caching of the
// public listing.
type MomentService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Cache holds serialized listing pages under MomentCachePrefix keys.
	Cache kv.Cache
}

// NewMomentService constructs a MomentService.
func NewMomentService(db *gorm.DB, cache kv.Cache) *MomentService {
	return &MomentService{DB: db, Cache: cache}
}

// clampPaging applies defaults and the hard page-size cap. The cap holds
// regardless of what the client requested.
func clampPaging(page, limit int) (int, int) {
	if page < 1 {
		page = defaultMomentPage
	}
	if limit < 1 {
		limit = defaultMomentLimit
	}
	if limit > maxMomentLimit {
		limit = maxMomentLimit
	}
	return page, limit
}

// cacheKey derives the cache key for one listing page.
func cacheKey(page, limit int) string {
	return fmt.Sprintf("%sp%d_l%d", MomentCachePrefix, page, limit)
}

// ListPage returns the serialized JSON payload for one page of the listing,
// newest first. On a cache hit the stored payload is returned verbatim
// without touching the moments table; on a miss the page is computed,
// cached, and returned.
func (s *MomentService) ListPage(ctx context.Context, page, limit int) ([]byte, error) {
	page, limit = clampPaging(page, limit)

	payload, err := s.Cache.GetOrSet(ctx, cacheKey(page, limit), func() (string, error) {
		total, err := repo.CountMoments(ctx, s.DB)
		if err != nil {
			return "", err
		}
		items, err := repo.ListMomentsPage(ctx, s.DB, (page-1)*limit, limit)
		if err != nil {
			return "", err
		}
		if items == nil {
			items = []domain.Moment{}
		}
		raw, err := json.Marshal(MomentPage{
			Data:    items,
			HasNext: int64(page*limit) < total,
			Size:    total,
		})
		if err != nil {
			return "", err
		}
		return string(raw), nil
	})
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

// Create inserts a moment owned by uid and invalidates the cached listing.
// The invalidation runs strictly after the insert so no reader can observe
// a stale page being re-cached ahead of the write.
func (s *MomentService) Create(ctx context.Context, uid uint, content string) (uint, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return 0, ErrEmptyContent
	}
	m, err := repo.CreateMoment(ctx, s.DB, uid, content)
	if err != nil {
		return 0, err
	}
	if err := s.Cache.DeletePrefix(ctx, MomentCachePrefix); err != nil {
		return 0, err
	}
	return m.ID, nil
}

// Update replaces the content of an existing moment and invalidates the
// cached listing.
func (s *MomentService) Update(ctx context.Context, id uint, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyContent
	}
	if err := repo.UpdateMomentContent(ctx, s.DB, id, content); err != nil {
		if err == repo.ErrNotFound {
			return ErrMomentNotFound
		}
		return err
	}
	return s.Cache.DeletePrefix(ctx, MomentCachePrefix)
}

// Delete removes a moment and invalidates the cached listing.
func (s *MomentService) Delete(ctx context.Context, id uint) error {
	if err := repo.DeleteMoment(ctx, s.DB, id); err != nil {
		if err == repo.ErrNotFound {
			return ErrMomentNotFound
		}
		return err
	}
	return s.Cache.DeletePrefix(ctx, MomentCachePrefix)
}
