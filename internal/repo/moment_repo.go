// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Moment model.
//
// The repository follows a "thin" approach: it performs persistence and simple
// query composition, leaving business rules (authorization, cache
// invalidation) to the services package.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/xiaohuihuib/Rin/internal/domain"
)

// CreateMoment inserts a new moment row owned by uid and returns it.
func CreateMoment(ctx context.Context, db *gorm.DB, uid uint, content string) (*domain.Moment, error) {
	now := time.Now().UTC()
	m := &domain.Moment{
		Content:   content,
		UID:       uid,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// GetMoment fetches a moment by ID. Returns ErrNotFound when absent.
func GetMoment(ctx context.Context, db *gorm.DB, id uint) (*domain.Moment, error) {
	var m domain.Moment
	if err := db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// UpdateMomentContent replaces the content of an existing moment and bumps
// updated_at. Returns ErrNotFound when the row does not exist.
func UpdateMomentContent(ctx context.Context, db *gorm.DB, id uint, content string) error {
	res := db.WithContext(ctx).
		Model(&domain.Moment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"content":    content,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMoment removes a moment row. Returns ErrNotFound when the row does
// not exist.
func DeleteMoment(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Moment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountMoments uses a raw COUNT so a missing table surfaces as an error.
func CountMoments(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM moments").Scan(&total).Error
	return total, err
}

// ListMomentsPage returns a page of moments ordered newest first
// (CreatedAt DESC, ID DESC as a tiebreaker for equal timestamps).
func ListMomentsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Moment, error) {
	var out []domain.Moment
	err := db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
