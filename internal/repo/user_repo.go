// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiaohuihuib/Rin/internal/domain"
)

// GetUser fetches a user by primary key. Returns ErrNotFound when absent.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetUserByOpenID fetches a user by external identity. Returns ErrNotFound
// when absent.
func GetUserByOpenID(ctx context.Context, db *gorm.DB, openid string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("open_id = ?", openid).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CountUsers returns the total number of user rows.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error
	return total, err
}

// CreateUser inserts a user row. Used by the boot-time admin seed; normal
// account creation happens out-of-band.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return db.WithContext(ctx).Create(u).Error
}
