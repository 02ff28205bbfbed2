// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the namespaced
// key/value entries stored in the "info" table.
//
// Every function is scoped by a namespace discriminator (the "type" column).
// The composite primary key (type, key) means callers can only ever touch the
// rows of the namespace they name; cross-namespace effects are impossible at
// this layer by construction.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiaohuihuib/Rin/internal/domain"
)

// ErrNotFound is the repo-level sentinel for a missing row. It wraps the
// GORM sentinel so callers can use errors.Is on either.
var ErrNotFound = gorm.ErrRecordNotFound

// GetSetting fetches a single entry from the given namespace.
// Returns ErrNotFound when the key is absent.
func GetSetting(ctx context.Context, db *gorm.DB, namespace, key string) (*domain.Setting, error) {
	var s domain.Setting
	err := db.WithContext(ctx).
		Where("type = ? AND key = ?", namespace, key).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// UpsertSetting inserts or replaces an entry in the given namespace.
func UpsertSetting(ctx context.Context, db *gorm.DB, namespace, key, value string) error {
	s := domain.Setting{
		Type:      namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "type"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&s).Error
}

// ListSettings returns every entry in the given namespace as a key→value map.
func ListSettings(ctx context.Context, db *gorm.DB, namespace string) (map[string]string, error) {
	var rows []domain.Setting
	if err := db.WithContext(ctx).Where("type = ?", namespace).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// DeleteSetting removes a single entry from the given namespace. Deleting an
// absent key is not an error.
func DeleteSetting(ctx context.Context, db *gorm.DB, namespace, key string) error {
	return db.WithContext(ctx).
		Where("type = ? AND key = ?", namespace, key).
		Delete(&domain.Setting{}).Error
}

// likeEscaper neutralizes the LIKE wildcards (% and _) and the escape
// character itself, so prefix matching is purely textual.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// DeleteSettingsByPrefix removes every entry in the namespace whose key
// textually starts with prefix.
func DeleteSettingsByPrefix(ctx context.Context, db *gorm.DB, namespace, prefix string) error {
	return db.WithContext(ctx).
		Where(`type = ? AND key LIKE ? ESCAPE '\'`, namespace, likeEscaper.Replace(prefix)+"%").
		Delete(&domain.Setting{}).Error
}

// ClearNamespace removes every entry belonging to the given namespace and
// only that namespace.
func ClearNamespace(ctx context.Context, db *gorm.DB, namespace string) error {
	return db.WithContext(ctx).
		Where("type = ?", namespace).
		Delete(&domain.Setting{}).Error
}
