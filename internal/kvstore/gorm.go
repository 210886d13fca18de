package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists keys as rows of kv_entries, scoped by namespace
type GormStore struct {
	db        *gorm.DB
	namespace string
}

func NewGormStore(db *gorm.DB, namespace string) *GormStore {
	return &GormStore{db: db, namespace: namespace}
}

func (g *GormStore) Get(ctx context.Context, key string) (string, error) {
	var entry model.KVEntry
	err := g.db.WithContext(ctx).
		Where("namespace = ? AND entry_key = ?", g.namespace, key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("kv get failed: %w", err)
	}
	return entry.Value, nil
}

func (g *GormStore) Set(ctx context.Context, key, value string) error {
	entry := model.KVEntry{
		Namespace: g.namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("kv set failed: %w", err)
	}
	return nil
}

func (g *GormStore) Remove(ctx context.Context, key string) error {
	err := g.db.WithContext(ctx).
		Where("namespace = ? AND entry_key = ?", g.namespace, key).
		Delete(&model.KVEntry{}).Error
	if err != nil {
		return fmt.Errorf("kv delete failed: %w", err)
	}
	return nil
}

func (g *GormStore) Clear(ctx context.Context) error {
	err := g.db.WithContext(ctx).
		Where("namespace = ?", g.namespace).
		Delete(&model.KVEntry{}).Error
	if err != nil {
		return fmt.Errorf("kv clear failed: %w", err)
	}
	return nil
}
