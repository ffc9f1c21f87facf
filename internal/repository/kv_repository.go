package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"field-agent/internal/model"
	"field-agent/internal/storage"
)

// KVRepository persists session values in SQLite. It implements storage.Provider.
type KVRepository struct {
	db *gorm.DB
}

func NewKVRepository(db *gorm.DB) *KVRepository {
	return &KVRepository{db: db}
}

func (r *KVRepository) For(namespace string) storage.Store {
	return &kvStore{db: r.db, namespace: namespace}
}

type kvStore struct {
	db        *gorm.DB
	namespace string
}

func (s *kvStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry model.KVEntry
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND `key` = ?", s.namespace, key).
		First(&entry).Error
	switch {
	case err == nil:
		return entry.Value, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", false, nil
	default:
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
}

func (s *kvStore) Set(ctx context.Context, key, value string) error {
	entry := model.KVEntry{
		Namespace: s.namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *kvStore) Remove(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND `key` = ?", s.namespace, key).
		Delete(&model.KVEntry{}).Error
	if err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
