package repository

import (
	"context"
	"errors"

	"github.com/luis-polezi/stock-control/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type postgresKV struct{ db *gorm.DB }

// NewPostgresKV stores blobs as rows of kv_entries (see infra.RunMigrations).
func NewPostgresKV(db *gorm.DB) KVStore {
	return &postgresKV{db: db}
}

func (p *postgresKV) Save(ctx context.Context, key string, value []byte) bool {
	entry := model.StateEntry{Key: key, Value: value}
	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		logFailure("postgres", "save", key, err)
		return false
	}
	return true
}

func (p *postgresKV) Load(ctx context.Context, key string) ([]byte, bool) {
	var entry model.StateEntry
	err := p.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logFailure("postgres", "load", key, err)
		}
		return nil, false
	}
	return entry.Value, true
}

func (p *postgresKV) Clear(ctx context.Context, key string) bool {
	if err := p.db.WithContext(ctx).Where("key = ?", key).Delete(&model.StateEntry{}).Error; err != nil {
		logFailure("postgres", "clear", key, err)
		return false
	}
	return true
}
