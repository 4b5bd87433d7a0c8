package repository

import (
	"context"
	"database/sql"
	"errors"
)

type sqliteKV struct{ db *sql.DB }

// NewSQLiteKV uses the kv_entries table created by infra.NewSQLite.
func NewSQLiteKV(db *sql.DB) KVStore {
	return &sqliteKV{db: db}
}

func (s *sqliteKV) Save(ctx context.Context, key string, value []byte) bool {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		logFailure("sqlite", "save", key, err)
		return false
	}
	return true
}

func (s *sqliteKV) Load(ctx context.Context, key string) ([]byte, bool) {
	var b []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&b)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logFailure("sqlite", "load", key, err)
		}
		return nil, false
	}
	return b, true
}

func (s *sqliteKV) Clear(ctx context.Context, key string) bool {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		logFailure("sqlite", "clear", key, err)
		return false
	}
	return true
}
