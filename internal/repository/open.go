package repository

import (
	"fmt"

	"github.com/luis-polezi/stock-control/internal/infra"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// StoreOptions selects and configures a KVStore backend.
type StoreOptions struct {
	Backend     string
	Dir         string
	RedisURL    string
	RedisPrefix string
	SQLitePath  string
	DatabaseURL string
}

// Open builds the configured backend. The returned close func releases the
// underlying connection and is never nil.
func Open(opts StoreOptions) (KVStore, func() error, error) {
	noop := func() error { return nil }
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryKV(), noop, nil
	case BackendFile, "":
		kv, err := NewFileKV(opts.Dir)
		if err != nil {
			return nil, noop, fmt.Errorf("file state dir: %w", err)
		}
		return kv, noop, nil
	case BackendRedis:
		rdb, err := infra.NewRedis(opts.RedisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("redis state store: %w", err)
		}
		return NewRedisKV(rdb, opts.RedisPrefix), rdb.Close, nil
	case BackendSQLite:
		db, err := infra.NewSQLite(opts.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("sqlite state store: %w", err)
		}
		return NewSQLiteKV(db), db.Close, nil
	case BackendPostgres:
		db, err := infra.NewDatabase(opts.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("postgres state store: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, noop, err
		}
		return NewPostgresKV(db), sqlDB.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown state backend %q", opts.Backend)
}
