package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

type redisKV struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisKV stores each key as a plain Redis string under prefix+key.
func NewRedisKV(rdb *redis.Client, prefix string) KVStore {
	return &redisKV{rdb: rdb, prefix: prefix}
}

func (r *redisKV) Save(ctx context.Context, key string, value []byte) bool {
	if err := r.rdb.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		logFailure("redis", "save", key, err)
		return false
	}
	return true
}

func (r *redisKV) Load(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logFailure("redis", "load", key, err)
		}
		return nil, false
	}
	return b, true
}

func (r *redisKV) Clear(ctx context.Context, key string) bool {
	if err := r.rdb.Del(ctx, r.prefix+key).Err(); err != nil {
		logFailure("redis", "clear", key, err)
		return false
	}
	return true
}
