package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/luis-polezi/stock-control/internal/infra"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseKVStore runs the behaviour every backend must share.
func exerciseKVStore(t *testing.T, kv KVStore) {
	t.Helper()
	ctx := context.Background()

	_, ok := kv.Load(ctx, KeyProducts)
	assert.False(t, ok, "missing key must be absent")

	require.True(t, kv.Save(ctx, KeyProducts, []byte(`[{"id":1}]`)))
	got, ok := kv.Load(ctx, KeyProducts)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":1}]`, string(got))

	require.True(t, kv.Save(ctx, KeyProducts, []byte(`[]`)))
	got, ok = kv.Load(ctx, KeyProducts)
	require.True(t, ok)
	assert.Equal(t, `[]`, string(got))

	assert.True(t, kv.Clear(ctx, KeyProducts))
	_, ok = kv.Load(ctx, KeyProducts)
	assert.False(t, ok)
	assert.True(t, kv.Clear(ctx, KeyProducts), "clearing a missing key succeeds")
}

func TestMemoryKV(t *testing.T) {
	exerciseKVStore(t, NewMemoryKV())
}

func TestFileKV(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)
	exerciseKVStore(t, kv)

	require.True(t, kv.Save(context.Background(), KeyLogs, []byte(`[]`)))
	_, err = os.Stat(filepath.Join(dir, KeyLogs+".json"))
	assert.NoError(t, err)
}

func TestFileKV_SaveFailureIsFalse(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	assert.False(t, kv.Save(context.Background(), KeyProducts, []byte(`[]`)))
}

func TestRedisKV(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	kv := NewRedisKV(rdb, "stock:")
	exerciseKVStore(t, kv)

	require.True(t, kv.Save(context.Background(), KeyLogs, []byte(`[]`)))
	assert.True(t, mr.Exists("stock:"+KeyLogs))
}

func TestRedisKV_UnreachableIsAbsent(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })

	kv := NewRedisKV(rdb, "")
	assert.False(t, kv.Save(context.Background(), KeyProducts, []byte(`[]`)))
	_, ok := kv.Load(context.Background(), KeyProducts)
	assert.False(t, ok)
}

func TestSQLiteKV(t *testing.T) {
	db, err := infra.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	exerciseKVStore(t, NewSQLiteKV(db))
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, closeFn, err := Open(StoreOptions{Backend: "floppy"})
	assert.Error(t, err)
	assert.NoError(t, closeFn())
}

func TestOpen_FileBackend(t *testing.T) {
	kv, closeFn, err := Open(StoreOptions{Backend: BackendFile, Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })
	exerciseKVStore(t, kv)
}
