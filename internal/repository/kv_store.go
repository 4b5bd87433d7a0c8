package repository

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// KVStore is the local persistence contract: opaque blobs under fixed keys.
// Implementations never return errors past this boundary; failures are logged
// and reported as false (Save, Clear) or absent (Load).
type KVStore interface {
	Save(ctx context.Context, key string, value []byte) bool
	Load(ctx context.Context, key string) ([]byte, bool)
	Clear(ctx context.Context, key string) bool
}

func logFailure(backend, op, key string, err error) {
	log.Warn().Err(err).Str("backend", backend).Str("op", op).Str("key", key).Msg("state store failure")
}

// ── memory ───────────────────────────────────────────────────────────────────

type memoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV returns a process-local store. State is lost on exit.
func NewMemoryKV() KVStore {
	return &memoryKV{data: make(map[string][]byte)}
}

func (m *memoryKV) Save(_ context.Context, key string, value []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return true
}

func (m *memoryKV) Load(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

func (m *memoryKV) Clear(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return true
}
