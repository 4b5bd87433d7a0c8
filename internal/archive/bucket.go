package archive

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/luis-polezi/stock-control/internal/apierror"
	"github.com/luis-polezi/stock-control/internal/model"
)

// Bucket is the object storage capability the archive needs.
// infra.S3Bucket implements it for S3-compatible stores (Cloudflare R2, MinIO).
type Bucket interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]model.ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// MemoryBucket keeps objects in process memory. It backs the server when no
// bucket is configured and is used by tests.
type MemoryBucket struct {
	mu      sync.RWMutex
	objects map[string]memObject
	now     func() time.Time
}

type memObject struct {
	body     []byte
	modified time.Time
}

func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{objects: make(map[string]memObject), now: time.Now}
}

func (m *MemoryBucket) Put(_ context.Context, key string, body []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{body: append([]byte(nil), body...), modified: m.now()}
	return nil
}

func (m *MemoryBucket) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, apierror.NotFound("object", key)
	}
	return append([]byte(nil), o.body...), nil
}

// List returns objects in key order, like S3 ListObjectsV2.
func (m *MemoryBucket) List(_ context.Context, prefix string) ([]model.ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.ObjectInfo
	for k, o := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, model.ObjectInfo{Key: k, Size: int64(len(o.body)), LastModified: o.modified})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryBucket) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}
