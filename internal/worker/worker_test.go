package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/luis-polezi/stock-control/internal/archive"
	"github.com/luis-polezi/stock-control/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

type recordingWriter struct {
	mu    sync.Mutex
	files []string
	err   error
}

func (w *recordingWriter) Write(_ context.Context, plan archive.Plan, _ model.BackupDocument) (model.StoredBackup, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return model.StoredBackup{}, w.err
	}
	w.files = append(w.files, plan.FileName)
	return model.StoredBackup{ID: plan.ID, FileName: plan.FileName}, nil
}

func (w *recordingWriter) written() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.files...)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func sampleJob(name string) BackupJob {
	snap := model.Ledger{Products: []model.Product{{ID: 1, Name: "Blanket 01", Model: "Grey", Balance: 5}}}
	return BackupJob{
		Plan:     archive.Plan{ID: "id-" + name, FileName: name},
		Document: archive.NewDocument(snap, "alice", time.Now(), true),
	}
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestDispatcher_EnqueueBackup_PushesEnvelope(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, NewDispatcher(rdb).EnqueueBackup(ctx, sampleJob("b1.json")))

	raw, err := rdb.RPop(ctx, QueueBackup).Result()
	require.NoError(t, err)
	var job Job
	require.NoError(t, json.Unmarshal([]byte(raw), &job))
	assert.Equal(t, jobTypeBackup, job.Type)

	var payload BackupJob
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, "b1.json", payload.Plan.FileName)
	assert.True(t, payload.Document.Automatic)
	assert.Equal(t, 1, payload.Document.Totals.Products)
}

func TestWorkerPool_WritesQueuedBackups(t *testing.T) {
	rdb := newTestRedis(t)
	writer := &recordingWriter{}
	ctx, cancel := context.WithCancel(context.Background())

	wg := StartWorkerPool(ctx, rdb, 2, writer)
	d := NewDispatcher(rdb)
	require.NoError(t, d.EnqueueBackup(ctx, sampleJob("b1.json")))
	require.NoError(t, d.EnqueueBackup(ctx, sampleJob("b2.json")))

	assert.Eventually(t, func() bool { return len(writer.written()) == 2 }, 3*time.Second, 20*time.Millisecond)
	assert.ElementsMatch(t, []string{"b1.json", "b2.json"}, writer.written())

	cancel()
	wg.Wait()
}

func TestProcessJob_FailureGoesToDLQWithoutRetry(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	writer := &recordingWriter{err: errors.New("bucket down")}

	payload, err := json.Marshal(sampleJob("b1.json"))
	require.NoError(t, err)
	raw, err := json.Marshal(Job{Type: jobTypeBackup, Payload: payload})
	require.NoError(t, err)

	processJob(ctx, rdb, writer, QueueBackup, string(raw))

	n, err := DLQLength(ctx, rdb, QueueBackup)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	parked, err := rdb.LIndex(ctx, DLQPrefix+QueueBackup, 0).Result()
	require.NoError(t, err)
	var entry DLQEntry
	require.NoError(t, json.Unmarshal([]byte(parked), &entry))
	assert.Equal(t, "bucket down", entry.Reason)
	assert.Equal(t, 1, entry.Attempts)
	assert.Equal(t, jobTypeBackup, entry.JobType)

	queued, err := rdb.LLen(ctx, QueueBackup).Result()
	require.NoError(t, err)
	assert.Zero(t, queued, "failed job must not be requeued")
}

func TestProcessJob_UnknownTypeDropped(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	processJob(ctx, rdb, &recordingWriter{}, QueueBackup, `{"type":"email","payload":{}}`)
	processJob(ctx, rdb, &recordingWriter{}, QueueBackup, `not json`)

	n, err := DLQLength(ctx, rdb, QueueBackup)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInlineQueue_RunsJobs(t *testing.T) {
	writer := &recordingWriter{}
	q := NewInlineQueue(context.Background(), writer)

	require.NoError(t, q.EnqueueBackup(context.Background(), sampleJob("b1.json")))
	require.NoError(t, q.EnqueueBackup(context.Background(), sampleJob("b2.json")))
	q.Wait()

	assert.Len(t, writer.written(), 2)
}

func TestInlineQueue_FailureIsSwallowed(t *testing.T) {
	q := NewInlineQueue(context.Background(), &recordingWriter{err: errors.New("boom")})
	require.NoError(t, q.EnqueueBackup(context.Background(), sampleJob("b1.json")))
	q.Wait()
}
