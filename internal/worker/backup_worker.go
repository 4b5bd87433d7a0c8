package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/luis-polezi/stock-control/internal/archive"
	"github.com/luis-polezi/stock-control/internal/metrics"
	"github.com/luis-polezi/stock-control/internal/model"
	"github.com/rs/zerolog/log"
)

const jobTypeBackup = "backup"

// BackupJob is an automatic backup whose name was reserved when it was accepted.
type BackupJob struct {
	Plan     archive.Plan         `json:"plan"`
	Document model.BackupDocument `json:"document"`
}

// BackupWriter stores a planned backup. *archive.Service implements it.
type BackupWriter interface {
	Write(ctx context.Context, plan archive.Plan, doc model.BackupDocument) (model.StoredBackup, error)
}

func handleBackup(ctx context.Context, writer BackupWriter, payload json.RawMessage) error {
	var job BackupJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("decode backup job: %w", err)
	}
	return runBackup(ctx, writer, job)
}

func runBackup(ctx context.Context, writer BackupWriter, job BackupJob) error {
	start := time.Now()
	defer metrics.ObserveDuration(metrics.BackupDuration, start, "automatic")

	if _, err := writer.Write(ctx, job.Plan, job.Document); err != nil {
		metrics.BackupsFailedTotal.WithLabelValues("automatic").Inc()
		log.Warn().Err(err).Str("file", job.Plan.FileName).Msg("automatic backup failed")
		return err
	}
	metrics.BackupsStoredTotal.WithLabelValues("automatic").Inc()
	return nil
}

// InlineQueue runs automatic backups on goroutines in this process. It is
// used when no Redis is configured; failures are only logged.
type InlineQueue struct {
	writer BackupWriter
	wg     sync.WaitGroup
	ctx    context.Context
}

// NewInlineQueue ties every job to ctx; cancel it to abandon pending writes.
func NewInlineQueue(ctx context.Context, writer BackupWriter) *InlineQueue {
	return &InlineQueue{writer: writer, ctx: ctx}
}

func (q *InlineQueue) EnqueueBackup(_ context.Context, job BackupJob) error {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		_ = runBackup(q.ctx, q.writer, job)
	}()
	return nil
}

// Wait blocks until every accepted job has finished.
func (q *InlineQueue) Wait() { q.wg.Wait() }
