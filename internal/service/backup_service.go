package service

import (
	"context"
	"fmt"
	"time"

	"github.com/luis-polezi/stock-control/internal/apierror"
	"github.com/luis-polezi/stock-control/internal/archive"
	"github.com/luis-polezi/stock-control/internal/dto"
	"github.com/luis-polezi/stock-control/internal/metrics"
	"github.com/luis-polezi/stock-control/internal/model"
	"github.com/luis-polezi/stock-control/internal/worker"
	"github.com/rs/zerolog/log"
)

// BackupQueue accepts automatic backups for background processing.
// *worker.Dispatcher and *worker.InlineQueue implement it.
type BackupQueue interface {
	EnqueueBackup(ctx context.Context, job worker.BackupJob) error
}

type BackupService interface {
	// Store archives a pushed ledger. Automatic backups are only queued when
	// a queue is configured; queued reports whether that happened.
	Store(ctx context.Context, req dto.BackupRequest) (resp *dto.BackupResponse, queued bool, err error)
	List(ctx context.Context) []model.BackupInfo
	Latest(ctx context.Context) dto.LatestBackupResponse
	Delete(ctx context.Context, fileName string) error
	Open(ctx context.Context, fileName string) ([]byte, error)
}

type backupService struct {
	archive *archive.Service
	queue   BackupQueue
	now     func() time.Time
}

// NewBackupService builds the service. queue may be nil, in which case
// automatic backups are written synchronously like manual ones.
func NewBackupService(a *archive.Service, queue BackupQueue) BackupService {
	return &backupService{archive: a, queue: queue, now: time.Now}
}

func (s *backupService) Store(ctx context.Context, req dto.BackupRequest) (*dto.BackupResponse, bool, error) {
	ts := s.now()
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			return nil, false, apierror.Invalid("timestamp", "must be an RFC 3339 date-time")
		}
		ts = parsed
	}

	snap := snapshotOf(req.Products, req.Logs)
	plan := s.archive.Plan()
	doc := archive.NewDocument(snap, req.User, ts, req.Automatic)

	if req.Automatic && s.queue != nil {
		if err := s.queue.EnqueueBackup(ctx, worker.BackupJob{Plan: plan, Document: doc}); err != nil {
			metrics.BackupsFailedTotal.WithLabelValues("automatic").Inc()
			return nil, false, fmt.Errorf("queue backup: %w", err)
		}
		return s.response(plan, doc, "Backup scheduled"), true, nil
	}

	mode := "manual"
	if req.Automatic {
		mode = "automatic"
	}
	start := time.Now()
	stored, err := s.archive.Write(ctx, plan, doc)
	metrics.ObserveDuration(metrics.BackupDuration, start, mode)
	if err != nil {
		metrics.BackupsFailedTotal.WithLabelValues(mode).Inc()
		return nil, false, err
	}
	metrics.BackupsStoredTotal.WithLabelValues(mode).Inc()

	resp := s.response(plan, doc, "Backup created successfully")
	resp.DownloadURL = stored.DownloadURL
	return resp, false, nil
}

func (s *backupService) response(plan archive.Plan, doc model.BackupDocument, msg string) *dto.BackupResponse {
	return &dto.BackupResponse{
		Success:     true,
		Message:     msg,
		BackupID:    plan.ID,
		DownloadURL: plan.DownloadURL,
		Timestamp:   plan.At.UTC().Format(dto.TimestampLayout),
		Details: dto.BackupDetails{
			Products: doc.Totals.Products,
			Logs:     doc.Totals.Logs,
			FileName: plan.FileName,
		},
	}
}

func (s *backupService) List(ctx context.Context) []model.BackupInfo {
	return s.archive.List(ctx)
}

func (s *backupService) Latest(ctx context.Context) dto.LatestBackupResponse {
	ptr, ok := s.archive.Latest(ctx)
	if !ok {
		return dto.LatestBackupResponse{Success: true, HasBackup: false}
	}
	return dto.LatestBackupResponse{Success: true, HasBackup: true, Backup: &ptr}
}

func (s *backupService) Delete(ctx context.Context, fileName string) error {
	if err := s.archive.Delete(ctx, fileName); err != nil {
		log.Warn().Err(err).Str("file", fileName).Msg("backup delete failed")
		return err
	}
	return nil
}

func (s *backupService) Open(ctx context.Context, fileName string) ([]byte, error) {
	return s.archive.Open(ctx, fileName)
}

func snapshotOf(products []model.Product, logs []model.MovementLog) model.Ledger {
	if products == nil {
		products = []model.Product{}
	}
	if logs == nil {
		logs = []model.MovementLog{}
	}
	return model.Ledger{Products: products, Logs: logs}
}
