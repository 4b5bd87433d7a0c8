package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/luis-polezi/stock-control/internal/dto"
	"github.com/luis-polezi/stock-control/internal/exchange"
	"github.com/luis-polezi/stock-control/internal/ledger"
	"github.com/luis-polezi/stock-control/internal/metrics"
	"github.com/luis-polezi/stock-control/internal/repository"
	"github.com/rs/zerolog/log"
)

// SyncService holds the server copy of the ledger. Every push replaces it
// wholesale; the last writer wins.
type SyncService interface {
	Sync(ctx context.Context, req dto.SyncRequest) (*dto.SyncResponse, error)
	Data(ctx context.Context) dto.DataResponse
	BalanceReport(ctx context.Context, w io.Writer, requestedBy string) error
}

type syncService struct {
	store *ledger.Store
	repo  repository.LedgerRepository

	writeMu    sync.Mutex // serializes pushes
	mu         sync.RWMutex
	lastUpdate time.Time
	now        func() time.Time
}

// NewSyncService restores the last persisted server ledger, if any.
func NewSyncService(ctx context.Context, repo repository.LedgerRepository) SyncService {
	s := &syncService{store: ledger.New(), repo: repo, now: time.Now}
	if l, ok := repo.Load(ctx); ok {
		if err := s.store.BulkReplace(l.Products, l.Logs); err != nil {
			log.Warn().Err(err).Msg("persisted server ledger ignored")
		} else {
			s.lastUpdate = s.now()
			log.Info().Int("products", len(l.Products)).Int("logs", len(l.Logs)).Msg("server ledger loaded")
		}
	}
	metrics.LedgerProducts.Set(float64(len(s.store.Products())))
	return s
}

func (s *syncService) Sync(ctx context.Context, req dto.SyncRequest) (*dto.SyncResponse, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// The pushed ledger is validated and persisted before it becomes visible.
	staged := ledger.New()
	if err := staged.BulkReplace(req.Products, req.Logs); err != nil {
		metrics.SyncRequestsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	snap := staged.Snapshot()
	if err := s.repo.Save(ctx, snap); err != nil {
		metrics.SyncRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("sync: %w", err)
	}
	if err := s.store.BulkReplace(snap.Products, snap.Logs); err != nil {
		return nil, err
	}

	at := s.now()
	s.mu.Lock()
	s.lastUpdate = at
	s.mu.Unlock()

	metrics.SyncRequestsTotal.WithLabelValues("ok").Inc()
	metrics.LedgerProducts.Set(float64(len(req.Products)))
	log.Info().
		Str("user", req.User).
		Int("products", len(req.Products)).
		Int("logs", len(req.Logs)).
		Msg("ledger synced")

	return &dto.SyncResponse{
		Success:   true,
		Message:   "Data synchronized successfully",
		Timestamp: at.UTC().Format(dto.TimestampLayout),
	}, nil
}

func (s *syncService) Data(_ context.Context) dto.DataResponse {
	snap := s.store.Snapshot()
	s.mu.RLock()
	last := s.lastUpdate
	s.mu.RUnlock()

	resp := dto.DataResponse{Products: snap.Products, Logs: snap.Logs}
	if !last.IsZero() {
		resp.LastUpdate = last.UTC().Format(dto.TimestampLayout)
	}
	return resp
}

// BalanceReport renders the current server balances as a PDF.
func (s *syncService) BalanceReport(_ context.Context, w io.Writer, requestedBy string) error {
	products := s.store.Products()
	ledger.SortProducts(products, ledger.ColumnName, ledger.Asc)
	return exchange.WritePDF(w, products, requestedBy, s.now())
}
