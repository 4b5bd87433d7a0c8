package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/luis-polezi/stock-control/internal/apierror"
	"github.com/luis-polezi/stock-control/internal/auth"
	"github.com/luis-polezi/stock-control/internal/dto"
	"github.com/luis-polezi/stock-control/internal/exchange"
	"github.com/luis-polezi/stock-control/internal/ledger"
	"github.com/luis-polezi/stock-control/internal/model"
	"github.com/luis-polezi/stock-control/internal/repository"
	"github.com/rs/zerolog/log"
)

// Remote is the server as seen by a client session. *syncclient.Client
// implements it. Every method degrades to false/absent instead of failing.
type Remote interface {
	SyncState(ctx context.Context, l model.Ledger, actor string) bool
	PushBackup(ctx context.Context, l model.Ledger, actor string, automatic bool) (dto.BackupResponse, bool)
	CheckHealth(ctx context.Context) bool
	FetchLatestBackupPointer(ctx context.Context) (model.BackupPointer, bool)
	RestoreFromBackup(ctx context.Context, downloadURL string) (model.Ledger, error)
	ListBackups(ctx context.Context) ([]model.BackupInfo, error)
	DeleteBackup(ctx context.Context, fileName string) error
}

type ExportFormat string

const (
	ExportJSON        ExportFormat = "json"
	ExportProductsCSV ExportFormat = "csv-products"
	ExportLogsCSV     ExportFormat = "csv-logs"
	ExportPDF         ExportFormat = "pdf"
)

// InventoryService is the client session: every user intent passes the access
// gate, mutates the ledger, is persisted locally and is then replicated to
// the server in the background.
//
// A mutation whose local save fails still returns its result together with
// an error wrapping apierror.ErrStorageFailure; the change stays in memory.
type InventoryService interface {
	Login(username, password string) (model.Identity, error)
	Load(ctx context.Context) (bool, error)

	RegisterProduct(ctx context.Context, who model.Identity, name, productModel string, initialBalance int) (model.Product, error)
	EditProduct(ctx context.Context, who model.Identity, id int, name, productModel string) (model.Product, error)
	DeleteProduct(ctx context.Context, who model.Identity, id int) error
	ApplyMovement(ctx context.Context, who model.Identity, productID, delta int, ficha string) (model.MovementLog, error)
	ApplyMovements(ctx context.Context, who model.Identity, deltas map[int]int, ficha string) ([]model.MovementLog, error)

	Products(who model.Identity, term string, col ledger.Column, dir ledger.Direction) ([]model.Product, error)
	Logs(who model.Identity, f ledger.LogFilter) ([]model.MovementLog, error)
	Audit(who model.Identity) ([]ledger.Drift, error)

	Import(ctx context.Context, who model.Identity, fileName string, r io.Reader) (model.Totals, error)
	Export(who model.Identity, format ExportFormat, w io.Writer) error

	Backup(ctx context.Context, who model.Identity) (dto.BackupResponse, error)
	RestoreLatest(ctx context.Context, who model.Identity) (bool, error)
	ListBackups(ctx context.Context, who model.Identity) ([]model.BackupInfo, error)
	DeleteBackup(ctx context.Context, who model.Identity, fileName string) error

	// ClearLocal empties the ledger and its local storage. Nothing is
	// replicated; the server keeps its copy.
	ClearLocal(ctx context.Context, who model.Identity) error

	// Close waits for pending background replication.
	Close()
}

type inventoryService struct {
	store  *ledger.Store
	repo   repository.LedgerRepository
	gate   *auth.Gate
	remote Remote
	now    func() time.Time

	bg       context.Context
	inflight sync.WaitGroup

	// single replication slot: the newest snapshot replaces an unsent one
	mu      sync.Mutex
	pending *push
	pushing bool
}

type push struct {
	snap  model.Ledger
	actor string
}

// NewInventoryService wires a session. remote may be nil for a purely local
// session. bg bounds background replication; cancel it to abandon pushes.
func NewInventoryService(bg context.Context, store *ledger.Store, repo repository.LedgerRepository, gate *auth.Gate, remote Remote) InventoryService {
	return &inventoryService{store: store, repo: repo, gate: gate, remote: remote, now: time.Now, bg: bg}
}

func (s *inventoryService) Login(username, password string) (model.Identity, error) {
	id, err := s.gate.Authenticate(username, password)
	if err != nil {
		log.Warn().Str("username", username).Msg("login denied")
		return model.Identity{}, err
	}
	log.Info().Str("username", id.Username).Str("role", string(id.Role)).Msg("session started")
	return id, nil
}

// Load replaces the in-memory ledger with the locally persisted one.
func (s *inventoryService) Load(ctx context.Context) (bool, error) {
	l, ok := s.repo.Load(ctx)
	if !ok {
		return false, nil
	}
	if err := s.store.BulkReplace(l.Products, l.Logs); err != nil {
		return false, fmt.Errorf("load local state: %w", err)
	}
	for _, d := range s.store.Audit() {
		log.Warn().
			Int("product_id", d.Product.ID).
			Int("balance", d.Product.Balance).
			Int("replayed", d.Replayed).
			Msg("stored balance disagrees with movement history")
	}
	return true, nil
}

func (s *inventoryService) RegisterProduct(ctx context.Context, who model.Identity, name, productModel string, initialBalance int) (model.Product, error) {
	if err := auth.Authorize(who, auth.ActionRegister); err != nil {
		return model.Product{}, err
	}
	p, err := s.store.RegisterProduct(name, productModel, initialBalance, who.Username)
	if err != nil {
		return model.Product{}, err
	}
	return p, s.commit(ctx, who)
}

func (s *inventoryService) EditProduct(ctx context.Context, who model.Identity, id int, name, productModel string) (model.Product, error) {
	if err := auth.Authorize(who, auth.ActionEdit); err != nil {
		return model.Product{}, err
	}
	p, err := s.store.EditProduct(id, name, productModel)
	if err != nil {
		return model.Product{}, err
	}
	return p, s.commit(ctx, who)
}

func (s *inventoryService) DeleteProduct(ctx context.Context, who model.Identity, id int) error {
	if err := auth.Authorize(who, auth.ActionDelete); err != nil {
		return err
	}
	if err := s.store.DeleteProduct(id); err != nil {
		return err
	}
	return s.commit(ctx, who)
}

func (s *inventoryService) ApplyMovement(ctx context.Context, who model.Identity, productID, delta int, ficha string) (model.MovementLog, error) {
	if err := auth.Authorize(who, auth.ActionMove); err != nil {
		return model.MovementLog{}, err
	}
	entry, err := s.store.ApplyMovement(productID, delta, ficha, who.Username)
	if err != nil {
		return model.MovementLog{}, err
	}
	return entry, s.commit(ctx, who)
}

func (s *inventoryService) ApplyMovements(ctx context.Context, who model.Identity, deltas map[int]int, ficha string) ([]model.MovementLog, error) {
	if err := auth.Authorize(who, auth.ActionMove); err != nil {
		return nil, err
	}
	entries, err := s.store.ApplyMovements(deltas, ficha, who.Username)
	if err != nil {
		return nil, err
	}
	return entries, s.commit(ctx, who)
}

func (s *inventoryService) Products(who model.Identity, term string, col ledger.Column, dir ledger.Direction) ([]model.Product, error) {
	if err := auth.Authorize(who, auth.ActionView); err != nil {
		return nil, err
	}
	return s.store.Search(term, col, dir), nil
}

func (s *inventoryService) Logs(who model.Identity, f ledger.LogFilter) ([]model.MovementLog, error) {
	if err := auth.Authorize(who, auth.ActionViewLogs); err != nil {
		return nil, err
	}
	return s.store.QueryLogs(f), nil
}

func (s *inventoryService) Audit(who model.Identity) ([]ledger.Drift, error) {
	if err := auth.Authorize(who, auth.ActionView); err != nil {
		return nil, err
	}
	return s.store.Audit(), nil
}

// Import replaces the whole ledger with the content of a JSON or CSV file.
func (s *inventoryService) Import(ctx context.Context, who model.Identity, fileName string, r io.Reader) (model.Totals, error) {
	if err := auth.Authorize(who, auth.ActionImport); err != nil {
		return model.Totals{}, err
	}
	l, err := exchange.Read(fileName, r)
	if err != nil {
		return model.Totals{}, err
	}
	if err := s.store.BulkReplace(l.Products, l.Logs); err != nil {
		return model.Totals{}, err
	}
	log.Info().Str("file", fileName).Int("products", len(l.Products)).Int("logs", len(l.Logs)).Msg("ledger imported")
	return l.Totals(), s.commit(ctx, who)
}

func (s *inventoryService) Export(who model.Identity, format ExportFormat, w io.Writer) error {
	if err := auth.Authorize(who, auth.ActionExport); err != nil {
		return err
	}
	snap := s.store.Snapshot()
	switch format {
	case ExportJSON:
		return exchange.WriteJSON(w, snap, who.Username, s.now())
	case ExportProductsCSV:
		return exchange.WriteProductsCSV(w, snap.Products)
	case ExportLogsCSV:
		return exchange.WriteLogsCSV(w, snap)
	case ExportPDF:
		products := append([]model.Product(nil), snap.Products...)
		ledger.SortProducts(products, ledger.ColumnName, ledger.Asc)
		return exchange.WritePDF(w, products, who.Username, s.now())
	default:
		return apierror.Invalid("format", fmt.Sprintf("unsupported export format %q", format))
	}
}

// Backup asks the server to archive the current ledger now.
func (s *inventoryService) Backup(ctx context.Context, who model.Identity) (dto.BackupResponse, error) {
	if err := auth.Authorize(who, auth.ActionBackup); err != nil {
		return dto.BackupResponse{}, err
	}
	if s.remote == nil {
		return dto.BackupResponse{}, fmt.Errorf("backup: no server configured: %w", apierror.ErrRemoteUnavailable)
	}
	resp, ok := s.remote.PushBackup(ctx, s.store.Snapshot(), who.Username, false)
	if !ok {
		return dto.BackupResponse{}, fmt.Errorf("backup: %w", apierror.ErrRemoteUnavailable)
	}
	return resp, nil
}

// RestoreLatest replaces the local ledger with the most recent backup when
// the server is healthy and has one. It reports whether a restore happened.
// This is destructive: nothing is merged.
func (s *inventoryService) RestoreLatest(ctx context.Context, who model.Identity) (bool, error) {
	if err := auth.Authorize(who, auth.ActionRestoreLogin); err != nil {
		return false, err
	}
	if s.remote == nil || !s.remote.CheckHealth(ctx) {
		return false, nil
	}
	ptr, ok := s.remote.FetchLatestBackupPointer(ctx)
	if !ok {
		return false, nil
	}
	l, err := s.remote.RestoreFromBackup(ctx, ptr.DownloadURL)
	if err != nil {
		return false, err
	}
	if err := s.store.BulkReplace(l.Products, l.Logs); err != nil {
		return false, err
	}
	log.Info().Str("file", ptr.FileName).Int("products", len(l.Products)).Msg("ledger restored from backup")
	if err := s.repo.Save(ctx, s.store.Snapshot()); err != nil {
		log.Error().Err(err).Msg("restored ledger not persisted locally")
		return true, err
	}
	return true, nil
}

func (s *inventoryService) ListBackups(ctx context.Context, who model.Identity) ([]model.BackupInfo, error) {
	if err := auth.Authorize(who, auth.ActionView); err != nil {
		return nil, err
	}
	if s.remote == nil {
		return nil, fmt.Errorf("list backups: no server configured: %w", apierror.ErrRemoteUnavailable)
	}
	return s.remote.ListBackups(ctx)
}

func (s *inventoryService) DeleteBackup(ctx context.Context, who model.Identity, fileName string) error {
	if err := auth.Authorize(who, auth.ActionDeleteBackup); err != nil {
		return err
	}
	if s.remote == nil {
		return fmt.Errorf("delete backup: no server configured: %w", apierror.ErrRemoteUnavailable)
	}
	if err := s.remote.DeleteBackup(ctx, fileName); err != nil {
		return err
	}
	log.Info().Str("file", fileName).Str("actor", who.Username).Msg("backup deleted")
	return nil
}

func (s *inventoryService) ClearLocal(ctx context.Context, who model.Identity) error {
	if err := auth.Authorize(who, auth.ActionClearLocal); err != nil {
		return err
	}
	if err := s.store.BulkReplace(nil, nil); err != nil {
		return err
	}
	log.Info().Str("actor", who.Username).Msg("local ledger cleared")
	return s.repo.Clear(ctx)
}

func (s *inventoryService) Close() {
	s.inflight.Wait()
}

// commit persists the ledger and then replicates it in the background.
// Replication runs even when the local save fails.
func (s *inventoryService) commit(ctx context.Context, who model.Identity) error {
	snap := s.store.Snapshot()
	err := s.repo.Save(ctx, snap)
	if err != nil {
		log.Error().Err(err).Msg("local save failed")
	}
	s.replicate(snap, who)
	return err
}

func (s *inventoryService) replicate(snap model.Ledger, who model.Identity) {
	if s.remote == nil {
		return
	}
	if err := auth.Authorize(who, auth.ActionSync); err != nil {
		log.Warn().Err(err).Msg("replication skipped")
		return
	}
	s.mu.Lock()
	s.pending = &push{snap: snap, actor: who.Username}
	if s.pushing {
		s.mu.Unlock()
		return
	}
	s.pushing = true
	s.inflight.Add(1)
	s.mu.Unlock()
	go s.drain()
}

// drain sends pending snapshots one at a time until the slot is empty, so
// the server never receives an older ledger after a newer one.
func (s *inventoryService) drain() {
	defer s.inflight.Done()
	for {
		s.mu.Lock()
		p := s.pending
		s.pending = nil
		if p == nil {
			s.pushing = false
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		if s.remote.SyncState(s.bg, p.snap, p.actor) {
			s.remote.PushBackup(s.bg, p.snap, p.actor, true)
		}
	}
}
