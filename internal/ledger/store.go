// Package ledger owns the in-memory inventory: products and their append-only
// movement logs. It performs no I/O; persistence and replication are layered
// on top by the service package.
package ledger

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/luis-polezi/stock-control/internal/apierror"
	"github.com/luis-polezi/stock-control/internal/model"
)

// Store is the Ledger Store. The zero value is not usable; call New.
//
// Product and log ids come from per-collection high-water marks: a new id is
// one past the largest id ever seen, so deleting the newest product never
// frees its id for reuse. BulkReplace resets both marks to the imported data.
type Store struct {
	mu       sync.RWMutex
	products []model.Product
	logs     []model.MovementLog

	lastProductID int
	lastLogID     int

	now func() time.Time
}

type Option func(*Store)

// WithClock overrides the wall clock used to stamp movement logs.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterProduct creates a product and its synthetic initial entry log.
func (s *Store) RegisterProduct(name, productModel string, initialBalance int, actor string) (model.Product, error) {
	name = strings.TrimSpace(name)
	productModel = strings.TrimSpace(productModel)
	if name == "" {
		return model.Product{}, apierror.Invalid("name", "is required")
	}
	if productModel == "" {
		return model.Product{}, apierror.Invalid("model", "is required")
	}
	if initialBalance < 0 {
		return model.Product{}, apierror.Invalid("initialBalance", "must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastProductID++
	p := model.Product{ID: s.lastProductID, Name: name, Model: productModel, Balance: initialBalance}
	s.products = append(s.products, p)
	s.appendLog(p.ID, initialBalance, model.MovementEntry, model.InitialRegistrationFicha, actor)
	return p, nil
}

// EditProduct renames a product. The balance is never touched by an edit.
func (s *Store) EditProduct(id int, name, productModel string) (model.Product, error) {
	name = strings.TrimSpace(name)
	productModel = strings.TrimSpace(productModel)
	if name == "" {
		return model.Product{}, apierror.Invalid("name", "is required")
	}
	if productModel == "" {
		return model.Product{}, apierror.Invalid("model", "is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Product{}, apierror.NotFound("product", id)
	}
	s.products[i].Name = name
	s.products[i].Model = productModel
	return s.products[i], nil
}

// DeleteProduct removes a product and every log that references it.
func (s *Store) DeleteProduct(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return apierror.NotFound("product", id)
	}
	s.products = append(s.products[:i], s.products[i+1:]...)

	kept := s.logs[:0]
	for _, l := range s.logs {
		if l.ProductID != id {
			kept = append(kept, l)
		}
	}
	// clear the tail so removed logs are not retained by the backing array
	for j := len(kept); j < len(s.logs); j++ {
		s.logs[j] = model.MovementLog{}
	}
	s.logs = kept
	return nil
}

// ApplyMovement adds signedDelta to the product balance and records the log.
func (s *Store) ApplyMovement(productID, signedDelta int, ficha, actor string) (model.MovementLog, error) {
	ficha = strings.TrimSpace(ficha)
	if ficha == "" {
		return model.MovementLog{}, apierror.Invalid("ficha", "is required")
	}
	if signedDelta == 0 {
		return model.MovementLog{}, apierror.Invalid("quantity", "must not be zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return model.MovementLog{}, apierror.NotFound("product", productID)
	}
	return s.move(i, signedDelta, ficha, actor), nil
}

// ApplyMovements commits several pending counters under a single ficha.
// Zero deltas are skipped. Every product is checked before any balance
// changes, so the batch either applies fully or not at all. Logs are
// appended in ascending product id order.
func (s *Store) ApplyMovements(deltas map[int]int, ficha, actor string) ([]model.MovementLog, error) {
	ficha = strings.TrimSpace(ficha)
	if ficha == "" {
		return nil, apierror.Invalid("ficha", "is required")
	}

	ids := make([]int, 0, len(deltas))
	for id, d := range deltas {
		if d != 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, apierror.Invalid("quantity", "no movement to apply")
	}
	sort.Ints(ids)

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := make([]int, len(ids))
	for n, id := range ids {
		i := s.indexOf(id)
		if i < 0 {
			return nil, apierror.NotFound("product", id)
		}
		idx[n] = i
	}

	out := make([]model.MovementLog, 0, len(ids))
	for n, id := range ids {
		out = append(out, s.move(idx[n], deltas[id], ficha, actor))
	}
	return out, nil
}

// BulkReplace swaps both collections wholesale. It is used by import and
// restore; ids are taken as given, so the caller supplies consistent data.
func (s *Store) BulkReplace(products []model.Product, logs []model.MovementLog) error {
	for i, p := range products {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("bulk replace: %w", apierror.InvalidItem(i, "name", "is required"))
		}
		if strings.TrimSpace(p.Model) == "" {
			return fmt.Errorf("bulk replace: %w", apierror.InvalidItem(i, "model", "is required"))
		}
	}

	ps := append([]model.Product(nil), products...)
	ls := append([]model.MovementLog(nil), logs...)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = ps
	s.logs = ls
	s.lastProductID = 0
	for _, p := range ps {
		s.lastProductID = max(s.lastProductID, p.ID)
	}
	s.lastLogID = 0
	for _, l := range ls {
		s.lastLogID = max(s.lastLogID, l.ID)
	}
	return nil
}

// Snapshot returns a deep copy of the ledger.
func (s *Store) Snapshot() model.Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.Ledger{
		Products: append([]model.Product{}, s.products...),
		Logs:     append([]model.MovementLog{}, s.logs...),
	}
}

// Products returns a copy of the products in insertion order.
func (s *Store) Products() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Product{}, s.products...)
}

// Logs returns a copy of the logs in insertion order.
func (s *Store) Logs() []model.MovementLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.MovementLog{}, s.logs...)
}

func (s *Store) Product(id int) (model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return model.Product{}, apierror.NotFound("product", id)
	}
	return s.products[i], nil
}

// ── internal helpers (caller holds s.mu) ─────────────────────────────────────

func (s *Store) indexOf(id int) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) move(i, delta int, ficha, actor string) model.MovementLog {
	typ := model.MovementEntry
	qty := delta
	if delta < 0 {
		typ = model.MovementExit
		qty = -delta
	}
	s.products[i].Balance += delta
	return s.appendLog(s.products[i].ID, qty, typ, ficha, actor)
}

func (s *Store) appendLog(productID, qty int, typ model.MovementType, ficha, actor string) model.MovementLog {
	s.lastLogID++
	l := model.MovementLog{
		ID:        s.lastLogID,
		ProductID: productID,
		Type:      typ,
		Quantity:  qty,
		Date:      s.now().Format(model.DateLayout),
		User:      actor,
		Ficha:     ficha,
	}
	s.logs = append(s.logs, l)
	return l
}
