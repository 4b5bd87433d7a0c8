package ledger

import (
	"testing"
	"time"

	"github.com/luis-polezi/stock-control/internal/apierror"
	"github.com/luis-polezi/stock-control/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	return func() time.Time { return t }
}

func newTestStore() *Store {
	return New(WithClock(fixedClock()))
}

// ── Register / edit / delete ─────────────────────────────────────────────────

func TestRegisterProduct_CreatesInitialEntry(t *testing.T) {
	s := newTestStore()

	p, err := s.RegisterProduct("Blanket 01", "Grey", 100, "admin")
	require.NoError(t, err)
	assert.Equal(t, 1, p.ID)
	assert.Equal(t, 100, p.Balance)

	logs := s.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, model.MovementEntry, logs[0].Type)
	assert.Equal(t, 100, logs[0].Quantity)
	assert.Equal(t, model.InitialRegistrationFicha, logs[0].Ficha)
	assert.Equal(t, "2024-03-09 14:05:07", logs[0].Date)
	assert.Equal(t, p.ID, logs[0].ProductID)
}

func TestRegisterProduct_Validation(t *testing.T) {
	s := newTestStore()

	_, err := s.RegisterProduct("  ", "Grey", 1, "admin")
	assert.ErrorIs(t, err, apierror.ErrValidation)
	_, err = s.RegisterProduct("Blanket", "", 1, "admin")
	assert.ErrorIs(t, err, apierror.ErrValidation)
	_, err = s.RegisterProduct("Blanket", "Grey", -1, "admin")
	assert.ErrorIs(t, err, apierror.ErrValidation)

	assert.Empty(t, s.Products())
	assert.Empty(t, s.Logs())
}

func TestRegisterProduct_IDsNotReusedAfterDelete(t *testing.T) {
	s := newTestStore()
	_, _ = s.RegisterProduct("A", "x", 1, "admin")
	b, _ := s.RegisterProduct("B", "x", 1, "admin")

	require.NoError(t, s.DeleteProduct(b.ID))
	c, err := s.RegisterProduct("C", "x", 1, "admin")
	require.NoError(t, err)
	assert.Equal(t, 3, c.ID)
}

func TestEditProduct_KeepsBalance(t *testing.T) {
	s := newTestStore()
	p, _ := s.RegisterProduct("Blanket 01", "Grey", 40, "admin")

	edited, err := s.EditProduct(p.ID, "Blanket 02", "Blue")
	require.NoError(t, err)
	assert.Equal(t, "Blanket 02", edited.Name)
	assert.Equal(t, "Blue", edited.Model)
	assert.Equal(t, 40, edited.Balance)
	assert.Len(t, s.Logs(), 1)
}

func TestEditProduct_NotFound(t *testing.T) {
	s := newTestStore()
	_, err := s.EditProduct(42, "a", "b")
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestDeleteProduct_CascadesLogs(t *testing.T) {
	s := newTestStore()
	keep, _ := s.RegisterProduct("Keep", "x", 5, "admin")
	drop, _ := s.RegisterProduct("Drop", "x", 5, "admin")
	_, err := s.ApplyMovement(drop.ID, 3, "F1", "admin")
	require.NoError(t, err)

	require.NoError(t, s.DeleteProduct(drop.ID))

	for _, l := range s.Logs() {
		assert.NotEqual(t, drop.ID, l.ProductID)
	}
	assert.Len(t, s.Logs(), 1)
	assert.Equal(t, keep.ID, s.Logs()[0].ProductID)
	assert.ErrorIs(t, s.DeleteProduct(drop.ID), apierror.ErrNotFound)
}

// ── Movements ────────────────────────────────────────────────────────────────

func TestLedgerScenario(t *testing.T) {
	s := newTestStore()

	p, err := s.RegisterProduct("Blanket 01", "Grey", 100, "admin")
	require.NoError(t, err)

	l, err := s.ApplyMovement(p.ID, -30, "F100", "alice")
	require.NoError(t, err)
	assert.Equal(t, model.MovementExit, l.Type)
	assert.Equal(t, 30, l.Quantity)
	assert.Equal(t, "F100", l.Ficha)
	assert.Equal(t, "alice", l.User)

	got, err := s.Product(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, got.Balance)
	assert.Len(t, s.Logs(), 2)

	require.NoError(t, s.DeleteProduct(p.ID))
	assert.Empty(t, s.Logs())
}

func TestApplyMovement_BalanceFollowsDeltas(t *testing.T) {
	s := newTestStore()
	p, _ := s.RegisterProduct("Blanket 07", "Red", 10, "admin")

	deltas := []int{5, -3, 12, -20, 1}
	want := 10
	for _, d := range deltas {
		_, err := s.ApplyMovement(p.ID, d, "F9", "bob")
		require.NoError(t, err)
		want += d
	}

	got, _ := s.Product(p.ID)
	assert.Equal(t, want, got.Balance)
	assert.Empty(t, s.Audit())
}

func TestApplyMovement_RejectsZeroAndEmptyFicha(t *testing.T) {
	s := newTestStore()
	p, _ := s.RegisterProduct("Blanket 01", "Grey", 10, "admin")

	_, err := s.ApplyMovement(p.ID, 0, "F1", "bob")
	assert.ErrorIs(t, err, apierror.ErrValidation)
	_, err = s.ApplyMovement(p.ID, 4, " ", "bob")
	assert.ErrorIs(t, err, apierror.ErrValidation)
	_, err = s.ApplyMovement(99, 4, "F1", "bob")
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	got, _ := s.Product(p.ID)
	assert.Equal(t, 10, got.Balance)
	assert.Len(t, s.Logs(), 1)
}

func TestApplyMovements_Batch(t *testing.T) {
	s := newTestStore()
	a, _ := s.RegisterProduct("A", "x", 10, "admin")
	b, _ := s.RegisterProduct("B", "x", 10, "admin")
	c, _ := s.RegisterProduct("C", "x", 10, "admin")

	logs, err := s.ApplyMovements(map[int]int{c.ID: -4, a.ID: 6, b.ID: 0}, "F7", "alice")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, a.ID, logs[0].ProductID)
	assert.Equal(t, c.ID, logs[1].ProductID)
	assert.Equal(t, "F7", logs[1].Ficha)

	pa, _ := s.Product(a.ID)
	pc, _ := s.Product(c.ID)
	assert.Equal(t, 16, pa.Balance)
	assert.Equal(t, 6, pc.Balance)
}

func TestApplyMovements_AllOrNothing(t *testing.T) {
	s := newTestStore()
	a, _ := s.RegisterProduct("A", "x", 10, "admin")

	_, err := s.ApplyMovements(map[int]int{a.ID: 5, 77: 1}, "F1", "alice")
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	pa, _ := s.Product(a.ID)
	assert.Equal(t, 10, pa.Balance)
	assert.Len(t, s.Logs(), 1)

	_, err = s.ApplyMovements(map[int]int{a.ID: 0}, "F1", "alice")
	assert.ErrorIs(t, err, apierror.ErrValidation)
}

// ── Bulk replace / snapshot ──────────────────────────────────────────────────

func TestBulkReplace_RoundTrip(t *testing.T) {
	src := newTestStore()
	p, _ := src.RegisterProduct("Blanket 01", "Grey", 100, "admin")
	_, _ = src.RegisterProduct("Blanket 02", "Blue", 3, "admin")
	_, _ = src.ApplyMovement(p.ID, -30, "F100", "alice")
	snap := src.Snapshot()

	dst := newTestStore()
	require.NoError(t, dst.BulkReplace(snap.Products, snap.Logs))
	assert.Equal(t, snap, dst.Snapshot())

	next, err := dst.RegisterProduct("Blanket 03", "Red", 1, "admin")
	require.NoError(t, err)
	assert.Equal(t, 3, next.ID)
	assert.Equal(t, 4, dst.Logs()[len(dst.Logs())-1].ID)
}

func TestBulkReplace_ReportsFirstBadIndex(t *testing.T) {
	s := newTestStore()
	_, _ = s.RegisterProduct("Existing", "x", 1, "admin")

	err := s.BulkReplace([]model.Product{
		{ID: 1, Name: "ok", Model: "x"},
		{ID: 2, Name: "ok", Model: ""},
		{ID: 3, Name: "", Model: "x"},
	}, nil)
	require.ErrorIs(t, err, apierror.ErrValidation)

	var ve *apierror.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, ve.Index)
	assert.Equal(t, "model", ve.Field)

	assert.Len(t, s.Products(), 1)
}

func TestSnapshot_DoesNotAlias(t *testing.T) {
	s := newTestStore()
	_, _ = s.RegisterProduct("Blanket 01", "Grey", 1, "admin")

	snap := s.Snapshot()
	snap.Products[0].Balance = 999
	snap.Logs[0].User = "mallory"

	got, _ := s.Product(1)
	assert.Equal(t, 1, got.Balance)
	assert.Equal(t, "admin", s.Logs()[0].User)
}

func TestSnapshot_EmptyCollectionsAreNotNil(t *testing.T) {
	snap := newTestStore().Snapshot()
	assert.NotNil(t, snap.Products)
	assert.NotNil(t, snap.Logs)
}

// ── Audit ────────────────────────────────────────────────────────────────────

func TestAudit_ReportsDrift(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.BulkReplace(
		[]model.Product{{ID: 1, Name: "A", Model: "x", Balance: 8}, {ID: 2, Name: "B", Model: "x", Balance: 2}},
		[]model.MovementLog{
			{ID: 1, ProductID: 1, Type: model.MovementEntry, Quantity: 10},
			{ID: 2, ProductID: 1, Type: model.MovementExit, Quantity: 2},
			{ID: 3, ProductID: 2, Type: model.MovementEntry, Quantity: 5},
		},
	))

	drift := s.Audit()
	require.Len(t, drift, 1)
	assert.Equal(t, 2, drift[0].Product.ID)
	assert.Equal(t, 5, drift[0].Replayed)
}
