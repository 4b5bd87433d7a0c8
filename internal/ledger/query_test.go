package ledger

import (
	"testing"
	"time"

	"github.com/luis-polezi/stock-control/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	day := time.Date(2024, 3, 9, 10, 0, 0, 0, time.Local)
	s := New(WithClock(func() time.Time { return day }))

	grey, err := s.RegisterProduct("Blanket 01", "Grey", 100, "admin")
	require.NoError(t, err)
	blue, err := s.RegisterProduct("Pillow", "Blue", 10, "admin")
	require.NoError(t, err)

	day = day.AddDate(0, 0, 1)
	_, err = s.ApplyMovement(grey.ID, -30, "F100", "alice")
	require.NoError(t, err)
	_, err = s.ApplyMovement(blue.ID, 4, "f200", "bob")
	require.NoError(t, err)
	return s
}

func TestQueryLogs_NewestFirst(t *testing.T) {
	s := seededStore(t)

	logs := s.QueryLogs(LogFilter{})
	require.Len(t, logs, 4)
	assert.Equal(t, 4, logs[0].ID)
	assert.Equal(t, 1, logs[3].ID)
}

func TestQueryLogs_Filters(t *testing.T) {
	s := seededStore(t)

	byDate := s.QueryLogs(LogFilter{DatePrefix: "2024-03-10"})
	assert.Len(t, byDate, 2)

	byFicha := s.QueryLogs(LogFilter{Ficha: "F"})
	assert.Len(t, byFicha, 2)

	byProduct := s.QueryLogs(LogFilter{Product: "grey"})
	require.Len(t, byProduct, 2)
	for _, l := range byProduct {
		assert.Equal(t, 1, l.ProductID)
	}

	combined := s.QueryLogs(LogFilter{DatePrefix: "2024-03-10", Product: "blue"})
	require.Len(t, combined, 1)
	assert.Equal(t, model.MovementEntry, combined[0].Type)
	assert.Equal(t, "bob", combined[0].User)
}

func TestSearch(t *testing.T) {
	s := seededStore(t)

	assert.Len(t, s.Search("", ColumnName, Asc), 2)

	got := s.Search("BLUE", ColumnName, Asc)
	require.Len(t, got, 1)
	assert.Equal(t, "Pillow", got[0].Name)

	ordered := s.Search("", ColumnBalance, Desc)
	assert.Equal(t, 70, ordered[0].Balance)
}
