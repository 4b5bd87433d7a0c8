package ledger

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/luis-polezi/stock-control/internal/apierror"
	"github.com/luis-polezi/stock-control/internal/model"
)

// Column is a sortable product column.
type Column string

const (
	ColumnID      Column = "id"
	ColumnName    Column = "name"
	ColumnModel   Column = "model"
	ColumnBalance Column = "balance"
)

// Direction: "asc" | "desc"
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseColumn validates a column name coming from a caller.
func ParseColumn(s string) (Column, error) {
	switch c := Column(strings.ToLower(strings.TrimSpace(s))); c {
	case ColumnID, ColumnName, ColumnModel, ColumnBalance:
		return c, nil
	}
	return "", apierror.Invalid("column", "must be one of id, name, model, balance")
}

var digitRun = regexp.MustCompile(`\d+`)

// NameNumber extracts the first run of digits in a product name, so that
// "Blanket 2" orders before "Blanket 10". Names without digits yield 0.
func NameNumber(name string) int {
	m := digitRun.FindString(name)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// SortProducts orders products in place. The name column sorts by the number
// embedded in the name and then by the case-insensitive name; the other
// columns sort by their own value. The sort is stable, so equal keys keep
// their relative order and sorting twice is a no-op.
func SortProducts(products []model.Product, col Column, dir Direction) {
	compare := func(a, b model.Product) int {
		switch col {
		case ColumnID:
			return cmpInt(a.ID, b.ID)
		case ColumnModel:
			return strings.Compare(a.Model, b.Model)
		case ColumnBalance:
			return cmpInt(a.Balance, b.Balance)
		default:
			if c := cmpInt(NameNumber(a.Name), NameNumber(b.Name)); c != 0 {
				return c
			}
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	}
	sort.SliceStable(products, func(i, j int) bool {
		c := compare(products[i], products[j])
		if dir == Desc {
			return c > 0
		}
		return c < 0
	})
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Sorter remembers the active column and direction of a product table.
// Requesting the active column again flips the direction; a new column
// starts ascending.
type Sorter struct {
	Column    Column
	Direction Direction
}

// NewSorter starts on the name column, ascending.
func NewSorter() *Sorter {
	return &Sorter{Column: ColumnName, Direction: Asc}
}

// Toggle records a sort request on col and returns the resulting state.
func (s *Sorter) Toggle(col Column) (Column, Direction) {
	if s.Column == col {
		if s.Direction == Asc {
			s.Direction = Desc
		} else {
			s.Direction = Asc
		}
	} else {
		s.Column = col
		s.Direction = Asc
	}
	return s.Column, s.Direction
}

// Apply sorts products with the current state.
func (s *Sorter) Apply(products []model.Product) {
	SortProducts(products, s.Column, s.Direction)
}
