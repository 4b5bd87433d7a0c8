package ledger

import (
	"strings"

	"github.com/luis-polezi/stock-control/internal/model"
)

// LogFilter narrows a log query. Empty fields match everything.
type LogFilter struct {
	DatePrefix string // "YYYY-MM-DD" or any prefix of the date column
	Ficha      string // case-insensitive substring
	Product    string // case-insensitive substring of the product name or model
}

// QueryLogs returns the logs matching f, newest first.
func (s *Store) QueryLogs(f LogFilter) []model.MovementLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ficha := strings.ToLower(strings.TrimSpace(f.Ficha))
	product := strings.ToLower(strings.TrimSpace(f.Product))

	var byID map[int]model.Product
	if product != "" {
		byID = make(map[int]model.Product, len(s.products))
		for _, p := range s.products {
			byID[p.ID] = p
		}
	}

	out := make([]model.MovementLog, 0, len(s.logs))
	for i := len(s.logs) - 1; i >= 0; i-- {
		l := s.logs[i]
		if f.DatePrefix != "" && !strings.HasPrefix(l.Date, f.DatePrefix) {
			continue
		}
		if ficha != "" && !strings.Contains(strings.ToLower(l.Ficha), ficha) {
			continue
		}
		if product != "" {
			p, ok := byID[l.ProductID]
			if !ok || !(strings.Contains(strings.ToLower(p.Name), product) ||
				strings.Contains(strings.ToLower(p.Model), product)) {
				continue
			}
		}
		out = append(out, l)
	}
	return out
}

// Search returns the products whose name or model contains term
// (case-insensitive), ordered by col and dir.
func (s *Store) Search(term string, col Column, dir Direction) []model.Product {
	term = strings.ToLower(strings.TrimSpace(term))

	s.mu.RLock()
	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		if term == "" ||
			strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Model), term) {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	SortProducts(out, col, dir)
	return out
}
