package ledger

import "github.com/luis-polezi/stock-control/internal/model"

// Drift is a product whose stored balance disagrees with its replayed logs.
type Drift struct {
	Product  model.Product `json:"product"`
	Replayed int           `json:"replayed"`
}

// Audit replays every product's logs in creation order and reports the
// products whose stored balance differs from the replayed sum. Balances are
// kept as stored; the audit only makes drift visible.
func (s *Store) Audit() []Drift {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sums := make(map[int]int, len(s.products))
	for _, l := range s.logs {
		sums[l.ProductID] += l.Delta()
	}

	var out []Drift
	for _, p := range s.products {
		if sums[p.ID] != p.Balance {
			out = append(out, Drift{Product: p, Replayed: sums[p.ID]})
		}
	}
	return out
}
