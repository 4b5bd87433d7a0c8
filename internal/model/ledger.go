package model

// Ledger is the full inventory state: products plus their movement logs.
// It is the unit shipped by sync, backup, export and import.
type Ledger struct {
	Products []Product     `json:"products"`
	Logs     []MovementLog `json:"logs"`
}

// Totals summarizes a ledger for backup and export documents.
type Totals struct {
	Products int `json:"products"`
	Logs     int `json:"logs"`
}

func (l Ledger) Totals() Totals {
	return Totals{Products: len(l.Products), Logs: len(l.Logs)}
}
