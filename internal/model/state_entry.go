package model

import "time"

// StateEntry is one opaque blob of the local persisted state, keyed by a fixed
// string such as "estoque_produtos". Used by the SQL-backed stores.
type StateEntry struct {
	Key       string    `gorm:"primaryKey;size:128" json:"key"`
	Value     []byte    `gorm:"not null" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (StateEntry) TableName() string { return "kv_entries" }
