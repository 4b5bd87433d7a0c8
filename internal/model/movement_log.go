package model

import (
	"encoding/json"
	"fmt"
)

// DateLayout is the wall-clock layout used for MovementLog.Date.
const DateLayout = "2006-01-02 15:04:05"

// InitialRegistrationFicha marks the synthetic entry created together with a product.
const InitialRegistrationFicha = "initial registration"

// MovementType is the direction of a stock movement.
type MovementType string

const (
	MovementEntry MovementType = "entry"
	MovementExit  MovementType = "exit"
)

// Label is the human readable name used in exports.
func (t MovementType) Label() string {
	if t == MovementExit {
		return "Exit"
	}
	return "Entry"
}

// Sign returns +1 for entries and -1 for exits.
func (t MovementType) Sign() int {
	if t == MovementExit {
		return -1
	}
	return 1
}

// UnmarshalJSON accepts the legacy "entrada"/"saida" values written by older clients.
func (t *MovementType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "entry", "entrada":
		*t = MovementEntry
	case "exit", "saida", "saída":
		*t = MovementExit
	default:
		return fmt.Errorf("unknown movement type %q", s)
	}
	return nil
}

// MovementLog records one signed balance change. Logs are append-only; they are
// only removed together with their product.
type MovementLog struct {
	ID        int          `json:"id"`
	ProductID int          `json:"productId"`
	Type      MovementType `json:"type"`
	Quantity  int          `json:"quantity"` // absolute value of the movement
	Date      string       `json:"date"`
	User      string       `json:"user"`
	Ficha     string       `json:"ficha"`
}

// Delta is the signed change this log applied to its product balance.
func (l MovementLog) Delta() int {
	return l.Type.Sign() * l.Quantity
}
