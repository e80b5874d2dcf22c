package ledger

import (
	"time"
)

type RecipientType string

const (
	RecipientService RecipientType = "service"
	RecipientAdmin   RecipientType = "admin"
)

type IncomeType string

const (
	IncomeService    IncomeType = "service"
	IncomeAdminShare IncomeType = "admin_share"
)

// Entry is an immutable, append-only credit of a fixed amount to one
// recipient for one order and income type. Entries are never updated or
// deleted; corrections happen by appending compensating records elsewhere.
type Entry struct {
	ID               string        `json:"id" db:"id"`
	OrderID          string        `json:"order_id" db:"order_id"`
	RecipientID      string        `json:"recipient_id" db:"recipient_id"`
	RecipientType    RecipientType `json:"recipient_type" db:"recipient_type"`
	IncomeType       IncomeType    `json:"income_type" db:"income_type"`
	Amount           float64       `json:"amount" db:"amount"`
	Note             string        `json:"note,omitempty" db:"note"`
	OrderCompletedAt time.Time     `json:"order_completed_at" db:"order_completed_at"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
}

// Key is the dedup key guaranteeing at-most-one entry per
// (order, recipient, income type). Keying on the full triple, not the order
// alone, is what lets one order credit a service agent and several admins
// independently.
type Key struct {
	OrderID     string
	RecipientID string
	IncomeType  IncomeType
}

func (e Entry) Key() Key {
	return Key{OrderID: e.OrderID, RecipientID: e.RecipientID, IncomeType: e.IncomeType}
}
