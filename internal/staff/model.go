package staff

import (
	"time"
)

// Member is a commission-eligible staff record: a customer-service agent or
// an admin. Managed by the admin UI; the ledger only reads it.
type Member struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	RoleType    string    `json:"role_type" db:"role_type"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	EnableShare bool      `json:"enable_share" db:"enable_share"`
	ShareAmount float64   `json:"share_amount" db:"share_amount"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Eligible reports whether the member participates in revenue splits.
func (m *Member) Eligible() bool {
	return m.IsActive && m.EnableShare && m.ShareAmount > 0
}
