package inventory

import (
	"time"
)

// Product carries the stock bookkeeping slice of a catalog product. Stock is
// nullable: nil means unlimited inventory. The legacy "0 means unlimited"
// convention is accepted only at the ingestion boundary (see NormalizeStock);
// inside the core a zero is a real, exhausted stock level.
type Product struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Stock     *int      `json:"stock" db:"stock"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Unlimited reports whether the product has no stock tracking.
func (p *Product) Unlimited() bool {
	return p.Stock == nil
}

// NormalizeStock converts a legacy stock value into the explicit
// representation: 0 meant unlimited in the source data.
func NormalizeStock(legacy int) *int {
	if legacy == 0 {
		return nil
	}
	return &legacy
}

// StockResult is the outcome of a decrement attempt. Remaining is nil for
// unlimited inventory.
type StockResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Remaining *int   `json:"remaining_stock"`
	Unlimited bool   `json:"unlimited"`
}
