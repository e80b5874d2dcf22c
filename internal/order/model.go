package order

import (
	"time"
)

type Status string

const (
	StatusUnpaid         Status = "unpaid"
	StatusInProgress     Status = "inProgress"
	StatusNearDeadline   Status = "nearDeadline"
	StatusOverdue        Status = "overdue"
	StatusWaitingConfirm Status = "waitingConfirm"
	StatusCompleted      Status = "completed"
	StatusRefunded       Status = "refunded"
	StatusCancelled      Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

// Order is a commissioned-art order. Timestamps are normalized at the
// ingestion boundary; the core never works with raw date strings.
type Order struct {
	ID          string  `json:"id" db:"id"`
	BuyerID     string  `json:"buyer_id" db:"buyer_id"`
	ArtistID    string  `json:"artist_id" db:"artist_id"`
	ProductID   string  `json:"product_id" db:"product_id"`
	ServiceID   string  `json:"service_id,omitempty" db:"service_id"`
	Status      Status  `json:"status" db:"status"`
	Price       float64 `json:"price" db:"price"`
	FinalPrice  float64 `json:"final_price" db:"final_price"`
	TotalPrice  float64 `json:"total_price" db:"total_price"`
	Quantity    int     `json:"quantity" db:"quantity"`
	Requirement string  `json:"requirement,omitempty" db:"requirement"`
	// WorkCompleted marks the artist's side as done while the buyer's
	// confirmation is still pending.
	WorkCompleted bool       `json:"work_completed" db:"work_completed"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	Deadline      time.Time  `json:"deadline" db:"deadline"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
