package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/artmarket/commission-service/internal/inventory"
	"github.com/artmarket/commission-service/internal/ledger"
)

// Stored-status state machine. Transitions are monotonic; refunded and
// cancelled are terminal from any non-completed state. The derived statuses
// nearDeadline/overdue may appear in legacy feeds and behave like inProgress.
var allowedTransitions = map[Status]map[Status]bool{
	StatusUnpaid: {
		StatusInProgress: true,
		StatusCancelled:  true,
		StatusRefunded:   true,
	},
	StatusInProgress: {
		StatusWaitingConfirm: true,
		StatusCompleted:      true,
		StatusCancelled:      true,
		StatusRefunded:       true,
	},
	StatusNearDeadline: {
		StatusWaitingConfirm: true,
		StatusCompleted:      true,
		StatusCancelled:      true,
		StatusRefunded:       true,
	},
	StatusOverdue: {
		StatusWaitingConfirm: true,
		StatusCompleted:      true,
		StatusCancelled:      true,
		StatusRefunded:       true,
	},
	StatusWaitingConfirm: {
		StatusCompleted: true,
		StatusCancelled: true,
		StatusRefunded:  true,
	},
	StatusCompleted: {},
	StatusRefunded:  {},
	StatusCancelled: {},
}

var (
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrInvalidQuantity         = errors.New("order quantity must be at least 1")
	ErrNegativePrice           = errors.New("order price cannot be negative")
	ErrOutOfStock              = errors.New("product is out of stock")
)

// IncomeRecorder is the commission ledger seen from the order lifecycle.
type IncomeRecorder interface {
	RecordOrderIncome(ctx context.Context, income ledger.OrderIncome) (*ledger.Result, error)
}

// StockAdjuster is the inventory side of order placement and refund.
type StockAdjuster interface {
	DecreaseStock(ctx context.Context, productID string, quantity int) (*inventory.StockResult, error)
	IncreaseStock(ctx context.Context, productID string, quantity int) (bool, error)
}

// View is an order enriched with its derived presentation statuses.
type View struct {
	Order  Order        `json:"order"`
	Status StatusView   `json:"status_view"`
	Visual VisualStatus `json:"visual_status"`
}

type Service interface {
	CreateOrder(ctx context.Context, o *Order) (*Order, error)
	GetOrder(ctx context.Context, id string) (*View, error)
	ListOrdersByArtist(ctx context.Context, artistID string) ([]View, error)
	UpdateOrderStatus(ctx context.Context, id string, newStatus Status) error
	MarkWorkCompleted(ctx context.Context, id string) error
	// CompleteOrder transitions the order to completed and records the
	// revenue split. Replays (retried webhooks) are tolerated: an already
	// completed order only re-runs the idempotent ledger write.
	CompleteOrder(ctx context.Context, id string) (*ledger.Result, error)
	RefundOrder(ctx context.Context, id string) error
}

type service struct {
	repo    Repository
	incomes IncomeRecorder
	stock   StockAdjuster
	now     func() time.Time
}

func NewService(repo Repository, incomes IncomeRecorder, stock StockAdjuster) Service {
	return &service{
		repo:    repo,
		incomes: incomes,
		stock:   stock,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) CreateOrder(ctx context.Context, o *Order) (*Order, error) {
	if o.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if o.Price < 0 || o.FinalPrice < 0 || o.TotalPrice < 0 {
		return nil, ErrNegativePrice
	}

	if o.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return nil, fmt.Errorf("service: failed to generate order id: %w", err)
		}
		o.ID = id.String()
	}

	now := s.now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if o.Deadline.IsZero() {
		// Unparseable or missing deadline collapses to now so the order shows
		// up as overdue instead of never tripping a deadline check.
		o.Deadline = now
	}
	o.Status = StatusUnpaid
	o.WorkCompleted = false
	o.CompletedAt = nil

	if o.ProductID != "" {
		res, err := s.stock.DecreaseStock(ctx, o.ProductID, o.Quantity)
		if err != nil {
			if errors.Is(err, inventory.ErrProductNotFound) {
				return nil, inventory.ErrProductNotFound
			}
			log.Error().Err(err).Str("product_id", o.ProductID).Msg("service: failed to reserve stock for order")
			return nil, fmt.Errorf("service: failed to reserve stock: %w", err)
		}
		if !res.Success {
			log.Warn().Str("order_id", o.ID).Str("product_id", o.ProductID).Int("quantity", o.Quantity).Msg("service: not enough stock for order")
			return nil, ErrOutOfStock
		}
	}

	if err := s.repo.Create(ctx, o); err != nil {
		if errors.Is(err, ErrDuplicateOrderID) {
			// Release the reservation made above; the order was never created.
			s.restock(ctx, o)
			return nil, ErrDuplicateOrderID
		}
		log.Error().Err(err).Str("order_id", o.ID).Msg("service: failed to create order in repository")
		s.restock(ctx, o)
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Str("order_id", o.ID).Str("buyer_id", o.BuyerID).Str("artist_id", o.ArtistID).Msg("service: order created")
	return o, nil
}

func (s *service) restock(ctx context.Context, o *Order) {
	if o.ProductID == "" {
		return
	}
	if _, err := s.stock.IncreaseStock(ctx, o.ProductID, o.Quantity); err != nil {
		log.Error().Err(err).Str("order_id", o.ID).Str("product_id", o.ProductID).Msg("service: failed to release stock reservation")
	}
}

func (s *service) GetOrder(ctx context.Context, id string) (*View, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Str("order_id", id).Msg("service: failed to fetch order in repository")
		return nil, fmt.Errorf("service: failed to fetch order: %w", err)
	}

	now := s.now()
	return &View{
		Order:  *o,
		Status: DeriveStatus(o, now),
		Visual: ComputeVisualStatus(o, now),
	}, nil
}

func (s *service) ListOrdersByArtist(ctx context.Context, artistID string) ([]View, error) {
	orders, err := s.repo.ListByArtist(ctx, artistID)
	if err != nil {
		log.Error().Err(err).Str("artist_id", artistID).Msg("service: failed to list artist orders in repository")
		return nil, fmt.Errorf("service: failed to list artist orders: %w", err)
	}

	now := s.now()
	views := make([]View, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		views = append(views, View{
			Order:  *o,
			Status: DeriveStatus(o, now),
			Visual: ComputeVisualStatus(o, now),
		})
	}
	return views, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, id string, newStatus Status) error {
	// Completion always funds the ledger; route it through the completion
	// path so a generic status update cannot produce a completed order with
	// no income entries.
	if newStatus == StatusCompleted {
		_, err := s.CompleteOrder(ctx, id)
		return err
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		log.Error().Err(err).Str("order_id", id).Msg("service: failed to get order for status update")
		return fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if o.Status == newStatus {
		log.Info().Str("order_id", id).Stringer("status", newStatus).Msg("service: order status is already the same, no update needed")
		return nil
	}

	if err := s.applyTransition(o, newStatus); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, o); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		log.Error().Err(err).Str("order_id", id).Stringer("new_status", newStatus).Msg("service: failed to update order status in repository")
		return fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Str("order_id", id).Stringer("new_status", newStatus).Msg("service: order status updated")
	return nil
}

func (s *service) applyTransition(o *Order, newStatus Status) error {
	transitions, ok := allowedTransitions[o.Status]
	if !ok || !transitions[newStatus] {
		log.Warn().
			Str("order_id", o.ID).
			Stringer("current_status", o.Status).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, o.Status, newStatus)
	}

	o.Status = newStatus
	// completedAt is set iff the order is completed.
	if newStatus == StatusCompleted {
		now := s.now()
		o.CompletedAt = &now
		o.WorkCompleted = true
	} else {
		o.CompletedAt = nil
	}
	return nil
}

func (s *service) MarkWorkCompleted(ctx context.Context, id string) error {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		log.Error().Err(err).Str("order_id", id).Msg("service: failed to get order for work completion")
		return fmt.Errorf("service: failed to get order for work completion: %w", err)
	}

	if o.WorkCompleted && o.Status == StatusWaitingConfirm {
		return nil
	}

	if err := s.applyTransition(o, StatusWaitingConfirm); err != nil {
		return err
	}
	o.WorkCompleted = true

	if err := s.repo.Update(ctx, o); err != nil {
		log.Error().Err(err).Str("order_id", id).Msg("service: failed to mark work completed in repository")
		return fmt.Errorf("service: failed to mark work completed: %w", err)
	}

	log.Info().Str("order_id", id).Msg("service: artist work marked completed, awaiting buyer confirmation")
	return nil
}

func (s *service) CompleteOrder(ctx context.Context, id string) (*ledger.Result, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Str("order_id", id).Msg("service: failed to get order for completion")
		return nil, fmt.Errorf("service: failed to get order for completion: %w", err)
	}

	if o.Status != StatusCompleted {
		if err := s.applyTransition(o, StatusCompleted); err != nil {
			return nil, err
		}
		if err := s.repo.Update(ctx, o); err != nil {
			log.Error().Err(err).Str("order_id", id).Msg("service: failed to persist order completion")
			return nil, fmt.Errorf("service: failed to persist order completion: %w", err)
		}
		log.Info().Str("order_id", id).Msg("service: order completed")
	} else {
		log.Info().Str("order_id", id).Msg("service: order already completed, replaying income recording")
	}

	completedAt := s.now()
	if o.CompletedAt != nil {
		completedAt = *o.CompletedAt
	}

	result, err := s.incomes.RecordOrderIncome(ctx, ledger.OrderIncome{
		OrderID:     o.ID,
		ServiceID:   o.ServiceID,
		Price:       o.Price,
		FinalPrice:  o.FinalPrice,
		TotalPrice:  o.TotalPrice,
		CompletedAt: completedAt,
	})
	if err != nil {
		// The completion itself stuck; the ledger write is idempotent and the
		// caller retries CompleteOrder to backfill.
		log.Error().Err(err).Str("order_id", id).Msg("service: failed to record order income")
		return result, fmt.Errorf("service: failed to record order income: %w", err)
	}

	return result, nil
}

func (s *service) RefundOrder(ctx context.Context, id string) error {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		log.Error().Err(err).Str("order_id", id).Msg("service: failed to get order for refund")
		return fmt.Errorf("service: failed to get order for refund: %w", err)
	}

	// A replayed refund must not restock twice.
	if o.Status == StatusRefunded {
		log.Info().Str("order_id", id).Msg("service: order already refunded")
		return nil
	}

	if err := s.applyTransition(o, StatusRefunded); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, o); err != nil {
		log.Error().Err(err).Str("order_id", id).Msg("service: failed to persist order refund")
		return fmt.Errorf("service: failed to persist order refund: %w", err)
	}

	// Best-effort stock repair; refunds may land long after catalog changes.
	if o.ProductID != "" {
		if _, err := s.stock.IncreaseStock(ctx, o.ProductID, o.Quantity); err != nil {
			log.Error().Err(err).Str("order_id", id).Str("product_id", o.ProductID).Msg("service: failed to restore stock after refund")
		}
	}

	log.Info().Str("order_id", id).Msg("service: order refunded")
	return nil
}
