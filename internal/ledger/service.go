package ledger

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/artmarket/commission-service/internal/config"
	"github.com/artmarket/commission-service/internal/staff"
)

// Outcome distinguishes why a RecordOrderIncome call did or did not append
// entries. Policy skips are expected, frequent cases, not errors.
type Outcome string

const (
	OutcomeRecorded        Outcome = "recorded"
	OutcomeAlreadyRecorded Outcome = "already_recorded"
	OutcomeBelowThreshold  Outcome = "skipped_below_threshold"
)

// Result reports what a RecordOrderIncome call actually did.
type Result struct {
	Outcome    Outcome `json:"outcome"`
	Appended   int     `json:"appended"`
	OrderPrice float64 `json:"order_price"`
}

// OrderIncome is the slice of an order the ledger needs. Price fields form a
// fallback chain: price -> finalPrice -> totalPrice, absent values as zero.
type OrderIncome struct {
	OrderID     string
	ServiceID   string
	Price       float64
	FinalPrice  float64
	TotalPrice  float64
	CompletedAt time.Time
}

func (i OrderIncome) resolvePrice() float64 {
	switch {
	case i.Price > 0:
		return i.Price
	case i.FinalPrice > 0:
		return i.FinalPrice
	case i.TotalPrice > 0:
		return i.TotalPrice
	default:
		return 0
	}
}

// StaffLister is the point-in-time view of the staff roster the ledger reads
// while computing a split.
type StaffLister interface {
	ListEligibleStaff(ctx context.Context) ([]staff.Member, error)
}

type Service interface {
	// RecordOrderIncome appends the revenue-split entries for a completed
	// order. Safe to call any number of times, concurrently included; each
	// (order, recipient, income type) credit is written at most once.
	RecordOrderIncome(ctx context.Context, income OrderIncome) (*Result, error)
	ListByRecipient(ctx context.Context, recipientID string, incomeType IncomeType) ([]Entry, error)
	ListByOrder(ctx context.Context, orderID string) ([]Entry, error)
}

type orderLock struct {
	mu   sync.Mutex
	refs int
}

type service struct {
	repo   Repository
	staffs StaffLister
	policy config.CommissionConfig

	mu         sync.Mutex
	orderLocks map[string]*orderLock
}

func NewService(repo Repository, staffs StaffLister, policy config.CommissionConfig) Service {
	return &service{
		repo:       repo,
		staffs:     staffs,
		policy:     policy,
		orderLocks: make(map[string]*orderLock),
	}
}

// lockOrder serializes in-process callers working on the same order. The
// unique index in the store covers racing processes. Locks are refcounted and
// dropped from the map when the last holder releases, so the map stays
// bounded by in-flight orders rather than every order id ever seen.
func (s *service) lockOrder(orderID string) func() {
	s.mu.Lock()
	l, ok := s.orderLocks[orderID]
	if !ok {
		l = &orderLock{}
		s.orderLocks[orderID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.orderLocks, orderID)
		}
		s.mu.Unlock()
	}
}

func (s *service) RecordOrderIncome(ctx context.Context, income OrderIncome) (*Result, error) {
	unlock := s.lockOrder(income.OrderID)
	defer unlock()

	orderPrice := income.resolvePrice()
	if orderPrice < s.policy.MinOrderPrice {
		// All-or-nothing policy: an order below the platform deduction never
		// funds a payout, partial shares are not made.
		log.Info().
			Str("order_id", income.OrderID).
			Float64("order_price", orderPrice).
			Float64("min_order_price", s.policy.MinOrderPrice).
			Msg("service: order below minimum deduction, no ledger entries")
		return &Result{Outcome: OutcomeBelowThreshold, OrderPrice: orderPrice}, nil
	}

	existing, err := s.repo.ExistingKeys(ctx, income.OrderID)
	if err != nil {
		log.Error().Err(err).Str("order_id", income.OrderID).Msg("service: failed to load existing ledger keys")
		return nil, fmt.Errorf("service: failed to load existing ledger keys: %w", err)
	}

	completedAt := income.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	var entries []Entry

	if income.ServiceID != "" {
		serviceKey := Key{OrderID: income.OrderID, RecipientID: income.ServiceID, IncomeType: IncomeService}
		if _, ok := existing[serviceKey]; !ok {
			e, err := s.newEntry(income.OrderID, income.ServiceID, RecipientService, IncomeService,
				s.policy.ServiceShare, "order service commission", completedAt)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
	}

	members, staffErr := s.staffs.ListEligibleStaff(ctx)
	if staffErr != nil {
		// Partial degradation: still write the service-agent entry and let the
		// caller retry; the admin shares are backfilled by the replay.
		log.Error().Err(staffErr).Str("order_id", income.OrderID).Msg("service: staff registry unavailable, writing service share only")
		if err := s.repo.AppendEntries(ctx, entries); err != nil {
			log.Error().Err(err).Str("order_id", income.OrderID).Msg("service: failed to append ledger entries")
			return nil, fmt.Errorf("service: failed to append ledger entries: %w", err)
		}
		outcome := OutcomeAlreadyRecorded
		if len(entries) > 0 {
			outcome = OutcomeRecorded
		}
		return &Result{Outcome: outcome, Appended: len(entries), OrderPrice: orderPrice},
			fmt.Errorf("service: failed to list eligible staff: %w", staffErr)
	}

	for i := range members {
		m := &members[i]
		adminKey := Key{OrderID: income.OrderID, RecipientID: m.ID, IncomeType: IncomeAdminShare}
		if _, ok := existing[adminKey]; ok {
			continue
		}
		e, err := s.newEntry(income.OrderID, m.ID, RecipientAdmin, IncomeAdminShare,
			m.ShareAmount, fmt.Sprintf("admin share (%s)", m.RoleType), completedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if len(entries) == 0 {
		log.Debug().Str("order_id", income.OrderID).Msg("service: all ledger entries already recorded")
		return &Result{Outcome: OutcomeAlreadyRecorded, OrderPrice: orderPrice}, nil
	}

	if err := s.repo.AppendEntries(ctx, entries); err != nil {
		log.Error().Err(err).Str("order_id", income.OrderID).Msg("service: failed to append ledger entries")
		return nil, fmt.Errorf("service: failed to append ledger entries: %w", err)
	}

	log.Info().
		Str("order_id", income.OrderID).
		Int("appended", len(entries)).
		Float64("order_price", orderPrice).
		Msg("service: order income recorded")

	return &Result{Outcome: OutcomeRecorded, Appended: len(entries), OrderPrice: orderPrice}, nil
}

func (s *service) newEntry(orderID, recipientID string, rt RecipientType, it IncomeType, amount float64, note string, completedAt time.Time) (Entry, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return Entry{}, fmt.Errorf("service: failed to generate ledger entry id: %w", err)
	}

	return Entry{
		ID:               id.String(),
		OrderID:          orderID,
		RecipientID:      recipientID,
		RecipientType:    rt,
		IncomeType:       it,
		Amount:           math.Round(amount*100) / 100,
		Note:             note,
		OrderCompletedAt: completedAt,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

func (s *service) ListByRecipient(ctx context.Context, recipientID string, incomeType IncomeType) ([]Entry, error) {
	entries, err := s.repo.ListByRecipient(ctx, recipientID, incomeType)
	if err != nil {
		log.Error().Err(err).Str("recipient_id", recipientID).Msg("service: failed to list ledger entries by recipient")
		return nil, fmt.Errorf("service: failed to list ledger entries: %w", err)
	}
	return entries, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID string) ([]Entry, error) {
	entries, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		log.Error().Err(err).Str("order_id", orderID).Msg("service: failed to list ledger entries by order")
		return nil, fmt.Errorf("service: failed to list ledger entries: %w", err)
	}
	return entries, nil
}
