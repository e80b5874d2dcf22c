package staff

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrNameRequired        = errors.New("staff name is required")
	ErrUserIDRequired      = errors.New("staff user id is required")
	ErrNegativeShareAmount = errors.New("share amount cannot be negative")
)

type Service interface {
	// ListEligibleStaff returns the members participating in revenue splits,
	// highest share first.
	ListEligibleStaff(ctx context.Context) ([]Member, error)
	ListStaff(ctx context.Context) ([]Member, error)
	GetStaff(ctx context.Context, id string) (*Member, error)
	Upsert(ctx context.Context, m *Member) (*Member, error)
	Remove(ctx context.Context, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) ListEligibleStaff(ctx context.Context) ([]Member, error) {
	members, err := s.repo.ListEligible(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list eligible staff in repository")
		return nil, fmt.Errorf("service: failed to list eligible staff: %w", err)
	}
	return members, nil
}

func (s *service) ListStaff(ctx context.Context) ([]Member, error) {
	members, err := s.repo.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list staff in repository")
		return nil, fmt.Errorf("service: failed to list staff: %w", err)
	}
	return members, nil
}

func (s *service) GetStaff(ctx context.Context, id string) (*Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Str("staff_id", id).Msg("service: failed to get staff member in repository")
		return nil, fmt.Errorf("service: failed to get staff member: %w", err)
	}
	return m, nil
}

// Upsert validates and saves a staff member. Existing IDs are kept stable
// across edits; the ledger's idempotency key depends on that.
func (s *service) Upsert(ctx context.Context, m *Member) (*Member, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.UserID = strings.TrimSpace(m.UserID)

	if m.Name == "" {
		return nil, ErrNameRequired
	}
	if m.UserID == "" {
		return nil, ErrUserIDRequired
	}
	if m.ShareAmount < 0 {
		return nil, ErrNegativeShareAmount
	}
	m.ShareAmount = math.Round(m.ShareAmount*100) / 100

	if m.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return nil, fmt.Errorf("service: failed to generate staff id: %w", err)
		}
		m.ID = id.String()
	}

	// The admin UI owns userId uniqueness, but reject a duplicate binding here
	// too rather than trust it.
	existing, err := s.repo.GetByUserID(ctx, m.UserID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		log.Error().Err(err).Str("user_id", m.UserID).Msg("service: failed to check user binding")
		return nil, fmt.Errorf("service: failed to check user binding: %w", err)
	}
	if existing != nil && existing.ID != m.ID {
		log.Warn().Str("user_id", m.UserID).Str("staff_id", existing.ID).Msg("service: user already bound to another staff member")
		return nil, ErrUserIDBound
	}

	if err := s.repo.Upsert(ctx, m); err != nil {
		if errors.Is(err, ErrUserIDBound) {
			return nil, ErrUserIDBound
		}
		log.Error().Err(err).Str("staff_id", m.ID).Msg("service: failed to upsert staff member in repository")
		return nil, fmt.Errorf("service: failed to upsert staff member: %w", err)
	}

	log.Info().Str("staff_id", m.ID).Str("role_type", m.RoleType).Float64("share_amount", m.ShareAmount).Msg("service: staff member saved")
	return m, nil
}

func (s *service) Remove(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Str("staff_id", id).Msg("service: failed to delete staff member in repository")
		return fmt.Errorf("service: failed to delete staff member: %w", err)
	}

	log.Info().Str("staff_id", id).Msg("service: staff member removed")
	return nil
}
