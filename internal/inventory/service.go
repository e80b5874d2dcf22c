package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

var ErrInvalidQuantity = errors.New("quantity must be greater than zero")

type Service interface {
	// DecreaseStock reserves quantity units at order placement. Unlimited
	// inventory always succeeds without mutation.
	DecreaseStock(ctx context.Context, productID string, quantity int) (*StockResult, error)
	// IncreaseStock restores quantity units on refund. Best effort: a product
	// deleted since the order was placed is a no-op, not an error.
	IncreaseStock(ctx context.Context, productID string, quantity int) (bool, error)
	GetProduct(ctx context.Context, productID string) (*Product, error)
	SaveProduct(ctx context.Context, p *Product) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) DecreaseStock(ctx context.Context, productID string, quantity int) (*StockResult, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	remaining, err := s.repo.DecrementStock(ctx, productID, quantity)
	switch {
	case err == nil:
		log.Info().Str("product_id", productID).Int("quantity", quantity).Int("remaining", remaining).Msg("service: stock decreased")
		return &StockResult{Success: true, Message: "stock decreased", Remaining: &remaining}, nil

	case errors.Is(err, ErrUnlimitedStock):
		return &StockResult{Success: true, Message: "unlimited stock", Unlimited: true}, nil

	case errors.Is(err, ErrInsufficientStock):
		log.Warn().Str("product_id", productID).Int("quantity", quantity).Int("remaining", remaining).Msg("service: insufficient stock")
		return &StockResult{Success: false, Message: "insufficient stock", Remaining: &remaining}, nil

	case errors.Is(err, ErrProductNotFound):
		return nil, ErrProductNotFound

	default:
		log.Error().Err(err).Str("product_id", productID).Msg("service: failed to decrease stock in repository")
		return nil, fmt.Errorf("service: failed to decrease stock: %w", err)
	}
}

func (s *service) IncreaseStock(ctx context.Context, productID string, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, ErrInvalidQuantity
	}

	applied, err := s.repo.IncrementStock(ctx, productID, quantity)
	if err != nil {
		log.Error().Err(err).Str("product_id", productID).Msg("service: failed to increase stock in repository")
		return false, fmt.Errorf("service: failed to increase stock: %w", err)
	}
	if !applied {
		// Refunds can arrive long after catalog changes; a vanished or
		// untracked product is expected here.
		log.Info().Str("product_id", productID).Int("quantity", quantity).Msg("service: stock increase skipped, product missing or unlimited")
	}
	return applied, nil
}

func (s *service) GetProduct(ctx context.Context, productID string) (*Product, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Str("product_id", productID).Msg("service: failed to get product in repository")
		return nil, fmt.Errorf("service: failed to get product: %w", err)
	}
	return p, nil
}

func (s *service) SaveProduct(ctx context.Context, p *Product) error {
	if err := s.repo.Upsert(ctx, p); err != nil {
		log.Error().Err(err).Str("product_id", p.ID).Msg("service: failed to save product in repository")
		return fmt.Errorf("service: failed to save product: %w", err)
	}
	return nil
}
