package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrProductNotFound = errors.New("product not found")

type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	Upsert(ctx context.Context, p *Product) error
	// DecrementStock atomically subtracts quantity when enough stock remains.
	// Returns the new stock level, or ErrInsufficientStock / ErrProductNotFound.
	DecrementStock(ctx context.Context, id string, quantity int) (int, error)
	// IncrementStock adds quantity back. Missing products and unlimited
	// products are reported, not failed.
	IncrementStock(ctx context.Context, id string, quantity int) (applied bool, err error)
}

var ErrInsufficientStock = errors.New("insufficient stock")

// ErrUnlimitedStock marks a decrement/increment against untracked inventory;
// callers treat it as a successful no-op.
var ErrUnlimitedStock = errors.New("product stock is unlimited")

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	query := `SELECT id, name, stock, created_at, updated_at FROM products WHERE id = $1`

	var p Product
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product %s: %w", id, err)
	}
	return &p, nil
}

func (r *postgresRepository) Upsert(ctx context.Context, p *Product) error {
	now := time.Now().UTC()
	p.UpdatedAt = now

	query := `
		INSERT INTO products (id, name, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    stock = EXCLUDED.stock,
		    updated_at = EXCLUDED.updated_at
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query, p.ID, p.Name, p.Stock, now).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to upsert product %s: %w", p.ID, err)
	}
	return nil
}

// DecrementStock is a single conditional UPDATE, so concurrent orders for the
// same product cannot lose updates or drive stock negative.
func (r *postgresRepository) DecrementStock(ctx context.Context, id string, quantity int) (int, error) {
	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = $3
		WHERE id = $1 AND stock IS NOT NULL AND stock >= $2
		RETURNING stock
	`

	var remaining int
	err := r.db.QueryRow(ctx, query, id, quantity, time.Now().UTC()).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("repository: failed to decrement stock for product %s: %w", id, err)
	}

	// No row matched: missing product, unlimited stock, or not enough left.
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if p.Unlimited() {
		return 0, ErrUnlimitedStock
	}
	return *p.Stock, ErrInsufficientStock
}

func (r *postgresRepository) IncrementStock(ctx context.Context, id string, quantity int) (bool, error) {
	query := `
		UPDATE products
		SET stock = stock + $2, updated_at = $3
		WHERE id = $1 AND stock IS NOT NULL
	`

	cmdTag, err := r.db.Exec(ctx, query, id, quantity, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("repository: failed to increment stock for product %s: %w", id, err)
	}
	return cmdTag.RowsAffected() > 0, nil
}
