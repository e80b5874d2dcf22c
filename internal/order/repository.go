package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrDuplicateOrderID = errors.New("order with this ID already exists")
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, o *Order) error
	ListByArtist(ctx context.Context, artistID string) ([]Order, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const orderColumns = `id, buyer_id, artist_id, product_id, service_id, status, price, final_price, total_price,
		quantity, requirement, work_completed, created_at, deadline, completed_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.BuyerID,
		&o.ArtistID,
		&o.ProductID,
		&o.ServiceID,
		&o.Status,
		&o.Price,
		&o.FinalPrice,
		&o.TotalPrice,
		&o.Quantity,
		&o.Requirement,
		&o.WorkCompleted,
		&o.CreatedAt,
		&o.Deadline,
		&o.CompletedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepository) Create(ctx context.Context, o *Order) error {
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.Exec(ctx, query,
		o.ID,
		o.BuyerID,
		o.ArtistID,
		o.ProductID,
		o.ServiceID,
		string(o.Status),
		o.Price,
		o.FinalPrice,
		o.TotalPrice,
		o.Quantity,
		o.Requirement,
		o.WorkCompleted,
		o.CreatedAt,
		o.Deadline,
		o.CompletedAt,
		o.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateOrderID
		}
		return fmt.Errorf("repository: failed to insert order %s: %w", o.ID, err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}
	return o, nil
}

func (r *postgresRepository) Update(ctx context.Context, o *Order) error {
	o.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE orders
		SET status = $2, work_completed = $3, completed_at = $4, updated_at = $5
		WHERE id = $1
	`

	cmdTag, err := r.db.Exec(ctx, query,
		o.ID,
		string(o.Status),
		o.WorkCompleted,
		o.CompletedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update order %s: %w", o.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *postgresRepository) ListByArtist(ctx context.Context, artistID string) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE artist_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, artistID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for artist %s: %w", artistID, err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order for artist %s: %w", artistID, err)
		}
		orders = append(orders, *o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders for artist %s: %w", artistID, err)
	}

	return orders, nil
}
