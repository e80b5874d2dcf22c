package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type Repository interface {
	// ExistingKeys returns the dedup keys already recorded for an order.
	ExistingKeys(ctx context.Context, orderID string) (map[Key]struct{}, error)
	// AppendEntries writes a batch of entries in one transaction. Conflicts on
	// the dedup key are ignored, so a replayed batch is harmless.
	AppendEntries(ctx context.Context, entries []Entry) error
	ListByRecipient(ctx context.Context, recipientID string, incomeType IncomeType) ([]Entry, error)
	ListByOrder(ctx context.Context, orderID string) ([]Entry, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) ExistingKeys(ctx context.Context, orderID string) (map[Key]struct{}, error) {
	query := `
		SELECT order_id, recipient_id, income_type
		FROM ledger_entries
		WHERE order_id = $1
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query ledger keys for order %s: %w", orderID, err)
	}
	defer rows.Close()

	keys := make(map[Key]struct{})
	for rows.Next() {
		var k Key
		if err := rows.Scan(&k.OrderID, &k.RecipientID, &k.IncomeType); err != nil {
			return nil, fmt.Errorf("repository: failed to scan ledger key for order %s: %w", orderID, err)
		}
		keys[k] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating ledger keys for order %s: %w", orderID, err)
	}

	return keys, nil
}

func (r *postgresRepository) AppendEntries(ctx context.Context, entries []Entry) (err error) {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("repository: failed to rollback ledger transaction")
			}
		}
	}()

	// The unique index on (order_id, recipient_id, income_type) is the
	// storage-level idempotency guarantee; concurrent writers racing past the
	// in-memory key check land on DO NOTHING instead of a duplicate credit.
	query := `
		INSERT INTO ledger_entries (id, order_id, recipient_id, recipient_type, income_type, amount, note, order_completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (order_id, recipient_id, income_type) DO NOTHING
	`

	for _, e := range entries {
		_, err = tx.Exec(ctx, query,
			e.ID,
			e.OrderID,
			e.RecipientID,
			string(e.RecipientType),
			string(e.IncomeType),
			e.Amount,
			e.Note,
			e.OrderCompletedAt,
			e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert ledger entry for order %s: %w", e.OrderID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit ledger transaction: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListByRecipient(ctx context.Context, recipientID string, incomeType IncomeType) ([]Entry, error) {
	query := `
		SELECT id, order_id, recipient_id, recipient_type, income_type, amount, note, order_completed_at, created_at
		FROM ledger_entries
		WHERE recipient_id = $1
	`
	args := []any{recipientID}
	if incomeType != "" {
		query += ` AND income_type = $2`
		args = append(args, string(incomeType))
	}
	query += ` ORDER BY created_at DESC`

	return r.listEntries(ctx, query, args...)
}

func (r *postgresRepository) ListByOrder(ctx context.Context, orderID string) ([]Entry, error) {
	query := `
		SELECT id, order_id, recipient_id, recipient_type, income_type, amount, note, order_completed_at, created_at
		FROM ledger_entries
		WHERE order_id = $1
		ORDER BY created_at
	`
	return r.listEntries(ctx, query, orderID)
}

func (r *postgresRepository) listEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		err := rows.Scan(
			&e.ID,
			&e.OrderID,
			&e.RecipientID,
			&e.RecipientType,
			&e.IncomeType,
			&e.Amount,
			&e.Note,
			&e.OrderCompletedAt,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating ledger entries: %w", err)
	}

	return entries, nil
}
