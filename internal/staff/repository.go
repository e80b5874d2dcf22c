package staff

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
	ErrNotFound    = errors.New("staff member not found")
	ErrUserIDBound = errors.New("user is already bound to another staff member")
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Member, error)
	GetByUserID(ctx context.Context, userID string) (*Member, error)
	Upsert(ctx context.Context, m *Member) error
	Delete(ctx context.Context, id string) error
	ListEligible(ctx context.Context) ([]Member, error)
	ListAll(ctx context.Context) ([]Member, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const memberColumns = "id, user_id, name, role_type, is_active, enable_share, share_amount, created_at, updated_at"

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Name,
		&m.RoleType,
		&m.IsActive,
		&m.EnableShare,
		&m.ShareAmount,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*Member, error) {
	query := `SELECT ` + memberColumns + ` FROM staff WHERE id = $1`

	m, err := scanMember(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select staff member by id %s: %w", id, err)
	}
	return m, nil
}

func (r *postgresRepository) GetByUserID(ctx context.Context, userID string) (*Member, error) {
	query := `SELECT ` + memberColumns + ` FROM staff WHERE user_id = $1`

	m, err := scanMember(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select staff member by user id %s: %w", userID, err)
	}
	return m, nil
}

func (r *postgresRepository) Upsert(ctx context.Context, m *Member) error {
	now := time.Now().UTC()
	m.UpdatedAt = now

	query := `
		INSERT INTO staff (id, user_id, name, role_type, is_active, enable_share, share_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (id) DO UPDATE
		SET user_id = EXCLUDED.user_id,
		    name = EXCLUDED.name,
		    role_type = EXCLUDED.role_type,
		    is_active = EXCLUDED.is_active,
		    enable_share = EXCLUDED.enable_share,
		    share_amount = EXCLUDED.share_amount,
		    updated_at = EXCLUDED.updated_at
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		m.ID,
		m.UserID,
		m.Name,
		m.RoleType,
		m.IsActive,
		m.EnableShare,
		m.ShareAmount,
		now,
	).Scan(&m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrUserIDBound
		}
		return fmt.Errorf("repository: failed to upsert staff member %s: %w", m.ID, err)
	}

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete staff member %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) ListEligible(ctx context.Context) ([]Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM staff
		WHERE is_active AND enable_share AND share_amount > 0
		ORDER BY share_amount DESC, id
	`
	return r.list(ctx, query)
}

func (r *postgresRepository) ListAll(ctx context.Context) ([]Member, error) {
	query := `SELECT ` + memberColumns + ` FROM staff ORDER BY created_at`
	return r.list(ctx, query)
}

func (r *postgresRepository) list(ctx context.Context, query string) ([]Member, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query staff: %w", err)
	}
	defer rows.Close()

	members := make([]Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan staff member: %w", err)
		}
		members = append(members, *m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating staff: %w", err)
	}

	return members, nil
}
