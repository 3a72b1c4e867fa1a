package tips

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL tips repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Save upserts the tips of a calculation. Tips for a calculation that was
// deleted in the meantime violate the foreign key and are dropped.
func (r *PostgresRepository) Save(ctx context.Context, t *Tips) error {
	data, err := json.Marshal(t.Tips)
	if err != nil {
		return fmt.Errorf("encode tips: %w", err)
	}

	query := `
		INSERT INTO calculation_tips (calculation_id, user_id, tips, source, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (calculation_id) DO UPDATE SET
			tips = EXCLUDED.tips,
			source = EXCLUDED.source,
			created_at = EXCLUDED.created_at
	`

	_, err = r.pool.Exec(ctx, query, t.CalculationID, t.UserID, data, t.Source, t.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return nil
	}
	return err
}

// Get returns the tips of a calculation owned by userID.
func (r *PostgresRepository) Get(ctx context.Context, userID, calculationID string) (*Tips, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT calculation_id, user_id, tips, source, created_at
		FROM calculation_tips
		WHERE calculation_id = $1 AND user_id = $2
	`, calculationID, userID)
	if err != nil {
		return nil, err
	}

	t, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (*Tips, error) {
		var (
			t    Tips
			data []byte
		)
		if err := row.Scan(&t.CalculationID, &t.UserID, &data, &t.Source, &t.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &t.Tips); err != nil {
			return nil, fmt.Errorf("decode tips of %s: %w", t.CalculationID, err)
		}
		return &t, nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTipsNotFound
		}
		return nil, err
	}
	return t, nil
}

// Delete removes the tips of a calculation.
func (r *PostgresRepository) Delete(ctx context.Context, calculationID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM calculation_tips WHERE calculation_id = $1`, calculationID)
	return err
}

var _ Repository = (*PostgresRepository)(nil)
