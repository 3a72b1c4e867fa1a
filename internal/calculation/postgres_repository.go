package calculation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecotrace/ecotrace/internal/emission"
)

const selectCalculation = `
	SELECT
		id, user_id,
		period_from, period_to, days,
		user_type, household_size,
		inputs, results,
		created_at
	FROM calculations
`

// PostgresRepository is a PostgreSQL implementation of Repository. Inputs
// and results are stored as JSONB documents.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL calculation repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create stores a new calculation.
func (r *PostgresRepository) Create(ctx context.Context, c *Calculation) error {
	inputs, err := json.Marshal(c.Inputs)
	if err != nil {
		return fmt.Errorf("encode inputs: %w", err)
	}
	results, err := json.Marshal(c.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	query := `
		INSERT INTO calculations (
			id, user_id,
			period_from, period_to, days,
			user_type, household_size,
			inputs, results,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.pool.Exec(ctx, query,
		c.ID,
		c.UserID,
		c.Period.From,
		c.Period.To,
		c.Period.Days,
		string(c.Subject.Type),
		c.Subject.HouseholdSize,
		inputs,
		results,
		c.CreatedAt,
	)
	return err
}

// ListByUser returns all calculations of a user, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*Calculation, error) {
	rows, err := r.pool.Query(ctx, selectCalculation+`
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanCalculation)
}

// GetByUserAndID retrieves a calculation owned by userID.
func (r *PostgresRepository) GetByUserAndID(ctx context.Context, userID, id string) (*Calculation, error) {
	rows, err := r.pool.Query(ctx, selectCalculation+`WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return nil, err
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCalculation)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCalculationNotFound
		}
		return nil, err
	}
	return c, nil
}

// Delete removes a calculation.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM calculations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCalculationNotFound
	}
	return nil
}

func scanCalculation(row pgx.CollectableRow) (*Calculation, error) {
	var (
		c        Calculation
		userType string
		inputs   []byte
		results  []byte
	)

	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Period.From,
		&c.Period.To,
		&c.Period.Days,
		&userType,
		&c.Subject.HouseholdSize,
		&inputs,
		&results,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Subject.Type = emission.ParseSubjectType(userType)
	if err := json.Unmarshal(inputs, &c.Inputs); err != nil {
		return nil, fmt.Errorf("decode inputs of %s: %w", c.ID, err)
	}
	if err := json.Unmarshal(results, &c.Results); err != nil {
		return nil, fmt.Errorf("decode results of %s: %w", c.ID, err)
	}
	return &c, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
