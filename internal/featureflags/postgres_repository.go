package featureflags

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const upsertFlagQuery = `
	INSERT INTO feature_flags (key, value, updated_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (key) DO UPDATE SET
		value = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at
`

// PostgresRepository stores flags in the feature_flags table as JSONB values.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL feature flags repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetFlag retrieves a single feature flag by key.
func (r *PostgresRepository) GetFlag(ctx context.Context, key string) (*Flag, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value, updated_at FROM feature_flags WHERE key = $1`, key)
	if err != nil {
		return nil, err
	}

	flag, err := pgx.CollectExactlyOneRow(rows, scanFlag)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFlagNotFound
		}
		return nil, err
	}
	return flag, nil
}

// GetAllFlags retrieves all feature flags.
func (r *PostgresRepository) GetAllFlags(ctx context.Context) (map[string]*Flag, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value, updated_at FROM feature_flags ORDER BY key`)
	if err != nil {
		return nil, err
	}

	list, err := pgx.CollectRows(rows, scanFlag)
	if err != nil {
		return nil, err
	}

	flags := make(map[string]*Flag, len(list))
	for _, f := range list {
		flags[f.Key] = f
	}
	return flags, nil
}

// SetFlag creates or updates a feature flag.
func (r *PostgresRepository) SetFlag(ctx context.Context, flag *Flag) error {
	return r.SetFlags(ctx, []*Flag{flag})
}

// SetFlags upserts all flags in a single transaction.
func (r *PostgresRepository) SetFlags(ctx context.Context, flags []*Flag) error {
	now := time.Now()
	batch := &pgx.Batch{}
	for _, flag := range flags {
		value, err := json.Marshal(flag.Value)
		if err != nil {
			return fmt.Errorf("encode flag %s: %w", flag.Key, err)
		}
		batch.Queue(upsertFlagQuery, flag.Key, value, now)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

// DeleteFlag removes a feature flag by key.
func (r *PostgresRepository) DeleteFlag(ctx context.Context, key string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM feature_flags WHERE key = $1`, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFlagNotFound
	}
	return nil
}

func scanFlag(row pgx.CollectableRow) (*Flag, error) {
	var (
		flag  Flag
		value []byte
	)
	if err := row.Scan(&flag.Key, &value, &flag.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(value, &flag.Value); err != nil {
		return nil, fmt.Errorf("decode flag %s: %w", flag.Key, err)
	}
	return &flag, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
