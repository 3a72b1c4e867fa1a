package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectUser = `
	SELECT id, name, email, password_hash, created_at, updated_at
	FROM users
`

// PostgresUserRepository is a PostgreSQL implementation of UserRepository.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgreSQL user repository.
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create stores a new user. The unique index on lower(email) reports duplicates.
func (r *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// FindByID finds a user by ID.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, selectUser+`WHERE id = $1`, id)
}

// FindByEmail finds a user by email, ignoring case.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, selectUser+`WHERE lower(email) = $1`, normalizeEmail(email))
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, arg any) (*User, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}

	user, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByPos[User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// PostgresRefreshTokenRepository is a PostgreSQL implementation of RefreshTokenRepository.
type PostgresRefreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRefreshTokenRepository creates a new PostgreSQL refresh token repository.
func NewPostgresRefreshTokenRepository(pool *pgxpool.Pool) *PostgresRefreshTokenRepository {
	return &PostgresRefreshTokenRepository{pool: pool}
}

// Create stores a new refresh token.
func (r *PostgresRefreshTokenRepository) Create(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, token, user_id, expires_at, created_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.Token,
		token.UserID,
		token.ExpiresAt,
		token.CreatedAt,
		token.RevokedAt,
	)
	return err
}

// FindByToken finds a refresh token by its value.
func (r *PostgresRefreshTokenRepository) FindByToken(ctx context.Context, value string) (*RefreshToken, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, token, user_id, expires_at, created_at, revoked_at
		FROM refresh_tokens
		WHERE token = $1
	`, value)
	if err != nil {
		return nil, err
	}

	token, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByPos[RefreshToken])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	return token, nil
}

// Revoke marks a refresh token as revoked.
func (r *PostgresRefreshTokenRepository) Revoke(ctx context.Context, value string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = $1
		WHERE token = $2 AND revoked_at IS NULL
	`, time.Now(), value)
	return err
}

// RevokeAllForUser revokes every refresh token of a user.
func (r *PostgresRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = $1
		WHERE user_id = $2 AND revoked_at IS NULL
	`, time.Now(), userID)
	return err
}

var (
	_ UserRepository         = (*PostgresUserRepository)(nil)
	_ RefreshTokenRepository = (*PostgresRefreshTokenRepository)(nil)
)
