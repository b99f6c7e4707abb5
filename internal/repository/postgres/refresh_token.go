package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/database"
	apperrors "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/errors"
)

const refreshTokenColumns = `id, token, user_id, expires_at, created_at`

// RefreshTokenRepository implements repository.RefreshTokenRepository using
// PostgreSQL.
type RefreshTokenRepository struct {
	db database.DBTX
}

// NewRefreshTokenRepository creates a new PostgreSQL-backed refresh token
// repository.
func NewRefreshTokenRepository(db database.DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create stores a new refresh token.
func (r *RefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) (err error) {
	query := `INSERT INTO refresh_tokens (` + refreshTokenColumns + `) VALUES ($1, $2, $3, $4, $5)`
	ctx, end := database.TraceQuery(ctx, "CreateRefreshToken", query)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, query, t.ID, t.Token, t.UserID, t.ExpiresAt, t.CreatedAt); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// GetByToken retrieves a refresh token by its opaque value.
func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string) (t *domain.RefreshToken, err error) {
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE token = $1`
	ctx, end := database.TraceQuery(ctx, "GetRefreshToken", query)
	defer func() { end(err) }()

	t, err = scanRefreshToken(r.db.QueryRow(ctx, query, token))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("refresh token", "")
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	return t, nil
}

// GetLatestByUserID retrieves the newest refresh token of a user.
func (r *RefreshTokenRepository) GetLatestByUserID(ctx context.Context, userID uuid.UUID) (t *domain.RefreshToken, err error) {
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`
	ctx, end := database.TraceQuery(ctx, "GetUserRefreshToken", query)
	defer func() { end(err) }()

	t, err = scanRefreshToken(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("refresh token", userID.String())
		}
		return nil, fmt.Errorf("get user refresh token: %w", err)
	}
	return t, nil
}

// DeleteByID removes one token. Deleting a missing token is not an error.
func (r *RefreshTokenRepository) DeleteByID(ctx context.Context, id uuid.UUID) (err error) {
	query := `DELETE FROM refresh_tokens WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "DeleteRefreshToken", query)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// DeleteByUserID removes every token of a user and reports how many.
func (r *RefreshTokenRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) (n int64, err error) {
	query := `DELETE FROM refresh_tokens WHERE user_id = $1`
	ctx, end := database.TraceQuery(ctx, "DeleteUserRefreshTokens", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user refresh tokens: %w", err)
	}
	return ct.RowsAffected(), nil
}

// DeleteExpired removes tokens that expired at or before now.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (n int64, err error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at <= $1`
	ctx, end := database.TraceQuery(ctx, "DeleteExpiredRefreshTokens", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return ct.RowsAffected(), nil
}

func scanRefreshToken(row pgx.Row) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	if err := row.Scan(&t.ID, &t.Token, &t.UserID, &t.ExpiresAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
