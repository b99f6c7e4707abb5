package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/repository"
	apperrors "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/errors"
)

// DefaultRefreshTTL is how long a refresh token stays redeemable.
const DefaultRefreshTTL = 7 * 24 * time.Hour

// RefreshStore hands out opaque refresh tokens, one live token per user.
// Tokens are not rotated on redeem.
type RefreshStore struct {
	tokens repository.RefreshTokenRepository
	users  repository.UserRepository
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewRefreshStore creates a refresh store. A non-positive ttl selects
// DefaultRefreshTTL.
func NewRefreshStore(
	tokens repository.RefreshTokenRepository,
	users repository.UserRepository,
	ttl time.Duration,
	logger *slog.Logger,
	opts ...Option,
) *RefreshStore {
	if ttl <= 0 {
		ttl = DefaultRefreshTTL
	}
	o := buildOptions(opts)
	return &RefreshStore{tokens: tokens, users: users, ttl: ttl, now: o.now, logger: logger}
}

// IssueOrReuse returns the user's live token if there is one. Otherwise the
// stale token is dropped and a new one minted.
func (s *RefreshStore) IssueOrReuse(ctx context.Context, user *domain.User) (string, error) {
	now := s.now().UTC()

	current, err := s.tokens.GetLatestByUserID(ctx, user.ID)
	switch {
	case err == nil && current.Live(now):
		return current.Token, nil
	case err == nil:
		if err := s.tokens.DeleteByID(ctx, current.ID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return "", fmt.Errorf("delete expired refresh token: %w", err)
		}
	case !errors.Is(err, apperrors.ErrNotFound):
		return "", fmt.Errorf("get refresh token: %w", err)
	}

	token := &domain.RefreshToken{
		ID:        uuid.New(),
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return "", fmt.Errorf("create refresh token: %w", err)
	}
	return token.Token, nil
}

// Redeem resolves token to its user. Unknown and expired tokens fail the same
// way.
func (s *RefreshStore) Redeem(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, apperrors.InvalidOrExpiredToken()
	}

	rt, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidOrExpiredToken()
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	if !rt.Live(s.now()) {
		return nil, apperrors.InvalidOrExpiredToken()
	}

	user, err := s.users.GetByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidOrExpiredToken()
		}
		return nil, fmt.Errorf("get refresh token owner: %w", err)
	}
	return user, nil
}

// RevokeForUser deletes every token the user holds.
func (s *RefreshStore) RevokeForUser(ctx context.Context, userID uuid.UUID) error {
	n, err := s.tokens.DeleteByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	s.logger.DebugContext(ctx, "refresh tokens revoked",
		slog.String("user_id", userID.String()),
		slog.Int64("count", n),
	)
	return nil
}

// SweepExpired deletes every token past its expiry and reports how many went.
func (s *RefreshStore) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.tokens.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep expired refresh tokens: %w", err)
	}
	s.logger.InfoContext(ctx, "expired refresh tokens swept", slog.Int64("count", n))
	return n, nil
}
