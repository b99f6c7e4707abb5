package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user. Duplicate username, email or phone yields
	// an AlreadyExists error naming the field.
	Create(ctx context.Context, user *domain.User) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)

	// Update writes every mutable column of user and bumps updated_at.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes the user row. Refresh tokens go with it.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns one page of users ordered by creation, plus the total.
	List(ctx context.Context, offset, limit int) ([]domain.User, int, error)

	Count(ctx context.Context) (int64, error)

	// ListFrozenBefore returns INACTIVE users whose frozen_at is at or
	// before cutoff.
	ListFrozenBefore(ctx context.Context, cutoff time.Time) ([]domain.User, error)
}

// RefreshTokenRepository defines the interface for refresh token persistence.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error

	// GetByToken looks a token up by its opaque value.
	GetByToken(ctx context.Context, token string) (*domain.RefreshToken, error)

	// GetLatestByUserID returns the user's newest token, live or not.
	GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*domain.RefreshToken, error)

	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error)

	// DeleteExpired removes tokens whose expiry is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// VerificationCodeRepository stores one-time codes with a TTL.
type VerificationCodeRepository interface {
	// SaveIfAbsent stores code unless the same code is already held, in which
	// case it returns false.
	SaveIfAbsent(ctx context.Context, code *domain.VerificationCode) (bool, error)

	// Take atomically reads and deletes code. A missing or expired code
	// yields ErrNotFound.
	Take(ctx context.Context, code string) (*domain.VerificationCode, error)
}

// CredentialRepository defines the interface for stored credentials.
type CredentialRepository interface {
	Create(ctx context.Context, c *domain.Credential) error

	// GetByID returns the credential in any status.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Credential, error)

	Update(ctx context.Context, c *domain.Credential) error

	ListActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Credential, error)
	ListActiveByOwnerAndCategory(ctx context.Context, ownerID uuid.UUID, category string) ([]domain.Credential, error)
	ListFeatured(ctx context.Context, ownerID uuid.UUID) ([]domain.Credential, error)

	// ListMostViewed returns the owner's active credentials by view count,
	// highest first.
	ListMostViewed(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.Credential, error)

	// RecordView increments view_count and sets last_used in one statement
	// and returns the ciphertext. The row must be owned by ownerID.
	RecordView(ctx context.Context, id, ownerID uuid.UUID, at time.Time) (string, error)

	SetFeatured(ctx context.Context, id uuid.UUID, featured bool, at time.Time) error

	// LastUsedSince returns last_used of the owner's credentials that were
	// used after since.
	LastUsedSince(ctx context.Context, ownerID uuid.UUID, since time.Time) ([]time.Time, error)

	Count(ctx context.Context) (int64, error)

	// CountByCategory counts active credentials per category name.
	CountByCategory(ctx context.Context) ([]domain.CategoryCount, error)
}

// CategoryRepository defines the interface for categories.
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	Update(ctx context.Context, c *domain.Category) error
	List(ctx context.Context) ([]domain.Category, error)
	ListByStatus(ctx context.Context, status domain.Status) ([]domain.Category, error)
}

// AuditLogRepository appends and reads audit records.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	ListRecent(ctx context.Context, limit int) ([]domain.AuditLog, error)
}
