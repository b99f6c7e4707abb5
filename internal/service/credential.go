package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/event"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/repository"
	apperrors "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/errors"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/middleware"
)

const (
	// MostViewedLimit is how many credentials the most-viewed list returns.
	MostViewedLimit = 5

	// trendDays is the width of the view trend window, today included.
	trendDays = 7

	trendDateLayout = "2006-01-02"
)

// SecretCipher encrypts credential secrets. *cipher.Cipher satisfies it.
type SecretCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// CredentialService manages a user's stored credentials. Every operation is
// scoped to the calling identity; records of other users are reported as
// NotFoundOrForbidden, exactly like missing ones.
type CredentialService struct {
	creds      repository.CredentialRepository
	categories repository.CategoryRepository
	cipher     SecretCipher
	producer   *event.Producer
	audit      auditor
	now        func() time.Time
	logger     *slog.Logger
}

// NewCredentialService creates a credential service.
func NewCredentialService(
	creds repository.CredentialRepository,
	categories repository.CategoryRepository,
	cipher SecretCipher,
	auditLogs repository.AuditLogRepository,
	producer *event.Producer,
	logger *slog.Logger,
	opts ...Option,
) *CredentialService {
	o := buildOptions(opts)
	return &CredentialService{
		creds:      creds,
		categories: categories,
		cipher:     cipher,
		producer:   producer,
		audit:      auditor{repo: auditLogs, now: o.now, logger: logger},
		now:        o.now,
		logger:     logger,
	}
}

// CreateCredentialInput holds the parameters for storing a credential.
type CreateCredentialInput struct {
	CategoryID  uuid.UUID
	Title       string
	Username    string
	Password    string
	Description string
}

// UpdateCredentialInput holds the parameters for updating a credential. An
// empty Password keeps the stored secret.
type UpdateCredentialInput struct {
	CategoryID  uuid.UUID
	Title       string
	Username    string
	Password    string
	Description string
	Status      domain.Status
}

func errCredentialHidden() error {
	return apperrors.NotFoundOrForbidden("credential")
}

// activeCategory loads a category that new credentials may be filed under.
func (s *CredentialService) activeCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	cat, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidInput("category not found")
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	if cat.Status != domain.StatusActive {
		return nil, apperrors.InvalidInput("category is not active")
	}
	return cat, nil
}

// owned loads credential id and checks it belongs to caller. Inactive records
// count as missing unless includeInactive is set.
func (s *CredentialService) owned(ctx context.Context, caller *middleware.Identity, id uuid.UUID, includeInactive bool) (*domain.Credential, error) {
	c, err := s.creds.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errCredentialHidden()
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	if !c.OwnedBy(caller.ID) {
		return nil, errCredentialHidden()
	}
	if !includeInactive && c.Status != domain.StatusActive {
		return nil, errCredentialHidden()
	}
	return c, nil
}

func (s *CredentialService) seal(plaintext string) (string, error) {
	sealed, err := s.cipher.Encrypt(plaintext)
	if err != nil {
		return "", apperrors.EncryptionFailure(err)
	}
	return sealed, nil
}

// Create stores a credential for caller. The password is encrypted before it
// reaches the repository.
func (s *CredentialService) Create(ctx context.Context, caller *middleware.Identity, input CreateCredentialInput) (*domain.Credential, error) {
	cat, err := s.activeCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}
	secret, err := s.seal(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &domain.Credential{
		ID:           uuid.New(),
		OwnerID:      caller.ID,
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
		Title:        input.Title,
		Username:     input.Username,
		Secret:       secret,
		Description:  input.Description,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.creds.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create credential: %w", err)
	}

	s.audit.record(ctx, caller.Username, "credential created: "+c.Title)
	return c, nil
}

// Update rewrites a credential owned by caller. A new password is encrypted
// again; an empty one keeps the existing secret.
func (s *CredentialService) Update(ctx context.Context, caller *middleware.Identity, id uuid.UUID, input UpdateCredentialInput) (*domain.Credential, error) {
	c, err := s.owned(ctx, caller, id, true)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != c.CategoryID {
		cat, err := s.activeCategory(ctx, input.CategoryID)
		if err != nil {
			return nil, err
		}
		c.CategoryID, c.CategoryName = cat.ID, cat.Name
	}
	if input.Password != "" {
		if c.Secret, err = s.seal(input.Password); err != nil {
			return nil, err
		}
	}
	if input.Status != "" {
		if input.Status != domain.StatusActive && input.Status != domain.StatusInactive {
			return nil, apperrors.InvalidInput("status must be ACTIVE or INACTIVE")
		}
		c.Status = input.Status
	}
	c.Title = input.Title
	c.Username = input.Username
	c.Description = input.Description
	c.UpdatedAt = s.now().UTC()

	if err := s.creds.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update credential: %w", err)
	}

	s.audit.record(ctx, caller.Username, "credential updated: "+c.Title)
	return c, nil
}

// Delete soft-deletes an active credential owned by caller.
func (s *CredentialService) Delete(ctx context.Context, caller *middleware.Identity, id uuid.UUID) error {
	c, err := s.owned(ctx, caller, id, false)
	if err != nil {
		return err
	}

	c.Status = domain.StatusInactive
	c.UpdatedAt = s.now().UTC()
	if err := s.creds.Update(ctx, c); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}

	s.audit.record(ctx, caller.Username, "credential deleted: "+c.Title)
	return nil
}

// List returns caller's active credentials.
func (s *CredentialService) List(ctx context.Context, caller *middleware.Identity) ([]domain.Credential, error) {
	creds, err := s.creds.ListActiveByOwner(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	return creds, nil
}

// ListByCategory returns caller's active credentials in the named category.
func (s *CredentialService) ListByCategory(ctx context.Context, caller *middleware.Identity, category string) ([]domain.Credential, error) {
	creds, err := s.creds.ListActiveByOwnerAndCategory(ctx, caller.ID, category)
	if err != nil {
		return nil, fmt.Errorf("list credentials by category: %w", err)
	}
	return creds, nil
}

// ToggleFeatured sets the featured flag of a credential owned by caller.
func (s *CredentialService) ToggleFeatured(ctx context.Context, caller *middleware.Identity, id uuid.UUID, featured bool) (*domain.Credential, error) {
	c, err := s.owned(ctx, caller, id, false)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := s.creds.SetFeatured(ctx, c.ID, featured, now); err != nil {
		return nil, fmt.Errorf("set featured: %w", err)
	}
	c.IsFeatured = featured
	c.UpdatedAt = now
	return c, nil
}

// Featured returns caller's featured credentials.
func (s *CredentialService) Featured(ctx context.Context, caller *middleware.Identity) ([]domain.Credential, error) {
	creds, err := s.creds.ListFeatured(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list featured credentials: %w", err)
	}
	return creds, nil
}

// MostViewed returns caller's most revealed credentials, at most limit.
func (s *CredentialService) MostViewed(ctx context.Context, caller *middleware.Identity, limit int) ([]domain.Credential, error) {
	creds, err := s.creds.ListMostViewed(ctx, caller.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list most viewed credentials: %w", err)
	}
	return creds, nil
}

// Reveal decrypts a credential owned by caller. The view counter and last
// used time are bumped in the same statement that returns the ciphertext.
func (s *CredentialService) Reveal(ctx context.Context, caller *middleware.Identity, id uuid.UUID) (string, error) {
	c, err := s.owned(ctx, caller, id, false)
	if err != nil {
		return "", err
	}

	sealed, err := s.creds.RecordView(ctx, c.ID, caller.ID, s.now().UTC())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", errCredentialHidden()
		}
		return "", fmt.Errorf("record credential view: %w", err)
	}

	plaintext, err := s.cipher.Decrypt(sealed)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return "", err
		}
		return "", apperrors.EncryptionFailure(err)
	}

	s.audit.record(ctx, caller.Username, "credential revealed: "+c.Title)
	if err := s.producer.PublishSecretRevealed(ctx, caller.ID, c.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish credential.revealed event",
			slog.String("credential_id", c.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	return plaintext, nil
}

// ViewTrend counts caller's credentials by the day they were last revealed,
// over the seven days ending today. Days without views are present with 0.
func (s *CredentialService) ViewTrend(ctx context.Context, caller *middleware.Identity) (map[string]int64, error) {
	now := s.now()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	since := today.AddDate(0, 0, -(trendDays - 1))

	trend := make(map[string]int64, trendDays)
	for i := 0; i < trendDays; i++ {
		trend[since.AddDate(0, 0, i).Format(trendDateLayout)] = 0
	}

	used, err := s.creds.LastUsedSince(ctx, caller.ID, since)
	if err != nil {
		return nil, fmt.Errorf("load view trend: %w", err)
	}
	for _, t := range used {
		key := t.In(now.Location()).Format(trendDateLayout)
		if _, ok := trend[key]; ok {
			trend[key]++
		}
	}
	return trend, nil
}
