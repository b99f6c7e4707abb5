package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/auth"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/event"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/repository"
	apperrors "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/errors"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/middleware"
)

// AuthService implements registration, login, token refresh and password
// recovery. It also resolves bearer tokens for the Auth middleware.
type AuthService struct {
	users      repository.UserRepository
	jwt        *auth.JWTManager
	refresh    *RefreshStore
	codes      *VerificationService
	lifecycle  *LifecycleService
	producer   *event.Producer
	audit      auditor
	region     string
	bcryptCost int
	now        func() time.Time
	logger     *slog.Logger

	// missingUserHash is compared against when a username is unknown, so a
	// failed login costs one bcrypt comparison either way.
	missingUserHash func() []byte
}

var _ middleware.Authenticator = (*AuthService)(nil)

// NewAuthService creates an auth service. region is the default phone region
// for numbers given without a country code.
func NewAuthService(
	users repository.UserRepository,
	jwt *auth.JWTManager,
	refresh *RefreshStore,
	codes *VerificationService,
	lifecycle *LifecycleService,
	auditLogs repository.AuditLogRepository,
	producer *event.Producer,
	region string,
	logger *slog.Logger,
	opts ...Option,
) *AuthService {
	o := buildOptions(opts)
	cost := o.bcryptCost
	return &AuthService{
		users:      users,
		jwt:        jwt,
		refresh:    refresh,
		codes:      codes,
		lifecycle:  lifecycle,
		producer:   producer,
		audit:      auditor{repo: auditLogs, now: o.now, logger: logger},
		region:     region,
		bcryptCost: o.bcryptCost,
		now:        o.now,
		logger:     logger,
		missingUserHash: sync.OnceValue(func() []byte {
			hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cost)
			if err != nil {
				return nil
			}
			return hash
		}),
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Phone    string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Username string
	Password string
}

// Register creates an ACTIVE user with the USER role.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	phone, err := domain.NormalizePhone(input.Phone, s.region)
	if err != nil {
		return nil, apperrors.InvalidInput("phone number is not valid")
	}
	hash, err := hashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: hash,
		Email:        strings.TrimSpace(input.Email),
		Phone:        phone,
		Role:         domain.RoleUser,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.audit.record(ctx, user.Username, "user registered: "+user.Username)
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// Login checks the password, applies the account lifecycle and returns an
// access token with the user's refresh token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.missingUserHash(), []byte(input.Password))
			return nil, apperrors.AuthenticationFailed()
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperrors.AuthenticationFailed()
	}

	if err := s.lifecycle.Admit(ctx, user); err != nil {
		return nil, err
	}

	access, err := s.jwt.Issue(user.Username, s.now())
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("issue access token: %w", err))
	}
	refresh, err := s.refresh.IssueOrReuse(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID.String()))
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh trades a refresh token for a new access token. The refresh token
// itself is left unchanged.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	user, err := s.refresh.Redeem(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if user.Status != domain.StatusActive {
		return "", apperrors.AccountDisabled()
	}

	access, err := s.jwt.Issue(user.Username, s.now())
	if err != nil {
		return "", apperrors.Internal(fmt.Errorf("issue access token: %w", err))
	}
	return access, nil
}

// Logout revokes the caller's refresh tokens. Access tokens stay valid until
// they expire.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.refresh.RevokeForUser(ctx, userID)
}

// Authenticate resolves a bearer token to a fresh Identity. Any token that
// fails verification, or whose user is gone or not active, is anonymous.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*middleware.Identity, bool) {
	v, err := s.jwt.Verify(token)
	if err != nil {
		s.logger.ErrorContext(ctx, "token verification misconfigured", slog.String("error", err.Error()))
		return nil, false
	}
	if !v.Valid {
		return nil, false
	}

	user, err := s.users.GetByUsername(ctx, v.Username)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to load token subject", slog.String("error", err.Error()))
		}
		return nil, false
	}
	if user.Status != domain.StatusActive {
		return nil, false
	}

	return &middleware.Identity{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		Status:   string(user.Status),
	}, true
}

// ForgotPassword mails a recovery code to the account with the given email,
// or failing that, phone number.
func (s *AuthService) ForgotPassword(ctx context.Context, emailOrPhone string) error {
	user, err := s.findByEmailOrPhone(ctx, strings.TrimSpace(emailOrPhone))
	if err != nil {
		return err
	}
	_, err = s.codes.Issue(ctx, user, domain.PurposeRecovery)
	return err
}

func (s *AuthService) findByEmailOrPhone(ctx context.Context, key string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, key)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	phone := key
	if normalized, perr := domain.NormalizePhone(key, s.region); perr == nil {
		phone = normalized
	}
	user, err = s.users.GetByPhone(ctx, phone)
	if err == nil {
		return user, nil
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.InvalidInput("no account found with this email or phone")
	}
	return nil, fmt.Errorf("get user by phone: %w", err)
}

// ResetPassword redeems a recovery code and sets a new password. All of the
// user's refresh tokens are revoked.
func (s *AuthService) ResetPassword(ctx context.Context, code, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("new password must be at least %d characters", minPasswordLength))
	}

	record, err := s.codes.Consume(ctx, code)
	if err != nil {
		return err
	}
	if record.Purpose != domain.PurposeRecovery {
		return apperrors.InvalidOrExpiredCode()
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.InvalidOrExpiredCode()
		}
		return fmt.Errorf("get user: %w", err)
	}

	hash, err := hashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.refresh.RevokeForUser(ctx, user.ID); err != nil {
		return err
	}

	s.audit.record(ctx, user.Username, "password reset: "+user.Username)
	if err := s.producer.PublishPasswordReset(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.password_reset event",
			slog.String("user_id", user.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
