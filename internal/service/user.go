package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/event"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/repository"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/storage"
	apperrors "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/errors"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/pagination"
)

// MaxProfilePictureSize is the largest accepted profile picture in bytes.
const MaxProfilePictureSize = 2 << 20

// UserService covers the self-service profile and administrator user
// management.
type UserService struct {
	users      repository.UserRepository
	refresh    *RefreshStore
	storage    storage.Storage
	producer   *event.Producer
	audit      auditor
	region     string
	bcryptCost int
	now        func() time.Time
	logger     *slog.Logger
}

// NewUserService creates a user service.
func NewUserService(
	users repository.UserRepository,
	refresh *RefreshStore,
	store storage.Storage,
	auditLogs repository.AuditLogRepository,
	producer *event.Producer,
	region string,
	logger *slog.Logger,
	opts ...Option,
) *UserService {
	o := buildOptions(opts)
	return &UserService{
		users:      users,
		refresh:    refresh,
		storage:    store,
		producer:   producer,
		audit:      auditor{repo: auditLogs, now: o.now, logger: logger},
		region:     region,
		bcryptCost: o.bcryptCost,
		now:        o.now,
		logger:     logger,
	}
}

// Profile is a user together with a loadable profile picture URL.
type Profile struct {
	*domain.User
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
}

// UpdateProfileInput holds the fields a user may change about themselves. An
// empty Password keeps the current one.
type UpdateProfileInput struct {
	Username string
	Email    string
	Phone    string
	Password string
}

// AdminUserInput holds the fields an administrator sets on a user. Password
// is required on create and optional on update.
type AdminUserInput struct {
	Username string
	Password string
	Email    string
	Phone    string
	Role     string
	Status   domain.Status
}

// PictureUpload is an uploaded profile picture.
type PictureUpload struct {
	ContentType string
	Size        int64
	Data        io.Reader
}

func (s *UserService) profile(ctx context.Context, u *domain.User) *Profile {
	p := &Profile{User: u}
	if u.ProfilePictureKey == "" {
		return p
	}
	url, err := s.storage.GetURL(ctx, u.ProfilePictureKey)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to resolve profile picture",
			slog.String("user_id", u.ID.String()),
			slog.String("error", err.Error()),
		)
		return p
	}
	p.ProfilePictureURL = url
	return p
}

// Me returns the caller's profile.
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, u), nil
}

// UpdateProfile changes the caller's username, email, phone and optionally
// password. Role and status are left alone.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.applyAccountFields(u, input.Username, input.Email, input.Phone, input.Password); err != nil {
		return nil, err
	}
	u.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.audit.record(ctx, u.Username, "profile updated: "+u.Username)
	return s.profile(ctx, u), nil
}

func (s *UserService) applyAccountFields(u *domain.User, username, email, phone, password string) error {
	normalized, err := domain.NormalizePhone(phone, s.region)
	if err != nil {
		return apperrors.InvalidInput("phone number is not valid")
	}
	if password != "" {
		if len(password) < minPasswordLength {
			return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		}
		if u.PasswordHash, err = hashPassword(password, s.bcryptCost); err != nil {
			return err
		}
	}
	u.Username = strings.TrimSpace(username)
	u.Email = strings.TrimSpace(email)
	u.Phone = normalized
	return nil
}

// UploadProfilePicture stores an image and points the caller's profile at it.
// The previous picture is removed afterwards.
func (s *UserService) UploadProfilePicture(ctx context.Context, userID uuid.UUID, upload PictureUpload) (*Profile, error) {
	if upload.Size <= 0 {
		return nil, apperrors.InvalidInput("file is empty")
	}
	if upload.Size > MaxProfilePictureSize {
		return nil, apperrors.InvalidInput("file must not exceed 2MB")
	}
	mediaType, _, err := mime.ParseMediaType(upload.ContentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return nil, apperrors.InvalidInput("file must be an image")
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("profile-pictures/%s/%s%s", u.ID, uuid.NewString(), pictureExt(mediaType))
	if _, err := s.storage.Upload(ctx, &storage.UploadInput{
		Key:         key,
		ContentType: mediaType,
		Size:        upload.Size,
		Data:        io.LimitReader(upload.Data, MaxProfilePictureSize),
	}); err != nil {
		return nil, fmt.Errorf("upload profile picture: %w", err)
	}

	previous := u.ProfilePictureKey
	u.ProfilePictureKey = key
	u.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update profile picture: %w", err)
	}
	if previous != "" {
		if err := s.storage.Delete(ctx, previous); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to delete old profile picture",
				slog.String("key", previous),
				slog.String("error", err.Error()),
			)
		}
	}

	s.audit.record(ctx, u.Username, "profile picture updated: "+u.Username)
	return s.profile(ctx, u), nil
}

func pictureExt(mediaType string) string {
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ""
}

// ListUsers returns one page of users.
func (s *UserService) ListUsers(ctx context.Context, page pagination.Params) (pagination.Result[domain.User], error) {
	users, total, err := s.users.List(ctx, page.Offset(), page.Limit())
	if err != nil {
		return pagination.Result[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	return pagination.NewResult(users, total, page), nil
}

func adminStatus(s domain.Status) (domain.Status, error) {
	switch s {
	case "":
		return domain.StatusActive, nil
	case domain.StatusActive, domain.StatusInactive:
		return s, nil
	}
	return "", apperrors.InvalidInput("status must be ACTIVE or INACTIVE")
}

func adminRole(role string) (string, error) {
	if role == "" {
		return domain.RoleUser, nil
	}
	if !domain.IsValidRole(role) {
		return "", apperrors.InvalidInput("role must be USER or ADMIN")
	}
	return role, nil
}

// CreateUser adds a user with the given role and status. An INACTIVE user
// created here is admin-disabled, not frozen.
func (s *UserService) CreateUser(ctx context.Context, actor string, input AdminUserInput) (*domain.User, error) {
	status, err := adminStatus(input.Status)
	if err != nil {
		return nil, err
	}
	role, err := adminRole(input.Role)
	if err != nil {
		return nil, err
	}
	if input.Password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	now := s.now().UTC()
	u := &domain.User{
		ID:        uuid.New(),
		Role:      role,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.applyAccountFields(u, input.Username, input.Email, input.Phone, input.Password); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.audit.record(ctx, actor, "user created: "+u.Username)
	return u, nil
}

// UpdateUser rewrites a user as an administrator. An empty status or role
// keeps the stored value. Setting INACTIVE clears any freeze countdown, which
// leaves the account admin-disabled.
func (s *UserService) UpdateUser(ctx context.Context, actor string, id uuid.UUID, input AdminUserInput) (*domain.User, error) {
	var status domain.Status
	if input.Status != "" {
		var err error
		if status, err = adminStatus(input.Status); err != nil {
			return nil, err
		}
	}
	var role string
	if input.Role != "" {
		var err error
		if role, err = adminRole(input.Role); err != nil {
			return nil, err
		}
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyAccountFields(u, input.Username, input.Email, input.Phone, input.Password); err != nil {
		return nil, err
	}

	switch status {
	case domain.StatusActive:
		err = u.Activate()
	case domain.StatusInactive:
		err = u.Disable()
	}
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if role != "" {
		u.Role = role
	}
	u.UpdatedAt = s.now().UTC()

	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if status != "" && u.Status != domain.StatusActive {
		if err := s.refresh.RevokeForUser(ctx, u.ID); err != nil {
			return nil, err
		}
	}

	s.audit.record(ctx, actor, "user updated: "+u.Username)
	return u, nil
}

// DeleteUser revokes the user's refresh tokens and deletes them. Their stored
// credentials stay behind.
func (s *UserService) DeleteUser(ctx context.Context, actor string, id uuid.UUID) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.refresh.RevokeForUser(ctx, u.ID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, u.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.audit.record(ctx, actor, "user deleted: "+u.Username)
	if err := s.producer.PublishAccountDeleted(ctx, u); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.deleted event",
			slog.String("user_id", u.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
