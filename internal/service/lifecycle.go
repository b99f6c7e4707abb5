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
)

// LifecycleService drives the freeze, reactivate and delete transitions of
// user accounts.
type LifecycleService struct {
	users    repository.UserRepository
	refresh  *RefreshStore
	producer *event.Producer
	audit    auditor
	now      func() time.Time
	logger   *slog.Logger
}

// NewLifecycleService creates a lifecycle service.
func NewLifecycleService(
	users repository.UserRepository,
	refresh *RefreshStore,
	auditLogs repository.AuditLogRepository,
	producer *event.Producer,
	logger *slog.Logger,
	opts ...Option,
) *LifecycleService {
	o := buildOptions(opts)
	return &LifecycleService{
		users:    users,
		refresh:  refresh,
		producer: producer,
		audit:    auditor{repo: auditLogs, now: o.now, logger: logger},
		now:      o.now,
		logger:   logger,
	}
}

// Freeze deactivates the user's own account and starts the deletion
// countdown. Their refresh tokens are revoked.
func (s *LifecycleService) Freeze(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	if err := user.Freeze(now); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return apperrors.Conflict("only active accounts can be frozen")
		}
		return err
	}
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("freeze user: %w", err)
	}
	if err := s.refresh.RevokeForUser(ctx, user.ID); err != nil {
		return err
	}

	s.audit.record(ctx, user.Username, "account frozen: "+user.Username)
	if err := s.producer.PublishAccountFrozen(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.frozen event",
			slog.String("user_id", user.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account frozen", slog.String("user_id", user.ID.String()))
	return nil
}

// Admit applies the lifecycle to a user who just proved their password. A
// self-frozen account inside the retention window is reactivated; anything
// else that is not active fails with AccountDisabled.
func (s *LifecycleService) Admit(ctx context.Context, user *domain.User) error {
	now := s.now().UTC()

	switch user.DecideLogin(now) {
	case domain.LoginAllowed:
		return nil
	case domain.LoginDisabled:
		return apperrors.AccountDisabled()
	}

	if err := user.Activate(); err != nil {
		return apperrors.AccountDisabled()
	}
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("reactivate user: %w", err)
	}

	s.audit.record(ctx, user.Username, "account reactivated on login: "+user.Username)
	if err := s.producer.PublishAccountReactivated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.reactivated event",
			slog.String("user_id", user.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account reactivated", slog.String("user_id", user.ID.String()))
	return nil
}

// SweepFrozen deletes every self-frozen account whose retention window has
// run out. Each account is handled on its own; failures are collected and the
// sweep carries on.
func (s *LifecycleService) SweepFrozen(ctx context.Context) (int, error) {
	now := s.now().UTC()

	users, err := s.users.ListFrozenBefore(ctx, now.Add(-domain.FreezeRetention))
	if err != nil {
		return 0, fmt.Errorf("list frozen users: %w", err)
	}

	var (
		deleted int
		errs    []error
	)
	for i := range users {
		u := &users[i]
		if !u.DueForDeletion(now) {
			continue
		}
		if err := s.deleteAccount(ctx, u); err != nil {
			s.logger.ErrorContext(ctx, "failed to delete frozen account",
				slog.String("user_id", u.ID.String()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
			continue
		}
		deleted++
		s.audit.record(ctx, "", "frozen account deleted: "+u.Username)
	}

	s.logger.InfoContext(ctx, "frozen account sweep finished",
		slog.Int("candidates", len(users)),
		slog.Int("deleted", deleted),
	)
	return deleted, errors.Join(errs...)
}

// deleteAccount revokes the user's refresh tokens, then removes the user.
// Stored credentials are left in place.
func (s *LifecycleService) deleteAccount(ctx context.Context, u *domain.User) error {
	if err := s.refresh.RevokeForUser(ctx, u.ID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, u.ID); err != nil {
		return fmt.Errorf("delete user %s: %w", u.ID, err)
	}
	if err := s.producer.PublishAccountDeleted(ctx, u); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.deleted event",
			slog.String("user_id", u.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
