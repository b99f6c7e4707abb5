// Package service holds the vault's business logic. Handlers pass the caller's
// identity in explicitly; nothing here reads it from ambient state.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/repository"
)

const (
	// defaultBcryptCost is the cost factor for bcrypt password hashing.
	defaultBcryptCost = 12

	// minPasswordLength is the minimum account password length.
	minPasswordLength = 8
)

type options struct {
	now        func() time.Time
	bcryptCost int
}

// Option customizes a service.
type Option func(*options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithBcryptCost sets the bcrypt cost used for new password hashes.
func WithBcryptCost(cost int) Option {
	return func(o *options) { o.bcryptCost = cost }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, bcryptCost: defaultBcryptCost}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// auditor appends audit records. A failed write is logged and never fails the
// operation being audited.
type auditor struct {
	repo   repository.AuditLogRepository
	now    func() time.Time
	logger *slog.Logger
}

func (a auditor) record(ctx context.Context, actor, action string) {
	entry := &domain.AuditLog{ID: uuid.New(), Action: action, Actor: actor, CreatedAt: a.now().UTC()}
	if err := a.repo.Create(ctx, entry); err != nil {
		a.logger.ErrorContext(ctx, "failed to write audit log",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}
