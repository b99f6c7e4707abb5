package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/notification"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/repository"
	apperrors "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/errors"
)

// codeAttempts bounds how often Issue redraws after hitting a code that is
// already held by someone else.
const codeAttempts = 5

var codeSpace = big.NewInt(1_000_000)

// VerificationService issues and redeems single-use six digit codes.
type VerificationService struct {
	codes    repository.VerificationCodeRepository
	sender   notification.Sender
	renderer *notification.Renderer
	random   io.Reader
	now      func() time.Time
	logger   *slog.Logger
}

// NewVerificationService creates a verification service that mails codes
// through sender.
func NewVerificationService(
	codes repository.VerificationCodeRepository,
	sender notification.Sender,
	renderer *notification.Renderer,
	logger *slog.Logger,
	opts ...Option,
) *VerificationService {
	o := buildOptions(opts)
	return &VerificationService{
		codes:    codes,
		sender:   sender,
		renderer: renderer,
		random:   rand.Reader,
		now:      o.now,
		logger:   logger,
	}
}

func (s *VerificationService) newCode() (string, error) {
	n, err := rand.Int(s.random, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Issue stores a fresh code for user and emails it. A delivery failure is an
// internal error; the stored code then simply expires.
func (s *VerificationService) Issue(ctx context.Context, user *domain.User, purpose domain.Purpose) (string, error) {
	record := &domain.VerificationCode{
		UserID:    user.ID,
		Purpose:   purpose,
		ExpiresAt: s.now().UTC().Add(domain.VerificationCodeTTL),
	}

	var stored bool
	for attempt := 0; attempt < codeAttempts && !stored; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		record.Code = code
		if stored, err = s.codes.SaveIfAbsent(ctx, record); err != nil {
			return "", fmt.Errorf("save verification code: %w", err)
		}
	}
	if !stored {
		return "", apperrors.Internal(fmt.Errorf("no free verification code after %d attempts", codeAttempts))
	}

	email, err := s.renderer.VerificationCode(user, purpose, record.Code, domain.VerificationCodeTTL)
	if err != nil {
		return "", apperrors.Internal(err)
	}
	if err := s.sender.Send(ctx, email); err != nil {
		return "", apperrors.Internal(fmt.Errorf("send verification code via %s: %w", s.sender.Name(), err))
	}

	s.logger.InfoContext(ctx, "verification code issued",
		slog.String("user_id", user.ID.String()),
		slog.String("purpose", string(purpose)),
	)
	return record.Code, nil
}

// Consume redeems code. The record is gone afterwards whether or not the
// caller goes on to finish the action it gates.
func (s *VerificationService) Consume(ctx context.Context, code string) (*domain.VerificationCode, error) {
	if len(code) != 6 {
		return nil, apperrors.InvalidOrExpiredCode()
	}

	record, err := s.codes.Take(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidOrExpiredCode()
		}
		return nil, fmt.Errorf("take verification code: %w", err)
	}
	if !s.now().Before(record.ExpiresAt) {
		return nil, apperrors.InvalidOrExpiredCode()
	}
	return record, nil
}

// ConsumeFor is Consume for a code that must belong to userID with one of the
// given purposes. A code held by someone else is burned and reported invalid.
func (s *VerificationService) ConsumeFor(ctx context.Context, code string, userID uuid.UUID, purposes ...domain.Purpose) error {
	record, err := s.Consume(ctx, code)
	if err != nil {
		return err
	}
	if record.UserID != userID {
		return apperrors.InvalidOrExpiredCode()
	}
	for _, p := range purposes {
		if record.Purpose == p {
			return nil
		}
	}
	return apperrors.InvalidOrExpiredCode()
}
