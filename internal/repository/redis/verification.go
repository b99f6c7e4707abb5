package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	apperrors "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/errors"
)

const keyPrefix = "verification:"

// VerificationCodeRepository implements repository.VerificationCodeRepository
// using Redis. Each code is its own key, so expiry is Redis' job.
type VerificationCodeRepository struct {
	client *redis.Client
	now    func() time.Time
}

// NewVerificationCodeRepository creates a new Redis-backed code store.
func NewVerificationCodeRepository(client *redis.Client) *VerificationCodeRepository {
	return &VerificationCodeRepository{client: client, now: time.Now}
}

type storedCode struct {
	UserID    string    `json:"userId"`
	Purpose   string    `json:"purpose"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SaveIfAbsent stores code with a TTL running to code.ExpiresAt. It returns
// false without writing when the code is already held by someone.
func (r *VerificationCodeRepository) SaveIfAbsent(ctx context.Context, code *domain.VerificationCode) (bool, error) {
	ttl := code.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return false, fmt.Errorf("verification code already expired")
	}

	data, err := json.Marshal(storedCode{
		UserID:    code.UserID.String(),
		Purpose:   string(code.Purpose),
		ExpiresAt: code.ExpiresAt,
	})
	if err != nil {
		return false, fmt.Errorf("marshal verification code: %w", err)
	}

	ok, err := r.client.SetNX(ctx, keyPrefix+code.Code, data, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx verification code: %w", err)
	}
	return ok, nil
}

// Take reads and deletes code in one GETDEL, so a code can be redeemed once.
func (r *VerificationCodeRepository) Take(ctx context.Context, code string) (*domain.VerificationCode, error) {
	data, err := r.client.GetDel(ctx, keyPrefix+code).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("verification code", "")
		}
		return nil, fmt.Errorf("redis getdel verification code: %w", err)
	}

	var stored storedCode
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("unmarshal verification code: %w", err)
	}
	vc := &domain.VerificationCode{
		Code:      code,
		Purpose:   domain.Purpose(stored.Purpose),
		ExpiresAt: stored.ExpiresAt,
	}
	if err := vc.UserID.UnmarshalText([]byte(stored.UserID)); err != nil {
		return nil, fmt.Errorf("parse verification code owner: %w", err)
	}
	return vc, nil
}

// Ping reports whether Redis answers.
func (r *VerificationCodeRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
