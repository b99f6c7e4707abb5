package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VerificationCodeTTL is how long an issued code stays redeemable.
const VerificationCodeTTL = 15 * time.Minute

// Purpose says what a verification code unlocks.
type Purpose string

const (
	PurposeView     Purpose = "view"
	PurposeUpdate   Purpose = "update"
	PurposeRecovery Purpose = "recovery"
)

// ParsePurpose accepts the user-selectable purposes. Empty means view.
// Recovery codes are only minted by the forgot-password flow.
func ParsePurpose(s string) (Purpose, error) {
	switch p := Purpose(s); p {
	case "":
		return PurposeView, nil
	case PurposeView, PurposeUpdate:
		return p, nil
	}
	return "", fmt.Errorf("invalid verification context %q", s)
}

// VerificationCode is a single-use six digit code bound to a user.
type VerificationCode struct {
	Code      string    `json:"-"`
	UserID    uuid.UUID `json:"userId"`
	Purpose   Purpose   `json:"purpose"`
	ExpiresAt time.Time `json:"expiresAt"`
}
