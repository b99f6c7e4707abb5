package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is an append-only record of a notable action. Actor is empty for
// system actions such as the deletion sweep.
type AuditLog struct {
	ID        uuid.UUID `json:"id"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
