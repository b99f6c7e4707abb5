package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category groups credentials. Categories are managed by administrators and
// soft-deleted.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
