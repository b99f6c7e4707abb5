package domain

import (
	"time"

	"github.com/google/uuid"
)

// Credential is a stored site login. Secret holds ciphertext only.
type Credential struct {
	ID           uuid.UUID  `json:"id"`
	OwnerID      uuid.UUID  `json:"-"`
	CategoryID   uuid.UUID  `json:"categoryId"`
	CategoryName string     `json:"categoryName"`
	Title        string     `json:"title"`
	Username     string     `json:"username"`
	Secret       string     `json:"-"`
	Description  string     `json:"description"`
	Status       Status     `json:"status"`
	IsFeatured   bool       `json:"isFeatured"`
	ViewCount    int64      `json:"viewCount"`
	LastUsed     *time.Time `json:"lastUsed,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// OwnedBy reports whether userID owns the credential.
func (c *Credential) OwnedBy(userID uuid.UUID) bool {
	return c.OwnerID == userID
}

// CategoryCount is one row of the dashboard category distribution.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}
