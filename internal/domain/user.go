package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role constants define the allowed user roles.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// ValidRoles returns the set of valid user roles.
func ValidRoles() []string {
	return []string{RoleUser, RoleAdmin}
}

// IsValidRole checks whether the given role string is a valid user role.
func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// User is an account holder of the vault.
type User struct {
	ID                uuid.UUID  `json:"id"`
	Username          string     `json:"username"`
	PasswordHash      string     `json:"-"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone"`
	Role              string     `json:"role"`
	Status            Status     `json:"status"`
	FrozenAt          *time.Time `json:"frozenAt,omitempty"`
	ProfilePictureKey string     `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// RefreshToken is an opaque long-lived token that trades for access tokens.
type RefreshToken struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"-"`
	UserID    uuid.UUID `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Live reports whether the token can still be redeemed at now.
func (t *RefreshToken) Live(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}

// TokenPair is returned by a successful login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
