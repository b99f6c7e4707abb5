package domain

import (
	"errors"
	"fmt"
	"time"
)

// FreezeRetention is how long a self-frozen account may still reactivate by
// logging in before the daily sweep deletes it.
const FreezeRetention = 30 * 24 * time.Hour

// ErrInvalidTransition is returned for status changes outside the table.
var ErrInvalidTransition = errors.New("invalid user status transition")

// userTransitions lists every allowed status change. FROZEN has no incoming
// edge.
var userTransitions = map[Status]map[Status]struct{}{
	StatusActive: {
		StatusInactive: {},
	},
	StatusInactive: {
		StatusActive: {},
	},
	StatusFrozen: {
		StatusActive:   {},
		StatusInactive: {},
	},
}

// CanTransition reports whether from -> to is allowed. Staying put is
// always allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	_, ok := userTransitions[from][to]
	return ok
}

func (u *User) transition(to Status) error {
	if !CanTransition(u.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, u.Status, to)
	}
	u.Status = to
	return nil
}

// Freeze moves an active user to INACTIVE and starts the deletion countdown.
func (u *User) Freeze(now time.Time) error {
	if u.Status != StatusActive {
		return fmt.Errorf("%w: only active accounts can be frozen", ErrInvalidTransition)
	}
	if err := u.transition(StatusInactive); err != nil {
		return err
	}
	t := now
	u.FrozenAt = &t
	return nil
}

// Activate sets the user ACTIVE and clears any freeze timestamp.
func (u *User) Activate() error {
	if err := u.transition(StatusActive); err != nil {
		return err
	}
	u.FrozenAt = nil
	return nil
}

// Disable sets the user INACTIVE without a freeze timestamp, which is how an
// administrator locks an account.
func (u *User) Disable() error {
	if err := u.transition(StatusInactive); err != nil {
		return err
	}
	u.FrozenAt = nil
	return nil
}

// LoginDecision is what the lifecycle says about a user who just proved
// their password.
type LoginDecision int

const (
	// LoginAllowed means the account is active.
	LoginAllowed LoginDecision = iota
	// LoginReactivate means the account is self-frozen inside the retention
	// window and must be reactivated before tokens are issued.
	LoginReactivate
	// LoginDisabled means the account must not authenticate.
	LoginDisabled
)

// DecideLogin classifies u for login at now.
func (u *User) DecideLogin(now time.Time) LoginDecision {
	switch {
	case u.Status == StatusActive:
		return LoginAllowed
	case u.Status == StatusInactive && u.FrozenAt != nil && now.Sub(*u.FrozenAt) < FreezeRetention:
		return LoginReactivate
	default:
		return LoginDisabled
	}
}

// DueForDeletion reports whether a self-frozen account has outlived the
// retention window at now.
func (u *User) DueForDeletion(now time.Time) bool {
	return u.Status == StatusInactive && u.FrozenAt != nil && now.Sub(*u.FrozenAt) >= FreezeRetention
}
