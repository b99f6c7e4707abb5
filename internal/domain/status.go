package domain

import "fmt"

// Status is the record status shared by users, credentials and categories.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	// StatusFrozen is accepted from storage but nothing transitions into it.
	StatusFrozen Status = "FROZEN"
)

// ParseStatus validates s as a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusInactive, StatusFrozen:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}
