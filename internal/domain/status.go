// Package domain holds the typed records and error kinds shared by every
// layer: transactions, accounts, assistant completions, the status
// enumeration and the audit-note format.
package domain

import "fmt"

// Status is the lifecycle state of a transaction. Only pending
// transactions may transition; the guarded update in the store enforces
// that.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusDeclined  Status = "declined"
	StatusCancelled Status = "cancelled"
	// StatusCompleted parses as valid so historical rows stay readable,
	// but no operation produces it.
	StatusCompleted Status = "completed"
)

// CanonicalStatuses returns the four statuses operations actually produce.
func CanonicalStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusDeclined, StatusCancelled}
}

// IsValid reports whether s is a known status value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDeclined, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus converts a raw string into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown transaction status %q", raw)
	}
	return s, nil
}
