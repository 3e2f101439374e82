package domain

import "time"

// ConfirmationToken is a single-use token gating a sensitive operation.
// The token value itself is the store key; the record is the stored value.
type ConfirmationToken struct {
	Token      string        `json:"token"`
	UserID     string        `json:"user_id"`
	Operation  OperationType `json:"operation"`
	ResourceID string        `json:"resource_id,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	ExpiresAt  time.Time     `json:"expires_at"`
}

// Expired reports whether the token has lapsed at the given instant.
func (t *ConfirmationToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
