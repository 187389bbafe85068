package domain

import (
	"time"

	"github.com/google/uuid"
)

// PinCredential is a user's local re-entry credential. The plaintext PIN is
// never stored; hash and salt are cleared (the row kept) on disable. The
// failed-attempt counter is ephemeral state outside this record.
type PinCredential struct {
	UserID            uuid.UUID `json:"user_id"`
	PinHash           *string   `json:"-"`
	PinSalt           *string   `json:"-"`
	PinLength         int       `json:"pin_length"`
	BiometricEnabled  bool      `json:"biometric_enabled"`
	MaxAttempts       int       `json:"max_attempts"`
	WipeOnMaxAttempts bool      `json:"wipe_on_max_attempts"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Enabled reports whether a PIN is currently set.
func (c *PinCredential) Enabled() bool {
	return c != nil && c.PinHash != nil && c.PinSalt != nil
}

// GuardResult is the outcome of a guard check (nonce, rate limit, lockout).
type GuardResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Guard   string `json:"guard,omitempty"` // which guard blocked
}
