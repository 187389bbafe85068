package domain

import (
	"time"

	"github.com/google/uuid"
)

// TrustedDevice is a device a user has implicitly (auto-trust bootstrap) or
// explicitly trusted. Unique per (user_id, fingerprint).
type TrustedDevice struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Fingerprint string    `json:"fingerprint"`
	DisplayName string    `json:"display_name"`
	IsTrusted   bool      `json:"is_trusted"`
	LastUsedAt  time.Time `json:"last_used_at"`
	CreatedAt   time.Time `json:"created_at"`
}
