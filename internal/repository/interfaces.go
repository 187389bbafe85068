package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tradevault/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// UserRepository provides access to users.
type UserRepository interface {
	// FindByEmail returns a user by email, nil if none exists.
	FindByEmail(ctx context.Context, db DBTX, email string) (*domain.User, error)

	// FindByID returns a user by ID, nil if none exists.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error)

	// Create inserts a new user.
	Create(ctx context.Context, db DBTX, user *domain.User) error
}

// SessionRepository provides access to the append-only session_records ledger.
type SessionRepository interface {
	// Insert appends a session record. Records are never updated or deleted.
	Insert(ctx context.Context, db DBTX, rec *domain.SessionRecord) error

	// ListRecent returns the user's most recent records, newest first,
	// bounded by count and age.
	ListRecent(ctx context.Context, db DBTX, userID uuid.UUID, limit int, maxAge time.Duration) ([]domain.SessionRecord, error)

	// DistinctIPsSince counts distinct source IPs for a user since the cutoff.
	DistinctIPsSince(ctx context.Context, db DBTX, userID uuid.UUID, since time.Time) (int, error)
}

// AnomalyRepository provides access to anomalies.
type AnomalyRepository interface {
	// Insert creates a new anomaly.
	Insert(ctx context.Context, db DBTX, a *domain.Anomaly) error

	// ListUnresolved returns the user's unresolved anomalies, newest first.
	ListUnresolved(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.Anomaly, error)

	// Resolve marks an anomaly resolved. Resolving an already-resolved
	// anomaly is a no-op; returns the anomaly or nil if not owned/found.
	Resolve(ctx context.Context, db DBTX, id, userID uuid.UUID) (*domain.Anomaly, error)

	// ListRecent returns recent anomalies across all users for the audit view.
	ListRecent(ctx context.Context, db DBTX, limit int) ([]domain.Anomaly, error)
}

// DeviceRepository provides access to trusted_devices.
type DeviceRepository interface {
	// FindByFingerprint returns the user's device with the given fingerprint, nil if none.
	FindByFingerprint(ctx context.Context, db DBTX, userID uuid.UUID, fingerprint string) (*domain.TrustedDevice, error)

	// CountTrusted counts the user's trusted devices.
	CountTrusted(ctx context.Context, db DBTX, userID uuid.UUID) (int, error)

	// UpsertTrust inserts or re-trusts a device, returning the row.
	UpsertTrust(ctx context.Context, db DBTX, userID uuid.UUID, fingerprint, displayName string) (*domain.TrustedDevice, error)

	// TouchLastUsed bumps last_used_at for a known device.
	TouchLastUsed(ctx context.Context, db DBTX, id uuid.UUID) error

	// Untrust removes trust from a device owned by the user. Returns the
	// device or nil if not owned/found.
	Untrust(ctx context.Context, db DBTX, id, userID uuid.UUID) (*domain.TrustedDevice, error)

	// ListByUser returns the user's devices, most recently used first.
	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.TrustedDevice, error)
}

// CredentialRepository provides access to pin_credentials.
type CredentialRepository interface {
	// Get returns the user's credential row, nil if none exists.
	Get(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.PinCredential, error)

	// Upsert creates or replaces the user's credential.
	Upsert(ctx context.Context, db DBTX, cred *domain.PinCredential) error

	// Disable clears hash and salt but keeps the row and its settings.
	Disable(ctx context.Context, db DBTX, userID uuid.UUID) error

	// UpdateSettings applies partial settings changes.
	UpdateSettings(ctx context.Context, db DBTX, userID uuid.UUID, biometric, wipeOnMax *bool) (*domain.PinCredential, error)
}

// OutboxRepository provides access to security_event_outbox.
type OutboxRepository interface {
	// Insert writes an outbox event, within the same transaction as the
	// state change it describes.
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error
}
