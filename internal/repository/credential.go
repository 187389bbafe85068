package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tradevault/platform/internal/domain"
)

type credentialRepo struct{}

// NewCredentialRepository returns a pgx-backed CredentialRepository.
func NewCredentialRepository() CredentialRepository {
	return &credentialRepo{}
}

const credentialColumns = `user_id, pin_hash, pin_salt, pin_length, biometric_enabled, max_attempts, wipe_on_max_attempts, updated_at`

func (r *credentialRepo) Get(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.PinCredential, error) {
	row := db.QueryRow(ctx, `
		SELECT `+credentialColumns+`
		FROM pin_credentials WHERE user_id = $1`, userID)
	return scanCredential(row)
}

func (r *credentialRepo) Upsert(ctx context.Context, db DBTX, cred *domain.PinCredential) error {
	_, err := db.Exec(ctx, `
		INSERT INTO pin_credentials (user_id, pin_hash, pin_salt, pin_length, biometric_enabled, max_attempts, wipe_on_max_attempts, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (user_id) DO UPDATE
		SET pin_hash = EXCLUDED.pin_hash,
		    pin_salt = EXCLUDED.pin_salt,
		    pin_length = EXCLUDED.pin_length,
		    biometric_enabled = EXCLUDED.biometric_enabled,
		    max_attempts = EXCLUDED.max_attempts,
		    wipe_on_max_attempts = EXCLUDED.wipe_on_max_attempts,
		    updated_at = now()`,
		cred.UserID, cred.PinHash, cred.PinSalt, cred.PinLength,
		cred.BiometricEnabled, cred.MaxAttempts, cred.WipeOnMaxAttempts,
	)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

// Disable clears the hash and salt but keeps the row so settings survive
// re-enrollment.
func (r *credentialRepo) Disable(ctx context.Context, db DBTX, userID uuid.UUID) error {
	_, err := db.Exec(ctx, `
		UPDATE pin_credentials
		SET pin_hash = NULL, pin_salt = NULL, updated_at = now()
		WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("disable credential: %w", err)
	}
	return nil
}

func (r *credentialRepo) UpdateSettings(ctx context.Context, db DBTX, userID uuid.UUID, biometric, wipeOnMax *bool) (*domain.PinCredential, error) {
	row := db.QueryRow(ctx, `
		UPDATE pin_credentials
		SET biometric_enabled = COALESCE($2, biometric_enabled),
		    wipe_on_max_attempts = COALESCE($3, wipe_on_max_attempts),
		    updated_at = now()
		WHERE user_id = $1
		RETURNING `+credentialColumns, userID, biometric, wipeOnMax)
	return scanCredential(row)
}

func scanCredential(row pgx.Row) (*domain.PinCredential, error) {
	var c domain.PinCredential
	err := row.Scan(&c.UserID, &c.PinHash, &c.PinSalt, &c.PinLength,
		&c.BiometricEnabled, &c.MaxAttempts, &c.WipeOnMaxAttempts, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan credential: %w", err)
	}
	return &c, nil
}
