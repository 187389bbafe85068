package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tradevault/platform/internal/domain"
)

type deviceRepo struct{}

// NewDeviceRepository returns a pgx-backed DeviceRepository.
func NewDeviceRepository() DeviceRepository {
	return &deviceRepo{}
}

const deviceColumns = `id, user_id, fingerprint, display_name, is_trusted, last_used_at, created_at`

func (r *deviceRepo) FindByFingerprint(ctx context.Context, db DBTX, userID uuid.UUID, fingerprint string) (*domain.TrustedDevice, error) {
	row := db.QueryRow(ctx, `
		SELECT `+deviceColumns+`
		FROM trusted_devices
		WHERE user_id = $1 AND fingerprint = $2`, userID, fingerprint)
	return scanDevice(row)
}

func (r *deviceRepo) CountTrusted(ctx context.Context, db DBTX, userID uuid.UUID) (int, error) {
	var count int
	err := db.QueryRow(ctx, `
		SELECT COUNT(*) FROM trusted_devices
		WHERE user_id = $1 AND is_trusted = true`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count trusted devices: %w", err)
	}
	return count, nil
}

func (r *deviceRepo) UpsertTrust(ctx context.Context, db DBTX, userID uuid.UUID, fingerprint, displayName string) (*domain.TrustedDevice, error) {
	row := db.QueryRow(ctx, `
		INSERT INTO trusted_devices (id, user_id, fingerprint, display_name, is_trusted, last_used_at, created_at)
		VALUES ($1, $2, $3, $4, true, now(), now())
		ON CONFLICT (user_id, fingerprint) DO UPDATE
		SET is_trusted = true,
		    display_name = CASE WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name ELSE trusted_devices.display_name END,
		    last_used_at = now()
		RETURNING `+deviceColumns,
		uuid.New(), userID, fingerprint, displayName)
	return scanDevice(row)
}

func (r *deviceRepo) TouchLastUsed(ctx context.Context, db DBTX, id uuid.UUID) error {
	_, err := db.Exec(ctx, `
		UPDATE trusted_devices SET last_used_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("touch device: %w", err)
	}
	return nil
}

func (r *deviceRepo) Untrust(ctx context.Context, db DBTX, id, userID uuid.UUID) (*domain.TrustedDevice, error) {
	row := db.QueryRow(ctx, `
		UPDATE trusted_devices SET is_trusted = false
		WHERE id = $1 AND user_id = $2
		RETURNING `+deviceColumns, id, userID)
	return scanDevice(row)
}

func (r *deviceRepo) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.TrustedDevice, error) {
	rows, err := db.Query(ctx, `
		SELECT `+deviceColumns+`
		FROM trusted_devices
		WHERE user_id = $1
		ORDER BY last_used_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	var out []domain.TrustedDevice
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func scanDevice(row pgx.Row) (*domain.TrustedDevice, error) {
	var d domain.TrustedDevice
	err := row.Scan(&d.ID, &d.UserID, &d.Fingerprint, &d.DisplayName, &d.IsTrusted, &d.LastUsedAt, &d.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan device: %w", err)
	}
	return &d, nil
}
