package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tradevault/platform/internal/domain"
)

type anomalyRepo struct{}

// NewAnomalyRepository returns a pgx-backed AnomalyRepository.
func NewAnomalyRepository() AnomalyRepository {
	return &anomalyRepo{}
}

const anomalyColumns = `id, user_id, session_id, type, severity, details, resolved, resolved_at, resolved_by, created_at`

func (r *anomalyRepo) Insert(ctx context.Context, db DBTX, a *domain.Anomaly) error {
	_, err := db.Exec(ctx, `
		INSERT INTO anomalies (id, user_id, session_id, type, severity, details, resolved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, false, $7)`,
		a.ID, a.UserID, a.SessionID, a.Type, a.Severity, a.Details, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert anomaly: %w", err)
	}
	return nil
}

func (r *anomalyRepo) ListUnresolved(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.Anomaly, error) {
	rows, err := db.Query(ctx, `
		SELECT `+anomalyColumns+`
		FROM anomalies
		WHERE user_id = $1 AND resolved = false
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query anomalies: %w", err)
	}
	defer rows.Close()
	return collectAnomalies(rows)
}

// Resolve marks the anomaly resolved. The WHERE clause skips rows already
// resolved, so a repeat call falls through to the plain read and reports the
// same final state.
func (r *anomalyRepo) Resolve(ctx context.Context, db DBTX, id, userID uuid.UUID) (*domain.Anomaly, error) {
	row := db.QueryRow(ctx, `
		UPDATE anomalies
		SET resolved = true, resolved_at = now(), resolved_by = $2
		WHERE id = $1 AND user_id = $2 AND resolved = false
		RETURNING `+anomalyColumns, id, userID)

	a, err := scanAnomaly(row)
	if err != nil {
		return nil, err
	}
	if a != nil {
		return a, nil
	}

	row = db.QueryRow(ctx, `
		SELECT `+anomalyColumns+`
		FROM anomalies WHERE id = $1 AND user_id = $2`, id, userID)
	return scanAnomaly(row)
}

func (r *anomalyRepo) ListRecent(ctx context.Context, db DBTX, limit int) ([]domain.Anomaly, error) {
	rows, err := db.Query(ctx, `
		SELECT `+anomalyColumns+`
		FROM anomalies
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent anomalies: %w", err)
	}
	defer rows.Close()
	return collectAnomalies(rows)
}

func collectAnomalies(rows pgx.Rows) ([]domain.Anomaly, error) {
	var out []domain.Anomaly
	for rows.Next() {
		a, err := scanAnomaly(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAnomaly(row pgx.Row) (*domain.Anomaly, error) {
	var a domain.Anomaly
	err := row.Scan(&a.ID, &a.UserID, &a.SessionID, &a.Type, &a.Severity, &a.Details,
		&a.Resolved, &a.ResolvedAt, &a.ResolvedBy, &a.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan anomaly: %w", err)
	}
	return &a, nil
}
