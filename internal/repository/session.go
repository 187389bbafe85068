package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tradevault/platform/internal/domain"
)

type sessionRepo struct{}

// NewSessionRepository returns a pgx-backed SessionRepository.
func NewSessionRepository() SessionRepository {
	return &sessionRepo{}
}

func (r *sessionRepo) Insert(ctx context.Context, db DBTX, rec *domain.SessionRecord) error {
	factors, err := json.Marshal(rec.Risk.Factors)
	if err != nil {
		return fmt.Errorf("marshal risk factors: %w", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO session_records (
			id, user_id, fingerprint,
			ip, country_code, region, city, isp, asn, organization,
			vpn, proxy, tor, hosting,
			risk_score, risk_level, risk_factors, action,
			elevated, actor_role, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		rec.ID, rec.UserID, rec.Fingerprint,
		rec.Network.IP, rec.Network.CountryCode, rec.Network.Region, rec.Network.City,
		rec.Network.ISP, rec.Network.ASN, rec.Network.Organization,
		rec.Network.Flags.VPN, rec.Network.Flags.Proxy, rec.Network.Flags.Tor, rec.Network.Flags.Hosting,
		rec.Risk.Score, rec.Risk.Level, factors, rec.Risk.Action,
		rec.Elevated, rec.ActorRole, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session record: %w", err)
	}
	return nil
}

func (r *sessionRepo) ListRecent(ctx context.Context, db DBTX, userID uuid.UUID, limit int, maxAge time.Duration) ([]domain.SessionRecord, error) {
	rows, err := db.Query(ctx, `
		SELECT id, user_id, fingerprint,
		       ip, country_code, region, city, isp, asn, organization,
		       vpn, proxy, tor, hosting,
		       risk_score, risk_level, risk_factors, action,
		       elevated, actor_role, created_at
		FROM session_records
		WHERE user_id = $1 AND created_at > $2
		ORDER BY created_at DESC
		LIMIT $3`, userID, time.Now().Add(-maxAge), limit)
	if err != nil {
		return nil, fmt.Errorf("query session records: %w", err)
	}
	defer rows.Close()

	var records []domain.SessionRecord
	for rows.Next() {
		rec, err := scanSessionRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *sessionRepo) DistinctIPsSince(ctx context.Context, db DBTX, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := db.QueryRow(ctx, `
		SELECT COUNT(DISTINCT ip)
		FROM session_records
		WHERE user_id = $1 AND created_at > $2`, userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count distinct ips: %w", err)
	}
	return count, nil
}

func scanSessionRecord(row pgx.Row) (*domain.SessionRecord, error) {
	var rec domain.SessionRecord
	var factors []byte
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Fingerprint,
		&rec.Network.IP, &rec.Network.CountryCode, &rec.Network.Region, &rec.Network.City,
		&rec.Network.ISP, &rec.Network.ASN, &rec.Network.Organization,
		&rec.Network.Flags.VPN, &rec.Network.Flags.Proxy, &rec.Network.Flags.Tor, &rec.Network.Flags.Hosting,
		&rec.Risk.Score, &rec.Risk.Level, &factors, &rec.Risk.Action,
		&rec.Elevated, &rec.ActorRole, &rec.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan session record: %w", err)
	}

	if len(factors) > 0 {
		if err := json.Unmarshal(factors, &rec.Risk.Factors); err != nil {
			return nil, fmt.Errorf("unmarshal risk factors: %w", err)
		}
	}
	rec.Network.Known = rec.Network.CountryCode != "" || rec.Network.ISP != ""
	rec.Risk.ConnectionMasked = rec.Network.Flags.Masked()
	return &rec, nil
}
