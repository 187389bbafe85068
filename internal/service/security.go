package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tradevault/platform/internal/anomaly"
	"github.com/tradevault/platform/internal/domain"
	"github.com/tradevault/platform/internal/fingerprint"
	"github.com/tradevault/platform/internal/guard"
	"github.com/tradevault/platform/internal/netrisk"
	"github.com/tradevault/platform/internal/repository"
	"github.com/tradevault/platform/internal/risk"
)

// RapidIPWindow is the trailing window for the rapid-IP-change risk factor.
const RapidIPWindow = 30 * time.Minute

// UnresolvedAnomalyLimit caps the user-facing unresolved anomaly list.
const UnresolvedAnomalyLimit = 10

// SecurityService orchestrates the session tracking pipeline: fingerprint,
// network enrichment, risk scoring, anomaly detection, ledger append,
// trusted-device bookkeeping.
type SecurityService struct {
	pool      *pgxpool.Pool
	sessions  repository.SessionRepository
	anomalies repository.AnomalyRepository
	devices   repository.DeviceRepository
	outbox    repository.OutboxRepository
	assessor  *netrisk.Assessor
	scorer    *risk.Scorer
	detector  *anomaly.Detector
	nonces    guard.NonceStore
	logger    *slog.Logger

	historyLimit   int
	autoTrustLimit int
}

// SecurityServiceParams bundles the SecurityService dependencies.
type SecurityServiceParams struct {
	Pool      *pgxpool.Pool
	Sessions  repository.SessionRepository
	Anomalies repository.AnomalyRepository
	Devices   repository.DeviceRepository
	Outbox    repository.OutboxRepository
	Assessor  *netrisk.Assessor
	Scorer    *risk.Scorer
	Detector  *anomaly.Detector
	Nonces    guard.NonceStore
	Logger    *slog.Logger

	HistoryLimit   int
	AutoTrustLimit int
}

// NewSecurityService creates a SecurityService.
func NewSecurityService(p SecurityServiceParams) *SecurityService {
	if p.HistoryLimit <= 0 {
		p.HistoryLimit = anomaly.DefaultHistoryLimit
	}
	if p.AutoTrustLimit < 0 {
		p.AutoTrustLimit = 0
	}
	return &SecurityService{
		pool:           p.Pool,
		sessions:       p.Sessions,
		anomalies:      p.Anomalies,
		devices:        p.Devices,
		outbox:         p.Outbox,
		assessor:       p.Assessor,
		scorer:         p.Scorer,
		detector:       p.Detector,
		nonces:         p.Nonces,
		logger:         p.Logger,
		historyLimit:   p.HistoryLimit,
		autoTrustLimit: p.AutoTrustLimit,
	}
}

// TrackSessionInput is one session tracking event as seen at the API edge.
type TrackSessionInput struct {
	UserID      uuid.UUID
	ActorRole   string
	Elevated    bool
	IP          string
	Signals     domain.DeviceSignals
	Fingerprint string // optional client-supplied fingerprint
}

// TrackSessionResult is the caller-facing outcome of a tracking event.
type TrackSessionResult struct {
	SessionID            uuid.UUID             `json:"session_id"`
	Risk                 domain.RiskAssessment `json:"risk_assessment"`
	Anomalies            []domain.Anomaly      `json:"anomalies"`
	RequiresVerification bool                  `json:"requires_verification"`
}

// TrackSession runs the full pipeline for one session event. The ledger
// append is the only fatal step; enrichment, anomaly persistence and device
// bookkeeping all degrade without aborting the request.
func (s *SecurityService) TrackSession(ctx context.Context, in TrackSessionInput) (*TrackSessionResult, error) {
	fp := fingerprint.Normalize(in.Fingerprint, in.Signals)
	netCtx := s.assessor.Assess(ctx, in.IP)

	history, err := s.sessions.ListRecent(ctx, s.pool, in.UserID, s.historyLimit, anomaly.DefaultHistoryMaxAge)
	if err != nil {
		s.logger.Error("session history fetch failed", "user_id", in.UserID, "error", err)
		history = nil
	}

	assessment := s.scorer.Score(risk.Input{
		Network:           *netCtx,
		ClientTimezone:    in.Signals.Timezone,
		ClientLanguage:    in.Signals.Locale,
		DistinctRecentIPs: s.distinctRecentIPs(ctx, in.UserID, in.IP),
		ElevatedActor:     in.ActorRole == domain.RoleAdmin && in.Elevated,
	})

	rec := &domain.SessionRecord{
		ID:          uuid.New(),
		UserID:      in.UserID,
		Fingerprint: fp,
		Network:     *netCtx,
		Risk:        assessment,
		Elevated:    in.Elevated,
		ActorRole:   in.ActorRole,
		CreatedAt:   time.Now(),
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := s.sessions.Insert(ctx, tx, rec); err != nil {
		return nil, domain.ErrInternal("append session record", err)
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewSessionTrackedEvent(rec)); err != nil {
		return nil, domain.ErrInternal("write outbox", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	found := s.detector.Detect(anomaly.Event{
		UserID:      rec.UserID,
		SessionID:   rec.ID,
		Fingerprint: rec.Fingerprint,
		Network:     rec.Network,
		Risk:        rec.Risk,
		At:          rec.CreatedAt,
	}, history)
	persisted := s.persistAnomalies(ctx, found)

	s.registerDevice(ctx, in.UserID, fp)

	return &TrackSessionResult{
		SessionID:            rec.ID,
		Risk:                 assessment,
		Anomalies:            persisted,
		RequiresVerification: risk.RequiresVerification(assessment.Action),
	}, nil
}

// distinctRecentIPs counts the user's distinct source IPs in the rapid-IP
// window, current IP included. Errors degrade to zero: the factor is a
// heuristic, not a gate.
func (s *SecurityService) distinctRecentIPs(ctx context.Context, userID uuid.UUID, currentIP string) int {
	count, err := s.sessions.DistinctIPsSince(ctx, s.pool, userID, time.Now().Add(-RapidIPWindow))
	if err != nil {
		s.logger.Error("distinct ip count failed", "user_id", userID, "error", err)
		return 0
	}

	rows, err := s.pool.Query(ctx, `
		SELECT 1 FROM session_records
		WHERE user_id = $1 AND ip = $2 AND created_at > $3
		LIMIT 1`, userID, currentIP, time.Now().Add(-RapidIPWindow))
	if err != nil {
		return count + 1
	}
	defer rows.Close()
	if !rows.Next() {
		count++
	}
	return count
}

// persistAnomalies stores detected anomalies best-effort. A storage failure
// drops the anomaly from the response but never fails the tracking event.
func (s *SecurityService) persistAnomalies(ctx context.Context, found []domain.Anomaly) []domain.Anomaly {
	var persisted []domain.Anomaly
	for _, a := range found {
		if err := s.anomalies.Insert(ctx, s.pool, &a); err != nil {
			s.logger.Error("anomaly insert failed", "user_id", a.UserID, "type", a.Type, "error", err)
			continue
		}
		if err := s.outbox.Insert(ctx, s.pool, domain.NewAnomalyDetectedEvent(&a)); err != nil {
			s.logger.Error("anomaly outbox write failed", "anomaly_id", a.ID, "error", err)
		}
		persisted = append(persisted, a)
	}
	return persisted
}

// registerDevice bumps a known device or auto-trusts a new one while the
// user is under the auto-trust cap. Best-effort.
func (s *SecurityService) registerDevice(ctx context.Context, userID uuid.UUID, fp string) {
	if fp == "" {
		return
	}

	device, err := s.devices.FindByFingerprint(ctx, s.pool, userID, fp)
	if err != nil {
		s.logger.Error("device lookup failed", "user_id", userID, "error", err)
		return
	}

	if device != nil {
		if err := s.devices.TouchLastUsed(ctx, s.pool, device.ID); err != nil {
			s.logger.Error("device touch failed", "device_id", device.ID, "error", err)
		}
		return
	}

	count, err := s.devices.CountTrusted(ctx, s.pool, userID)
	if err != nil {
		s.logger.Error("device count failed", "user_id", userID, "error", err)
		return
	}
	if count >= s.autoTrustLimit {
		return
	}

	if _, err := s.devices.UpsertTrust(ctx, s.pool, userID, fp, ""); err != nil {
		s.logger.Error("device auto-trust failed", "user_id", userID, "error", err)
		return
	}
	if err := s.outbox.Insert(ctx, s.pool, domain.NewDeviceTrustEvent(userID, fp, true)); err != nil {
		s.logger.Error("device outbox write failed", "user_id", userID, "error", err)
	}
	s.logger.Info("device auto-trusted", "user_id", userID, "fingerprint", fp)
}

// ListAnomalies returns the user's unresolved anomalies, newest first.
func (s *SecurityService) ListAnomalies(ctx context.Context, userID uuid.UUID) ([]domain.Anomaly, error) {
	anomalies, err := s.anomalies.ListUnresolved(ctx, s.pool, userID, UnresolvedAnomalyLimit)
	if err != nil {
		return nil, domain.ErrInternal("list anomalies", err)
	}
	return anomalies, nil
}

// ResolveAnomaly marks an anomaly resolved. The nonce is consumed first;
// a replayed or forged request never reaches the mutation.
func (s *SecurityService) ResolveAnomaly(ctx context.Context, userID, anomalyID uuid.UUID, nonce string) error {
	if err := s.nonces.Consume(ctx, userID, nonce); err != nil {
		return err
	}

	a, err := s.anomalies.Resolve(ctx, s.pool, anomalyID, userID)
	if err != nil {
		return domain.ErrInternal("resolve anomaly", err)
	}
	if a == nil {
		return domain.ErrNotFound("anomaly", anomalyID.String())
	}

	if err := s.outbox.Insert(ctx, s.pool, domain.NewAnomalyResolvedEvent(anomalyID, userID, userID)); err != nil {
		s.logger.Error("resolve outbox write failed", "anomaly_id", anomalyID, "error", err)
	}
	return nil
}

// IssueNonce hands out a single-use anti-replay token for the user.
func (s *SecurityService) IssueNonce(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	return s.nonces.Issue(ctx, userID)
}

// AdminListSessions returns a user's recent ledger rows for the audit view.
func (s *SecurityService) AdminListSessions(ctx context.Context, userID uuid.UUID) ([]domain.SessionRecord, error) {
	records, err := s.sessions.ListRecent(ctx, s.pool, userID, s.historyLimit, anomaly.DefaultHistoryMaxAge)
	if err != nil {
		return nil, domain.ErrInternal("list sessions", err)
	}
	return records, nil
}

// AdminListAnomalies returns recent anomalies across all users.
func (s *SecurityService) AdminListAnomalies(ctx context.Context, limit int) ([]domain.Anomaly, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	anomalies, err := s.anomalies.ListRecent(ctx, s.pool, limit)
	if err != nil {
		return nil, domain.ErrInternal("list anomalies", err)
	}
	return anomalies, nil
}
