package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tradevault/platform/internal/domain"
	"github.com/tradevault/platform/internal/pin"
	"github.com/tradevault/platform/internal/repository"
)

// PinService manages the local credential gate: PIN enrollment, verification
// with attempt limiting, and settings.
type PinService struct {
	pool        *pgxpool.Pool
	credentials repository.CredentialRepository
	outbox      repository.OutboxRepository
	gate        *pin.Gate
	logger      *slog.Logger

	pinLength   int
	maxAttempts int
}

// NewPinService creates a PinService.
func NewPinService(pool *pgxpool.Pool, credentials repository.CredentialRepository, outbox repository.OutboxRepository, gate *pin.Gate, pinLength, maxAttempts int, logger *slog.Logger) *PinService {
	if pinLength <= 0 {
		pinLength = 4
	}
	if maxAttempts <= 0 {
		maxAttempts = pin.DefaultMaxAttempts
	}
	return &PinService{
		pool:        pool,
		credentials: credentials,
		outbox:      outbox,
		gate:        gate,
		logger:      logger,
		pinLength:   pinLength,
		maxAttempts: maxAttempts,
	}
}

// Setup enrolls a new PIN. Re-enrollment replaces the hash but keeps the
// credential's settings.
func (s *PinService) Setup(ctx context.Context, userID uuid.UUID, pinCode string) error {
	hash, salt, err := s.gate.Setup(pinCode, s.pinLength)
	if err != nil {
		if appErr, ok := err.(*domain.AppError); ok {
			return appErr
		}
		return domain.ErrValidation(err.Error())
	}

	cred := &domain.PinCredential{
		UserID:            userID,
		PinHash:           &hash,
		PinSalt:           &salt,
		PinLength:         s.pinLength,
		MaxAttempts:       s.maxAttempts,
		WipeOnMaxAttempts: false,
	}
	if existing, err := s.credentials.Get(ctx, s.pool, userID); err == nil && existing != nil {
		cred.BiometricEnabled = existing.BiometricEnabled
		cred.WipeOnMaxAttempts = existing.WipeOnMaxAttempts
		cred.MaxAttempts = existing.MaxAttempts
	}

	if err := s.credentials.Upsert(ctx, s.pool, cred); err != nil {
		return domain.ErrInternal("store credential", err)
	}
	s.gate.ResetAttempts(userID)
	return nil
}

// Verify checks the PIN against the stored credential. Exhausting the
// attempt limit locks the gate or, when the credential opts in, destroys the
// local cache.
func (s *PinService) Verify(ctx context.Context, userID uuid.UUID, pinCode string) error {
	cred, err := s.credentials.Get(ctx, s.pool, userID)
	if err != nil {
		return domain.ErrInternal("load credential", err)
	}
	if cred == nil || !cred.Enabled() {
		return domain.ErrNotFound("pin credential", userID.String())
	}

	outcome, err := s.gate.Verify(ctx, userID, pinCode, cred)
	if err != nil {
		return domain.ErrInternal("verify pin", err)
	}

	switch outcome {
	case pin.OutcomeValid:
		return nil
	case pin.OutcomeLocked:
		return domain.ErrPinLocked()
	case pin.OutcomeWiped:
		if err := s.credentials.Disable(ctx, s.pool, userID); err != nil {
			s.logger.Error("credential disable after wipe failed", "user_id", userID, "error", err)
		}
		if err := s.outbox.Insert(ctx, s.pool, domain.NewPinWipedEvent(userID, cred.MaxAttempts)); err != nil {
			s.logger.Error("wipe outbox write failed", "user_id", userID, "error", err)
		}
		return domain.ErrPinWiped()
	default:
		return domain.ErrPinInvalid(s.gate.AttemptsRemaining(userID, cred))
	}
}

// Disable clears the stored hash and salt; the credential row and its
// settings survive for re-enrollment.
func (s *PinService) Disable(ctx context.Context, userID uuid.UUID) error {
	cred, err := s.credentials.Get(ctx, s.pool, userID)
	if err != nil {
		return domain.ErrInternal("load credential", err)
	}
	if cred == nil {
		return domain.ErrNotFound("pin credential", userID.String())
	}

	if err := s.credentials.Disable(ctx, s.pool, userID); err != nil {
		return domain.ErrInternal("disable credential", err)
	}
	s.gate.ResetAttempts(userID)
	return nil
}

// UpdateSettings applies partial changes to the credential's capability
// toggles.
func (s *PinService) UpdateSettings(ctx context.Context, userID uuid.UUID, biometric, wipeOnMax *bool) (*domain.PinCredential, error) {
	cred, err := s.credentials.UpdateSettings(ctx, s.pool, userID, biometric, wipeOnMax)
	if err != nil {
		return nil, domain.ErrInternal("update settings", err)
	}
	if cred == nil {
		return nil, domain.ErrNotFound("pin credential", userID.String())
	}
	return cred, nil
}
