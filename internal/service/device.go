package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tradevault/platform/internal/domain"
	"github.com/tradevault/platform/internal/guard"
	"github.com/tradevault/platform/internal/repository"
)

// DeviceService manages the user's trusted-device registry.
type DeviceService struct {
	pool    *pgxpool.Pool
	devices repository.DeviceRepository
	outbox  repository.OutboxRepository
	nonces  guard.NonceStore
	logger  *slog.Logger
}

// NewDeviceService creates a DeviceService.
func NewDeviceService(pool *pgxpool.Pool, devices repository.DeviceRepository, outbox repository.OutboxRepository, nonces guard.NonceStore, logger *slog.Logger) *DeviceService {
	return &DeviceService{
		pool:    pool,
		devices: devices,
		outbox:  outbox,
		nonces:  nonces,
		logger:  logger,
	}
}

// List returns the user's devices, most recently used first.
func (s *DeviceService) List(ctx context.Context, userID uuid.UUID) ([]domain.TrustedDevice, error) {
	devices, err := s.devices.ListByUser(ctx, s.pool, userID)
	if err != nil {
		return nil, domain.ErrInternal("list devices", err)
	}
	return devices, nil
}

// Trust marks a device trusted for the user. Explicit trust bypasses the
// auto-trust cap and is idempotent.
func (s *DeviceService) Trust(ctx context.Context, userID uuid.UUID, fingerprint, displayName string) (*domain.TrustedDevice, error) {
	if fingerprint == "" {
		return nil, domain.ErrValidation("fingerprint is required")
	}

	device, err := s.devices.UpsertTrust(ctx, s.pool, userID, fingerprint, displayName)
	if err != nil {
		return nil, domain.ErrInternal("trust device", err)
	}

	if err := s.outbox.Insert(ctx, s.pool, domain.NewDeviceTrustEvent(userID, fingerprint, true)); err != nil {
		s.logger.Error("trust outbox write failed", "user_id", userID, "error", err)
	}
	return device, nil
}

// Untrust removes trust from one of the user's devices. The nonce is
// consumed first so the action cannot be replayed.
func (s *DeviceService) Untrust(ctx context.Context, userID, deviceID uuid.UUID, nonce string) error {
	if err := s.nonces.Consume(ctx, userID, nonce); err != nil {
		return err
	}

	device, err := s.devices.Untrust(ctx, s.pool, deviceID, userID)
	if err != nil {
		return domain.ErrInternal("untrust device", err)
	}
	if device == nil {
		return domain.ErrNotFound("device", deviceID.String())
	}

	if err := s.outbox.Insert(ctx, s.pool, domain.NewDeviceTrustEvent(userID, device.Fingerprint, false)); err != nil {
		s.logger.Error("untrust outbox write failed", "user_id", userID, "error", err)
	}
	return nil
}
