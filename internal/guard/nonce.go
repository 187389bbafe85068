package guard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tradevault/platform/internal/domain"
)

// NonceTTL bounds how long an issued anti-replay token stays redeemable.
const NonceTTL = 10 * time.Minute

// NonceStore issues and consumes single-use anti-replay tokens for
// state-changing security actions (resolving anomalies, untrusting devices).
// Consume must validate and mark the token in one atomic step so a replayed
// request can never be accepted twice, and must return the same generic
// error for missing, expired and already-consumed tokens.
type NonceStore interface {
	Issue(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	Consume(ctx context.Context, userID uuid.UUID, nonce string) error
}

// PgNonceStore persists nonces in Postgres. The atomic check-and-consume is
// a single conditional DELETE.
type PgNonceStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewPgNonceStore creates a Postgres-backed nonce store.
func NewPgNonceStore(pool *pgxpool.Pool) *PgNonceStore {
	return &PgNonceStore{pool: pool, ttl: NonceTTL}
}

// Issue creates a fresh single-use token bound to userID. Tokens that
// expired unredeemed are swept here; Consume only removes what it is handed.
func (s *PgNonceStore) Issue(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	if _, err := s.pool.Exec(ctx, `
		DELETE FROM security_nonces WHERE expires_at <= now()`); err != nil {
		return uuid.Nil, domain.ErrInternal("sweep nonces", err)
	}

	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO security_nonces (id, user_id, expires_at)
		VALUES ($1, $2, $3)`,
		id, userID, time.Now().Add(s.ttl))
	if err != nil {
		return uuid.Nil, domain.ErrInternal("issue nonce", err)
	}
	return id, nil
}

// Consume atomically validates and destroys the token. Any failure mode
// yields the same generic rejection.
func (s *PgNonceStore) Consume(ctx context.Context, userID uuid.UUID, nonce string) error {
	id, err := uuid.Parse(nonce)
	if err != nil {
		return domain.ErrReplayRejected()
	}

	var consumed uuid.UUID
	err = s.pool.QueryRow(ctx, `
		DELETE FROM security_nonces
		WHERE id = $1 AND user_id = $2 AND expires_at > now()
		RETURNING id`,
		id, userID).Scan(&consumed)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrReplayRejected()
	}
	if err != nil {
		return domain.ErrInternal("consume nonce", err)
	}
	return nil
}

type memNonce struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// MemoryNonceStore is the in-process NonceStore used in tests and local
// development. Check-and-consume happens under one lock.
type MemoryNonceStore struct {
	mu     sync.Mutex
	nonces map[uuid.UUID]memNonce
	ttl    time.Duration
}

// NewMemoryNonceStore creates an empty in-memory nonce store.
func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{
		nonces: make(map[uuid.UUID]memNonce),
		ttl:    NonceTTL,
	}
}

func (s *MemoryNonceStore) Issue(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, entry := range s.nonces {
		if now.After(entry.expiresAt) {
			delete(s.nonces, id)
		}
	}

	id := uuid.New()
	s.nonces[id] = memNonce{userID: userID, expiresAt: time.Now().Add(s.ttl)}
	return id, nil
}

func (s *MemoryNonceStore) Consume(_ context.Context, userID uuid.UUID, nonce string) error {
	id, err := uuid.Parse(nonce)
	if err != nil {
		return domain.ErrReplayRejected()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.nonces[id]
	if !ok || entry.userID != userID || time.Now().After(entry.expiresAt) {
		// Expired entries are dropped on sight; the caller learns nothing
		// about which condition failed.
		delete(s.nonces, id)
		return domain.ErrReplayRejected()
	}
	delete(s.nonces, id)
	return nil
}
