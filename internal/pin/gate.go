package pin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/tradevault/platform/internal/domain"
)

// DefaultMaxAttempts is the failed-attempt limit applied when a credential
// carries none. Configurable policy, not an invariant.
const DefaultMaxAttempts = 5

// VerifyOutcome classifies a verification attempt.
type VerifyOutcome int

const (
	// OutcomeValid: PIN matched, counter reset.
	OutcomeValid VerifyOutcome = iota
	// OutcomeInvalid: wrong PIN, counter incremented, attempts remain.
	OutcomeInvalid
	// OutcomeLocked: attempt limit reached, entry locked.
	OutcomeLocked
	// OutcomeWiped: attempt limit reached with wipeOnMaxAttempts set; the
	// local cache was destroyed. Irreversible, distinct from a lockout.
	OutcomeWiped
)

// attemptTracker keeps the ephemeral per-user failed-attempt counters.
// Counters live outside the credential record and reset on success or
// explicit reset.
type attemptTracker struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]int
}

func (t *attemptTracker) fail(userID uuid.UUID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts[userID]++
	return t.attempts[userID]
}

func (t *attemptTracker) count(userID uuid.UUID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts[userID]
}

func (t *attemptTracker) reset(userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, userID)
}

// Gate verifies PINs against stored credentials and enforces the
// attempt-limited lockout / destructive-wipe policy.
type Gate struct {
	hasher  Hasher
	store   Store
	tracker *attemptTracker
	logger  *slog.Logger
}

// NewGate creates a credential gate.
func NewGate(hasher Hasher, store Store, logger *slog.Logger) *Gate {
	return &Gate{
		hasher:  hasher,
		store:   store,
		tracker: &attemptTracker{attempts: make(map[uuid.UUID]int)},
		logger:  logger,
	}
}

// Setup hashes a new PIN. A PIN is only considered set once the hasher has
// confirmed a hash/salt pair; hasher failure is fatal to the operation.
func (g *Gate) Setup(pin string, length int) (hash, salt string, err error) {
	if err := ValidatePin(pin, length); err != nil {
		return "", "", err
	}
	hash, salt, err = g.hasher.Create(pin)
	if err != nil {
		return "", "", fmt.Errorf("hash pin: %w", err)
	}
	return hash, salt, nil
}

// Verify checks pin against cred. On mismatch the ephemeral counter is
// incremented; reaching the limit locks entry or, when the credential opts
// in, destroys the user's local cache. On success the counter resets to 0.
func (g *Gate) Verify(ctx context.Context, userID uuid.UUID, pin string, cred *domain.PinCredential) (VerifyOutcome, error) {
	if !cred.Enabled() {
		return OutcomeInvalid, fmt.Errorf("no pin credential set")
	}

	maxAttempts := cred.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	if g.tracker.count(userID) >= maxAttempts {
		return OutcomeLocked, nil
	}

	ok, err := g.hasher.Verify(pin, *cred.PinHash, *cred.PinSalt)
	if err != nil {
		// Fail closed: a hashing failure is a verification failure, never
		// a silent pass, and it does not burn an attempt.
		return OutcomeInvalid, fmt.Errorf("verify pin: %w", err)
	}

	if ok {
		g.tracker.reset(userID)
		return OutcomeValid, nil
	}

	attempts := g.tracker.fail(userID)
	if attempts < maxAttempts {
		return OutcomeInvalid, nil
	}

	if cred.WipeOnMaxAttempts {
		if err := g.store.Clear(ctx, userID); err != nil {
			g.logger.Error("local wipe failed", "user_id", userID, "error", err)
			return OutcomeLocked, nil
		}
		g.logger.Warn("local data wiped after pin attempt limit",
			"user_id", userID, "failed_attempts", attempts)
		return OutcomeWiped, nil
	}
	return OutcomeLocked, nil
}

// AttemptsRemaining returns how many attempts the user has left.
func (g *Gate) AttemptsRemaining(userID uuid.UUID, cred *domain.PinCredential) int {
	maxAttempts := DefaultMaxAttempts
	if cred != nil && cred.MaxAttempts > 0 {
		maxAttempts = cred.MaxAttempts
	}
	remaining := maxAttempts - g.tracker.count(userID)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetAttempts clears the user's counter (explicit reset, e.g. after an
// out-of-band re-authentication).
func (g *Gate) ResetAttempts(userID uuid.UUID) {
	g.tracker.reset(userID)
}
