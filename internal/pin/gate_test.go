package pin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradevault/platform/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGate(t *testing.T) (*Gate, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewGate(NewPBKDF2Hasher(), store, testLogger()), store
}

func credFor(t *testing.T, g *Gate, pin string, wipe bool) *domain.PinCredential {
	t.Helper()
	hash, salt, err := g.Setup(pin, len(pin))
	require.NoError(t, err)
	return &domain.PinCredential{
		UserID:            uuid.New(),
		PinHash:           &hash,
		PinSalt:           &salt,
		PinLength:         len(pin),
		MaxAttempts:       5,
		WipeOnMaxAttempts: wipe,
	}
}

func TestValidatePin(t *testing.T) {
	assert.NoError(t, ValidatePin("1234", 4))
	assert.NoError(t, ValidatePin("123456", 6))
	assert.Error(t, ValidatePin("123", 4))
	assert.Error(t, ValidatePin("12345", 4))
	assert.Error(t, ValidatePin("12a4", 4))
	assert.Error(t, ValidatePin("", 4))
}

func TestHasher_CreateAndVerify(t *testing.T) {
	h := NewPBKDF2Hasher()

	hash, salt, err := h.Create("4821")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEmpty(t, salt)

	ok, err := h.Verify("4821", hash, salt)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("0000", hash, salt)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_SaltsDiffer(t *testing.T) {
	h := NewPBKDF2Hasher()

	hash1, salt1, err := h.Create("4821")
	require.NoError(t, err)
	hash2, salt2, err := h.Create("4821")
	require.NoError(t, err)

	assert.NotEqual(t, salt1, salt2)
	assert.NotEqual(t, hash1, hash2)
}

func TestGate_VerifySuccessResetsCounter(t *testing.T) {
	g, _ := newTestGate(t)
	cred := credFor(t, g, "4821", false)
	ctx := context.Background()

	// 4 wrong attempts, still under the limit.
	for i := 0; i < 4; i++ {
		outcome, err := g.Verify(ctx, cred.UserID, "0000", cred)
		require.NoError(t, err)
		assert.Equal(t, OutcomeInvalid, outcome)
	}
	assert.Equal(t, 1, g.AttemptsRemaining(cred.UserID, cred))

	// Correct attempt before the limit resets to 0.
	outcome, err := g.Verify(ctx, cred.UserID, "4821", cred)
	require.NoError(t, err)
	assert.Equal(t, OutcomeValid, outcome)
	assert.Equal(t, 5, g.AttemptsRemaining(cred.UserID, cred))
}

func TestGate_LockoutAfterMaxAttempts(t *testing.T) {
	g, _ := newTestGate(t)
	cred := credFor(t, g, "4821", false)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		outcome, err := g.Verify(ctx, cred.UserID, "0000", cred)
		require.NoError(t, err)
		assert.Equal(t, OutcomeInvalid, outcome)
	}

	// 5th wrong attempt reaches the limit.
	outcome, err := g.Verify(ctx, cred.UserID, "0000", cred)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLocked, outcome)

	// Even the correct PIN is refused while locked.
	outcome, err = g.Verify(ctx, cred.UserID, "4821", cred)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLocked, outcome)

	// Explicit reset restores access.
	g.ResetAttempts(cred.UserID)
	outcome, err = g.Verify(ctx, cred.UserID, "4821", cred)
	require.NoError(t, err)
	assert.Equal(t, OutcomeValid, outcome)
}

func TestGate_WipeOnMaxAttempts(t *testing.T) {
	g, store := newTestGate(t)
	cred := credFor(t, g, "4821", true)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, cred.UserID, "journal.draft", []byte("trade notes")))
	require.NoError(t, store.Set(ctx, cred.UserID, "settings.theme", []byte("dark")))

	for i := 0; i < 4; i++ {
		_, err := g.Verify(ctx, cred.UserID, "0000", cred)
		require.NoError(t, err)
	}

	outcome, err := g.Verify(ctx, cred.UserID, "0000", cred)
	require.NoError(t, err)
	assert.Equal(t, OutcomeWiped, outcome, "wipe must be reported distinctly from lockout")

	_, ok, err := store.Get(ctx, cred.UserID, "journal.draft")
	require.NoError(t, err)
	assert.False(t, ok, "cached data must be gone after wipe")
	_, ok, _ = store.Get(ctx, cred.UserID, "settings.theme")
	assert.False(t, ok)
}

type failingHasher struct{}

func (failingHasher) Create(string) (string, string, error) {
	return "", "", errors.New("hashing backend unavailable")
}
func (failingHasher) Verify(string, string, string) (bool, error) {
	return false, errors.New("hashing backend unavailable")
}

func TestGate_HasherFailureIsFatalNotSilent(t *testing.T) {
	store := NewMemoryStore()
	g := NewGate(failingHasher{}, store, testLogger())
	ctx := context.Background()

	_, _, err := g.Setup("4821", 4)
	require.Error(t, err, "a pin must never be considered set without a confirmed hash/salt pair")

	hash, salt := "aa", "bb"
	cred := &domain.PinCredential{UserID: uuid.New(), PinHash: &hash, PinSalt: &salt, MaxAttempts: 5}
	_, err = g.Verify(ctx, cred.UserID, "4821", cred)
	require.Error(t, err)
	// A hasher failure burns no attempt.
	assert.Equal(t, 5, g.AttemptsRemaining(cred.UserID, cred))
}

func TestGate_DisabledCredentialRejected(t *testing.T) {
	g, _ := newTestGate(t)

	_, err := g.Verify(context.Background(), uuid.New(), "4821", &domain.PinCredential{MaxAttempts: 5})
	require.Error(t, err)
}
