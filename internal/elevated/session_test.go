package elevated

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_EnterSetsExpiry(t *testing.T) {
	s := NewSession(30*time.Minute, 5*time.Minute, time.Minute, Callbacks{})
	defer s.Exit()

	before := time.Now()
	status := s.Enter("user-42")

	assert.True(t, status.Active)
	assert.False(t, status.Warned)
	assert.Equal(t, "user-42", status.ViewingAs)
	assert.WithinDuration(t, before.Add(30*time.Minute), status.ExpiresAt, time.Second)
}

func TestSession_ExpiresAndClearsContext(t *testing.T) {
	var expired atomic.Bool
	s := NewSession(60*time.Millisecond, 20*time.Millisecond, 0, Callbacks{
		OnExpire: func() { expired.Store(true) },
	})

	s.Enter("user-42")
	time.Sleep(150 * time.Millisecond)

	status := s.Current()
	assert.False(t, status.Active)
	assert.Empty(t, status.ViewingAs, "viewing-as context must clear with the mode")
	assert.True(t, status.ExpiresAt.IsZero(), "expiry and mode flag clear together")
	assert.True(t, expired.Load())
}

func TestSession_WarningFiresOnceBeforeExpiry(t *testing.T) {
	var warnings atomic.Int32
	var expired atomic.Bool
	s := NewSession(120*time.Millisecond, 40*time.Millisecond, 0, Callbacks{
		OnWarning: func() { warnings.Add(1) },
		OnExpire:  func() { expired.Store(true) },
	})

	s.Enter("")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), warnings.Load(), "warning fires before expiry")
	assert.False(t, expired.Load())
	assert.True(t, s.Current().Active)

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), warnings.Load(), "warning fires exactly once")
	assert.True(t, expired.Load())
}

func TestSession_WarningRearmsAfterActivityReset(t *testing.T) {
	var warnings atomic.Int32
	s := NewSession(120*time.Millisecond, 40*time.Millisecond, 0, Callbacks{
		OnWarning: func() { warnings.Add(1) },
	})
	defer s.Exit()

	s.Enter("")
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(1), warnings.Load())

	// Reset starts a fresh countdown window with its own warning.
	require.True(t, s.Activity())
	assert.False(t, s.Current().Warned)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(2), warnings.Load(), "one warning per countdown window")
	assert.True(t, s.Current().Active)
}

func TestSession_ActivityResetsToFullDuration(t *testing.T) {
	s := NewSession(30*time.Minute, 5*time.Minute, 0, Callbacks{})
	defer s.Exit()

	s.Enter("")
	time.Sleep(10 * time.Millisecond)

	before := time.Now()
	require.True(t, s.Activity())
	status := s.Current()
	assert.WithinDuration(t, before.Add(30*time.Minute), status.ExpiresAt, time.Second)
}

func TestSession_ActivityThrottled(t *testing.T) {
	s := NewSession(30*time.Minute, 5*time.Minute, 200*time.Millisecond, Callbacks{})
	defer s.Exit()

	s.Enter("")
	// Enter counts as the first reset; an immediate activity burst is
	// suppressed, only one reset applies per throttle window.
	assert.False(t, s.Activity())
	assert.False(t, s.Activity())

	time.Sleep(250 * time.Millisecond)
	assert.True(t, s.Activity())
	assert.False(t, s.Activity(), "second reset within the window is dropped")
}

func TestSession_ActivityIgnoredWhenInactive(t *testing.T) {
	s := NewSession(30*time.Minute, 5*time.Minute, 0, Callbacks{})
	assert.False(t, s.Activity())
}

func TestSession_ExitClearsImmediately(t *testing.T) {
	var expired atomic.Bool
	s := NewSession(30*time.Minute, 5*time.Minute, 0, Callbacks{
		OnExpire: func() { expired.Store(true) },
	})

	s.Enter("user-7")
	s.Exit()

	status := s.Current()
	assert.False(t, status.Active)
	assert.Empty(t, status.ViewingAs)
	assert.False(t, expired.Load(), "explicit exit does not fire the expiry callback")
}

func TestSession_ReEnterAfterExpiry(t *testing.T) {
	s := NewSession(40*time.Millisecond, 10*time.Millisecond, 0, Callbacks{})

	s.Enter("")
	time.Sleep(100 * time.Millisecond)
	require.False(t, s.Current().Active)

	status := s.Enter("user-9")
	assert.True(t, status.Active)
	assert.False(t, status.Warned, "warning flag clears on re-entry")
	s.Exit()
}
