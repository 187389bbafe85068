// Package elevated bounds how long an elevated ("admin mode") privilege
// stays active. The countdown is a small state machine {Inactive, Active}
// with a single owned timer handle: every transition cancels and fully
// replaces the previous schedule, so timers never overlap.
package elevated

import (
	"sync"
	"time"
)

// Policy defaults.
const (
	DefaultDuration = 30 * time.Minute
	DefaultWarnLead = 5 * time.Minute
	DefaultThrottle = time.Minute
)

// State of the elevated session.
type State int

const (
	Inactive State = iota
	Active
)

// Status is a snapshot of the session for callers.
type Status struct {
	State     State     `json:"-"`
	Active    bool      `json:"active"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	Warned    bool      `json:"warned"`
	ViewingAs string    `json:"viewing_as,omitempty"`
}

// Callbacks fire on timer-driven transitions. Both are optional and are
// invoked outside the session lock.
type Callbacks struct {
	// OnWarning fires at warnLead before expiry, once per countdown
	// window. An activity reset starts a new window and re-arms it.
	OnWarning func()
	// OnExpire fires when the countdown runs out; the session is already
	// Inactive and the viewing-as context cleared when it runs.
	OnExpire func()
}

// Session is one admin's elevated-mode countdown.
type Session struct {
	mu        sync.Mutex
	duration  time.Duration
	warnLead  time.Duration
	throttle  time.Duration
	callbacks Callbacks

	state     State
	expiresAt time.Time
	warned    bool
	viewingAs string
	lastReset time.Time
	timer     *time.Timer
}

// NewSession creates an inactive session with the given policy. Zero
// durations fall back to the defaults.
func NewSession(duration, warnLead, throttle time.Duration, callbacks Callbacks) *Session {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if warnLead <= 0 || warnLead >= duration {
		warnLead = DefaultWarnLead
		if warnLead >= duration {
			warnLead = duration / 2
		}
	}
	if throttle < 0 {
		throttle = DefaultThrottle
	}
	return &Session{
		duration:  duration,
		warnLead:  warnLead,
		throttle:  throttle,
		callbacks: callbacks,
	}
}

// Enter activates elevated mode: expiry set to now+duration, warning flag
// cleared. viewingAs records whose data the admin is inspecting; it is
// cleared together with the mode on expiry or exit.
func (s *Session) Enter(viewingAs string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.state = Active
	s.expiresAt = now.Add(s.duration)
	s.warned = false
	s.viewingAs = viewingAs
	s.lastReset = now
	s.schedule(now)
	return s.snapshot()
}

// Activity extends the countdown back to the full duration. Resets are
// throttled to one per throttle interval; a suppressed reset returns false.
func (s *Session) Activity() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Active {
		return false
	}
	now := time.Now()
	if now.Sub(s.lastReset) < s.throttle {
		return false
	}
	s.expiresAt = now.Add(s.duration)
	s.warned = false
	s.lastReset = now
	s.schedule(now)
	return true
}

// Exit deactivates immediately, clearing the timer and viewing-as context
// without waiting for expiry.
func (s *Session) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deactivate()
}

// Current returns a snapshot of the session.
func (s *Session) Current() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// schedule replaces the timer with one aimed at the next transition:
// the warning point if it has not fired yet, otherwise expiry.
// Caller holds the lock.
func (s *Session) schedule(now time.Time) {
	if s.timer != nil {
		s.timer.Stop()
	}
	next := s.expiresAt
	if !s.warned {
		if warnAt := s.expiresAt.Add(-s.warnLead); warnAt.After(now) {
			next = warnAt
		}
	}
	s.timer = time.AfterFunc(next.Sub(now), s.onTimer)
}

func (s *Session) onTimer() {
	s.mu.Lock()
	if s.state != Active {
		s.mu.Unlock()
		return
	}

	now := time.Now()
	if now.Before(s.expiresAt.Add(-s.warnLead / 2)) {
		// Warning point reached with time still left on the clock.
		fireWarning := !s.warned
		s.warned = true
		s.schedule(now)
		s.mu.Unlock()
		if fireWarning && s.callbacks.OnWarning != nil {
			s.callbacks.OnWarning()
		}
		return
	}

	s.deactivate()
	s.mu.Unlock()
	if s.callbacks.OnExpire != nil {
		s.callbacks.OnExpire()
	}
}

// deactivate clears mode, context and timer together. Caller holds the lock.
func (s *Session) deactivate() {
	s.state = Inactive
	s.expiresAt = time.Time{}
	s.warned = false
	s.viewingAs = ""
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) snapshot() Status {
	return Status{
		State:     s.state,
		Active:    s.state == Active,
		ExpiresAt: s.expiresAt,
		Warned:    s.warned,
		ViewingAs: s.viewingAs,
	}
}
