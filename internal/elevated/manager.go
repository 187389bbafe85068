package elevated

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager owns one elevated Session per admin. An admin's identity or role
// change must be followed by Exit so the timer and viewing-as context drop
// with it.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	duration time.Duration
	warnLead time.Duration
	throttle time.Duration
	logger   *slog.Logger
}

// NewManager creates a manager with the given policy.
func NewManager(duration, warnLead, throttle time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		duration: duration,
		warnLead: warnLead,
		throttle: throttle,
		logger:   logger,
	}
}

func (m *Manager) session(adminID uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[adminID]
	if !ok {
		id := adminID
		s = NewSession(m.duration, m.warnLead, m.throttle, Callbacks{
			OnWarning: func() {
				m.logger.Info("elevated session expiring soon", "admin_id", id)
			},
			OnExpire: func() {
				m.logger.Info("elevated session expired", "admin_id", id)
			},
		})
		m.sessions[adminID] = s
	}
	return s
}

// Enter activates elevated mode for adminID.
func (m *Manager) Enter(adminID uuid.UUID, viewingAs string) Status {
	return m.session(adminID).Enter(viewingAs)
}

// Activity applies a throttled timer reset for adminID.
func (m *Manager) Activity(adminID uuid.UUID) (bool, Status) {
	s := m.session(adminID)
	applied := s.Activity()
	return applied, s.Current()
}

// Exit deactivates adminID's session immediately.
func (m *Manager) Exit(adminID uuid.UUID) {
	m.session(adminID).Exit()
}

// Status returns adminID's current session snapshot.
func (m *Manager) Status(adminID uuid.UUID) Status {
	return m.session(adminID).Current()
}
