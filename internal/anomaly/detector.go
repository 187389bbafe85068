// Package anomaly compares a session event against the user's recent session
// history and raises typed, severity-ranked anomalies. Detection is
// best-effort: two concurrent events may both read the same baseline and
// both persist, and no anomaly type depends on exactly-once detection.
package anomaly

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/tradevault/platform/internal/domain"
)

// Detection windows and history bounds.
const (
	DefaultHistoryLimit     = 50
	DefaultHistoryMaxAge    = 30 * 24 * time.Hour
	DefaultConcurrentWindow = 10 * time.Minute
	DefaultTravelWindow     = 60 * time.Minute
)

// Event is the current session snapshot under inspection.
type Event struct {
	UserID      uuid.UUID
	SessionID   uuid.UUID
	Fingerprint string
	Network     domain.NetworkContext
	Risk        domain.RiskAssessment
	At          time.Time
}

// Detector evaluates session events against trailing history.
type Detector struct {
	concurrentWindow time.Duration
	travelWindow     time.Duration
}

// NewDetector creates a detector with the default windows.
func NewDetector() *Detector {
	return &Detector{
		concurrentWindow: DefaultConcurrentWindow,
		travelWindow:     DefaultTravelWindow,
	}
}

// Detect returns the anomalies raised by event against history (the user's
// prior sessions, newest first, current event excluded). A user's first-ever
// session establishes the baseline and raises nothing.
func (d *Detector) Detect(event Event, history []domain.SessionRecord) []domain.Anomaly {
	if len(history) == 0 {
		return nil
	}

	var found []domain.Anomaly
	raise := func(typ domain.AnomalyType, base domain.Severity, details map[string]interface{}) {
		found = append(found, d.build(event, typ, base, details))
	}

	if event.Fingerprint != "" && !seenFingerprint(history, event.Fingerprint) {
		raise(domain.AnomalyNewDevice, domain.SeverityLow, map[string]interface{}{
			"fingerprint": event.Fingerprint,
		})
	}

	if event.Network.IP != "" && !seenIP(history, event.Network.IP) {
		raise(domain.AnomalyNewIP, domain.SeverityLow, map[string]interface{}{
			"ip": event.Network.IP,
		})
	}

	if event.Network.CountryCode != "" && hasCountryBaseline(history) && !seenCountry(history, event.Network.CountryCode) {
		raise(domain.AnomalyNewCountry, domain.SeverityMedium, map[string]interface{}{
			"country": event.Network.CountryCode,
		})
	}

	if prior, ok := d.concurrentWith(event, history); ok {
		raise(domain.AnomalyConcurrentSessions, domain.SeverityMedium, map[string]interface{}{
			"current_ip":  event.Network.IP,
			"previous_ip": prior.Network.IP,
			"gap_seconds": int(event.At.Sub(prior.CreatedAt).Seconds()),
		})
	}

	if prior, ok := d.impossibleTravelFrom(event, history); ok {
		raise(domain.AnomalyImpossibleTravel, domain.SeverityHigh, map[string]interface{}{
			"from_country": prior.Network.CountryCode,
			"to_country":   event.Network.CountryCode,
			"gap_seconds":  int(event.At.Sub(prior.CreatedAt).Seconds()),
		})
	}

	if event.Risk.Level.AtLeast(domain.RiskHigh) && event.Risk.ConnectionMasked {
		raise(domain.AnomalySuspiciousActivity, domain.SeverityHigh, map[string]interface{}{
			"risk_score": event.Risk.Score,
			"factors":    event.Risk.Factors,
		})
	}

	return found
}

// build assembles an anomaly with severity derived from the event's risk
// level and the type's inherent sensitivity. Tor presence escalates every
// anomaly in the event to at least high.
func (d *Detector) build(event Event, typ domain.AnomalyType, base domain.Severity, details map[string]interface{}) domain.Anomaly {
	severity := domain.MaxSeverity(base, severityForLevel(event.Risk.Level))
	if event.Network.Flags.Tor {
		severity = domain.MaxSeverity(severity, domain.SeverityHigh)
	}

	sessionID := event.SessionID
	payload, _ := json.Marshal(details)
	return domain.Anomaly{
		ID:        uuid.New(),
		UserID:    event.UserID,
		SessionID: &sessionID,
		Type:      typ,
		Severity:  severity,
		Details:   payload,
		CreatedAt: event.At,
	}
}

func severityForLevel(level domain.RiskLevel) domain.Severity {
	switch level {
	case domain.RiskCritical:
		return domain.SeverityCritical
	case domain.RiskHigh:
		return domain.SeverityHigh
	case domain.RiskMedium:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

func seenFingerprint(history []domain.SessionRecord, fp string) bool {
	for _, rec := range history {
		if rec.Fingerprint == fp {
			return true
		}
	}
	return false
}

func seenIP(history []domain.SessionRecord, ip string) bool {
	for _, rec := range history {
		if rec.Network.IP == ip {
			return true
		}
	}
	return false
}

func seenCountry(history []domain.SessionRecord, country string) bool {
	for _, rec := range history {
		if rec.Network.CountryCode == country {
			return true
		}
	}
	return false
}

// hasCountryBaseline reports whether any prior session resolved a country.
// Without one there is nothing to compare against.
func hasCountryBaseline(history []domain.SessionRecord) bool {
	for _, rec := range history {
		if rec.Network.CountryCode != "" {
			return true
		}
	}
	return false
}

// concurrentWith finds a recent session with a materially different network
// origin inside the concurrency window.
func (d *Detector) concurrentWith(event Event, history []domain.SessionRecord) (*domain.SessionRecord, bool) {
	if event.Network.IP == "" {
		return nil, false
	}
	for i := range history {
		rec := &history[i]
		if rec.Network.IP == "" || rec.Network.IP == event.Network.IP {
			continue
		}
		if event.At.Sub(rec.CreatedAt) <= d.concurrentWindow {
			return rec, true
		}
	}
	return nil, false
}

// impossibleTravelFrom finds a prior session from a different country too
// recent for plausible travel. Country-level granularity only: coordinates
// are never stored.
func (d *Detector) impossibleTravelFrom(event Event, history []domain.SessionRecord) (*domain.SessionRecord, bool) {
	if event.Network.CountryCode == "" {
		return nil, false
	}
	for i := range history {
		rec := &history[i]
		if rec.Network.CountryCode == "" || rec.Network.CountryCode == event.Network.CountryCode {
			continue
		}
		if event.At.Sub(rec.CreatedAt) <= d.travelWindow {
			return rec, true
		}
	}
	return nil, false
}
