package anomaly

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradevault/platform/internal/domain"
)

var now = time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)

func baseEvent() Event {
	return Event{
		UserID:      uuid.New(),
		SessionID:   uuid.New(),
		Fingerprint: "fp-laptop",
		Network: domain.NetworkContext{
			IP:          "203.0.113.10",
			CountryCode: "DE",
			Known:       true,
		},
		Risk: domain.RiskAssessment{Score: 0, Level: domain.RiskLow},
		At:   now,
	}
}

func record(fp, ip, country string, age time.Duration) domain.SessionRecord {
	return domain.SessionRecord{
		ID:          uuid.New(),
		Fingerprint: fp,
		Network:     domain.NetworkContext{IP: ip, CountryCode: country, Known: true},
		CreatedAt:   now.Add(-age),
	}
}

func typesOf(anomalies []domain.Anomaly) []domain.AnomalyType {
	var out []domain.AnomalyType
	for _, a := range anomalies {
		out = append(out, a.Type)
	}
	return out
}

func TestDetect_FirstSessionRaisesNothing(t *testing.T) {
	d := NewDetector()

	event := baseEvent()
	event.Fingerprint = "never-seen"
	event.Risk = domain.RiskAssessment{Score: 100, Level: domain.RiskCritical, ConnectionMasked: true}

	assert.Empty(t, d.Detect(event, nil))
	assert.Empty(t, d.Detect(event, []domain.SessionRecord{}))
}

func TestDetect_KnownBaselineIsQuiet(t *testing.T) {
	d := NewDetector()
	event := baseEvent()
	history := []domain.SessionRecord{
		record("fp-laptop", "203.0.113.10", "DE", 2*time.Hour),
		record("fp-laptop", "203.0.113.10", "DE", 26*time.Hour),
	}

	assert.Empty(t, d.Detect(event, history))
}

func TestDetect_NewDevice(t *testing.T) {
	d := NewDetector()
	event := baseEvent()
	event.Fingerprint = "fp-phone"
	history := []domain.SessionRecord{record("fp-laptop", "203.0.113.10", "DE", 2*time.Hour)}

	got := d.Detect(event, history)

	require.Len(t, got, 1)
	assert.Equal(t, domain.AnomalyNewDevice, got[0].Type)
	assert.Equal(t, domain.SeverityLow, got[0].Severity)
	require.NotNil(t, got[0].SessionID)
	assert.Equal(t, event.SessionID, *got[0].SessionID)
}

func TestDetect_NewIPAndCountry(t *testing.T) {
	d := NewDetector()
	event := baseEvent()
	event.Network.IP = "198.51.100.7"
	event.Network.CountryCode = "JP"
	history := []domain.SessionRecord{record("fp-laptop", "203.0.113.10", "DE", 48*time.Hour)}

	got := d.Detect(event, history)

	assert.ElementsMatch(t,
		[]domain.AnomalyType{domain.AnomalyNewIP, domain.AnomalyNewCountry},
		typesOf(got))
}

func TestDetect_NoCountryBaselineSkipsCountryCheck(t *testing.T) {
	d := NewDetector()
	event := baseEvent()
	// Prior sessions never resolved a country (enrichment was down).
	history := []domain.SessionRecord{record("fp-laptop", "203.0.113.10", "", 2*time.Hour)}

	got := d.Detect(event, history)
	assert.NotContains(t, typesOf(got), domain.AnomalyNewCountry)
}

func TestDetect_ConcurrentSessions(t *testing.T) {
	d := NewDetector()
	event := baseEvent()
	event.Network.IP = "198.51.100.7"

	history := []domain.SessionRecord{
		record("fp-laptop", "203.0.113.10", "DE", 5*time.Minute),
		// the same foreign IP seen long ago, so new_ip stays quiet
		record("fp-laptop", "198.51.100.7", "DE", 72*time.Hour),
	}

	got := d.Detect(event, history)
	assert.Contains(t, typesOf(got), domain.AnomalyConcurrentSessions)

	// Outside the window the same pair is fine.
	history[0].CreatedAt = now.Add(-time.Hour)
	got = d.Detect(event, history)
	assert.NotContains(t, typesOf(got), domain.AnomalyConcurrentSessions)
}

func TestDetect_ImpossibleTravel(t *testing.T) {
	d := NewDetector()
	event := baseEvent()
	event.Network.CountryCode = "JP"
	event.Network.IP = "198.51.100.7"

	history := []domain.SessionRecord{
		record("fp-laptop", "203.0.113.10", "DE", 20*time.Minute),
		record("fp-laptop", "198.51.100.7", "JP", 96*time.Hour),
	}

	got := d.Detect(event, history)

	require.Contains(t, typesOf(got), domain.AnomalyImpossibleTravel)
	for _, a := range got {
		if a.Type == domain.AnomalyImpossibleTravel {
			assert.True(t, a.Severity.AtLeast(domain.SeverityHigh),
				"impossible travel must escalate to at least high")
		}
	}

	// A day between the sessions is plausible travel.
	history[0].CreatedAt = now.Add(-24 * time.Hour)
	got = d.Detect(event, history)
	assert.NotContains(t, typesOf(got), domain.AnomalyImpossibleTravel)
}

func TestDetect_SuspiciousActivity(t *testing.T) {
	d := NewDetector()
	event := baseEvent()
	event.Risk = domain.RiskAssessment{Score: 70, Level: domain.RiskHigh, ConnectionMasked: true}
	history := []domain.SessionRecord{record("fp-laptop", "203.0.113.10", "DE", time.Hour)}

	got := d.Detect(event, history)

	require.Contains(t, typesOf(got), domain.AnomalySuspiciousActivity)

	// High risk without masking is not the suspicious-activity pattern.
	event.Risk.ConnectionMasked = false
	got = d.Detect(event, history)
	assert.NotContains(t, typesOf(got), domain.AnomalySuspiciousActivity)
}

func TestDetect_TorEscalatesEverything(t *testing.T) {
	d := NewDetector()
	event := baseEvent()
	event.Fingerprint = "fp-phone"
	event.Network.Flags.Tor = true
	event.Risk = domain.RiskAssessment{Score: 60, Level: domain.RiskHigh, ConnectionMasked: true}
	history := []domain.SessionRecord{record("fp-laptop", "203.0.113.10", "DE", time.Hour)}

	got := d.Detect(event, history)

	require.NotEmpty(t, got)
	for _, a := range got {
		assert.True(t, a.Severity.AtLeast(domain.SeverityHigh),
			"%s raised with tor must be at least high", a.Type)
	}
}

func TestDetect_CriticalRiskLiftsSeverity(t *testing.T) {
	d := NewDetector()
	event := baseEvent()
	event.Fingerprint = "fp-phone"
	event.Risk = domain.RiskAssessment{Score: 90, Level: domain.RiskCritical, ConnectionMasked: true}
	history := []domain.SessionRecord{record("fp-laptop", "203.0.113.10", "DE", time.Hour)}

	got := d.Detect(event, history)

	require.NotEmpty(t, got)
	for _, a := range got {
		if a.Type == domain.AnomalyNewDevice {
			assert.Equal(t, domain.SeverityCritical, a.Severity)
		}
	}
}
