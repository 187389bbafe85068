package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AnomalyType is the closed set of session anomaly classifications.
type AnomalyType string

const (
	AnomalyNewDevice          AnomalyType = "new_device"
	AnomalyNewIP              AnomalyType = "new_ip"
	AnomalyNewCountry         AnomalyType = "new_country"
	AnomalyConcurrentSessions AnomalyType = "concurrent_sessions"
	AnomalyImpossibleTravel   AnomalyType = "impossible_travel"
	AnomalySuspiciousActivity AnomalyType = "suspicious_activity"
)

// ValidAnomalyType reports whether t is in the closed enumeration.
func ValidAnomalyType(t AnomalyType) bool {
	switch t {
	case AnomalyNewDevice, AnomalyNewIP, AnomalyNewCountry,
		AnomalyConcurrentSessions, AnomalyImpossibleTravel, AnomalySuspiciousActivity:
		return true
	}
	return false
}

// Severity ranks an anomaly.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s is at or above other.
func (s Severity) AtLeast(other Severity) bool {
	return s.rank() >= other.rank()
}

// MaxSeverity returns the higher of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// Anomaly is one detected session anomaly. Resolution is the only permitted
// mutation after creation.
type Anomaly struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	SessionID  *uuid.UUID      `json:"session_id,omitempty"`
	Type       AnomalyType     `json:"type"`
	Severity   Severity        `json:"severity"`
	Details    json.RawMessage `json:"details,omitempty"`
	Resolved   bool            `json:"resolved"`
	ResolvedAt *time.Time      `json:"resolved_at,omitempty"`
	ResolvedBy *uuid.UUID      `json:"resolved_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
