package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeviceSignals is the bundle of client environment signals used to derive a
// device fingerprint. All fields are optional; missing signals lower the
// fingerprint's confidence but never fail derivation.
type DeviceSignals struct {
	Platform     string `json:"platform"`
	OS           string `json:"os"`
	ScreenWidth  int    `json:"screen_width"`
	ScreenHeight int    `json:"screen_height"`
	Locale       string `json:"locale"`
	Timezone     string `json:"timezone"`
	IsMobile     bool   `json:"is_mobile"`
}

// ConnectionFlags marks the anonymization properties of a network origin.
type ConnectionFlags struct {
	VPN     bool `json:"vpn"`
	Proxy   bool `json:"proxy"`
	Tor     bool `json:"tor"`
	Hosting bool `json:"hosting"`
}

// Masked reports whether the connection hides its true origin.
func (f ConnectionFlags) Masked() bool {
	return f.VPN || f.Proxy || f.Tor || f.Hosting
}

// NetworkContext is the enriched view of a caller's network origin. Produced
// fresh per session event; never persisted outside its SessionRecord.
type NetworkContext struct {
	IP           string          `json:"ip"`
	CountryCode  string          `json:"country_code"`
	Region       string          `json:"region"`
	City         string          `json:"city"`
	ISP          string          `json:"isp"`
	ASN          string          `json:"asn"`
	Organization string          `json:"organization"`
	Flags        ConnectionFlags `json:"flags"`
	// Known is false when enrichment failed or the address was private;
	// an unknown context contributes no risk.
	Known bool `json:"known"`
}

// RiskLevel classifies session risk.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// rank orders risk levels for comparisons.
func (l RiskLevel) rank() int {
	switch l {
	case RiskCritical:
		return 3
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether l is at or above other.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return l.rank() >= other.rank()
}

// Action is the policy decision for a session event.
type Action string

const (
	ActionAllowed      Action = "ALLOWED"
	ActionMonitored    Action = "MONITORED"
	ActionRestricted   Action = "RESTRICTED"
	ActionAdminWarning Action = "ADMIN_WARNING"
	ActionMFARequired  Action = "MFA_REQUIRED"
	ActionAdminBlocked Action = "ADMIN_BLOCKED"
)

// RiskAssessment is the scored result for a single session event.
// Derived once, never mutated.
type RiskAssessment struct {
	Score            int       `json:"score"`
	Level            RiskLevel `json:"level"`
	Factors          []string  `json:"factors"`
	ConnectionMasked bool      `json:"connection_masked"`
	Action           Action    `json:"action"`
}

// SessionRecord is one append-only row in the session ledger: the device,
// network and risk snapshot of a single session-tracking event.
type SessionRecord struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	Fingerprint string         `json:"fingerprint"`
	Network     NetworkContext `json:"network"`
	Risk        RiskAssessment `json:"risk"`
	Elevated    bool           `json:"elevated"`
	ActorRole   string         `json:"actor_role"`
	CreatedAt   time.Time      `json:"created_at"`
}
