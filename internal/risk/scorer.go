// Package risk turns a session's network context and contextual mismatches
// into a bounded score, a discrete level and a policy action.
package risk

import "github.com/tradevault/platform/internal/domain"

// Additive factor weights.
const (
	WeightVPN              = 40
	WeightProxy            = 30
	WeightTor              = 60
	WeightHosting          = 25
	WeightTimezoneMismatch = 15
	WeightLanguageMismatch = 10
	WeightRapidIPChange    = 15
)

// RapidIPThreshold is the distinct-IP count (within the trailing window,
// current IP included) at or above which rapid IP change is flagged.
const RapidIPThreshold = 3

// Factor names, in scoring order.
const (
	FactorVPN              = "vpn_detected"
	FactorProxy            = "proxy_detected"
	FactorTor              = "tor_detected"
	FactorHosting          = "hosting_provider"
	FactorTimezoneMismatch = "timezone_mismatch"
	FactorLanguageMismatch = "language_mismatch"
	FactorRapidIPChange    = "rapid_ip_change"
)

// Input carries everything the scorer looks at for one session event.
type Input struct {
	Network        domain.NetworkContext
	ClientTimezone string
	ClientLanguage string
	// DistinctRecentIPs counts the user's distinct IPs in the trailing
	// 30-minute window, current IP included.
	DistinctRecentIPs int
	ElevatedActor     bool
}

// Scorer computes risk assessments against a country heuristics table.
type Scorer struct {
	countries CountryHeuristics
}

// NewScorer creates a scorer. A nil table falls back to the built-in one.
func NewScorer(countries CountryHeuristics) *Scorer {
	if countries == nil {
		countries = DefaultCountryHeuristics()
	}
	return &Scorer{countries: countries}
}

// Score computes the assessment for one session event. The result is
// immutable: score clamped to [0,100], level from fixed thresholds, factors
// in scoring order, and the policy action already decided.
func (s *Scorer) Score(in Input) domain.RiskAssessment {
	var score int
	factors := []string{}

	flags := in.Network.Flags
	if flags.VPN {
		score += WeightVPN
		factors = append(factors, FactorVPN)
	}
	if flags.Proxy {
		score += WeightProxy
		factors = append(factors, FactorProxy)
	}
	if flags.Tor {
		score += WeightTor
		factors = append(factors, FactorTor)
	}
	if flags.Hosting {
		score += WeightHosting
		factors = append(factors, FactorHosting)
	}

	if s.countries.TimezoneMismatch(in.Network.CountryCode, in.ClientTimezone) {
		score += WeightTimezoneMismatch
		factors = append(factors, FactorTimezoneMismatch)
	}
	if s.countries.LanguageMismatch(in.Network.CountryCode, in.ClientLanguage) {
		score += WeightLanguageMismatch
		factors = append(factors, FactorLanguageMismatch)
	}
	if in.DistinctRecentIPs >= RapidIPThreshold {
		score += WeightRapidIPChange
		factors = append(factors, FactorRapidIPChange)
	}

	score = clamp(score, 0, 100)
	level := LevelForScore(score)
	masked := flags.Masked()

	return domain.RiskAssessment{
		Score:            score,
		Level:            level,
		Factors:          factors,
		ConnectionMasked: masked,
		Action:           Decide(level, masked, flags.Tor, in.ElevatedActor),
	}
}

// LevelForScore maps a clamped score to its discrete level.
// Boundaries: low 0-20, medium 21-50, high 51-75, critical 76-100.
func LevelForScore(score int) domain.RiskLevel {
	switch {
	case score >= 76:
		return domain.RiskCritical
	case score >= 51:
		return domain.RiskHigh
	case score >= 21:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
