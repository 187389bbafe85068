package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tradevault/platform/internal/domain"
)

func flagsInput(flags domain.ConnectionFlags) Input {
	return Input{Network: domain.NetworkContext{IP: "203.0.113.10", CountryCode: "DE", Flags: flags, Known: true}}
}

func TestScore_FlagWeights(t *testing.T) {
	s := NewScorer(nil)

	tests := []struct {
		name      string
		flags     domain.ConnectionFlags
		wantScore int
		wantLevel domain.RiskLevel
	}{
		{"clean", domain.ConnectionFlags{}, 0, domain.RiskLow},
		{"vpn only", domain.ConnectionFlags{VPN: true}, 40, domain.RiskMedium},
		{"proxy only", domain.ConnectionFlags{Proxy: true}, 30, domain.RiskMedium},
		{"tor only", domain.ConnectionFlags{Tor: true}, 60, domain.RiskHigh},
		{"hosting only", domain.ConnectionFlags{Hosting: true}, 25, domain.RiskMedium},
		{"vpn plus proxy", domain.ConnectionFlags{VPN: true, Proxy: true}, 70, domain.RiskHigh},
		{"everything clamps", domain.ConnectionFlags{VPN: true, Proxy: true, Tor: true, Hosting: true}, 100, domain.RiskCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(flagsInput(tt.flags))
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantLevel, got.Level)
			assert.GreaterOrEqual(t, got.Score, 0)
			assert.LessOrEqual(t, got.Score, 100)
		})
	}
}

func TestLevelForScore_ExactBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  domain.RiskLevel
	}{
		{0, domain.RiskLow},
		{20, domain.RiskLow},
		{21, domain.RiskMedium},
		{50, domain.RiskMedium},
		{51, domain.RiskHigh},
		{75, domain.RiskHigh},
		{76, domain.RiskCritical},
		{100, domain.RiskCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForScore(tt.score), "score %d", tt.score)
	}
}

func TestScore_TimezoneMismatch(t *testing.T) {
	s := NewScorer(nil)

	// FR egress with a New York browser clock: +15.
	in := Input{
		Network:        domain.NetworkContext{CountryCode: "FR", Known: true},
		ClientTimezone: "America/New_York",
	}
	got := s.Score(in)
	assert.Equal(t, 15, got.Score)
	assert.Contains(t, got.Factors, FactorTimezoneMismatch)

	// Matching timezone adds nothing.
	in.ClientTimezone = "Europe/Paris"
	got = s.Score(in)
	assert.Zero(t, got.Score)
}

func TestScore_LanguageMismatch(t *testing.T) {
	s := NewScorer(nil)

	in := Input{
		Network:        domain.NetworkContext{CountryCode: "JP", Known: true},
		ClientLanguage: "de-DE",
	}
	got := s.Score(in)
	assert.Equal(t, 10, got.Score)
	assert.Contains(t, got.Factors, FactorLanguageMismatch)

	in.ClientLanguage = "ja"
	assert.Zero(t, s.Score(in).Score)
}

func TestScore_UnknownCountrySkipsMismatchChecks(t *testing.T) {
	s := NewScorer(nil)

	// No table entry for the resolved country means no check, not a mismatch.
	in := Input{
		Network:        domain.NetworkContext{CountryCode: "VA", Known: true},
		ClientTimezone: "America/New_York",
		ClientLanguage: "ko",
	}
	assert.Zero(t, s.Score(in).Score)
}

func TestScore_UnknownNetworkAddsNoRisk(t *testing.T) {
	s := NewScorer(nil)

	got := s.Score(Input{Network: domain.NetworkContext{IP: "10.0.0.5", Known: false}})
	assert.Zero(t, got.Score)
	assert.Equal(t, domain.RiskLow, got.Level)
	assert.False(t, got.ConnectionMasked)
	assert.Equal(t, domain.ActionAllowed, got.Action)
}

func TestScore_RapidIPChange(t *testing.T) {
	s := NewScorer(nil)

	in := flagsInput(domain.ConnectionFlags{})
	in.DistinctRecentIPs = 2
	assert.Zero(t, s.Score(in).Score)

	in.DistinctRecentIPs = 3
	got := s.Score(in)
	assert.Equal(t, 15, got.Score)
	assert.Contains(t, got.Factors, FactorRapidIPChange)
}

func TestScore_FactorsOrdered(t *testing.T) {
	s := NewScorer(nil)

	in := Input{
		Network: domain.NetworkContext{
			CountryCode: "FR",
			Flags:       domain.ConnectionFlags{VPN: true, Tor: true},
			Known:       true,
		},
		ClientTimezone:    "America/New_York",
		DistinctRecentIPs: 4,
	}
	got := s.Score(in)
	assert.Equal(t, []string{FactorVPN, FactorTor, FactorTimezoneMismatch, FactorRapidIPChange}, got.Factors)
	assert.Equal(t, 100, got.Score, "40+60+15+15 clamps to 100")
}

func TestScore_HostingOnlyScenario(t *testing.T) {
	// hosting=true, everything else clean: 25 / medium / masked / ALLOWED.
	s := NewScorer(nil)

	got := s.Score(flagsInput(domain.ConnectionFlags{Hosting: true}))
	assert.Equal(t, 25, got.Score)
	assert.Equal(t, domain.RiskMedium, got.Level)
	assert.True(t, got.ConnectionMasked)
	assert.Equal(t, domain.ActionAllowed, got.Action)
}

func TestScore_VPNPlusProxyScenario(t *testing.T) {
	// vpn+proxy: 70 / high / masked / MONITORED.
	s := NewScorer(nil)

	got := s.Score(flagsInput(domain.ConnectionFlags{VPN: true, Proxy: true}))
	assert.Equal(t, 70, got.Score)
	assert.Equal(t, domain.RiskHigh, got.Level)
	assert.True(t, got.ConnectionMasked)
	assert.Equal(t, domain.ActionMonitored, got.Action)
}
