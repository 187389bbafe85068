package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid email", "user@example.com", false},
		{"valid email with dots", "first.last@example.co.uk", false},
		{"empty string", "", true},
		{"no at sign", "userexample.com", true},
		{"no domain", "user@", true},
		{"no user", "@example.com", true},
		{"no tld", "user@example", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConnectionFlags_Masked(t *testing.T) {
	assert.False(t, ConnectionFlags{}.Masked())
	assert.True(t, ConnectionFlags{VPN: true}.Masked())
	assert.True(t, ConnectionFlags{Proxy: true}.Masked())
	assert.True(t, ConnectionFlags{Tor: true}.Masked())
	assert.True(t, ConnectionFlags{Hosting: true}.Masked())
}

func TestRiskLevel_AtLeast(t *testing.T) {
	assert.True(t, RiskCritical.AtLeast(RiskHigh))
	assert.True(t, RiskHigh.AtLeast(RiskHigh))
	assert.False(t, RiskMedium.AtLeast(RiskHigh))
	assert.True(t, RiskLow.AtLeast(RiskLow))
}

func TestMaxSeverity(t *testing.T) {
	assert.Equal(t, SeverityHigh, MaxSeverity(SeverityMedium, SeverityHigh))
	assert.Equal(t, SeverityHigh, MaxSeverity(SeverityHigh, SeverityLow))
	assert.Equal(t, SeverityCritical, MaxSeverity(SeverityCritical, SeverityCritical))
}

func TestValidAnomalyType(t *testing.T) {
	for _, typ := range []AnomalyType{
		AnomalyNewDevice, AnomalyNewIP, AnomalyNewCountry,
		AnomalyConcurrentSessions, AnomalyImpossibleTravel, AnomalySuspiciousActivity,
	} {
		assert.True(t, ValidAnomalyType(typ), string(typ))
	}
	assert.False(t, ValidAnomalyType("geo_anomaly"))
	assert.False(t, ValidAnomalyType(""))
}

func TestPinCredential_Enabled(t *testing.T) {
	hash, salt := "abc", "def"

	var nilCred *PinCredential
	assert.False(t, nilCred.Enabled())
	assert.False(t, (&PinCredential{}).Enabled())
	assert.False(t, (&PinCredential{PinHash: &hash}).Enabled())
	assert.True(t, (&PinCredential{PinHash: &hash, PinSalt: &salt}).Enabled())
}

func TestAppError_ReplayRejectedIsGeneric(t *testing.T) {
	// The anti-replay error must not reveal why the token failed.
	err := ErrReplayRejected()
	assert.Equal(t, "INVALID_TOKEN", err.Code)
	assert.NotContains(t, err.Message, "expired")
	assert.NotContains(t, err.Message, "consumed")
	assert.NotContains(t, err.Message, "missing")
}
