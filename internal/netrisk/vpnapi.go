package netrisk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tradevault/platform/internal/domain"
)

// VPNAPIProvider is the primary lookup provider. Its response carries
// explicit vpn/proxy/tor/relay flags alongside location and ASN data.
type VPNAPIProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewVPNAPIProvider creates the primary provider. baseURL is overridable for
// tests; pass "" for the public endpoint.
func NewVPNAPIProvider(baseURL, apiKey string, timeout time.Duration) *VPNAPIProvider {
	if baseURL == "" {
		baseURL = "https://vpnapi.io"
	}
	return &VPNAPIProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *VPNAPIProvider) Name() string { return "vpnapi" }

type vpnapiResponse struct {
	Security struct {
		VPN   bool `json:"vpn"`
		Proxy bool `json:"proxy"`
		Tor   bool `json:"tor"`
		Relay bool `json:"relay"`
	} `json:"security"`
	Location struct {
		CountryCode string `json:"country_code"`
		Region      string `json:"region"`
		City        string `json:"city"`
	} `json:"location"`
	Network struct {
		ASN          string `json:"autonomous_system_number"`
		Organization string `json:"autonomous_system_organization"`
	} `json:"network"`
	Message string `json:"message"`
}

// Lookup resolves ip via the vpnapi endpoint.
func (p *VPNAPIProvider) Lookup(ctx context.Context, ip string) (*domain.NetworkContext, error) {
	url := fmt.Sprintf("%s/api/%s?key=%s", p.baseURL, ip, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vpnapi call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vpnapi status %d", resp.StatusCode)
	}

	var body vpnapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode vpnapi response: %w", err)
	}
	if body.Location.CountryCode == "" && body.Message != "" {
		return nil, fmt.Errorf("vpnapi error: %s", body.Message)
	}

	return &domain.NetworkContext{
		IP:           ip,
		CountryCode:  body.Location.CountryCode,
		Region:       body.Location.Region,
		City:         body.Location.City,
		ASN:          body.Network.ASN,
		ISP:          body.Network.Organization,
		Organization: body.Network.Organization,
		Flags: domain.ConnectionFlags{
			VPN:   body.Security.VPN || body.Security.Relay,
			Proxy: body.Security.Proxy,
			Tor:   body.Security.Tor,
		},
		Known: true,
	}, nil
}
