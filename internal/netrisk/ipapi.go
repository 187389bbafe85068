package netrisk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tradevault/platform/internal/domain"
)

// IPAPIProvider is the fallback lookup provider. It reports proxy and
// hosting flags but no VPN/Tor classification; those stay false and the
// hosting heuristic in the assessor picks up what it can from the ISP name.
type IPAPIProvider struct {
	baseURL string
	client  *http.Client
}

// NewIPAPIProvider creates the fallback provider. baseURL is overridable for
// tests; pass "" for the public endpoint.
func NewIPAPIProvider(baseURL string, timeout time.Duration) *IPAPIProvider {
	if baseURL == "" {
		baseURL = "http://ip-api.com"
	}
	return &IPAPIProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *IPAPIProvider) Name() string { return "ip-api" }

type ipapiResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	CountryCode string `json:"countryCode"`
	RegionName  string `json:"regionName"`
	City        string `json:"city"`
	ISP         string `json:"isp"`
	Org         string `json:"org"`
	AS          string `json:"as"`
	Proxy       bool   `json:"proxy"`
	Hosting     bool   `json:"hosting"`
}

// Lookup resolves ip via the ip-api endpoint.
func (p *IPAPIProvider) Lookup(ctx context.Context, ip string) (*domain.NetworkContext, error) {
	url := fmt.Sprintf("%s/json/%s?fields=status,message,countryCode,regionName,city,isp,org,as,proxy,hosting", p.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ip-api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ip-api status %d", resp.StatusCode)
	}

	var body ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode ip-api response: %w", err)
	}
	if body.Status != "success" {
		return nil, fmt.Errorf("ip-api error: %s", body.Message)
	}

	return &domain.NetworkContext{
		IP:           ip,
		CountryCode:  body.CountryCode,
		Region:       body.RegionName,
		City:         body.City,
		ISP:          body.ISP,
		ASN:          body.AS,
		Organization: body.Org,
		Flags: domain.ConnectionFlags{
			Proxy:   body.Proxy,
			Hosting: body.Hosting,
		},
		Known: true,
	}, nil
}
