package netrisk

import (
	"context"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"github.com/tradevault/platform/internal/domain"
)

// DefaultTimeout bounds each provider call.
const DefaultTimeout = 5 * time.Second

// DefaultHostingPatterns are matched case-insensitively against ISP, org and
// ASN names when a provider returns no explicit hosting flag.
var DefaultHostingPatterns = []string{
	"amazon", "aws", "google", "azure", "microsoft", "digitalocean",
	"ovh", "hetzner", "linode", "vultr", "oracle", "alibaba",
	"data center", "datacenter", "hosting", "server", "cloud",
}

// Assessor resolves caller IPs through an ordered provider chain with a
// shared per-call timeout, returning the first successful result.
type Assessor struct {
	providers       []Provider
	timeout         time.Duration
	hostingPatterns []string
	logger          *slog.Logger
}

// NewAssessor creates an assessor over the given providers, tried in order.
func NewAssessor(providers []Provider, timeout time.Duration, hostingPatterns []string, logger *slog.Logger) *Assessor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if hostingPatterns == nil {
		hostingPatterns = DefaultHostingPatterns
	}
	return &Assessor{
		providers:       providers,
		timeout:         timeout,
		hostingPatterns: hostingPatterns,
		logger:          logger,
	}
}

// Assess returns the NetworkContext for ip. Private, loopback and
// unspecified addresses short-circuit without any outbound call. Provider
// failures degrade to an unknown, non-masked context; this method never
// returns an error because enrichment must not block session tracking.
func (a *Assessor) Assess(ctx context.Context, ip string) *domain.NetworkContext {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		a.logger.Warn("unparseable caller ip", "ip", ip)
		return Unknown(ip)
	}
	if addr.IsPrivate() || addr.IsLoopback() || addr.IsUnspecified() || addr.IsLinkLocalUnicast() {
		return Unknown(ip)
	}

	for _, p := range a.providers {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		netCtx, err := p.Lookup(callCtx, addr.String())
		cancel()
		if err != nil {
			a.logger.Warn("network lookup failed", "provider", p.Name(), "error", err)
			continue
		}
		if !netCtx.Flags.Hosting {
			netCtx.Flags.Hosting = a.matchesHosting(netCtx)
		}
		return netCtx
	}

	a.logger.Warn("all network lookup providers failed", "ip", addr.String())
	return Unknown(ip)
}

// matchesHosting applies the datacenter substring heuristic to the ISP, org
// and ASN names.
func (a *Assessor) matchesHosting(netCtx *domain.NetworkContext) bool {
	haystack := strings.ToLower(netCtx.ISP + " " + netCtx.Organization + " " + netCtx.ASN)
	for _, pattern := range a.hostingPatterns {
		if strings.Contains(haystack, pattern) {
			return true
		}
	}
	return false
}
