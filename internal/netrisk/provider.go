// Package netrisk resolves a caller IP to geolocation, network ownership and
// anonymization flags (VPN/proxy/Tor/hosting) through a chain of lookup
// providers. Enrichment always fails open: a dead provider chain degrades to
// an unknown context and never blocks session tracking.
package netrisk

import (
	"context"

	"github.com/tradevault/platform/internal/domain"
)

// Provider is a single IP intelligence source. Implementations must honor
// ctx cancellation and return an error on timeout, non-success status or a
// malformed body so the chain can move to the next provider.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, ip string) (*domain.NetworkContext, error)
}

// Unknown returns the degraded context used when enrichment is unavailable.
// All flags are false: absence of data must not add risk.
func Unknown(ip string) *domain.NetworkContext {
	return &domain.NetworkContext{IP: ip, Known: false}
}
