// Package fingerprint derives a weak device identity from client environment
// signals. The result is an identity hint, never an authentication secret:
// it is stable for the same device/browser instance and collisions across
// real devices are tolerated.
package fingerprint

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/tradevault/platform/internal/domain"
)

// Derive returns a short opaque fingerprint for the given signal bundle.
// Signal order is fixed so the hash is stable. Missing signals degrade to
// empty components; derivation never fails.
func Derive(sig domain.DeviceSignals) string {
	parts := []string{
		sig.Platform,
		sig.OS,
		strconv.Itoa(sig.ScreenWidth) + "x" + strconv.Itoa(sig.ScreenHeight),
		sig.Locale,
		strconv.FormatBool(sig.IsMobile),
	}

	h := fnv.New64a()
	h.Write([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%016x", h.Sum64())
}

// Normalize returns the caller-supplied fingerprint if present, otherwise
// derives one from the signals.
func Normalize(explicit string, sig domain.DeviceSignals) string {
	if explicit != "" {
		return explicit
	}
	return Derive(sig)
}
