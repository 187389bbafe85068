package risk

import "github.com/tradevault/platform/internal/domain"

// Decide maps {elevated actor, risk level, masked, tor} to a policy action.
//
// Precedence:
//  1. elevated actor on a masked connection: critical or Tor blocks, high
//     demands a second factor, anything else warns;
//  2. critical risk restricts;
//  3. high risk on a masked connection is monitored;
//  4. everything else is allowed.
//
// Non-elevated actors below critical are never hard-denied on score alone:
// legitimate VPN users must not be locked out, so masking downgrades the
// response to a monitoring signal.
func Decide(level domain.RiskLevel, masked, tor, elevatedActor bool) domain.Action {
	if elevatedActor && masked {
		switch {
		case level == domain.RiskCritical || tor:
			return domain.ActionAdminBlocked
		case level == domain.RiskHigh:
			return domain.ActionMFARequired
		default:
			return domain.ActionAdminWarning
		}
	}
	if level == domain.RiskCritical {
		return domain.ActionRestricted
	}
	if level == domain.RiskHigh && masked {
		return domain.ActionMonitored
	}
	return domain.ActionAllowed
}

// RequiresVerification reports whether the caller should be pushed through
// an additional verification step before continuing.
func RequiresVerification(action domain.Action) bool {
	switch action {
	case domain.ActionMFARequired, domain.ActionRestricted, domain.ActionAdminBlocked:
		return true
	}
	return false
}
