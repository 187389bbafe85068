package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NewUserRegisteredEvent records a new account.
func NewUserRegisteredEvent(user *User) OutboxDraft {
	payload, _ := json.Marshal(map[string]string{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"role":    user.Role,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateUser,
		AggregateID:   user.ID.String(),
		EventType:     EventUserRegistered,
		PartitionKey:  user.ID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewSessionTrackedEvent records a session ledger append. Blocked and
// restricted outcomes get their own event type so downstream consumers can
// alert without filtering payloads.
func NewSessionTrackedEvent(rec *SessionRecord) OutboxDraft {
	evtType := EventSessionTracked
	if rec.Risk.Action == ActionAdminBlocked || rec.Risk.Action == ActionRestricted {
		evtType = EventSessionBlocked
	}
	payload, _ := json.Marshal(rec)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateSession,
		AggregateID:   rec.ID.String(),
		EventType:     evtType,
		PartitionKey:  rec.UserID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewAnomalyDetectedEvent records a raised anomaly.
func NewAnomalyDetectedEvent(a *Anomaly) OutboxDraft {
	payload, _ := json.Marshal(a)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateAnomaly,
		AggregateID:   a.ID.String(),
		EventType:     EventAnomalyDetected,
		PartitionKey:  a.UserID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewAnomalyResolvedEvent records an explicit anomaly resolution.
func NewAnomalyResolvedEvent(anomalyID, userID, resolvedBy uuid.UUID) OutboxDraft {
	payload, _ := json.Marshal(map[string]string{
		"anomaly_id":  anomalyID.String(),
		"user_id":     userID.String(),
		"resolved_by": resolvedBy.String(),
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateAnomaly,
		AggregateID:   anomalyID.String(),
		EventType:     EventAnomalyResolved,
		PartitionKey:  userID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewDeviceTrustEvent records an explicit trust or untrust action.
func NewDeviceTrustEvent(userID uuid.UUID, fingerprint string, trusted bool) OutboxDraft {
	evtType := EventDeviceTrusted
	if !trusted {
		evtType = EventDeviceUntrusted
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"user_id":     userID.String(),
		"fingerprint": fingerprint,
		"trusted":     trusted,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateDevice,
		AggregateID:   fingerprint,
		EventType:     evtType,
		PartitionKey:  userID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewPinWipedEvent records a destructive wipe triggered by PIN attempt
// exhaustion. This is an intentional, irreversible action, not an error.
func NewPinWipedEvent(userID uuid.UUID, attempts int) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"user_id":         userID.String(),
		"failed_attempts": attempts,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateUser,
		AggregateID:   userID.String(),
		EventType:     EventPinWiped,
		PartitionKey:  userID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}
