package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all security domain event types.
type EventType string

const (
	EventUserRegistered  EventType = "journal.user.registered"
	EventSessionTracked  EventType = "journal.security.session_tracked"
	EventSessionBlocked  EventType = "journal.security.session_blocked"
	EventAnomalyDetected EventType = "journal.security.anomaly_detected"
	EventAnomalyResolved EventType = "journal.security.anomaly_resolved"
	EventDeviceTrusted   EventType = "journal.security.device_trusted"
	EventDeviceUntrusted EventType = "journal.security.device_untrusted"
	EventPinWiped        EventType = "journal.security.pin_wiped"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateUser    AggregateType = "user"
	AggregateSession AggregateType = "session"
	AggregateAnomaly AggregateType = "anomaly"
	AggregateDevice  AggregateType = "device"
)

// OutboxDraft is the payload written to the security_event_outbox table.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	PartitionKey  string          `json:"partition_key"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
