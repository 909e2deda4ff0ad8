package events

import "time"

// Event type codes emitted by the response pipeline.
const (
	TypeResponseRegistered = "RESPONSE_REGISTERED"
	TypeResponseAnalysed   = "RESPONSE_ANALYSED"
	TypeAnalysisFailed     = "ANALYSIS_FAILED"
	TypeResponseFailed     = "RESPONSE_FAILED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "RESPONSE_ANALYSED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the default Event implementation.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
