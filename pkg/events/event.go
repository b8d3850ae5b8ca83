package events

import "time"

// Lifecycle event type codes published by the note store and its monitor.
const (
	TypeNoteUploaded      = "NOTE_UPLOADED"
	TypeNoteCompleted     = "NOTE_COMPLETED"
	TypeNoteFailed        = "NOTE_FAILED"
	TypeAllNotesCompleted = "ALL_NOTES_COMPLETED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "NOTE_FAILED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain implementation used throughout the system.
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
