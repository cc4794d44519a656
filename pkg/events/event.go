package events

import "time"

const (
	TypeDocumentIngested = "DOCUMENT_INGESTED"
	TypeCorpusIndexed    = "CORPUS_INDEXED"
	TypeModeChanged      = "MODE_CHANGED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CORPUS_INDEXED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the concrete event carried on the bus.
type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
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

func newEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

// DocumentIngested is emitted after an upload replaces the active document.
func DocumentIngested(sessionID, filename string, pages, chunks int) BaseEvent {
	return newEvent(TypeDocumentIngested, map[string]interface{}{
		"session_id":   sessionID,
		"filename":     filename,
		"total_pages":  pages,
		"total_chunks": chunks,
	})
}

// CorpusIndexed is emitted when new material lands in the fixed corpus.
func CorpusIndexed(source string, chunks int) BaseEvent {
	return newEvent(TypeCorpusIndexed, map[string]interface{}{
		"source":       source,
		"total_chunks": chunks,
	})
}

// ModeChanged is emitted when a session switches between GENERAL and DOCUMENT.
func ModeChanged(sessionID, mode string) BaseEvent {
	return newEvent(TypeModeChanged, map[string]interface{}{
		"session_id": sessionID,
		"mode":       mode,
	})
}

// SubjectPrefix is the subject namespace of the EVENTS stream.
const SubjectPrefix = "events."

// Subject returns the bus subject an event type is published on.
func Subject(eventType string) string {
	return SubjectPrefix + eventType
}
