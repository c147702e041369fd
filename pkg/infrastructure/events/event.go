package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is one journaled pipeline step of a snapshot
type Event interface {
	ID() string
	Type() string
	StreamID() string
	Data() interface{}
	Timestamp() time.Time
	Version() int
}

// EventHandler receives events of the types it subscribed to. Handlers run
// on the goroutine that appended the event.
type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// EventStore journals events per snapshot stream
type EventStore interface {
	AppendEvent(streamID string, event Event) error
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
	Unsubscribe(handler EventHandler) error
}

// Envelope carries a pipeline payload with its journal metadata
type Envelope struct {
	EventID   string      `json:"id"`
	EventType string      `json:"type"`
	Stream    string      `json:"stream"`
	Payload   interface{} `json:"payload"`
	At        time.Time   `json:"at"`
	Seq       int         `json:"version"`
}

func (e Envelope) ID() string           { return e.EventID }
func (e Envelope) Type() string         { return e.EventType }
func (e Envelope) StreamID() string     { return e.Stream }
func (e Envelope) Data() interface{}    { return e.Payload }
func (e Envelope) Timestamp() time.Time { return e.At }
func (e Envelope) Version() int         { return e.Seq }

// NewEvent wraps a payload for a snapshot stream. The version is assigned
// when the event is appended.
func NewEvent(eventType, streamID string, data interface{}) Event {
	return Envelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Stream:    streamID,
		Payload:   data,
		At:        time.Now().UTC(),
	}
}

// versioned copies an event into the given stream at a version
func versioned(event Event, streamID string, version int) Envelope {
	return Envelope{
		EventID:   event.ID(),
		EventType: event.Type(),
		Stream:    streamID,
		Payload:   event.Data(),
		At:        event.Timestamp(),
		Seq:       version,
	}
}

// HandlerFunc adapts a function to an EventHandler accepting every type it
// is subscribed to. Func values are not comparable, so a HandlerFunc cannot
// be unsubscribed.
type HandlerFunc func(event Event) error

func (f HandlerFunc) Handle(event Event) error { return f(event) }
func (f HandlerFunc) CanHandle(string) bool    { return true }
