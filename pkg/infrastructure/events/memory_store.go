package events

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// InMemoryEventStore journals pipeline events per snapshot and dispatches
// each appended event to the handlers subscribed to its type
type InMemoryEventStore struct {
	mu       sync.RWMutex
	streams  map[string][]Event
	journal  []Event
	handlers map[string][]EventHandler
	logger   *zap.Logger
}

var _ EventStore = (*InMemoryEventStore)(nil)

// NewInMemoryEventStore creates an empty journal
func NewInMemoryEventStore(logger *zap.Logger) *InMemoryEventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventStore{
		streams:  make(map[string][]Event),
		handlers: make(map[string][]EventHandler),
		logger:   logger,
	}
}

// AppendEvent stamps the next stream version on event, journals it and
// delivers it to matching handlers. Handler failures are logged only.
func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	if event == nil {
		return errors.New("cannot append nil event")
	}

	s.mu.Lock()
	stamped := versioned(event, streamID, len(s.streams[streamID])+1)
	s.streams[streamID] = append(s.streams[streamID], stamped)
	s.journal = append(s.journal, stamped)
	handlers := slices.Clone(s.handlers[stamped.EventType])
	s.mu.Unlock()

	s.logger.Debug("pipeline event journaled",
		zap.String("event_id", stamped.EventID),
		zap.String("type", stamped.EventType),
		zap.String("snapshot_id", streamID),
		zap.Int("version", stamped.Seq),
	)

	for _, h := range handlers {
		if !h.CanHandle(stamped.EventType) {
			continue
		}
		if err := h.Handle(stamped); err != nil {
			s.logger.Warn("event handler failed",
				zap.String("event_id", stamped.EventID),
				zap.String("type", stamped.EventType),
				zap.Error(err),
			)
		}
	}
	return nil
}

// ReadEvents returns a stream from fromVersion on; versions start at 1
func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tail(s.streams[streamID], max(fromVersion-1, 0)), nil
}

// ReadAllEvents returns the journal from a 0-based position on
func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tail(s.journal, max(fromPosition, 0)), nil
}

// Subscribe registers handler for the given event types. Handlers that will
// be unsubscribed must be comparable, usually a pointer.
func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	if handler == nil {
		return errors.New("cannot subscribe nil handler")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, eventType := range eventTypes {
		s.handlers[eventType] = append(s.handlers[eventType], handler)
	}
	return nil
}

// Unsubscribe removes handler from every event type
func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	if handler == nil || !reflect.TypeOf(handler).Comparable() {
		return fmt.Errorf("handler %T cannot be unsubscribed", handler)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for eventType, handlers := range s.handlers {
		s.handlers[eventType] = slices.DeleteFunc(handlers, func(h EventHandler) bool {
			return reflect.TypeOf(h).Comparable() && h == handler
		})
	}
	return nil
}

func tail(events []Event, from int) []Event {
	if from >= len(events) {
		return []Event{}
	}
	return slices.Clone(events[from:])
}
