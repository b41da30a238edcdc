// Package events provides the append-only night log.
// Every cue the engine raises and every command a player sends lands here,
// stamped and ordered, so a night can be recapped or replayed later.
package events

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a logged event. Engine cues keep the
// engine's own kind names; the types below are raised by the session.
type EventType string

const (
	EventTypeCommand          EventType = "COMMAND"
	EventTypeNightLengthSet   EventType = "NIGHT_LENGTH_SET"
	EventTypeAccessibilitySet EventType = "ACCESSIBILITY_SET"
	EventTypeDebugSet         EventType = "DEBUG_SET"
	EventTypeAccelerateSet    EventType = "ACCELERATE_SET"
	EventTypeSessionRestored  EventType = "SESSION_RESTORED"
)

// Well-known actors.
const (
	ActorPlayer = "PLAYER"
	ActorSystem = "SYSTEM"
)

// ErrClosed is reported to the error handler when an event arrives after Close.
var ErrClosed = errors.New("event log closed")

// GameEvent represents an immutable record of something that happened in a session.
type GameEvent struct {
	ID        string          `json:"id"`
	Sequence  int64           `json:"seq"`
	SessionID string          `json:"session_id"`
	Timestamp time.Time       `json:"timestamp"`
	Type      EventType       `json:"type"`
	ActorID   string          `json:"actor_id"`
	Night     int             `json:"night"`
	Elapsed   float64         `json:"elapsed"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Decode unmarshals the payload into v.
func (e GameEvent) Decode(v any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(e.Payload, v)
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// WriteObserver is told how long each persisted write took.
type WriteObserver interface {
	RecordEventWrite(latency time.Duration, err error)
}

// Option customizes an EventLog.
type Option func(*EventLog)

// WithBuffer sets how many events may wait for the persister. Once the
// buffer is full, Append blocks until the writer catches up, so a stalled
// persister stalls writers. Readers are never blocked by it.
func WithBuffer(n int) Option {
	return func(el *EventLog) {
		if n > 0 {
			el.buffer = n
		}
	}
}

// WithWriteObserver records persister latency.
func WithWriteObserver(o WriteObserver) Option {
	return func(el *EventLog) { el.observer = o }
}

// WithErrorHandler is called from the writer goroutine for every failed write.
func WithErrorHandler(fn func(GameEvent, error)) Option {
	return func(el *EventLog) { el.onError = fn }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(el *EventLog) { el.now = now }
}

// EventLog is the in-memory append-only log. When a persister is set, a
// single writer goroutine stores events in append order.
type EventLog struct {
	mu        sync.RWMutex
	sendMu    sync.Mutex // orders queue sends without holding mu
	events    []GameEvent
	persister EventPersister
	observer  WriteObserver
	onError   func(GameEvent, error)
	now       func() time.Time
	buffer    int
	queue     chan GameEvent
	done      chan struct{}
	closed    bool
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister, opts ...Option) *EventLog {
	el := &EventLog{
		events:    make([]GameEvent, 0),
		persister: persister,
		now:       time.Now,
		buffer:    256,
	}
	for _, opt := range opts {
		opt(el)
	}
	if persister != nil {
		el.queue = make(chan GameEvent, el.buffer)
		el.done = make(chan struct{})
		go el.writer()
	}
	return el
}

// Append stamps and stores an event, returning the stored copy.
// ID, sequence and timestamp are filled in when missing.
func (el *EventLog) Append(event GameEvent) GameEvent {
	el.mu.Lock()

	event.Sequence = int64(len(el.events)) + 1
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = el.now().UTC()
	}
	el.events = append(el.events, event)

	switch {
	case el.queue == nil:
		el.mu.Unlock()
	case el.closed:
		el.mu.Unlock()
		el.fail(event, ErrClosed)
	default:
		el.sendMu.Lock()
		el.mu.Unlock()
		el.queue <- event
		el.sendMu.Unlock()
	}
	return event
}

func (el *EventLog) writer() {
	defer close(el.done)
	for ev := range el.queue {
		start := time.Now()
		err := el.persister.Append(ev)
		if el.observer != nil {
			el.observer.RecordEventWrite(time.Since(start), err)
		}
		if err != nil {
			el.fail(ev, err)
		}
	}
}

func (el *EventLog) fail(ev GameEvent, err error) {
	if el.onError != nil {
		el.onError(ev, err)
	}
}

// Close stops accepting persisted writes and waits for the backlog to drain.
func (el *EventLog) Close() {
	el.mu.Lock()
	if el.closed || el.queue == nil {
		el.closed = true
		el.mu.Unlock()
		return
	}
	el.closed = true
	el.mu.Unlock()

	el.sendMu.Lock()
	close(el.queue)
	el.sendMu.Unlock()
	<-el.done
}

// Len returns the number of events in the log.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// Since returns every event with a sequence greater than seq.
func (el *EventLog) Since(seq int64) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	if seq < 0 {
		seq = 0
	}
	if seq >= int64(len(el.events)) {
		return nil
	}
	out := make([]GameEvent, len(el.events)-int(seq))
	copy(out, el.events[seq:])
	return out
}

// GetByActor returns all events performed by a specific actor.
func (el *EventLog) GetByActor(actorID string) []GameEvent {
	return el.filter(func(e GameEvent) bool { return e.ActorID == actorID })
}

// GetByNight returns all events that occurred on a specific night.
func (el *EventLog) GetByNight(night int) []GameEvent {
	return el.filter(func(e GameEvent) bool { return e.Night == night })
}

// GetByType returns all events of one type.
func (el *EventLog) GetByType(t EventType) []GameEvent {
	return el.filter(func(e GameEvent) bool { return e.Type == t })
}

func (el *EventLog) filter(keep func(GameEvent) bool) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if keep(e) {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of the full history.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	out := make([]GameEvent, len(el.events))
	copy(out, el.events)
	return out
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
