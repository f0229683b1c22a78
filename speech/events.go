package speech

import (
	"sync"
	"time"
)

// EventType identifies the notifications a synchronizer publishes.
type EventType string

const (
	// EventStarted fires when playback of a new utterance begins.
	EventStarted EventType = "started"
	// EventVisemeUpdate fires each tick with the applicable viseme weights.
	EventVisemeUpdate EventType = "visemeUpdate"
	// EventWordUpdate fires once per word boundary with the word and its index.
	EventWordUpdate EventType = "wordUpdate"
	// EventPaused fires when playback is paused.
	EventPaused EventType = "paused"
	// EventResumed fires when playback resumes from a pause.
	EventResumed EventType = "resumed"
	// EventStopped fires when a session is torn down by Stop.
	EventStopped EventType = "stopped"
	// EventCompleted fires when the full utterance played to its natural end.
	EventCompleted EventType = "completed"
	// EventError fires when the playback resource fails.
	EventError EventType = "error"
)

// Event is the payload delivered to subscribers. Fields are populated per
// type: Visemes for viseme updates, Word/WordIndex for word updates, Err for
// errors. Position carries the playback position the payload was derived from.
type Event struct {
	Type      EventType
	Position  time.Duration
	Visemes   Weights
	Word      string
	WordIndex int
	Err       error
}

// Handler receives published events.
type Handler func(Event)

// Subscription identifies a registered handler so it can be removed with Off.
type Subscription struct {
	eventType EventType
	id        int
}

// Emitter is the synchronizer's pub/sub surface. Dispatch is synchronous and
// in registration order, so subscribers observe events in the order they occur.
type Emitter struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[EventType][]subscriber
}

type subscriber struct {
	id      int
	handler Handler
}

// NewEmitter creates an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[EventType][]subscriber)}
}

// On registers a handler for an event type and returns its subscription.
func (e *Emitter) On(eventType EventType, handler Handler) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	e.handlers[eventType] = append(e.handlers[eventType], subscriber{id: e.nextID, handler: handler})
	return Subscription{eventType: eventType, id: e.nextID}
}

// Off removes a previously registered handler. Unknown subscriptions are
// ignored.
func (e *Emitter) Off(sub Subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()
	subs := e.handlers[sub.eventType]
	for i, s := range subs {
		if s.id == sub.id {
			e.handlers[sub.eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Emit delivers the event to all handlers registered for its type. Handlers
// run on the caller's goroutine; the synchronizer emits from a single loop so
// ordering is preserved.
func (e *Emitter) Emit(event Event) {
	e.mu.RLock()
	subs := make([]subscriber, len(e.handlers[event.Type]))
	copy(subs, e.handlers[event.Type])
	e.mu.RUnlock()

	for _, s := range subs {
		if s.handler != nil {
			s.handler(event)
		}
	}
}
