package speech

import (
	"testing"
	"time"
)

func TestEmitterDeliversToSubscribers(t *testing.T) {
	e := NewEmitter()

	var got []Event
	e.On(EventWordUpdate, func(ev Event) { got = append(got, ev) })

	e.Emit(Event{Type: EventWordUpdate, Word: "hello", WordIndex: 0})
	e.Emit(Event{Type: EventWordUpdate, Word: "world", WordIndex: 1})
	e.Emit(Event{Type: EventStopped}) // different type, not delivered

	if len(got) != 2 {
		t.Fatalf("received %d events, want 2", len(got))
	}
	if got[0].Word != "hello" || got[1].Word != "world" {
		t.Errorf("events out of order: %q, %q", got[0].Word, got[1].Word)
	}
}

func TestEmitterOff(t *testing.T) {
	e := NewEmitter()

	var first, second int
	sub := e.On(EventStarted, func(Event) { first++ })
	e.On(EventStarted, func(Event) { second++ })

	e.Emit(Event{Type: EventStarted})
	e.Off(sub)
	e.Emit(Event{Type: EventStarted})

	if first != 1 {
		t.Errorf("removed handler fired %d times, want 1", first)
	}
	if second != 2 {
		t.Errorf("remaining handler fired %d times, want 2", second)
	}

	// Removing twice is harmless.
	e.Off(sub)
}

func TestEmitterOrderingAcrossHandlers(t *testing.T) {
	e := NewEmitter()

	var order []string
	e.On(EventVisemeUpdate, func(Event) { order = append(order, "a") })
	e.On(EventVisemeUpdate, func(Event) { order = append(order, "b") })

	e.Emit(Event{Type: EventVisemeUpdate, Position: 10 * time.Millisecond})

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("handlers ran in order %v, want [a b]", order)
	}
}

func TestEmitterNoSubscribers(t *testing.T) {
	e := NewEmitter()
	// Must not panic.
	e.Emit(Event{Type: EventCompleted})
}
