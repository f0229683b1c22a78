package gesture

import (
	"testing"

	"github.com/dgnsrekt/speechsync/speech"
)

func TestControllerStartsIdle(t *testing.T) {
	emitter := speech.NewEmitter()
	c := NewController(emitter, nil)
	defer c.Close()

	if c.State() != StateIdle {
		t.Errorf("initial state = %v, want idle", c.State())
	}
}

func TestControllerFollowsLifecycle(t *testing.T) {
	tests := []struct {
		name   string
		events []speech.EventType
		want   State
	}{
		{"started", []speech.EventType{speech.EventStarted}, StateSpeaking},
		{"paused", []speech.EventType{speech.EventStarted, speech.EventPaused}, StatePaused},
		{"resumed", []speech.EventType{speech.EventStarted, speech.EventPaused, speech.EventResumed}, StateSpeaking},
		{"stopped", []speech.EventType{speech.EventStarted, speech.EventStopped}, StateIdle},
		{"completed", []speech.EventType{speech.EventStarted, speech.EventCompleted}, StateIdle},
		{"error", []speech.EventType{speech.EventStarted, speech.EventError}, StateIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emitter := speech.NewEmitter()
			c := NewController(emitter, nil)
			defer c.Close()

			for _, eventType := range tt.events {
				emitter.Emit(speech.Event{Type: eventType})
			}
			if c.State() != tt.want {
				t.Errorf("state = %v, want %v", c.State(), tt.want)
			}
		})
	}
}

func TestControllerOnChange(t *testing.T) {
	emitter := speech.NewEmitter()

	var transitions []State
	c := NewController(emitter, func(s State) { transitions = append(transitions, s) })
	defer c.Close()

	emitter.Emit(speech.Event{Type: speech.EventStarted})
	emitter.Emit(speech.Event{Type: speech.EventPaused})
	emitter.Emit(speech.Event{Type: speech.EventResumed})
	emitter.Emit(speech.Event{Type: speech.EventCompleted})

	want := []State{StateSpeaking, StatePaused, StateSpeaking, StateIdle}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i, s := range want {
		if transitions[i] != s {
			t.Fatalf("transitions = %v, want %v", transitions, want)
		}
	}
}

func TestControllerOnChangeSkipsRepeats(t *testing.T) {
	emitter := speech.NewEmitter()

	calls := 0
	c := NewController(emitter, func(State) { calls++ })
	defer c.Close()

	// Stopped while already idle must not announce a transition.
	emitter.Emit(speech.Event{Type: speech.EventStopped})
	if calls != 0 {
		t.Errorf("onChange calls = %d, want 0", calls)
	}

	emitter.Emit(speech.Event{Type: speech.EventStarted})
	emitter.Emit(speech.Event{Type: speech.EventResumed}) // already speaking
	if calls != 1 {
		t.Errorf("onChange calls = %d, want 1", calls)
	}
}

func TestControllerCloseDetaches(t *testing.T) {
	emitter := speech.NewEmitter()
	c := NewController(emitter, nil)

	emitter.Emit(speech.Event{Type: speech.EventStarted})
	c.Close()
	emitter.Emit(speech.Event{Type: speech.EventStopped})

	if c.State() != StateSpeaking {
		t.Errorf("state after Close = %v, want speaking (frozen)", c.State())
	}
}
