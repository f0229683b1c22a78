// Package gesture maps speech lifecycle notifications to the coarse avatar
// gesture state an animation rig consumes.
package gesture

import (
	"sync"

	"github.com/dgnsrekt/speechsync/speech"
)

// State is the coarse avatar animation state.
type State string

const (
	// StateIdle is the resting pose: no utterance in flight.
	StateIdle State = "idle"
	// StateSpeaking is the talking pose: audio is playing.
	StateSpeaking State = "speaking"
	// StatePaused is the attentive hold pose: an utterance is suspended.
	StatePaused State = "paused"
)

// Controller subscribes to a synchronizer's lifecycle notifications and keeps
// the current gesture state, invoking the change callback on transitions.
type Controller struct {
	mu       sync.Mutex
	state    State
	onChange func(State)
	emitter  *speech.Emitter
	subs     []speech.Subscription
}

// NewController attaches a controller to the emitter. The optional onChange
// callback fires on every state transition.
func NewController(emitter *speech.Emitter, onChange func(State)) *Controller {
	c := &Controller{state: StateIdle, onChange: onChange, emitter: emitter}

	c.subs = append(c.subs,
		emitter.On(speech.EventStarted, func(speech.Event) { c.set(StateSpeaking) }),
		emitter.On(speech.EventResumed, func(speech.Event) { c.set(StateSpeaking) }),
		emitter.On(speech.EventPaused, func(speech.Event) { c.set(StatePaused) }),
		emitter.On(speech.EventStopped, func(speech.Event) { c.set(StateIdle) }),
		emitter.On(speech.EventCompleted, func(speech.Event) { c.set(StateIdle) }),
		emitter.On(speech.EventError, func(speech.Event) { c.set(StateIdle) }),
	)
	return c
}

// State returns the current gesture state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close detaches the controller from the emitter.
func (c *Controller) Close() {
	for _, sub := range c.subs {
		c.emitter.Off(sub)
	}
}

func (c *Controller) set(state State) {
	c.mu.Lock()
	if c.state == state {
		c.mu.Unlock()
		return
	}
	c.state = state
	onChange := c.onChange
	c.mu.Unlock()

	if onChange != nil {
		onChange(state)
	}
}
