package speech

// SyncState represents the lifecycle state of a synchronizer instance.
type SyncState int

const (
	// StateIdle indicates no utterance is active. Initial and terminal state.
	StateIdle SyncState = iota
	// StateLoading indicates a playback resource is being acquired.
	StateLoading
	// StatePlaying indicates audio is playing and the tick loop is running.
	StatePlaying
	// StatePaused indicates playback is suspended with state preserved.
	StatePaused
	// StateStopped indicates a session was torn down by Stop.
	StateStopped
	// StateError indicates the playback resource failed.
	StateError
)

// String returns the string representation of the state.
func (s SyncState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// IsActive returns true if a session is live (audio underway or suspended).
func (s SyncState) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// StateMachine manages synchronizer state transitions. Invalid transitions are
// rejected, not errors: callers treat a false return as a no-op.
type StateMachine struct {
	current     SyncState
	transitions map[SyncState][]SyncState
}

// NewStateMachine creates a state machine in StateIdle with the valid
// transition table.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[SyncState][]SyncState{
			StateIdle:    {StateLoading, StateStopped, StateError},
			StateLoading: {StatePlaying, StateStopped, StateError},
			StatePlaying: {StatePaused, StateStopped, StateIdle, StateError},
			StatePaused:  {StatePlaying, StateStopped, StateError},
			StateStopped: {StateIdle, StateLoading, StateError},
			StateError:   {StateLoading, StateStopped, StateIdle},
		},
	}
}

// Transition attempts to move to the given state, returning whether the
// transition was valid.
func (sm *StateMachine) Transition(to SyncState) bool {
	for _, valid := range sm.transitions[sm.current] {
		if valid == to {
			sm.current = to
			return true
		}
	}
	return false
}

// Current returns the current state.
func (sm *StateMachine) Current() SyncState {
	return sm.current
}
