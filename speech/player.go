package speech

import "time"

// Player is the playback resource the synchronizer drives. It is deliberately
// narrow so the synchronization logic stays portable and unit-testable against
// a fake implementation: load, transport controls, position/duration queries,
// and completion/error observers.
//
// GetPosition is the ground-truth clock. The synchronizer never keeps an
// independent clock of its own.
type Player interface {
	// Load acquires and prepares the audio identified by src (a file path,
	// URL, or equivalent handle). The player does not begin playback.
	Load(src string) error

	// Play starts playback of the loaded audio.
	Play() error

	// Pause suspends playback, preserving the current position.
	Pause() error

	// Resume continues playback from the paused position.
	Resume() error

	// Stop halts playback, rewinds the position, and detaches the loaded
	// source so its resources can be released. Idempotent.
	Stop() error

	// Seek repositions playback to pos. Only meaningful once the duration is
	// known.
	Seek(pos time.Duration) error

	// GetPosition returns the current playback position.
	GetPosition() time.Duration

	// GetDuration returns the total duration of the loaded audio, or zero
	// while unknown.
	GetDuration() time.Duration

	// IsPlaying returns true if audio is currently playing.
	IsPlaying() bool

	// SetCallbacks registers completion and failure observers. Must be called
	// before Play; callbacks may fire from the player's own goroutine.
	SetCallbacks(callbacks PlayerCallbacks)

	// Close releases the player and all loaded audio.
	Close() error
}

// PlayerCallbacks holds the observers a player invokes on asynchronous events.
type PlayerCallbacks struct {
	// OnComplete fires when playback reaches the natural end of the media.
	OnComplete func()
	// OnError fires when the resource fails after playback has started.
	OnError func(err error)
}
