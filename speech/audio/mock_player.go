package audio

import (
	"errors"
	"sync"
	"time"

	"github.com/dgnsrekt/speechsync/speech"
)

// MockPlayer implements speech.Player for tests. It simulates playback with a
// wall-clock-derived position, no audio output, and no audio hardware. Tests
// control it with a duration per source, a speed multiplier, and injectable
// errors per method.
type MockPlayer struct {
	mu sync.Mutex

	loaded   bool
	source   string
	playing  bool
	paused   bool
	closed   bool
	duration time.Duration

	startTime time.Time
	pauseTime time.Time
	pausedDur time.Duration
	seekBase  time.Duration

	callbacks speech.PlayerCallbacks
	history   []PlaybackEvent

	completeStop chan struct{}

	// Test control
	speedMultiplier float64
	sourceDurations map[string]time.Duration
	defaultDuration time.Duration

	// Error injection
	loadError   error
	playError   error
	pauseError  error
	resumeError error
	stopError   error
}

// PlaybackEvent records a transport command for test verification.
type PlaybackEvent struct {
	Type     string
	Source   string
	Position time.Duration
}

var _ speech.Player = (*MockPlayer)(nil)

// NewMockPlayer creates a mock player. Sources load with defaultDuration
// until overridden with SetSourceDuration.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{
		speedMultiplier: 1.0,
		defaultDuration: time.Second,
		sourceDurations: make(map[string]time.Duration),
	}
}

// Load pretends to acquire src and fixes the duration for it.
func (mp *MockPlayer) Load(src string) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.loadError != nil {
		return mp.loadError
	}
	if mp.closed {
		return speech.ErrPlayerClosed
	}

	mp.detachLocked()
	mp.loaded = true
	mp.source = src
	if d, ok := mp.sourceDurations[src]; ok {
		mp.duration = d
	} else {
		mp.duration = mp.defaultDuration
	}
	mp.recordLocked("load")
	return nil
}

// Play starts simulated playback.
func (mp *MockPlayer) Play() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.playError != nil {
		return mp.playError
	}
	if !mp.loaded {
		return speech.ErrNotLoaded
	}
	if mp.playing && !mp.paused {
		return speech.ErrAlreadyPlaying
	}

	mp.playing = true
	mp.paused = false
	mp.startTime = time.Now()
	mp.pausedDur = 0
	mp.seekBase = 0
	mp.recordLocked("play")

	mp.completeStop = make(chan struct{})
	go mp.watchCompletion(mp.completeStop)
	return nil
}

// Pause suspends the simulated clock.
func (mp *MockPlayer) Pause() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.pauseError != nil {
		return mp.pauseError
	}
	if !mp.playing {
		return speech.ErrNotPlaying
	}
	if mp.paused {
		return speech.ErrNotPlaying
	}

	mp.paused = true
	mp.pauseTime = time.Now()
	mp.recordLocked("pause")
	return nil
}

// Resume restarts the simulated clock where it paused.
func (mp *MockPlayer) Resume() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.resumeError != nil {
		return mp.resumeError
	}
	if !mp.paused {
		return speech.ErrNotPaused
	}

	mp.pausedDur += time.Since(mp.pauseTime)
	mp.pauseTime = time.Time{}
	mp.paused = false
	mp.recordLocked("resume")
	return nil
}

// Stop halts simulated playback and detaches the source. Idempotent.
func (mp *MockPlayer) Stop() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.stopError != nil {
		return mp.stopError
	}
	if !mp.loaded && !mp.playing {
		return nil
	}
	mp.detachLocked()
	mp.recordLocked("stop")
	return nil
}

// Seek moves the simulated position.
func (mp *MockPlayer) Seek(pos time.Duration) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if !mp.loaded {
		return speech.ErrNotLoaded
	}
	if pos < 0 {
		pos = 0
	}
	if pos > mp.duration {
		pos = mp.duration
	}
	mp.seekBase = pos
	mp.startTime = time.Now()
	mp.pausedDur = 0
	mp.recordLocked("seek")
	return nil
}

// GetPosition derives the position from elapsed wall time, the speed
// multiplier, and accumulated pauses, capped at the duration.
func (mp *MockPlayer) GetPosition() time.Duration {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.positionLocked()
}

func (mp *MockPlayer) positionLocked() time.Duration {
	if !mp.playing || mp.startTime.IsZero() {
		return 0
	}
	elapsed := time.Since(mp.startTime) - mp.pausedDur
	if mp.paused && !mp.pauseTime.IsZero() {
		elapsed -= time.Since(mp.pauseTime)
	}
	pos := mp.seekBase + time.Duration(float64(elapsed)*mp.speedMultiplier)
	if pos > mp.duration {
		pos = mp.duration
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}

// GetDuration returns the fixed duration of the loaded source.
func (mp *MockPlayer) GetDuration() time.Duration {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if !mp.loaded {
		return 0
	}
	return mp.duration
}

// IsPlaying returns true while the simulated clock is advancing.
func (mp *MockPlayer) IsPlaying() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.playing && !mp.paused
}

// SetCallbacks registers completion/error observers.
func (mp *MockPlayer) SetCallbacks(callbacks speech.PlayerCallbacks) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.callbacks = callbacks
}

// Close stops playback and marks the player unusable.
func (mp *MockPlayer) Close() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.detachLocked()
	mp.closed = true
	return nil
}

func (mp *MockPlayer) detachLocked() {
	if mp.completeStop != nil {
		close(mp.completeStop)
		mp.completeStop = nil
	}
	mp.loaded = false
	mp.source = ""
	mp.playing = false
	mp.paused = false
	mp.duration = 0
	mp.startTime = time.Time{}
	mp.pauseTime = time.Time{}
	mp.pausedDur = 0
	mp.seekBase = 0
}

// watchCompletion fires OnComplete when the simulated clock reaches the
// duration. Callbacks run without the player lock held.
func (mp *MockPlayer) watchCompletion(stop chan struct{}) {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			mp.mu.Lock()
			if !mp.playing {
				mp.mu.Unlock()
				return
			}
			if mp.paused {
				mp.mu.Unlock()
				continue
			}
			if mp.positionLocked() >= mp.duration {
				callbacks := mp.callbacks
				mp.completeStop = nil
				mp.detachLocked()
				mp.mu.Unlock()
				if callbacks.OnComplete != nil {
					callbacks.OnComplete()
				}
				return
			}
			mp.mu.Unlock()
		}
	}
}

// Test control methods

// SetSourceDuration fixes the duration reported for a given source.
func (mp *MockPlayer) SetSourceDuration(src string, d time.Duration) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.sourceDurations[src] = d
}

// SetDefaultDuration fixes the duration for sources without an override.
func (mp *MockPlayer) SetDefaultDuration(d time.Duration) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.defaultDuration = d
}

// SetSpeedMultiplier scales the simulated clock (2.0 = double speed).
func (mp *MockPlayer) SetSpeedMultiplier(multiplier float64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if multiplier <= 0 {
		multiplier = 1.0
	}
	mp.speedMultiplier = multiplier
}

// InjectError makes the named method ("load", "play", "pause", "resume",
// "stop") fail with err until cleared.
func (mp *MockPlayer) InjectError(method string, err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	switch method {
	case "load":
		mp.loadError = err
	case "play":
		mp.playError = err
	case "pause":
		mp.pauseError = err
	case "resume":
		mp.resumeError = err
	case "stop":
		mp.stopError = err
	}
}

// ClearErrors removes all injected errors.
func (mp *MockPlayer) ClearErrors() {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.loadError = nil
	mp.playError = nil
	mp.pauseError = nil
	mp.resumeError = nil
	mp.stopError = nil
}

// FireError invokes the registered error callback as if the device failed
// mid-playback, detaching the source first.
func (mp *MockPlayer) FireError(err error) {
	mp.mu.Lock()
	callbacks := mp.callbacks
	mp.detachLocked()
	mp.mu.Unlock()
	if callbacks.OnError != nil {
		callbacks.OnError(err)
	}
}

// History returns a copy of the recorded transport commands.
func (mp *MockPlayer) History() []PlaybackEvent {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	out := make([]PlaybackEvent, len(mp.history))
	copy(out, mp.history)
	return out
}

// WaitForPosition blocks until the simulated position reaches target or the
// timeout expires.
func (mp *MockPlayer) WaitForPosition(target, timeout time.Duration) error {
	deadline := time.After(timeout)
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			return errors.New("timeout waiting for position")
		case <-ticker.C:
			if mp.GetPosition() >= target {
				return nil
			}
			if !mp.IsPlaying() {
				return errors.New("playback stopped before reaching position")
			}
		}
	}
}

func (mp *MockPlayer) recordLocked(eventType string) {
	mp.history = append(mp.history, PlaybackEvent{
		Type:     eventType,
		Source:   mp.source,
		Position: mp.positionLocked(),
	})
}
