// Package timeline implements the speech timeline synchronizer: it owns one
// playback resource and one tick loop, and fans the playback position out to
// viseme, word, and lifecycle subscribers.
package timeline

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/speechsync/speech"
	"github.com/dgnsrekt/speechsync/speech/viseme"
)

// SpeechConfig describes one utterance: the text, the audio it was synthesized
// to, the word alignment, and optional per-session callbacks invoked alongside
// the emitted notifications.
type SpeechConfig struct {
	Text        string
	AudioSource string
	Words       []speech.WordTimestamp

	OnWordSpoken   func(word string, index int)
	OnVisemeUpdate func(visemes speech.Weights)
	OnComplete     func()
	OnError        func(err error)
}

// Synchronizer drives viseme animation, word-by-word reveal, and lifecycle
// notifications from a playback resource's position clock. The hosting
// application owns the instance and injects the player; instances are never
// shared across playback resources.
//
// At most one session (StartSpeech to terminal state) is live per instance.
// Starting a new utterance tears the previous one down first, so two tick
// loops never coexist. Teardown drains the in-flight tick: once StartSpeech,
// Pause, or Stop returns, the superseded session delivers nothing more. For
// that reason the lifecycle methods must not be called synchronously from
// inside a notification handler.
type Synchronizer struct {
	// opMu serializes the lifecycle entry points so one teardown's drain of
	// the in-flight tick cannot interleave with another start.
	opMu sync.Mutex

	mu      sync.Mutex
	player  speech.Player
	machine *speech.StateMachine
	emitter *speech.Emitter
	config  Config
	logger  *log.Logger

	// session increments on every teardown; ticks and player callbacks carry
	// the generation they were created under and no-op once it is stale.
	session  uint64
	active   SpeechConfig
	frames   []viseme.Frame
	words    []speech.WordTimestamp
	lastWord int
	loopStop chan struct{}
	loopDone chan struct{}
}

// New creates a synchronizer around the given playback resource.
func New(player speech.Player, config Config) *Synchronizer {
	config.applyDefaults()
	return &Synchronizer{
		player:   player,
		machine:  speech.NewStateMachine(),
		emitter:  speech.NewEmitter(),
		config:   config,
		logger:   config.Logger,
		lastWord: -1,
	}
}

// Events returns the emitter external consumers subscribe to.
func (s *Synchronizer) Events() *speech.Emitter {
	return s.emitter
}

// State returns the current lifecycle state.
func (s *Synchronizer) State() speech.SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Current()
}

// Position returns the current playback position of the owned resource.
func (s *Synchronizer) Position() time.Duration {
	return s.player.GetPosition()
}

// CurrentWordIndex returns the last-notified word index, or -1 when no word
// has been spoken this session.
func (s *Synchronizer) CurrentWordIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastWord
}

// StreamedWords derives the transcript view for the active session at the
// current playback position.
func (s *Synchronizer) StreamedWords() []speech.StreamedWord {
	s.mu.Lock()
	words := s.words
	s.mu.Unlock()
	return speech.StreamedWords(words, s.player.GetPosition())
}

// StartSpeech begins playback of a new utterance, tearing down any session
// already in flight. On a playback-resource failure the state moves to error,
// an error notification fires, the config's OnError runs, and the failure is
// also returned to the caller. A failed instance is not poisoned: the next
// StartSpeech proceeds normally.
func (s *Synchronizer) StartSpeech(config SpeechConfig) error {
	if s.player == nil {
		return speech.ErrPlayerNotSet
	}
	if config.AudioSource == "" {
		return speech.ErrNoAudioSource
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	events, done := s.stopLocked()
	s.mu.Unlock()
	s.drainLoop(done)
	s.dispatch(events)

	s.mu.Lock()
	s.session++
	gen := s.session
	s.machine.Transition(speech.StateLoading)
	s.active = config
	s.words = config.Words
	s.frames = viseme.Generate(config.Words)
	s.lastWord = -1

	s.logger.Debug("starting speech",
		"source", config.AudioSource, "words", len(config.Words), "frames", len(s.frames))

	s.player.SetCallbacks(speech.PlayerCallbacks{
		OnComplete: func() { s.handleCompletion(gen) },
		OnError:    func(err error) { s.handlePlayerError(gen, err) },
	})

	if err := s.player.Load(config.AudioSource); err != nil {
		return s.failLocked(config, true, err)
	}
	if err := s.player.Play(); err != nil {
		return s.failLocked(config, true, err)
	}

	s.machine.Transition(speech.StatePlaying)
	s.startLoopLocked(gen)

	s.mu.Unlock()
	s.dispatch([]speech.Event{{Type: speech.EventStarted}})
	return nil
}

// Pause suspends playback and the tick loop, preserving the playback position
// and last-word index for exact resumption. A no-op outside the playing state.
// Any tick already delivering finishes before Pause returns.
func (s *Synchronizer) Pause() {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.machine.Current() != speech.StatePlaying {
		s.mu.Unlock()
		return
	}

	done := s.stopLoopLocked()
	if err := s.player.Pause(); err != nil {
		s.logger.Warn("pause command failed", "err", err)
	}
	s.machine.Transition(speech.StatePaused)
	pos := s.player.GetPosition()

	s.mu.Unlock()
	s.drainLoop(done)
	s.dispatch([]speech.Event{{Type: speech.EventPaused, Position: pos}})
}

// Resume continues a paused session. A no-op outside the paused state. A
// resume failure moves the state to error and is reported through the error
// notification, the session's OnError, and the return value.
func (s *Synchronizer) Resume() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.machine.Current() != speech.StatePaused {
		s.mu.Unlock()
		return nil
	}

	if err := s.player.Resume(); err != nil {
		config := s.active
		return s.failLocked(config, false, err)
	}

	s.machine.Transition(speech.StatePlaying)
	pos := s.player.GetPosition()
	s.startLoopLocked(s.session)

	s.mu.Unlock()
	s.dispatch([]speech.Event{{Type: speech.EventResumed, Position: pos}})
	return nil
}

// Stop tears down the active session from any state: cancels the tick loop,
// halts and detaches the playback resource, and resets derived state. Blocks
// until any tick already delivering has finished, so no notification from the
// cancelled session fires after Stop returns. Idempotent — stopping an idle
// instance is a no-op with no emission.
func (s *Synchronizer) Stop() {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	events, done := s.stopLocked()
	s.mu.Unlock()
	s.drainLoop(done)
	s.dispatch(events)
}

// Seek repositions playback to t, clamped to [0, duration]. A no-op until the
// resource's duration is known.
func (s *Synchronizer) Seek(t time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	duration := s.player.GetDuration()
	if duration <= 0 {
		return
	}
	if t < 0 {
		t = 0
	}
	if t > duration {
		t = duration
	}
	if err := s.player.Seek(t); err != nil {
		s.logger.Warn("seek command failed", "pos", t, "err", err)
	}
}

// stopLocked performs the teardown shared by Stop and StartSpeech. Returns
// the events to dispatch and the loop's done channel to drain, both handled
// after the lock is released.
func (s *Synchronizer) stopLocked() ([]speech.Event, chan struct{}) {
	if s.machine.Current() == speech.StateIdle {
		return nil, nil
	}

	done := s.stopLoopLocked()
	s.session++
	if err := s.player.Stop(); err != nil {
		s.logger.Warn("stop command failed", "err", err)
	}

	s.frames = nil
	s.words = nil
	s.lastWord = -1
	s.active = SpeechConfig{}

	s.machine.Transition(speech.StateStopped)
	s.machine.Transition(speech.StateIdle)
	return []speech.Event{{Type: speech.EventStopped}}, done
}

// failLocked finalizes a playback-resource failure: error state, error event,
// OnError callback, and the wrapped error returned to the caller. Releases the
// lock.
func (s *Synchronizer) failLocked(config SpeechConfig, acquisition bool, err error) error {
	wrapped := speech.NewPlaybackError(speech.CategoryUnknown, acquisition, err)
	done := s.stopLoopLocked()
	s.session++ // invalidate any in-flight player callbacks for this session
	s.machine.Transition(speech.StateError)
	s.logger.Error("playback failed", "category", wrapped.Category, "err", err)
	s.mu.Unlock()

	s.drainLoop(done)
	s.dispatch([]speech.Event{{Type: speech.EventError, Err: wrapped}})
	if config.OnError != nil {
		config.OnError(wrapped)
	}
	return wrapped
}

// startLoopLocked arms the tick loop for the given session generation.
func (s *Synchronizer) startLoopLocked(gen uint64) {
	stop := make(chan struct{})
	done := make(chan struct{})
	s.loopStop = stop
	s.loopDone = done
	go s.loop(gen, stop, done)
}

// stopLoopLocked cancels the armed tick loop, if any, and returns its done
// channel for the caller to drain once the lock is released.
func (s *Synchronizer) stopLoopLocked() chan struct{} {
	if s.loopStop == nil {
		return nil
	}
	close(s.loopStop)
	s.loopStop = nil
	done := s.loopDone
	s.loopDone = nil
	return done
}

// drainLoop blocks until a cancelled tick loop has fully exited. The liveness
// check in tick runs under the lock but delivery does not, so a tick can pass
// the check and then lose the lock to a teardown; draining makes the teardown
// wait that delivery out instead of returning around it.
func (s *Synchronizer) drainLoop(done chan struct{}) {
	if done != nil {
		<-done
	}
}

// loop re-arms itself once per frame interval while the session is playing.
// Cancellation is cooperative: the stop channel ends it promptly, the
// generation check inside tick keeps a stale scheduled tick from starting a
// delivery, and the done channel lets teardown wait for a delivery already in
// progress.
func (s *Synchronizer) loop(gen uint64, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !s.tick(gen) {
				return
			}
		}
	}
}

// tick samples the playback position once and derives both the viseme and
// word updates from that single sample, so the two notifications are mutually
// consistent within the tick. Returns false when the loop should terminate.
func (s *Synchronizer) tick(gen uint64) bool {
	s.mu.Lock()
	if gen != s.session || s.machine.Current() != speech.StatePlaying {
		s.mu.Unlock()
		return false
	}

	pos := s.player.GetPosition()

	weights, found := viseme.At(s.frames, pos)
	wordIndex := speech.WordAt(s.words, pos)

	var wordEvent *speech.Event
	if wordIndex >= 0 && wordIndex != s.lastWord {
		s.lastWord = wordIndex
		wordEvent = &speech.Event{
			Type:      speech.EventWordUpdate,
			Position:  pos,
			Word:      s.words[wordIndex].Word,
			WordIndex: wordIndex,
		}
	}
	config := s.active
	s.mu.Unlock()

	if found {
		s.emitter.Emit(speech.Event{Type: speech.EventVisemeUpdate, Position: pos, Visemes: weights})
		if config.OnVisemeUpdate != nil {
			config.OnVisemeUpdate(weights)
		}
	}
	if wordEvent != nil {
		s.emitter.Emit(*wordEvent)
		if config.OnWordSpoken != nil {
			config.OnWordSpoken(wordEvent.Word, wordEvent.WordIndex)
		}
	}
	return true
}

// handleCompletion runs when the playback resource reaches its natural end.
// Distinct from Stop: the state returns to idle so a new utterance can start
// immediately, and a completed notification fires instead of stopped.
func (s *Synchronizer) handleCompletion(gen uint64) {
	s.mu.Lock()
	if gen != s.session {
		s.mu.Unlock()
		return
	}

	done := s.stopLoopLocked()
	s.session++ // a late device error after completion must not revive the session
	s.machine.Transition(speech.StateIdle)
	s.lastWord = -1
	config := s.active
	s.active = SpeechConfig{}
	s.logger.Debug("speech completed")

	s.mu.Unlock()
	s.drainLoop(done)
	s.dispatch([]speech.Event{{Type: speech.EventCompleted}})
	if config.OnComplete != nil {
		config.OnComplete()
	}
}

// handlePlayerError runs when the resource fails after playback started.
func (s *Synchronizer) handlePlayerError(gen uint64, err error) {
	s.mu.Lock()
	if gen != s.session {
		s.mu.Unlock()
		return
	}
	config := s.active
	_ = s.failLocked(config, false, err)
}

// dispatch emits the collected events in occurrence order.
func (s *Synchronizer) dispatch(events []speech.Event) {
	for _, event := range events {
		s.emitter.Emit(event)
	}
}
