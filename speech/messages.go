package speech

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Messages for Bubble Tea communication between the synchronizer and a TUI.

// SpeechStartedMsg indicates playback of an utterance has begun.
type SpeechStartedMsg struct {
	Text       string // Utterance text
	TotalWords int    // Number of words in the transcript
}

// WordSpokenMsg indicates the current word has changed.
type WordSpokenMsg struct {
	Word     string
	Index    int
	Position time.Duration // Playback position the word was derived from
}

// VisemeMsg carries the viseme weights for the current frame.
type VisemeMsg struct {
	Visemes  Weights
	Position time.Duration
}

// SpeechPausedMsg indicates playback has been paused.
type SpeechPausedMsg struct {
	Position time.Duration
}

// SpeechResumedMsg indicates playback has resumed.
type SpeechResumedMsg struct {
	Position time.Duration
}

// SpeechStoppedMsg indicates the session was torn down before completion.
type SpeechStoppedMsg struct{}

// SpeechCompletedMsg indicates the full utterance was heard.
type SpeechCompletedMsg struct{}

// SpeechErrorMsg indicates the playback resource failed.
type SpeechErrorMsg struct {
	Err      error
	Category ErrorCategory
}

// Bridge adapts emitter events into Bubble Tea messages. Subscribe it to a
// synchronizer's emitter, then drain it with Listen from the program's Init.
type Bridge struct {
	ch   chan tea.Msg
	subs []Subscription
}

// NewBridge subscribes to every notification type on the emitter and buffers
// the translated messages. text and totalWords describe the utterance for the
// started message.
func NewBridge(emitter *Emitter, text string, totalWords int) *Bridge {
	b := &Bridge{ch: make(chan tea.Msg, 64)}

	b.subs = append(b.subs,
		emitter.On(EventStarted, func(Event) {
			b.send(SpeechStartedMsg{Text: text, TotalWords: totalWords})
		}),
		emitter.On(EventWordUpdate, func(ev Event) {
			b.send(WordSpokenMsg{Word: ev.Word, Index: ev.WordIndex, Position: ev.Position})
		}),
		emitter.On(EventVisemeUpdate, func(ev Event) {
			b.send(VisemeMsg{Visemes: ev.Visemes, Position: ev.Position})
		}),
		emitter.On(EventPaused, func(ev Event) {
			b.send(SpeechPausedMsg{Position: ev.Position})
		}),
		emitter.On(EventResumed, func(ev Event) {
			b.send(SpeechResumedMsg{Position: ev.Position})
		}),
		emitter.On(EventStopped, func(Event) {
			b.send(SpeechStoppedMsg{})
		}),
		emitter.On(EventCompleted, func(Event) {
			b.send(SpeechCompletedMsg{})
		}),
		emitter.On(EventError, func(ev Event) {
			b.send(SpeechErrorMsg{Err: ev.Err, Category: CategoryOf(ev.Err)})
		}),
	)

	return b
}

// send never blocks the emitting loop; if the UI falls behind, the oldest
// buffered message is dropped in favor of the new one.
func (b *Bridge) send(msg tea.Msg) {
	select {
	case b.ch <- msg:
	default:
		select {
		case <-b.ch:
		default:
		}
		select {
		case b.ch <- msg:
		default:
		}
	}
}

// Listen returns a command that waits for the next translated message.
// Re-issue it from Update after each received message.
func (b *Bridge) Listen() tea.Cmd {
	return func() tea.Msg {
		return <-b.ch
	}
}

// Close detaches the bridge from the emitter.
func (b *Bridge) Close(emitter *Emitter) {
	for _, sub := range b.subs {
		emitter.Off(sub)
	}
}
