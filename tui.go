package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dgnsrekt/speechsync/speech"
	"github.com/dgnsrekt/speechsync/speech/gesture"
	"github.com/dgnsrekt/speechsync/speech/timeline"
)

var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)

// playModel renders one utterance in the terminal: the word reveal, the
// dominant viseme, and the gesture state, all driven by bridge messages.
type playModel struct {
	synchronizer *timeline.Synchronizer
	bridge       *speech.Bridge
	words        []speech.WordTimestamp
	spoken       int
	viseme       string
	state        gesture.State
	err          error
}

func newPlayModel(synchronizer *timeline.Synchronizer, bridge *speech.Bridge, words []speech.WordTimestamp) playModel {
	return playModel{
		synchronizer: synchronizer,
		bridge:       bridge,
		words:        words,
		spoken:       -1,
		viseme:       speech.VisemeSilence,
		state:        gesture.StateIdle,
	}
}

func (m playModel) Init() tea.Cmd {
	return m.bridge.Listen()
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			if m.state == gesture.StatePaused {
				_ = m.synchronizer.Resume()
			} else {
				m.synchronizer.Pause()
			}
		case "s":
			m.synchronizer.Stop()
		}
		return m, nil

	case speech.SpeechStartedMsg:
		m.state = gesture.StateSpeaking
	case speech.WordSpokenMsg:
		m.spoken = msg.Index
	case speech.VisemeMsg:
		m.viseme = msg.Visemes.Dominant()
	case speech.SpeechPausedMsg:
		m.state = gesture.StatePaused
	case speech.SpeechResumedMsg:
		m.state = gesture.StateSpeaking
	case speech.SpeechStoppedMsg:
		m.state = gesture.StateIdle
		return m, tea.Quit
	case speech.SpeechCompletedMsg:
		m.state = gesture.StateIdle
		m.spoken = len(m.words) - 1
		return m, tea.Quit
	case speech.SpeechErrorMsg:
		m.err = msg.Err
		return m, tea.Quit

	default:
		return m, nil
	}
	return m, m.bridge.Listen()
}

func (m playModel) View() string {
	var b strings.Builder
	b.WriteString(renderTranscript(m.words, m.spoken))
	b.WriteString("\n\n")
	b.WriteString(gestureStyle.Render(fmt.Sprintf("gesture: %-8s  viseme: %s", m.state, m.viseme)))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space pause/resume · s stop · q quit"))
	if m.err != nil {
		fmt.Fprintf(&b, "\nerror: %v", m.err)
	}
	b.WriteString("\n")
	return b.String()
}

// runTUI plays the transcript inside a Bubble Tea program, draining the
// synchronizer's notifications through the message bridge.
func runTUI(synchronizer *timeline.Synchronizer, transcript *speech.Transcript) error {
	bridge := speech.NewBridge(synchronizer.Events(), transcript.Text, len(transcript.Words))
	defer bridge.Close(synchronizer.Events())

	program := tea.NewProgram(newPlayModel(synchronizer, bridge, transcript.Words))

	err := synchronizer.StartSpeech(timeline.SpeechConfig{
		Text:        transcript.Text,
		AudioSource: transcript.Audio,
		Words:       transcript.Words,
	})
	if err != nil {
		return err
	}
	defer synchronizer.Stop()

	final, err := program.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(playModel); ok && m.err != nil {
		return m.err
	}
	return nil
}
