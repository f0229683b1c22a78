// Package main provides the speechsync CLI: play a timed transcript against
// its audio track and watch the synchronized word reveal, viseme stream, and
// gesture state.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/speechsync/speech"
	"github.com/dgnsrekt/speechsync/speech/audio"
	"github.com/dgnsrekt/speechsync/speech/gesture"
	"github.com/dgnsrekt/speechsync/speech/timeline"
)

var (
	// Version as provided by goreleaser.
	Version = ""

	configFile string
	useMock    bool
	debugMode  bool
	showViseme bool
	tuiMode    bool

	spokenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	gestureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))

	rootCmd = &cobra.Command{
		Use:          "speechsync",
		Short:        "Synchronize speech playback with visemes and word timing",
		SilenceUsage: true,
	}

	playCmd = &cobra.Command{
		Use:   "play TRANSCRIPT",
		Short: "Play a timed transcript with synchronized output",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlay,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: $HOME/.config/speechsync/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")

	playCmd.Flags().BoolVar(&useMock, "mock", false, "simulate playback instead of using the audio device")
	playCmd.Flags().BoolVar(&showViseme, "visemes", false, "print the dominant viseme on each change")
	playCmd.Flags().BoolVar(&tuiMode, "tui", false, "render playback in an interactive terminal UI")
	playCmd.Flags().Duration("tick", timeline.DefaultTickInterval, "animation tick interval")
	_ = viper.BindPFlag("sync.tick_interval", playCmd.Flags().Lookup("tick"))

	rootCmd.AddCommand(playCmd)
}

func initConfig() error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home + "/.config/speechsync")
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && configFile == "" {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func runPlay(_ *cobra.Command, args []string) error {
	if debugMode {
		log.SetLevel(log.DebugLevel)
	}
	if err := initConfig(); err != nil {
		return err
	}

	transcript, err := speech.LoadTranscript(args[0])
	if err != nil {
		return err
	}

	syncConfig, err := timeline.LoadConfig()
	if err != nil {
		return err
	}

	player, cleanup, err := buildPlayer(transcript)
	if err != nil {
		return err
	}
	defer cleanup()

	synchronizer := timeline.New(player, syncConfig)

	if tuiMode {
		return runTUI(synchronizer, transcript)
	}

	gestureController := gesture.NewController(synchronizer.Events(), func(state gesture.State) {
		fmt.Println(gestureStyle.Render("gesture: " + string(state)))
	})
	defer gestureController.Close()

	if showViseme {
		last := ""
		synchronizer.Events().On(speech.EventVisemeUpdate, func(ev speech.Event) {
			if name := ev.Visemes.Dominant(); name != last {
				last = name
				log.Debug("viseme", "name", name, "pos", ev.Position)
			}
		})
	}

	synchronizer.Events().On(speech.EventWordUpdate, func(ev speech.Event) {
		fmt.Println(renderTranscript(transcript.Words, ev.WordIndex))
	})

	done := make(chan error, 1)

	err = synchronizer.StartSpeech(timeline.SpeechConfig{
		Text:        transcript.Text,
		AudioSource: transcript.Audio,
		Words:       transcript.Words,
		OnComplete:  func() { done <- nil },
		OnError:     func(err error) { done <- err },
	})
	if err != nil {
		return err
	}
	log.Info("playing", "audio", transcript.Audio, "words", len(transcript.Words))

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	select {
	case err := <-done:
		if err != nil {
			return err
		}
		log.Info("completed")
	case <-interrupt:
		synchronizer.Stop()
		log.Info("stopped")
	}
	return nil
}

// buildPlayer returns the playback resource for the run: the real audio
// device, or a simulated player timed to the transcript when --mock is set.
func buildPlayer(transcript *speech.Transcript) (speech.Player, func(), error) {
	if useMock {
		mock := audio.NewMockPlayer()
		duration := 250 * time.Millisecond
		if n := len(transcript.Words); n > 0 {
			duration += transcript.Words[n-1].End
		}
		mock.SetSourceDuration(transcript.Audio, duration)
		return mock, func() { _ = mock.Close() }, nil
	}

	player := audio.NewPlayer()
	return player, func() { _ = player.Close() }, nil
}

// renderTranscript highlights the words spoken so far.
func renderTranscript(words []speech.WordTimestamp, spoken int) string {
	var b strings.Builder
	for i, w := range words {
		if i > 0 {
			b.WriteByte(' ')
		}
		if i <= spoken {
			b.WriteString(spokenStyle.Render(w.Word))
		} else {
			b.WriteString(pendingStyle.Render(w.Word))
		}
	}
	return b.String()
}

func main() {
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
