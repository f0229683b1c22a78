// Package speech defines the core types for audio/visual speech synchronization:
// word timestamps, viseme weights, playback state, and the event surface consumed
// by renderers and transcript UIs.
package speech

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// WordTimestamp locates one spoken word within an audio track's timeline.
// Sequences are ordered by Start; gaps between consecutive words are silence.
type WordTimestamp struct {
	Word  string        `yaml:"word" json:"word"`
	Start time.Duration `yaml:"start" json:"start"`
	End   time.Duration `yaml:"end" json:"end"`
}

// Duration returns the spoken length of the word.
func (w WordTimestamp) Duration() time.Duration {
	return w.End - w.Start
}

// Contains reports whether t falls within the word's [Start, End] span.
func (w WordTimestamp) Contains(t time.Duration) bool {
	return t >= w.Start && t <= w.End
}

// Weights maps viseme names to blend weights in [0, 1]. Consumed by avatar
// renderers to drive mesh blend shapes.
type Weights map[string]float64

// VisemeSilence is the neutral/closed-mouth viseme name.
const VisemeSilence = "sil"

// Neutral returns the silence/closed-mouth weight map used whenever no viseme
// frame applies (before speech, between utterances, after the last frame).
func Neutral() Weights {
	return Weights{VisemeSilence: 1.0}
}

// Clone returns an independent copy of the weight map.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Dominant returns the viseme name carrying the highest weight, or VisemeSilence
// for an empty map. Ties resolve to the lexicographically smallest name so the
// result is deterministic.
func (w Weights) Dominant() string {
	best := VisemeSilence
	bestWeight := -1.0
	names := make([]string, 0, len(w))
	for name := range w {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if w[name] > bestWeight {
			best = name
			bestWeight = w[name]
		}
	}
	return best
}

// StreamedWord is a view of one word relative to the current playback position.
// Derived on demand; never persisted.
type StreamedWord struct {
	Word     string
	Index    int
	Start    time.Duration
	End      time.Duration
	IsActive bool
}

// WordAt returns the index of the word whose [Start, End] span contains t, or
// -1 during silence (before the first word, in a gap, or after the last word).
// words must be ordered by Start.
func WordAt(words []WordTimestamp, t time.Duration) int {
	if len(words) == 0 {
		return -1
	}
	// First word starting after t; the candidate is the one before it.
	i := sort.Search(len(words), func(i int) bool {
		return words[i].Start > t
	})
	if i == 0 {
		return -1
	}
	if words[i-1].Contains(t) {
		return i - 1
	}
	return -1
}

// StreamedWords derives the full transcript view at playback position t.
func StreamedWords(words []WordTimestamp, t time.Duration) []StreamedWord {
	active := WordAt(words, t)
	out := make([]StreamedWord, len(words))
	for i, w := range words {
		out[i] = StreamedWord{
			Word:     w.Word,
			Index:    i,
			Start:    w.Start,
			End:      w.End,
			IsActive: i == active,
		}
	}
	return out
}

// Progress returns how far playback has advanced through the word sequence as a
// fraction in [0, 1], measured against the last word's end time.
func Progress(words []WordTimestamp, t time.Duration) float64 {
	if len(words) == 0 {
		return 0
	}
	end := words[len(words)-1].End
	if end <= 0 {
		return 0
	}
	p := float64(t) / float64(end)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Transcript is a timed transcript document: the utterance text, the audio
// source it was synthesized to, and the word-level alignment produced by an
// external transcription service.
type Transcript struct {
	Text  string          `yaml:"text"`
	Audio string          `yaml:"audio"`
	Words []WordTimestamp `yaml:"words"`
}

// LoadTranscript reads and validates a timed transcript from a YAML file.
func LoadTranscript(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	var t Transcript
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks the word sequence invariants: ordered by start, start <= end.
func (t *Transcript) Validate() error {
	for i, w := range t.Words {
		if w.Start < 0 {
			return fmt.Errorf("word %d (%q): negative start time", i, w.Word)
		}
		if w.End < w.Start {
			return fmt.Errorf("word %d (%q): end %v before start %v", i, w.Word, w.End, w.Start)
		}
		if i > 0 && w.Start < t.Words[i-1].Start {
			return fmt.Errorf("word %d (%q): out of order (start %v < previous start %v)",
				i, w.Word, w.Start, t.Words[i-1].Start)
		}
	}
	return nil
}
