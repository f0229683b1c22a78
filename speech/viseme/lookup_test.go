package viseme

import (
	"testing"
	"time"

	"github.com/dgnsrekt/speechsync/speech"
)

func frameFixture() []Frame {
	return []Frame{
		{Time: ms(100), Weights: speech.Weights{VisemeAA: 0.8}},
		{Time: ms(200), Weights: speech.Weights{VisemeOH: 0.8}},
		{Time: ms(300), Weights: speech.Weights{VisemeSS: 0.8}},
	}
}

func TestAtBeforeFirstFrame(t *testing.T) {
	weights, ok := At(frameFixture(), ms(50))
	if ok {
		t.Error("query before first frame reported ok")
	}
	if weights[speech.VisemeSilence] != 1.0 {
		t.Errorf("weights = %v, want neutral", weights)
	}
}

func TestAtAfterLastFrame(t *testing.T) {
	weights, ok := At(frameFixture(), ms(500))
	if ok {
		t.Error("query after last frame reported ok")
	}
	if weights[speech.VisemeSilence] != 1.0 {
		t.Errorf("weights = %v, want neutral", weights)
	}
}

func TestAtEmptyFrames(t *testing.T) {
	weights, ok := At(nil, ms(100))
	if ok {
		t.Error("query on empty frames reported ok")
	}
	if weights[speech.VisemeSilence] != 1.0 {
		t.Errorf("weights = %v, want neutral", weights)
	}
}

// TestAtTieBreak pins the lookup policy: the latest frame with Time <= t
// applies, with no interpolation between frames.
func TestAtTieBreak(t *testing.T) {
	frames := frameFixture()

	tests := []struct {
		name string
		t    time.Duration
		want string
	}{
		{"exactly on first frame", ms(100), VisemeAA},
		{"between first and second", ms(150), VisemeAA},
		{"just before second", ms(199), VisemeAA},
		{"exactly on second", ms(200), VisemeOH},
		{"between second and third", ms(250), VisemeOH},
		{"exactly on last", ms(300), VisemeSS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weights, ok := At(frames, tt.t)
			if !ok {
				t.Fatalf("At(%v) not ok", tt.t)
			}
			if weights[tt.want] != 0.8 {
				t.Errorf("At(%v) = %v, want %s dominant", tt.t, weights, tt.want)
			}
		})
	}
}

func TestAtDuplicateTimestampLaterWins(t *testing.T) {
	frames := []Frame{
		{Time: ms(100), Weights: speech.Weights{VisemeAA: 0.8}},
		{Time: ms(100), Weights: speech.Weights{VisemeOH: 0.8}},
	}
	weights, ok := At(frames, ms(100))
	if !ok {
		t.Fatal("not ok")
	}
	if weights[VisemeOH] != 0.8 {
		t.Errorf("weights = %v, want later frame (OH) to win", weights)
	}
}

func TestAtFullUtteranceCoverage(t *testing.T) {
	words := sampleWords()
	frames := Generate(words)

	// Every position between the first word's start and the last word's end
	// resolves to a defined result.
	for sample := words[0].Start; sample <= words[len(words)-1].End; sample += ms(10) {
		if weights, _ := At(frames, sample); weights == nil {
			t.Fatalf("nil weights at %v", sample)
		}
		if _, ok := At(frames, sample); !ok {
			t.Fatalf("no coverage at %v within utterance", sample)
		}
	}
}

func TestSpan(t *testing.T) {
	start, end := Span(frameFixture())
	if start != ms(100) || end != ms(300) {
		t.Errorf("Span = [%v, %v], want [100ms, 300ms]", start, end)
	}

	start, end = Span(nil)
	if start != 0 || end != 0 {
		t.Errorf("Span(nil) = [%v, %v], want zeros", start, end)
	}
}
