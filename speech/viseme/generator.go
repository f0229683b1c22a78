// Package viseme derives mouth-shape animation frames from word-level
// timestamps and answers point-in-time weight queries against them. Both halves
// are pure: no clocks, no I/O, same input always yields the same frames.
package viseme

import (
	"sort"
	"strings"
	"time"

	"github.com/dgnsrekt/speechsync/speech"
)

// Frame is one time-stamped viseme weight vector. A full utterance yields an
// ordered sequence of frames owned by the synchronizer session that generated
// them.
type Frame struct {
	Time    time.Duration
	Weights speech.Weights
}

// Viseme names follow the 15-shape Oculus lip-sync set.
const (
	VisemePP = "PP" // p, b, m
	VisemeFF = "FF" // f, v
	VisemeTH = "TH" // th
	VisemeDD = "DD" // t, d
	VisemeKK = "KK" // k, g
	VisemeCH = "CH" // ch, j, sh
	VisemeSS = "SS" // s, z
	VisemeNN = "NN" // n, l
	VisemeRR = "RR" // r
	VisemeAA = "AA" // a
	VisemeE  = "E"  // e
	VisemeIH = "IH" // i
	VisemeOH = "OH" // o
	VisemeOU = "OU" // u
)

const (
	// spokenWeight is the blend weight for visemes within a word.
	spokenWeight = 0.8
	// boundaryWeight marks the low-intensity mouth close at a word boundary.
	boundaryWeight = 0.3
	// trailingSilence pads the final closed-mouth frame past the last word.
	trailingSilence = 50 * time.Millisecond
)

// letterVisemes maps letters and digraphs to viseme names. Letters with no
// mouth shape of their own borrow the closest one (w rounds like u, h opens
// like a).
var letterVisemes = map[string]string{
	"p": VisemePP, "b": VisemePP, "m": VisemePP,
	"f": VisemeFF, "v": VisemeFF,
	"th": VisemeTH,
	"t": VisemeDD, "d": VisemeDD,
	"k": VisemeKK, "g": VisemeKK, "c": VisemeKK, "q": VisemeKK, "x": VisemeKK,
	"ch": VisemeCH, "sh": VisemeCH, "j": VisemeCH,
	"s": VisemeSS, "z": VisemeSS,
	"n": VisemeNN, "l": VisemeNN,
	"r": VisemeRR,
	"a": VisemeAA, "h": VisemeAA,
	"e": VisemeE,
	"i": VisemeIH, "y": VisemeIH,
	"o": VisemeOH,
	"u": VisemeOU, "w": VisemeOU,
}

// Generate maps a word-timestamp sequence to an ordered sequence of viseme
// frames. Each word's viseme sequence is distributed evenly across its
// [Start, End] span at spokenWeight, with a low-weight closed mouth at the
// word's end marking the transition into silence. An empty input yields an
// empty sequence.
func Generate(words []speech.WordTimestamp) []Frame {
	if len(words) == 0 {
		return nil
	}

	frames := make([]Frame, 0, len(words)*4+2)
	frames = append(frames, Frame{Time: 0, Weights: speech.Neutral()})

	var maxEnd time.Duration
	for _, word := range words {
		if word.End > maxEnd {
			maxEnd = word.End
		}

		seq := Sequence(word.Word)
		if len(seq) == 0 {
			// Word maps to silence (punctuation-only tokens and the like).
			continue
		}

		step := word.Duration() / time.Duration(len(seq))
		for j, name := range seq {
			frames = append(frames, Frame{
				Time:    word.Start + time.Duration(j)*step,
				Weights: speech.Weights{name: spokenWeight},
			})
		}

		frames = append(frames, Frame{
			Time:    word.End,
			Weights: speech.Weights{speech.VisemeSilence: boundaryWeight},
		})
	}

	frames = append(frames, Frame{
		Time:    maxEnd + trailingSilence,
		Weights: speech.Neutral(),
	})

	// Words are ordered by start, but overlapping spans can interleave frame
	// times. Stable sort keeps the intra-word order.
	sort.SliceStable(frames, func(i, j int) bool {
		return frames[i].Time < frames[j].Time
	})

	return frames
}

// Sequence converts a word to its viseme names, one per letter or digraph,
// with consecutive duplicates collapsed. Non-letter characters are skipped;
// unmapped letters open the mouth (AA) rather than closing it mid-word.
func Sequence(word string) []string {
	lower := strings.ToLower(word)
	out := make([]string, 0, len(lower))

	for i := 0; i < len(lower); i++ {
		ch := lower[i]
		if ch < 'a' || ch > 'z' {
			continue
		}

		key := string(ch)
		if i+1 < len(lower) {
			if digraph := lower[i : i+2]; digraph == "th" || digraph == "ch" || digraph == "sh" {
				key = digraph
				i++
			}
		}

		name, ok := letterVisemes[key]
		if !ok {
			name = VisemeAA
		}
		if len(out) > 0 && out[len(out)-1] == name {
			continue
		}
		out = append(out, name)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
