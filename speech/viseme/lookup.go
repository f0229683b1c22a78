package viseme

import (
	"sort"
	"time"

	"github.com/dgnsrekt/speechsync/speech"
)

// At returns the viseme weights applicable at playback position t.
//
// Policy: the latest frame with Time <= t applies, with no interpolation —
// when two frames share a timestamp the later one in sequence order wins.
// Outside the frame sequence's coverage (t before the first frame or past the
// last), the neutral closed-mouth default is returned with ok=false; the query
// never fails.
func At(frames []Frame, t time.Duration) (weights speech.Weights, ok bool) {
	if len(frames) == 0 || t < frames[0].Time || t > frames[len(frames)-1].Time {
		return speech.Neutral(), false
	}

	// First frame strictly after t; the one before it is the latest <= t.
	i := sort.Search(len(frames), func(i int) bool {
		return frames[i].Time > t
	})
	return frames[i-1].Weights, true
}

// Span returns the time range the frame sequence covers, zero-valued when
// empty.
func Span(frames []Frame) (start, end time.Duration) {
	if len(frames) == 0 {
		return 0, 0
	}
	return frames[0].Time, frames[len(frames)-1].Time
}
