package speech

import "errors"

// Common errors for the synchronization core.
var (
	// ErrNoAudioSource indicates StartSpeech was called without an audio source.
	ErrNoAudioSource = errors.New("no audio source provided")
	// ErrPlayerNotSet indicates the synchronizer has no playback resource.
	ErrPlayerNotSet = errors.New("playback resource not set")
	// ErrNotLoaded indicates a playback operation before a source was loaded.
	ErrNotLoaded = errors.New("no audio loaded")
	// ErrAlreadyPlaying indicates Play was called while audio is playing.
	ErrAlreadyPlaying = errors.New("audio is already playing")
	// ErrNotPlaying indicates a pause was requested with nothing playing.
	ErrNotPlaying = errors.New("no audio is playing")
	// ErrNotPaused indicates a resume was requested without a pause.
	ErrNotPaused = errors.New("audio is not paused")
	// ErrPlayerClosed indicates the playback resource has been released.
	ErrPlayerClosed = errors.New("playback resource is closed")
)

// ErrorCategory classifies playback-resource failures so they can be mapped to
// stable, human-readable messages.
type ErrorCategory int

const (
	// CategoryUnknown is the fallback for unclassified failures.
	CategoryUnknown ErrorCategory = iota
	// CategoryAborted indicates playback was cut off before completion.
	CategoryAborted
	// CategoryNetwork indicates the audio source could not be fetched or read.
	CategoryNetwork
	// CategoryDecode indicates the audio data could not be decoded.
	CategoryDecode
	// CategoryUnsupported indicates the audio format is not supported.
	CategoryUnsupported
)

// String returns the category name.
func (c ErrorCategory) String() string {
	switch c {
	case CategoryAborted:
		return "aborted"
	case CategoryNetwork:
		return "network"
	case CategoryDecode:
		return "decode"
	case CategoryUnsupported:
		return "unsupported-format"
	default:
		return "unknown"
	}
}

// Message returns the stable human-readable description for the category.
// Hosting applications surface this text directly.
func (c ErrorCategory) Message() string {
	switch c {
	case CategoryAborted:
		return "audio playback was aborted"
	case CategoryNetwork:
		return "a network error interrupted audio loading"
	case CategoryDecode:
		return "the audio could not be decoded"
	case CategoryUnsupported:
		return "the audio format is not supported"
	default:
		return "audio playback failed"
	}
}

// PlaybackError wraps a playback-resource failure with its category and
// whether it occurred during acquisition (before playback began) or playback.
type PlaybackError struct {
	Category    ErrorCategory
	Acquisition bool
	Err         error
}

// Error implements the error interface with the category's stable message.
func (e *PlaybackError) Error() string {
	msg := e.Category.Message()
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// NewPlaybackError wraps err with a category. If err is already a
// PlaybackError it is returned unchanged so classification sticks to the
// closest failure site.
func NewPlaybackError(category ErrorCategory, acquisition bool, err error) *PlaybackError {
	var pe *PlaybackError
	if errors.As(err, &pe) {
		return pe
	}
	return &PlaybackError{Category: category, Acquisition: acquisition, Err: err}
}

// CategoryOf returns the category of err, or CategoryUnknown if err carries no
// classification.
func CategoryOf(err error) ErrorCategory {
	var pe *PlaybackError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryUnknown
}
