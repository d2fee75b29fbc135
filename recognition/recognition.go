// Package recognition is the boundary to long-running speech recognition
// services. Back ends return a Result in one normalized shape: ordered
// segments, each with an optional plain transcript and word tokens that may
// carry a speaker tag.
package recognition

import (
	"context"
	"time"
)

// UnknownSpeaker is the tag for a word the back end attributed to a speaker
// it could not identify. It is a real speaker for grouping purposes.
const UnknownSpeaker = -1

// Word is one recognized token.
type Word struct {
	Text string `json:"text"`
	// Speaker is nil when the back end did not diarize this word.
	Speaker *int `json:"speaker,omitempty"`
}

// Segment is one result chunk, in the order the back end emitted it.
type Segment struct {
	Transcript string `json:"transcript"`
	Words      []Word `json:"words,omitempty"`
}

// Result is a complete recognition answer.
type Result struct {
	Segments []Segment `json:"segments"`
	// Language is the detected or requested language, when reported.
	Language string `json:"language,omitempty"`
}

// Options carry the fixed per-deployment recognition settings.
type Options struct {
	Locale      string
	Model       string
	MinSpeakers int
	MaxSpeakers int
	// Diarize requests speaker attribution.
	Diarize bool

	// Encoding, SampleRate and Channels describe the normalized audio.
	// Zero values mean FLAC, 16 kHz, mono.
	Encoding   string
	SampleRate int
	Channels   int
}

// Recognizer transcribes stored audio. Implementations wait for the whole
// operation, bounded by their configured timeout and by ctx, and return
// *Error or *TimeoutError on failure. They do not retry failed operations.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, audioRef string, opts Options) (*Result, error)
}

// Tag returns a pointer to speaker for building Words.
func Tag(speaker int) *int { return &speaker }

// Error is a recognition failure reported by the back end or its transport.
type Error struct {
	Backend string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return "recognition failed (" + e.Backend + "): " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// TimeoutError means the operation did not finish within the wait bound.
type TimeoutError struct {
	Backend string
	After   time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return "recognition timed out (" + e.Backend + ") after " + e.After.Round(time.Second).String()
}

func (e *TimeoutError) Unwrap() error { return e.Err }
