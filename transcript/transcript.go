// Package transcript turns recognition output into the line-delimited
// transcript document the rest of the pipeline passes around.
//
// A document is a single string. Blocks are separated by BlockSeparator and
// lines within a block by LineBreak; exporters translate these markers to
// their own paragraph conventions.
package transcript

import (
	"strconv"
	"strings"

	"github.com/kbukum/verbatim/recognition"
)

const (
	// LineBreak is the canonical line-break marker.
	LineBreak = "\n"
	// BlockSeparator separates speaker blocks.
	BlockSeparator = LineBreak + LineBreak
	// NoTranscript is the document for a recognition run that found no speech.
	NoTranscript = "No transcript generated."
)

// Block is a maximal run of consecutive words from one speaker.
type Block struct {
	Speaker int
	Text    string
}

// Label renders the speaker prefix, e.g. "**Speaker 2:**".
func (b Block) Label() string {
	return "**Speaker " + SpeakerName(b.Speaker) + ":**"
}

func (b Block) String() string {
	return b.Label() + " " + b.Text
}

// SpeakerName renders a speaker tag; the unknown sentinel renders as "?".
func SpeakerName(tag int) string {
	if tag == recognition.UnknownSpeaker {
		return "?"
	}
	return strconv.Itoa(tag)
}

// Reconstruct builds the transcript document for r.
//
// All segments' words are read as one stream in segment order, so a speaker
// run continues across segment boundaries. When no word carries a speaker
// tag the segments' plain transcripts are joined with LineBreak instead. A
// result with no text at all yields NoTranscript.
func Reconstruct(r *recognition.Result) string {
	if r == nil {
		return NoTranscript
	}

	var doc string
	if blocks := Blocks(r); blocks != nil {
		parts := make([]string, len(blocks))
		for i, b := range blocks {
			parts[i] = b.String()
		}
		doc = strings.Join(parts, BlockSeparator)
	} else {
		doc = plain(r)
	}

	if strings.TrimSpace(doc) == "" {
		return NoTranscript
	}
	return doc
}

// Blocks groups the words of r into speaker blocks. It returns nil when no
// word carries a speaker tag. Untagged words inside a diarized stream are
// attributed to recognition.UnknownSpeaker.
func Blocks(r *recognition.Result) []Block {
	if !diarized(r) {
		return nil
	}

	var (
		blocks  []Block
		current int
		started bool
		run     []string
	)
	flush := func() {
		if len(run) > 0 {
			blocks = append(blocks, Block{Speaker: current, Text: strings.Join(run, " ")})
		}
		run = run[:0]
	}

	for _, seg := range r.Segments {
		for _, w := range seg.Words {
			tag := recognition.UnknownSpeaker
			if w.Speaker != nil {
				tag = *w.Speaker
			}
			if started && tag != current {
				flush()
			}
			current, started = tag, true
			run = append(run, w.Text)
		}
	}
	flush()
	return blocks
}

func diarized(r *recognition.Result) bool {
	for _, seg := range r.Segments {
		for _, w := range seg.Words {
			if w.Speaker != nil {
				return true
			}
		}
	}
	return false
}

func plain(r *recognition.Result) string {
	parts := make([]string, 0, len(r.Segments))
	for _, seg := range r.Segments {
		parts = append(parts, seg.Transcript)
	}
	return strings.Join(parts, LineBreak)
}

// IsPlaceholder reports whether doc carries no transcript content: empty,
// the NoTranscript sentinel, or an error placeholder.
func IsPlaceholder(doc string) bool {
	trimmed := strings.TrimSpace(doc)
	return trimmed == "" || trimmed == NoTranscript || strings.HasPrefix(trimmed, ErrorPrefix)
}

// ErrorPrefix marks a document that reports a failure instead of a transcript.
const ErrorPrefix = "Error:"
