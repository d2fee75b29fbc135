// Package refine polishes a reconstructed transcript with a language model.
// Refinement is cosmetic: any failure yields the unrefined document, so a
// finished transcription is never lost to it.
package refine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kbukum/verbatim/llm"
	"github.com/kbukum/verbatim/logger"
	"github.com/kbukum/verbatim/transcript"
)

// SystemPrompt instructs the model to format without dropping words.
const SystemPrompt = "You are an expert transcriber. You will receive a raw transcript with speaker labels. " +
	"Format it into clean, readable paragraphs. Fix punctuation and capitalization. " +
	"Do NOT summarize; keep every word. Differentiate speakers clearly (e.g., **Speaker 1:**). " +
	"Use <br> for new lines to ensure proper HTML rendering."

const userPrefix = "Refine this transcript:\n\n"

var breakTag = regexp.MustCompile(`(?i)<br\s*/?>`)

// Generator produces a completion. *llm.Adapter satisfies it.
type Generator interface {
	Execute(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error)
}

// Refiner runs the refinement stage.
type Refiner struct {
	gen         Generator
	temperature float64
	onFallback  func(error)
	log         *logger.Logger
}

// Option configures a Refiner.
type Option func(*Refiner)

// WithTemperature overrides the sampling temperature (default 0.3).
func WithTemperature(t float64) Option {
	return func(r *Refiner) { r.temperature = t }
}

// WithFallbackHook is called with the cause whenever the fallback is used.
func WithFallbackHook(fn func(error)) Option {
	return func(r *Refiner) { r.onFallback = fn }
}

// New creates a Refiner. A nil gen disables refinement: documents pass
// through unchanged.
func New(gen Generator, log *logger.Logger, opts ...Option) *Refiner {
	r := &Refiner{gen: gen, temperature: 0.3, log: log.WithComponent("refine")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enabled reports whether a generator is configured.
func (r *Refiner) Enabled() bool { return r.gen != nil }

// Refine returns the polished document. Empty and placeholder documents are
// returned unchanged without calling the model. On failure the original is
// returned behind a one-line note.
func (r *Refiner) Refine(ctx context.Context, doc string) string {
	if r.gen == nil || transcript.IsPlaceholder(doc) {
		return doc
	}

	resp, err := r.gen.Execute(ctx, llm.CompletionRequest{
		SystemPrompt: SystemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: userPrefix + doc}},
		Temperature:  r.temperature,
	})
	if err == nil {
		if out := Normalize(resp.Content); out != "" {
			return out
		}
		err = llm.ErrEmptyCompletion
	}

	r.log.WithContext(ctx).Warn("Refinement failed, keeping unrefined transcript", logger.Fields(logger.FieldError, err.Error()))
	if r.onFallback != nil {
		r.onFallback(err)
	}
	return Fallback(doc, err)
}

// Normalize converts model line-break tags to the canonical marker and
// trims surrounding whitespace.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", transcript.LineBreak)
	s = breakTag.ReplaceAllString(s, transcript.LineBreak)
	return strings.TrimSpace(s)
}

// Fallback is the document returned when refinement fails.
func Fallback(doc string, cause error) string {
	return fmt.Sprintf("[Refinement failed: %s]%s%s", reason(cause), transcript.BlockSeparator, doc)
}

// reason keeps the note to one short line.
func reason(err error) string {
	msg := strings.TrimSpace(strings.SplitN(err.Error(), "\n", 2)[0])
	if len(msg) > 160 {
		msg = msg[:157] + "..."
	}
	return msg
}
