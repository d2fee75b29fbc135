package refine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbukum/verbatim/llm"
	"github.com/kbukum/verbatim/logger"
	"github.com/kbukum/verbatim/transcript"
)

type fakeGenerator struct {
	content string
	err     error
	calls   int
	last    llm.CompletionRequest
}

func (f *fakeGenerator) Execute(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return llm.CompletionResponse{}, f.err
	}
	return llm.CompletionResponse{Content: f.content}, nil
}

const doc = "**Speaker 1:** hello there\n\n**Speaker 2:** hi all"

func TestRefineSuccess(t *testing.T) {
	gen := &fakeGenerator{content: "  **Speaker 1:** Hello there.<br><br>**Speaker 2:** Hi, all.<BR />\n"}
	r := New(gen, logger.Nop())

	got := r.Refine(context.Background(), doc)
	want := "**Speaker 1:** Hello there.\n\n**Speaker 2:** Hi, all."
	if got != want {
		t.Errorf("Refine = %q, want %q", got, want)
	}
	if gen.last.SystemPrompt != SystemPrompt || gen.last.Temperature != 0.3 {
		t.Errorf("request = %+v", gen.last)
	}
	if len(gen.last.Messages) != 1 || gen.last.Messages[0].Content != userPrefix+doc {
		t.Errorf("messages = %+v", gen.last.Messages)
	}
}

func TestRefineFallbackKeepsOriginal(t *testing.T) {
	causes := []error{
		errors.New("quota exceeded"),
		errors.New("line one\nline two"),
		errors.New(strings.Repeat("x", 500)),
	}
	for _, cause := range causes {
		var hooked error
		gen := &fakeGenerator{err: cause}
		r := New(gen, logger.Nop(), WithFallbackHook(func(err error) { hooked = err }))

		got := r.Refine(context.Background(), doc)
		if !strings.Contains(got, doc) {
			t.Errorf("fallback %q lost the original", got)
		}
		if !strings.HasPrefix(got, "[Refinement failed: ") || !strings.HasSuffix(got, "]\n\n"+doc) {
			t.Errorf("fallback shape = %q", got)
		}
		if !errors.Is(hooked, cause) {
			t.Errorf("hook got %v", hooked)
		}
	}
}

func TestRefineEmptyCompletionFallsBack(t *testing.T) {
	r := New(&fakeGenerator{content: " <br> "}, logger.Nop())
	got := r.Refine(context.Background(), doc)
	if !strings.HasSuffix(got, doc) || !strings.HasPrefix(got, "[Refinement failed") {
		t.Errorf("Refine = %q", got)
	}
}

func TestRefineGuard(t *testing.T) {
	inputs := []string{"", "   ", transcript.NoTranscript, "Error: recognition failed"}
	for _, in := range inputs {
		gen := &fakeGenerator{content: "should not be used"}
		got := New(gen, logger.Nop()).Refine(context.Background(), in)
		if got != in {
			t.Errorf("Refine(%q) = %q, want unchanged", in, got)
		}
		if gen.calls != 0 {
			t.Errorf("Refine(%q) called the model", in)
		}
	}
}

func TestRefineDisabled(t *testing.T) {
	r := New(nil, logger.Nop())
	if r.Enabled() {
		t.Error("nil generator should disable refinement")
	}
	if got := r.Refine(context.Background(), doc); got != doc {
		t.Errorf("Refine = %q", got)
	}
}

func TestNewFromConfig(t *testing.T) {
	off := false
	r, err := NewFromConfig(Config{Enabled: &off}, "key", logger.Nop())
	if err != nil || r.Enabled() {
		t.Errorf("disabled config: %v, enabled=%v", err, r.Enabled())
	}

	r, err = NewFromConfig(Config{}, "", logger.Nop())
	if err != nil || r.Enabled() {
		t.Errorf("missing key should disable: %v", err)
	}

	if _, err := NewFromConfig(Config{LLM: llm.Config{Temperature: 3}}, "k", logger.Nop()); err == nil {
		t.Error("expected temperature validation error")
	}
}

func TestNewFromConfigGemini(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "k" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"**Speaker 1:** Hello.<br><br>**Speaker 2:** Hi."}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	r, err := NewFromConfig(Config{LLM: llm.Config{BaseURL: srv.URL}}, "k", logger.Nop())
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	got := r.Refine(context.Background(), doc)
	if got != "**Speaker 1:** Hello.\n\n**Speaker 2:** Hi." {
		t.Errorf("Refine = %q", got)
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"a<br>b":         "a\nb",
		"a<br/>b":        "a\nb",
		"a<br />b":       "a\nb",
		"a\r\nb":         "a\nb",
		"  a  ":          "a",
		"a<br><br>b<br>": "a\n\nb",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
