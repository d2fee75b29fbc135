package job

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/verbatim/audio"
	"github.com/kbukum/verbatim/logger"
	"github.com/kbukum/verbatim/recognition"
	"github.com/kbukum/verbatim/storage"
)

type fakeNormalizer struct {
	store storage.Storage
	err   error
}

func (f *fakeNormalizer) CheckFormat(filename string) error {
	if strings.HasSuffix(strings.ToLower(filename), ".wma") {
		return &audio.UnsupportedFormatError{Extension: ".wma"}
	}
	return nil
}

func (f *fakeNormalizer) Normalize(ctx context.Context, sourceKey, destKey string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if err := f.store.Upload(ctx, destKey, bytes.NewReader([]byte("flac"))); err != nil {
		return "", err
	}
	return f.store.Ref(destKey), nil
}

type fakeRecognizer struct {
	result *recognition.Result
	err    error
	// block, when set, holds Recognize until it is closed or ctx ends.
	block chan struct{}
}

func (f *fakeRecognizer) Name() string { return "fake" }

func (f *fakeRecognizer) Recognize(ctx context.Context, ref string, opts recognition.Options) (*recognition.Result, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

type fakeRefiner struct {
	fn func(string) string
}

func (f fakeRefiner) Refine(ctx context.Context, doc string) string {
	if f.fn == nil {
		return doc
	}
	return f.fn(doc)
}

type eventLog struct {
	mu     sync.Mutex
	events map[string][]Event
}

func (l *eventLog) Publish(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.events == nil {
		l.events = make(map[string][]Event)
	}
	l.events[e.JobID] = append(l.events[e.JobID], e)
}

func (l *eventLog) statuses(id string) []Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Status
	for _, e := range l.events[id] {
		out = append(out, e.Status)
	}
	return out
}

func diarizedResult() *recognition.Result {
	w := func(text string, tag int) recognition.Word {
		return recognition.Word{Text: text, Speaker: recognition.Tag(tag)}
	}
	return &recognition.Result{Segments: []recognition.Segment{
		{Words: []recognition.Word{w("Hello", 1), w("there", 1), w("Hi", 2), w("all", 2)}},
	}}
}

type harness struct {
	o     *Orchestrator
	store *storage.Memory
	rec   *fakeRecognizer
	norm  *fakeNormalizer
	log   *eventLog
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	store := storage.NewMemory()
	h := &harness{
		store: store,
		rec:   &fakeRecognizer{result: diarizedResult()},
		norm:  &fakeNormalizer{store: store},
		log:   &eventLog{},
	}
	cfg.ScratchDir = t.TempDir()
	h.o = New(cfg, Deps{
		Store:      store,
		Normalizer: h.norm,
		Recognizer: h.rec,
		Refiner:    fakeRefiner{},
		Publisher:  h.log,
	}, logger.Nop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.o.Stop(ctx)
	})
	return h
}

func (h *harness) submit(t *testing.T, name string) Job {
	t.Helper()
	j, err := h.o.Submit(context.Background(), name, strings.NewReader("audio-bytes"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return j
}

func (h *harness) wait(t *testing.T, id string) Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	j, err := h.o.Wait(ctx, id)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	return j
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusNormalizing, true},
		{StatusNormalizing, StatusTranscribing, true},
		{StatusTranscribing, StatusRefining, true},
		{StatusRefining, StatusCompleted, true},
		{StatusPending, StatusFailed, true},
		{StatusRefining, StatusFailed, true},
		{StatusPending, StatusTranscribing, false},
		{StatusTranscribing, StatusNormalizing, false},
		{StatusNormalizing, StatusCompleted, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusPending, false},
		{StatusFailed, StatusFailed, false},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%s->%s", tc.from, tc.to), func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Errorf("CanTransition = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPipelineCompletes(t *testing.T) {
	h := newHarness(t, Config{})
	j := h.submit(t, "meeting.mp3")

	if j.Status != StatusPending || j.ID == "" {
		t.Fatalf("submitted = %+v", j)
	}
	if !strings.HasPrefix(j.SourceRef, "mem://local/uploads/") || !strings.HasSuffix(j.SourceRef, "-meeting.mp3") {
		t.Errorf("source ref = %q", j.SourceRef)
	}
	if len(j.Digest) != 64 {
		t.Errorf("digest = %q", j.Digest)
	}

	final := h.wait(t, j.ID)
	if final.Status != StatusCompleted {
		t.Fatalf("status = %s (%s)", final.Status, final.Error)
	}
	want := "**Speaker 1:** Hello there\n\n**Speaker 2:** Hi all"
	if final.Result != want || final.Error != "" {
		t.Errorf("final = %+v", final)
	}

	got := h.log.statuses(j.ID)
	wantSeq := []Status{StatusPending, StatusNormalizing, StatusTranscribing, StatusRefining, StatusCompleted}
	if fmt.Sprint(got) != fmt.Sprint(wantSeq) {
		t.Errorf("events = %v, want %v", got, wantSeq)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		ok, _ := h.store.Exists(context.Background(), storage.NormalizedKey(j.ID, ".flac"))
		if !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("normalized audio should be removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRecognitionTimeoutFailsJob(t *testing.T) {
	h := newHarness(t, Config{})
	h.rec.result = nil
	h.rec.err = &recognition.TimeoutError{Backend: "fake", After: 3 * time.Hour}

	j := h.submit(t, "a.wav")
	final := h.wait(t, j.ID)

	if final.Status != StatusFailed || final.Error == "" || final.Result != "" {
		t.Fatalf("final = %+v", final)
	}
	if !strings.Contains(final.Error, "timed out") || final.ErrorCode != "RECOGNITION_TIMEOUT" {
		t.Errorf("error = %q (%s)", final.Error, final.ErrorCode)
	}
	got := h.log.statuses(j.ID)
	if got[len(got)-2] != StatusTranscribing {
		t.Errorf("should fail from transcribing: %v", got)
	}
}

func TestConversionFailureFailsJob(t *testing.T) {
	h := newHarness(t, Config{})
	h.norm.err = &audio.ConversionError{Message: "the audio file could not be decoded", Detail: "moov atom not found"}

	final := h.wait(t, h.submit(t, "a.m4a").ID)
	if final.Status != StatusFailed || final.Error != "audio conversion failed: the audio file could not be decoded" {
		t.Fatalf("final = %+v", final)
	}
	if strings.Contains(final.Error, "moov") {
		t.Error("tool output must not reach the job error")
	}
	if final.ErrorCode != "CONVERSION_FAILED" {
		t.Errorf("code = %q", final.ErrorCode)
	}
}

func TestUnexpectedErrorIsGeneric(t *testing.T) {
	h := newHarness(t, Config{})
	h.rec.result = nil
	h.rec.err = errors.New("dial tcp 10.0.0.7:443: connection refused")

	final := h.wait(t, h.submit(t, "a.flac").ID)
	if final.Status != StatusFailed || strings.Contains(final.Error, "10.0.0.7") {
		t.Fatalf("final = %+v", final)
	}
	if final.Error != "processing failed unexpectedly" || final.ErrorCode != "INTERNAL_ERROR" {
		t.Errorf("error = %q (%s)", final.Error, final.ErrorCode)
	}
}

func TestNilRecognitionResultFails(t *testing.T) {
	h := newHarness(t, Config{})
	h.rec.result = nil

	final := h.wait(t, h.submit(t, "a.flac").ID)
	if final.Status != StatusFailed {
		t.Fatalf("final = %+v", final)
	}
}

func TestUnsupportedFormatRejectedBeforeStorage(t *testing.T) {
	h := newHarness(t, Config{})
	_, err := h.o.Submit(context.Background(), "legacy.WMA", strings.NewReader("x"))
	var ufe *audio.UnsupportedFormatError
	if !errors.As(err, &ufe) {
		t.Fatalf("err = %v", err)
	}
	if h.store.Len() != 0 || h.o.Registry().Len() != 0 {
		t.Error("nothing should be stored or registered")
	}
}

func TestAdmissionRejectsBeyondCapacity(t *testing.T) {
	h := newHarness(t, Config{MaxConcurrent: 1})
	h.rec.block = make(chan struct{})

	first := h.submit(t, "one.mp3")
	if _, err := h.o.Submit(context.Background(), "two.mp3", strings.NewReader("x")); !errors.Is(err, ErrRejected) {
		t.Fatalf("second submit err = %v, want ErrRejected", err)
	}
	if h.o.Registry().Len() != 1 {
		t.Errorf("registry = %d jobs", h.o.Registry().Len())
	}

	close(h.rec.block)
	h.wait(t, first.ID)

	// The slot is released once the worker returns.
	deadline := time.Now().Add(2 * time.Second)
	for h.o.Running() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	h.submit(t, "three.mp3")
}

func TestStopFailsRunningJobs(t *testing.T) {
	h := newHarness(t, Config{})
	h.rec.block = make(chan struct{})

	j := h.submit(t, "long.mp3")
	deadline := time.Now().Add(2 * time.Second)
	for {
		cur, _ := h.o.Get(j.ID)
		if cur.Status == StatusTranscribing || time.Now().After(deadline) {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.o.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	final, _ := h.o.Get(j.ID)
	if final.Status != StatusFailed || final.Error != MsgCanceled {
		t.Errorf("final = %+v", final)
	}
	if _, err := h.o.Submit(context.Background(), "late.mp3", strings.NewReader("x")); !errors.Is(err, ErrShuttingDown) {
		t.Errorf("submit after stop err = %v", err)
	}
}

func TestRefinerOutputIsResult(t *testing.T) {
	h := newHarness(t, Config{})
	h.o.deps.Refiner = fakeRefiner{fn: func(doc string) string { return "[Refinement failed: quota]\n\n" + doc }}

	final := h.wait(t, h.submit(t, "a.ogg").ID)
	if final.Status != StatusCompleted || !strings.HasSuffix(final.Result, "**Speaker 2:** Hi all") {
		t.Errorf("final = %+v", final)
	}
}

// Every stage fails at random; every observed edge must be legal and every
// job must end in exactly one terminal state.
func TestRandomFaultsOnlyLegalTransitions(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 40; i++ {
		h := newHarness(t, Config{MaxConcurrent: 4})
		switch rng.Intn(4) {
		case 0:
			h.norm.err = &audio.ConversionError{Message: "bad"}
		case 1:
			h.rec.result, h.rec.err = nil, &recognition.Error{Backend: "fake", Message: "boom"}
		case 2:
			h.rec.result = &recognition.Result{}
		}

		j := h.submit(t, "x.mp3")
		final := h.wait(t, j.ID)

		seq := h.log.statuses(j.ID)
		if seq[0] != StatusPending {
			t.Fatalf("first event = %s", seq[0])
		}
		terminal := 0
		for k := 1; k < len(seq); k++ {
			if !CanTransition(seq[k-1], seq[k]) {
				t.Fatalf("illegal edge %s -> %s in %v", seq[k-1], seq[k], seq)
			}
		}
		for _, s := range seq {
			if s.Terminal() {
				terminal++
			}
		}
		if terminal != 1 || seq[len(seq)-1] != final.Status {
			t.Fatalf("sequence %v, final %s", seq, final.Status)
		}
		if (final.Result == "") == (final.Error == "") {
			t.Fatalf("exactly one of result/error must be set: %+v", final)
		}
	}
}

func TestEmptyRecognitionCompletesWithSentinel(t *testing.T) {
	h := newHarness(t, Config{})
	h.rec.result = &recognition.Result{}
	final := h.wait(t, h.submit(t, "silence.wav").ID)
	if final.Status != StatusCompleted || final.Result != "No transcript generated." {
		t.Errorf("final = %+v", final)
	}
}

func TestKeepNormalized(t *testing.T) {
	h := newHarness(t, Config{KeepNormalized: true})
	j := h.submit(t, "a.mp3")
	h.wait(t, j.ID)
	time.Sleep(20 * time.Millisecond)
	if ok, _ := h.store.Exists(context.Background(), storage.NormalizedKey(j.ID, ".flac")); !ok {
		t.Error("normalized audio should be kept")
	}
}

func TestWaitUnknown(t *testing.T) {
	h := newHarness(t, Config{})
	if _, err := h.o.Wait(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

type lockedBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

// readOnlyStore accepts uploads but cannot delete them.
type readOnlyStore struct{ *storage.Memory }

func (readOnlyStore) Delete(context.Context, string) error {
	return errors.New("bucket is read-only")
}

func TestDuplicateIDCleanupFailureIsLogged(t *testing.T) {
	var out lockedBuffer
	store := readOnlyStore{storage.NewMemory()}
	rec := &fakeRecognizer{result: diarizedResult(), block: make(chan struct{})}
	o := New(Config{ScratchDir: t.TempDir(), KeepNormalized: true}, Deps{
		Store:      store,
		Normalizer: &fakeNormalizer{store: store},
		Recognizer: rec,
		Refiner:    fakeRefiner{},
	}, logger.New(&logger.Config{Level: "info", Format: "json", Writer: &out}, "verbatim"))
	o.newID = func() string { return "fixed-id" }
	t.Cleanup(func() {
		close(rec.block)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.Stop(ctx)
	})

	if _, err := o.Submit(context.Background(), "a.mp3", strings.NewReader("one")); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := o.Submit(context.Background(), "b.mp3", strings.NewReader("two")); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second Submit err = %v, want ErrDuplicate", err)
	}

	logged := out.String()
	for _, want := range []string{`"level":"warn"`, "Upload cleanup failed", "bucket is read-only"} {
		if !strings.Contains(logged, want) {
			t.Errorf("log %q missing %q", logged, want)
		}
	}
}
