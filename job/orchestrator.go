package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/verbatim/audio"
	apperrors "github.com/kbukum/verbatim/errors"
	"github.com/kbukum/verbatim/logger"
	"github.com/kbukum/verbatim/observability"
	"github.com/kbukum/verbatim/recognition"
	"github.com/kbukum/verbatim/resilience"
	"github.com/kbukum/verbatim/storage"
	"github.com/kbukum/verbatim/transcript"
)

var (
	// ErrRejected means every worker slot is busy.
	ErrRejected = errors.New("too many jobs in progress, try again later")
	// ErrShuttingDown means the orchestrator no longer accepts work.
	ErrShuttingDown = errors.New("service is shutting down")
)

// MsgCanceled is the error recorded for jobs interrupted by shutdown.
const MsgCanceled = "canceled during shutdown"

// Normalizer is the audio stage. *audio.Normalizer satisfies it.
type Normalizer interface {
	CheckFormat(filename string) error
	Normalize(ctx context.Context, sourceKey, destKey string) (string, error)
}

// Refiner is the refinement stage. *refine.Refiner satisfies it.
type Refiner interface {
	Refine(ctx context.Context, doc string) string
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Store      storage.Storage
	Normalizer Normalizer
	Recognizer recognition.Recognizer
	Refiner    Refiner
	Options    recognition.Options
	Publisher  Publisher
	Metrics    *observability.Metrics
}

// Orchestrator accepts uploads and runs one worker goroutine per job. Only
// a job's own worker changes its record.
type Orchestrator struct {
	cfg      Config
	deps     Deps
	registry *Registry
	bulkhead *resilience.Bulkhead
	log      *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool

	newID func() string
}

// New creates an Orchestrator. Workers run until they finish or Stop is
// called.
func New(cfg Config, deps Deps, log *logger.Logger) *Orchestrator {
	cfg.ApplyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		cfg:      cfg,
		deps:     deps,
		registry: NewRegistry(),
		log:      log.WithComponent("jobs"),
		ctx:      ctx,
		cancel:   cancel,
		newID:    uuid.NewString,
	}
	o.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "jobs",
		MaxConcurrent: cfg.MaxConcurrent,
		OnReject: func(string) {
			deps.Metrics.JobRejected(context.Background())
		},
	})
	return o
}

// Registry exposes read access to job records.
func (o *Orchestrator) Registry() *Registry { return o.registry }

// Running returns the number of busy worker slots.
func (o *Orchestrator) Running() int { return o.bulkhead.InUse() }

// Get returns a snapshot of job id.
func (o *Orchestrator) Get(id string) (Job, bool) { return o.registry.Get(id) }

// List returns snapshots of every job, newest first.
func (o *Orchestrator) List() []Job { return o.registry.List() }

// Events returns the events of job id with Seq greater than since.
func (o *Orchestrator) Events(id string, since int) ([]Event, bool) {
	return o.registry.Events(id, since)
}

// Submit stores the upload, records a pending job and starts its worker.
// Format policy and admission are checked before anything is stored.
func (o *Orchestrator) Submit(ctx context.Context, filename string, r io.Reader) (Job, error) {
	if err := o.deps.Normalizer.CheckFormat(filename); err != nil {
		return Job{}, err
	}

	if err := o.admit(); err != nil {
		return Job{}, err
	}
	release := func() {
		o.bulkhead.Release()
		o.wg.Done()
	}

	j, key, err := o.store(ctx, filename, r)
	if err != nil {
		release()
		return Job{}, err
	}

	j, ev, err := o.registry.create(j)
	if err != nil {
		release()
		if derr := o.deps.Store.Delete(ctx, key); derr != nil {
			o.log.Warn("Upload cleanup failed", logger.Fields("key", key, logger.FieldError, derr.Error()))
		}
		return Job{}, err
	}
	o.publish(ev)
	o.deps.Metrics.JobSubmitted(ctx)
	o.log.Info("Job accepted", logger.Fields(logger.FieldJobID, j.ID, logger.FieldSource, j.SourceRef, "filename", filename))

	go o.run(j.ID, key)
	return j, nil
}

// admit takes a worker slot. The WaitGroup is incremented under the same
// lock Stop takes, so Stop never waits on a counter that can still grow.
func (o *Orchestrator) admit() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return ErrShuttingDown
	}
	if !o.bulkhead.TryAcquire() {
		return ErrRejected
	}
	o.wg.Add(1)
	return nil
}

// store spools r to a scratch file to learn its digest, which is part of
// the object key, then uploads it.
func (o *Orchestrator) store(ctx context.Context, filename string, r io.Reader) (Job, string, error) {
	tmp, err := os.CreateTemp(o.cfg.ScratchDir, "verbatim-upload-*")
	if err != nil {
		return Job{}, "", fmt.Errorf("jobs: create scratch file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	h := storage.NewHasher()
	if _, err := io.Copy(io.MultiWriter(tmp, h), r); err != nil {
		return Job{}, "", fmt.Errorf("jobs: read upload: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return Job{}, "", fmt.Errorf("jobs: rewind upload: %w", err)
	}

	id := o.newID()
	digest := h.Sum()
	key := storage.UploadKey(digest, id, filename)
	if err := o.deps.Store.Upload(ctx, key, tmp); err != nil {
		return Job{}, "", fmt.Errorf("jobs: store upload: %w", err)
	}
	return Job{
		ID:        id,
		SourceRef: o.deps.Store.Ref(key),
		Filename:  storage.SanitizeName(filename),
		Digest:    digest,
	}, key, nil
}

// Wait blocks until job id is terminal or ctx ends.
func (o *Orchestrator) Wait(ctx context.Context, id string) (Job, error) {
	done, ok := o.registry.Done(id)
	if !ok {
		return Job{}, ErrNotFound
	}
	select {
	case <-done:
		j, _ := o.registry.Get(id)
		return j, nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// Stop refuses new work, cancels every worker and waits for them to record
// their final state or for ctx to end.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	o.stopped = true
	o.mu.Unlock()
	o.cancel()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("jobs: workers still running: %w", ctx.Err())
	}
}

func (o *Orchestrator) run(id, sourceKey string) {
	defer o.wg.Done()
	defer o.bulkhead.Release()

	ctx := logger.ContextWithJobID(o.ctx, id)
	log := o.log.WithContext(ctx)
	w := &worker{o: o, id: id, ctx: ctx, log: log}

	defer func() {
		if p := recover(); p != nil {
			log.Error("Worker panicked", logger.Fields("panic", fmt.Sprint(p)))
			w.fail("internal", apperrors.Internal(fmt.Errorf("panic: %v", p)))
		}
	}()

	w.pipeline(sourceKey)

	if !o.cfg.KeepNormalized {
		if err := o.deps.Store.Delete(context.Background(), storage.NormalizedKey(id, o.cfg.NormalizedExt)); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Warn("Normalized audio cleanup failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}
}

func (o *Orchestrator) publish(ev Event) {
	if o.deps.Publisher != nil {
		o.deps.Publisher.Publish(ev)
	}
}

// worker carries one job through the stages.
type worker struct {
	o   *Orchestrator
	id  string
	ctx context.Context
	log *logger.Logger
}

func (w *worker) pipeline(sourceKey string) {
	if !w.advance(StatusNormalizing, "") {
		return
	}
	ref, err := w.normalize(sourceKey)
	if err != nil {
		w.fail("normalize", failure(w.ctx, err))
		return
	}

	if !w.advance(StatusTranscribing, "") {
		return
	}
	doc, err := w.transcribe(ref)
	if err != nil {
		w.fail("recognize", failure(w.ctx, err))
		return
	}

	if !w.advance(StatusRefining, "") {
		return
	}
	w.advance(StatusCompleted, w.refine(doc))
}

func (w *worker) normalize(sourceKey string) (string, error) {
	ctx, stage := observability.StartStage(w.ctx, w.o.deps.Metrics, w.id, "normalize")
	ref, err := w.o.deps.Normalizer.Normalize(ctx, sourceKey, storage.NormalizedKey(w.id, w.o.cfg.NormalizedExt))
	elapsed := stage.End(err)
	w.logStage(stage.Name(), elapsed.Milliseconds(), err)
	return ref, err
}

// transcribe covers recognition and reconstruction, which fail together.
func (w *worker) transcribe(ref string) (string, error) {
	ctx, stage := observability.StartStage(w.ctx, w.o.deps.Metrics, w.id, "recognize")
	res, err := w.o.deps.Recognizer.Recognize(ctx, ref, w.o.deps.Options)
	if err == nil && res == nil {
		err = &recognition.Error{Backend: w.o.deps.Recognizer.Name(), Message: "no result returned"}
	}
	elapsed := stage.End(err)
	w.logStage(stage.Name(), elapsed.Milliseconds(), err)
	if err != nil {
		return "", err
	}

	_, stage = observability.StartStage(w.ctx, w.o.deps.Metrics, w.id, "reconstruct")
	doc := transcript.Reconstruct(res)
	stage.End(nil)
	return doc, nil
}

func (w *worker) refine(doc string) string {
	ctx, stage := observability.StartStage(w.ctx, w.o.deps.Metrics, w.id, "refine")
	out := w.o.deps.Refiner.Refine(ctx, doc)
	elapsed := stage.End(nil)
	w.logStage(stage.Name(), elapsed.Milliseconds(), nil)
	return out
}

// advance moves the job forward. It returns false if the job was failed
// instead, either because shutdown began or the edge was illegal.
func (w *worker) advance(to Status, result string) bool {
	if to != StatusCompleted && w.ctx.Err() != nil {
		w.fail(string(to), canceled())
		return false
	}
	j, ev, err := w.o.registry.transition(w.id, to, result, "")
	if err != nil {
		w.log.Error("State transition rejected", logger.Fields(logger.FieldError, err.Error()))
		w.fail(string(to), apperrors.Internal(err))
		return false
	}
	w.o.publish(ev)
	w.log.Info("Job status changed", logger.Fields(logger.FieldStatus, string(j.Status)))
	if to == StatusCompleted {
		w.o.deps.Metrics.JobCompleted(w.ctx)
	}
	return true
}

func (w *worker) fail(stage string, cause *apperrors.AppError) {
	_, ev, err := w.o.registry.failWith(w.id, string(cause.Code), cause.Message)
	if err != nil {
		// Already terminal.
		return
	}
	w.o.publish(ev)
	w.o.deps.Metrics.JobFailed(context.Background(), stage)
	w.log.Warn("Job failed", logger.Fields(logger.FieldStage, stage, logger.FieldError, cause.Message, "code", string(cause.Code)))
}

func (w *worker) logStage(stage string, ms int64, err error) {
	fields := logger.Fields(logger.FieldStage, stage, logger.FieldDuration, ms)
	if err != nil {
		fields[logger.FieldError] = err.Error()
		w.log.Warn("Stage failed", fields)
		return
	}
	w.log.Info("Stage finished", fields)
}

func canceled() *apperrors.AppError {
	e := apperrors.ServiceUnavailable("transcription service")
	e.Message = MsgCanceled
	return e
}

// failure classifies a stage error for the job record. Typed pipeline
// errors keep their user-facing text; anything else gets a generic message
// so internals never reach the client.
func failure(ctx context.Context, err error) *apperrors.AppError {
	if ctx.Err() != nil {
		return canceled()
	}
	var (
		unsupported *audio.UnsupportedFormatError
		conversion  *audio.ConversionError
		recErr      *recognition.Error
		timeout     *recognition.TimeoutError
		e           *apperrors.AppError
	)
	switch {
	case errors.As(err, &unsupported):
		e = apperrors.UnsupportedFormat(unsupported.Extension)
		e.Message = unsupported.Error()
	case errors.As(err, &conversion):
		e = apperrors.ConversionFailed(err)
		e.Message = conversion.Error()
	case errors.As(err, &recErr):
		e = apperrors.RecognitionFailed(err)
		e.Message = recErr.Error()
	case errors.As(err, &timeout):
		e = apperrors.RecognitionTimeout(err)
		e.Message = timeout.Error()
	default:
		e = apperrors.Internal(err)
		e.Message = "processing failed unexpectedly"
	}
	return e
}
