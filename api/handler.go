// Package api serves the job routes: upload, status, export and the status
// event stream.
package api

import (
	"context"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/verbatim/errors"
	"github.com/kbukum/verbatim/export"
	"github.com/kbukum/verbatim/job"
	"github.com/kbukum/verbatim/logger"
	"github.com/kbukum/verbatim/server"
	"github.com/kbukum/verbatim/sse"
)

// Multipart field names. FieldFile is tried first on the v1 route.
const (
	FieldFile       = "file"
	FieldLegacyFile = "audio_file"
)

// Jobs is the orchestrator surface the handlers need. *job.Orchestrator
// satisfies it.
type Jobs interface {
	Submit(ctx context.Context, filename string, r io.Reader) (job.Job, error)
	Get(id string) (job.Job, bool)
	List() []job.Job
	Events(id string, since int) ([]job.Event, bool)
}

// Handler serves the job routes.
type Handler struct {
	jobs      Jobs
	hub       *sse.Hub
	log       *logger.Logger
	keepAlive time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithKeepAlive sets the comment interval of event streams.
func WithKeepAlive(d time.Duration) Option {
	return func(h *Handler) { h.keepAlive = d }
}

// NewHandler creates a Handler. hub may be nil, in which case the events
// route is not registered.
func NewHandler(jobs Jobs, hub *sse.Hub, log *logger.Logger, opts ...Option) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	h := &Handler{jobs: jobs, hub: hub, log: log.WithComponent("api")}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the v1 routes under /api/v1 and the legacy /upload and
// /status routes at the root. guard runs before every route.
func (h *Handler) Register(r gin.IRouter, guard ...gin.HandlerFunc) {
	v1 := r.Group("/api/v1", guard...)
	v1.POST("/jobs", h.Submit)
	v1.GET("/jobs", h.List)
	v1.GET("/jobs/:id", h.Status)
	v1.GET("/jobs/:id/export", h.Export)
	if h.hub != nil {
		v1.GET("/jobs/:id/events", h.Events)
	}

	legacy := r.Group("/", guard...)
	legacy.POST("/upload", h.Upload)
	legacy.GET("/status/:id", h.LegacyStatus)
}

// Submit accepts a multipart upload and answers 202 with the new job id.
func (h *Handler) Submit(c *gin.Context) {
	j, err := h.accept(c, FieldFile, FieldLegacyFile)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondAccepted(c, SubmitResponse{JobID: j.ID, SourceRef: j.SourceRef, Status: j.Status})
}

// Upload is the legacy form of Submit.
func (h *Handler) Upload(c *gin.Context) {
	j, err := h.accept(c, FieldLegacyFile)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	// Older clients only check for 200.
	server.RespondOK(c, LegacySubmitResponse{JobID: j.ID, SourceRef: j.SourceRef})
}

func (h *Handler) accept(c *gin.Context, fields ...string) (job.Job, error) {
	fh, err := formFile(c, fields...)
	if err != nil {
		return job.Job{}, err
	}
	f, err := fh.Open()
	if err != nil {
		return job.Job{}, apperrors.Internal(err)
	}
	defer f.Close()

	j, err := h.jobs.Submit(c.Request.Context(), fh.Filename, f)
	if err != nil {
		appErr := submitError(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			h.log.WithContext(c.Request.Context()).Error("Upload failed", logger.Fields(
				"filename", fh.Filename, logger.FieldError, err.Error()))
		}
		return job.Job{}, appErr
	}
	return j, nil
}

// List returns every job, newest first.
func (h *Handler) List(c *gin.Context) {
	jobs := h.jobs.List()
	out := make([]JobResponse, len(jobs))
	for i, j := range jobs {
		out[i] = newJobResponse(j)
	}
	server.RespondOK(c, gin.H{"jobs": out})
}

// Status returns one job.
func (h *Handler) Status(c *gin.Context) {
	j, ok := h.lookup(c)
	if !ok {
		return
	}
	server.RespondOK(c, newJobResponse(j))
}

// LegacyStatus returns one job in the legacy shape.
func (h *Handler) LegacyStatus(c *gin.Context) {
	j, ok := h.lookup(c)
	if !ok {
		return
	}
	server.RespondOK(c, LegacyStatusResponse{
		Status: j.Status, SourceRef: j.SourceRef, Result: j.Result, Error: j.Error,
	})
}

// Export renders a completed job's transcript as a download.
func (h *Handler) Export(c *gin.Context) {
	j, ok := h.lookup(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("format", err.Error()).
			WithDetail("supported", export.Formats))
		return
	}
	if j.Status != job.StatusCompleted {
		server.RespondWithError(c, apperrors.JobNotCompleted(j.ID, string(j.Status)))
		return
	}

	body, err := export.Render(j.Result, format)
	if err != nil {
		h.log.WithContext(c.Request.Context()).Error("Export failed", logger.Fields(
			logger.FieldJobID, j.ID, logger.FieldFormat, string(format), logger.FieldError, err.Error()))
		server.RespondWithError(c, apperrors.RenderFailed(string(format), err))
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment",
		map[string]string{"filename": export.Filename(j.ID, format)}))
	c.Data(http.StatusOK, export.MediaType(format), body)
}

// Events streams a job's status events. Events after Last-Event-ID (or
// ?since=) are replayed first. The stream ends after the terminal event.
func (h *Handler) Events(c *gin.Context) {
	j, ok := h.lookup(c)
	if !ok {
		return
	}
	since := int(sse.LastEventID(c.GetHeader("Last-Event-ID")))
	if since == 0 {
		since = int(sse.LastEventID(c.Query("since")))
	}

	sse.Serve(h.hub, c.Writer, c.Request, sse.NewJobClient(j.ID), sse.StreamOptions{
		Backlog:   func() []sse.Frame { return sse.JobFrames(h.backlog(j.ID, since)) },
		Final:     sse.FinalJobFrame,
		KeepAlive: h.keepAlive,
	})
}

// backlog returns events after since. A client that already saw the
// terminal event gets it again so its stream closes.
func (h *Handler) backlog(id string, since int) []job.Event {
	evs, _ := h.jobs.Events(id, since)
	if len(evs) > 0 {
		return evs
	}
	if j, ok := h.jobs.Get(id); !ok || !j.Status.Terminal() {
		return nil
	}
	all, _ := h.jobs.Events(id, 0)
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1:]
}

func (h *Handler) lookup(c *gin.Context) (job.Job, bool) {
	id := c.Param("id")
	j, ok := h.jobs.Get(id)
	if !ok {
		server.RespondWithError(c, apperrors.NotFound("job", id))
	}
	return j, ok
}
