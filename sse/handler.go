package sse

import (
	"net/http"
	"time"

	"github.com/kbukum/verbatim/logger"
)

const defaultKeepAlive = 25 * time.Second

// StreamOptions control one stream.
type StreamOptions struct {
	// Backlog is called after the client is registered and returns frames
	// already published, so nothing is lost between the two. Frames later
	// delivered live with a Seq at or below the highest backlog Seq are
	// skipped.
	Backlog func() []Frame
	// Final reports whether f ends the stream once written.
	Final func(f Frame) bool
	// KeepAlive is the comment interval. Defaults to 25s.
	KeepAlive time.Duration
}

// Serve streams frames for client until the request ends, the client is
// closed, or a Final frame is written.
func Serve(hub *Hub, w http.ResponseWriter, r *http.Request, client *Client, opts StreamOptions) {
	log := hub.log.WithContext(r.Context())
	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("Streaming not supported", logger.Fields("client_id", client.ID()))
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// Streams outlive the server's WriteTimeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("Could not clear write deadline", logger.Fields(logger.FieldError, err.Error()))
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if !hub.Register(client) {
		return
	}
	defer hub.Unregister(client)

	_, _ = Frame{Event: EventConnected, Data: []byte(`{"client_id":"` + client.ID() + `"}`)}.WriteTo(w)
	flusher.Flush()

	var last uint64
	write := func(f Frame) (done bool) {
		if f.Seq != 0 {
			if f.Seq <= last {
				return false
			}
			last = f.Seq
		}
		if _, err := f.WriteTo(w); err != nil {
			return true
		}
		flusher.Flush()
		return opts.Final != nil && opts.Final(f)
	}

	if opts.Backlog != nil {
		for _, f := range opts.Backlog() {
			if write(f) {
				return
			}
		}
	}

	interval := opts.KeepAlive
	if interval <= 0 {
		interval = defaultKeepAlive
	}
	keepAlive := time.NewTicker(interval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case f, ok := <-client.Events():
			if !ok || write(f) {
				return
			}
		case <-keepAlive.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
