package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbukum/verbatim/logger"
)

func TestRecorder(t *testing.T) {
	t.Run("implicit ok", func(t *testing.T) {
		rec := record(httptest.NewRecorder())
		rec.Write([]byte("hello"))
		if rec.Status() != http.StatusOK || rec.bytes != 5 || rec.streamed {
			t.Errorf("recorder = %+v", rec)
		}
	})

	t.Run("first status wins", func(t *testing.T) {
		rec := record(httptest.NewRecorder())
		rec.WriteHeader(http.StatusAccepted)
		rec.WriteHeader(http.StatusInternalServerError)
		if rec.Status() != http.StatusAccepted {
			t.Errorf("status = %d", rec.Status())
		}
	})

	t.Run("flush marks stream", func(t *testing.T) {
		inner := httptest.NewRecorder()
		rec := record(inner)
		rec.Write([]byte("event: status\n\n"))
		rec.Flush()
		if !rec.streamed || !inner.Flushed {
			t.Error("flush not recorded or not passed through")
		}
		if http.NewResponseController(rec).Flush() != nil {
			t.Error("response controller cannot flush through recorder")
		}
	})
}

func TestRequestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&logger.Config{Level: "info", Format: "json", Writer: &buf}, "verbatim")

	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{}}`))
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader("abc"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line %q: %v", buf.String(), err)
	}
	if entry["level"] != "warn" || entry["status"] != float64(404) || entry["bytes"] != float64(12) {
		t.Errorf("entry = %v", entry)
	}
	if entry["request_bytes"] != float64(3) || entry["path"] != "/api/v1/jobs" {
		t.Errorf("entry = %v", entry)
	}

	buf.Reset()
	RequestLogger(log)(http.HandlerFunc(ok)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	if buf.Len() != 0 {
		t.Errorf("health probe logged: %s", buf.String())
	}
}

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }
