package middleware_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/verbatim/auth"
	"github.com/kbukum/verbatim/logger"
	"github.com/kbukum/verbatim/server/middleware"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestRecovery(t *testing.T) {
	handler := middleware.Recovery(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error.Code != "INTERNAL_ERROR" || strings.Contains(rr.Body.String(), "boom") {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestRequestID(t *testing.T) {
	t.Run("generates", func(t *testing.T) {
		var seen string
		h := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Get(middleware.HeaderRequestID)
		}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
		if seen == "" || rr.Header().Get(middleware.HeaderRequestID) != seen {
			t.Errorf("request %q, response %q", seen, rr.Header().Get(middleware.HeaderRequestID))
		}
	})
	t.Run("preserves", func(t *testing.T) {
		h := middleware.RequestID()(http.HandlerFunc(ok))
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.Header.Set(middleware.HeaderRequestID, "abc-123")
		h.ServeHTTP(rr, req)
		if got := rr.Header().Get(middleware.HeaderRequestID); got != "abc-123" {
			t.Errorf("got %q", got)
		}
	})
}

func TestCORS(t *testing.T) {
	cfg := middleware.CORSConfig{
		AllowedOrigins: []string{"https://app.example.com"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization"},
		MaxAge:         600,
	}
	tests := []struct {
		name, method, origin string
		preflight            bool
		wantOrigin           string
		wantStatus           int
	}{
		{"allowed", http.MethodGet, "https://app.example.com", false, "https://app.example.com", http.StatusOK},
		{"disallowed", http.MethodGet, "https://evil.example", false, "", http.StatusOK},
		{"preflight", http.MethodOptions, "https://app.example.com", true, "https://app.example.com", http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := middleware.CORS(cfg)(http.HandlerFunc(ok))
			req := httptest.NewRequest(tc.method, "/api/v1/jobs", http.NoBody)
			req.Header.Set("Origin", tc.origin)
			if tc.preflight {
				req.Header.Set("Access-Control-Request-Method", "POST")
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tc.wantStatus || rr.Header().Get("Access-Control-Allow-Origin") != tc.wantOrigin {
				t.Errorf("status %d, origin %q", rr.Code, rr.Header().Get("Access-Control-Allow-Origin"))
			}
			if tc.preflight && rr.Header().Get("Access-Control-Max-Age") != "600" {
				t.Error("max age missing on preflight")
			}
			if tc.wantOrigin != "" && !strings.Contains(rr.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition") {
				t.Error("Content-Disposition should be exposed")
			}
		})
	}
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	h := middleware.RequestLogger(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/jobs", http.NoBody))
	if rr.Code != http.StatusAccepted {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestBodySizeLimit(t *testing.T) {
	var readErr error
	h := middleware.BodySizeLimit("1KB")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("x", 2048))))

	var mbe *http.MaxBytesError
	if !errors.As(readErr, &mbe) || mbe.Limit != 1024 {
		t.Errorf("err = %v", readErr)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	middleware.Chain(mark("a"), mark("b"))(http.HandlerFunc(ok)).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if strings.Join(order, ",") != "a,b" {
		t.Errorf("order = %v", order)
	}
}

func TestAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, err := auth.NewService(auth.Config{}, "secret")
	if err != nil {
		t.Fatal(err)
	}
	token, _ := svc.Issue("client-1", "")

	r := gin.New()
	r.Use(middleware.Auth(svc))
	r.GET("/jobs", func(c *gin.Context) {
		claims, _ := auth.ClaimsFrom(c.Request.Context())
		c.String(http.StatusOK, claims.Subject)
	})
	r.POST("/jobs", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name, method, target, header string
		want                         int
	}{
		{"missing", http.MethodGet, "/jobs", "", http.StatusUnauthorized},
		{"bad scheme", http.MethodGet, "/jobs", "Basic " + token, http.StatusUnauthorized},
		{"invalid", http.MethodGet, "/jobs", "Bearer nope", http.StatusUnauthorized},
		{"header", http.MethodGet, "/jobs", "Bearer " + token, http.StatusOK},
		{"query on GET", http.MethodGet, "/jobs?access_token=" + token, "", http.StatusOK},
		{"query on POST", http.MethodPost, "/jobs?access_token=" + token, "", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, http.NoBody)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Errorf("status = %d, want %d (%s)", rr.Code, tc.want, rr.Body.String())
			}
			if tc.want == http.StatusOK && tc.method == http.MethodGet && rr.Body.String() != "client-1" {
				t.Errorf("subject = %q", rr.Body.String())
			}
		})
	}
}
