package endpoint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/verbatim/component"
)

func checker(statuses ...component.HealthStatus) HealthChecker {
	return func(context.Context) []component.Health {
		out := make([]component.Health, len(statuses))
		for i, s := range statuses {
			out[i] = component.Health{Name: string(rune('a' + i)), Status: s}
		}
		return out
	}
}

func serve(t *testing.T, h gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", h)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	return rr
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		statuses []component.HealthStatus
		code     int
		status   string
	}{
		{"all healthy", []component.HealthStatus{component.StatusHealthy, component.StatusHealthy}, 200, "healthy"},
		{"degraded", []component.HealthStatus{component.StatusHealthy, component.StatusDegraded}, 200, "degraded"},
		{"unhealthy wins", []component.HealthStatus{component.StatusDegraded, component.StatusUnhealthy}, 503, "unhealthy"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := serve(t, Health("verbatim", checker(tc.statuses...)))
			var body struct {
				Status     string             `json:"status"`
				Components []component.Health `json:"components"`
			}
			json.Unmarshal(rr.Body.Bytes(), &body)
			if rr.Code != tc.code || body.Status != tc.status || len(body.Components) != len(tc.statuses) {
				t.Errorf("code %d body %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestReadiness(t *testing.T) {
	if rr := serve(t, Readiness(checker(component.StatusHealthy))); rr.Code != 200 {
		t.Errorf("healthy: %d", rr.Code)
	}
	if rr := serve(t, Readiness(checker(component.StatusDegraded))); rr.Code != 503 {
		t.Errorf("degraded: %d", rr.Code)
	}
}

func TestInfo(t *testing.T) {
	rr := serve(t, Info("verbatim", map[string]any{"recognition": "google"}))
	var body map[string]any
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body["service"] != "verbatim" || body["recognition"] != "google" || body["build"] == nil {
		t.Errorf("body = %s", rr.Body.String())
	}
}
