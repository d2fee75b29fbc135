package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNew_RetryableDetection(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		retryable bool
	}{
		{ErrCodeTimeout, true},
		{ErrCodeRateLimited, true},
		{ErrCodeNotFound, false},
		{ErrCodeConversionFailed, false},
		{ErrCodeRecognitionFailed, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New(tt.code, "msg", http.StatusTeapot)
			if err.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", err.Retryable, tt.retryable)
			}
			if err.HTTPStatus != http.StatusTeapot {
				t.Errorf("HTTPStatus = %d", err.HTTPStatus)
			}
		})
	}
}

func TestNotFound_JobMessage(t *testing.T) {
	err := NotFound("job", "abc")
	if err.Message != "Job not found" {
		t.Errorf("Message = %q, want %q", err.Message, "Job not found")
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("HTTPStatus = %d", err.HTTPStatus)
	}
	if err.Details["id"] != "abc" {
		t.Errorf("Details[id] = %v", err.Details["id"])
	}
}

func TestPipelineConstructors(t *testing.T) {
	cause := stderrors.New("ffmpeg exited 1")
	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
	}{
		{"unsupported", UnsupportedFormat(".wma"), ErrCodeUnsupportedFormat, http.StatusUnsupportedMediaType},
		{"conversion", ConversionFailed(cause), ErrCodeConversionFailed, http.StatusUnprocessableEntity},
		{"recognition", RecognitionFailed(cause), ErrCodeRecognitionFailed, http.StatusBadGateway},
		{"recognition timeout", RecognitionTimeout(cause), ErrCodeRecognitionTimeout, http.StatusGatewayTimeout},
		{"render", RenderFailed("docx", cause), ErrCodeRenderFailed, http.StatusInternalServerError},
		{"not completed", JobNotCompleted("j", "refining"), ErrCodeJobNotCompleted, http.StatusConflict},
		{"rate limited", RateLimited(), ErrCodeRateLimited, http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.HTTPStatus != tt.status {
				t.Errorf("HTTPStatus = %d, want %d", tt.err.HTTPStatus, tt.status)
			}
		})
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := stderrors.New("root")
	err := ConversionFailed(cause)
	if !strings.Contains(err.Error(), "root") {
		t.Errorf("Error() = %q should mention cause", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
}

func TestToResponse_OmitsCause(t *testing.T) {
	err := Internal(stderrors.New("secret stack detail"))
	data, marshalErr := json.Marshal(err.ToResponse())
	if marshalErr != nil {
		t.Fatal(marshalErr)
	}
	if strings.Contains(string(data), "secret stack detail") {
		t.Errorf("response leaked cause: %s", data)
	}
	if !strings.Contains(string(data), string(ErrCodeInternal)) {
		t.Errorf("response missing code: %s", data)
	}
}

func TestAsAppErrorAndIsCode(t *testing.T) {
	wrapped := fmt.Errorf("stage: %w", RecognitionTimeout(nil))
	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AppError through wrapping")
	}
	if appErr.Code != ErrCodeRecognitionTimeout {
		t.Errorf("Code = %s", appErr.Code)
	}
	if !IsCode(wrapped, ErrCodeRecognitionTimeout) {
		t.Error("IsCode should match")
	}
	if IsCode(stderrors.New("plain"), ErrCodeInternal) {
		t.Error("IsCode should not match plain errors")
	}
}

func TestWithDetail(t *testing.T) {
	err := Validation("bad").WithDetail("field", "format")
	if err.Details["field"] != "format" {
		t.Errorf("Details = %v", err.Details)
	}
}
