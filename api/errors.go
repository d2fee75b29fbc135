package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/verbatim/audio"
	apperrors "github.com/kbukum/verbatim/errors"
	"github.com/kbukum/verbatim/job"
)

// formFile returns the first of fields present in the multipart body. A
// part sent without a filename counts as present but unselected.
func formFile(c *gin.Context, fields ...string) (*multipart.FileHeader, error) {
	selected := true
	for _, field := range fields {
		fh, err := c.FormFile(field)
		switch {
		case err == nil:
			if fh.Filename == "" {
				selected = false
				continue
			}
			return fh, nil
		case errors.Is(err, http.ErrMissingFile):
			if form := c.Request.MultipartForm; form != nil {
				if _, ok := form.Value[field]; ok {
					selected = false
				}
			}
		case errors.Is(err, http.ErrNotMultipart):
			return nil, noFilePart(fields[0])
		default:
			return nil, bodyError(err)
		}
	}
	if !selected {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "No selected file", http.StatusBadRequest).
			WithDetail("field", fields[0])
	}
	return nil, noFilePart(fields[0])
}

func noFilePart(field string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeInvalidInput, "No file part", http.StatusBadRequest).
		WithDetail("field", field)
}

func bodyError(err error) *apperrors.AppError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.New(apperrors.ErrCodeInvalidInput,
			fmt.Sprintf("Upload exceeds the %d byte limit.", tooLarge.Limit),
			http.StatusRequestEntityTooLarge).WithCause(err)
	}
	return apperrors.InvalidInput("body", "Malformed multipart body.").WithCause(err)
}

// submitError maps orchestrator errors onto the API envelope.
func submitError(err error) *apperrors.AppError {
	var unsupported *audio.UnsupportedFormatError
	switch {
	case errors.As(err, &unsupported):
		ext := unsupported.Extension
		if ext == "" {
			ext = "(none)"
		}
		return apperrors.UnsupportedFormat(ext).WithCause(err)
	case errors.Is(err, job.ErrRejected):
		return apperrors.RateLimited().WithCause(err)
	case errors.Is(err, job.ErrShuttingDown):
		return apperrors.ServiceUnavailable("transcription service").WithCause(err)
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return bodyError(err)
		}
		return apperrors.Internal(err)
	}
}
