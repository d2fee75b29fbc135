package api

import (
	"time"

	"github.com/kbukum/verbatim/job"
)

// SubmitResponse answers POST /api/v1/jobs.
type SubmitResponse struct {
	JobID     string     `json:"jobId"`
	SourceRef string     `json:"sourceRef"`
	Status    job.Status `json:"status"`
}

// JobResponse answers GET /api/v1/jobs/:id.
type JobResponse struct {
	ID        string     `json:"id"`
	Status    job.Status `json:"status"`
	SourceRef string     `json:"sourceRef"`
	Filename  string     `json:"filename,omitempty"`
	Result    string     `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	ErrorCode string     `json:"errorCode,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func newJobResponse(j job.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		Status:    j.Status,
		SourceRef: j.SourceRef,
		Filename:  j.Filename,
		Result:    j.Result,
		Error:     j.Error,
		ErrorCode: j.ErrorCode,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// LegacySubmitResponse answers POST /upload.
type LegacySubmitResponse struct {
	JobID     string `json:"job_id"`
	SourceRef string `json:"source_ref"`
}

// LegacyStatusResponse answers GET /status/:id.
type LegacyStatusResponse struct {
	Status    job.Status `json:"status"`
	SourceRef string     `json:"source_ref"`
	Result    string     `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
}
