package job

import "time"

// Status is a job's position in the pipeline.
type Status string

const (
	StatusPending      Status = "pending"
	StatusNormalizing  Status = "normalizing"
	StatusTranscribing Status = "transcribing"
	StatusRefining     Status = "refining"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// successPath is the only forward order.
var successPath = []Status{StatusPending, StatusNormalizing, StatusTranscribing, StatusRefining, StatusCompleted}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether from -> to is an edge of the state machine:
// one step forward along the success path, or any non-terminal state to
// failed.
func CanTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	for i := 0; i < len(successPath)-1; i++ {
		if successPath[i] == from {
			return successPath[i+1] == to
		}
	}
	return false
}

// Job is a point-in-time copy of a job record.
type Job struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	SourceRef string    `json:"sourceRef"`
	Filename  string    `json:"filename,omitempty"`
	Digest    string    `json:"digest,omitempty"`
	Result    string    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	// ErrorCode classifies Error, e.g. RECOGNITION_TIMEOUT.
	ErrorCode string    `json:"errorCode,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Event announces that a job entered a status. Seq starts at 1 per job.
type Event struct {
	JobID  string    `json:"job_id"`
	Status Status    `json:"status"`
	Seq    int       `json:"seq"`
	At     time.Time `json:"at"`
	Error  string    `json:"error,omitempty"`
}

// Publisher receives every event after it is recorded.
type Publisher interface {
	Publish(Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Event)

func (f PublisherFunc) Publish(e Event) { f(e) }
