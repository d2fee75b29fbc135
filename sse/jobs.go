package sse

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/kbukum/verbatim/job"
)

// JobPattern matches every stream subscribed to jobID.
func JobPattern(jobID string) string { return "job:" + jobID + ":*" }

// NewJobClient creates a client subscribed to jobID.
func NewJobClient(jobID string) *Client {
	return NewClient(fmt.Sprintf("job:%s:%s", jobID, uuid.NewString()))
}

// JobFrame encodes a job event as a status frame.
func JobFrame(ev job.Event) Frame {
	data, _ := json.Marshal(ev)
	return Frame{Event: EventStatus, Seq: uint64(ev.Seq), Data: data}
}

// JobFrames encodes events in order.
func JobFrames(evs []job.Event) []Frame {
	out := make([]Frame, len(evs))
	for i, ev := range evs {
		out[i] = JobFrame(ev)
	}
	return out
}

// NewJobPublisher returns a job.Publisher that broadcasts each event to
// the job's subscribers.
func NewJobPublisher(b Broadcaster) job.Publisher {
	return job.PublisherFunc(func(ev job.Event) {
		b.BroadcastToPattern(JobPattern(ev.JobID), JobFrame(ev))
	})
}

// FinalJobFrame reports whether f carries a terminal job status.
func FinalJobFrame(f Frame) bool {
	if f.Event != EventStatus {
		return false
	}
	var ev job.Event
	if err := json.Unmarshal(f.Data, &ev); err != nil {
		return false
	}
	return ev.Status.Terminal()
}
