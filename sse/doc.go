// Package sse streams job status events to browsers with Server-Sent Events.
//
// A Hub routes frames to connected clients by glob pattern on the client
// id. Job subscribers register as "job:<jobID>:<connID>" and the job
// publisher broadcasts to "job:<jobID>:*", so every viewer of a job gets
// its events and nobody else does.
//
// # Usage
//
//	comp := sse.NewComponent("/api/v1/jobs/:id/events", log)
//	pub := sse.NewJobPublisher(comp.Hub())
//	// pass pub to job.Deps.Publisher, then from a handler:
//	sse.Serve(comp.Hub(), w, r, client, sse.StreamOptions{Backlog: backlog})
package sse
