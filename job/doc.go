// Package job runs transcription jobs.
//
// A job moves pending -> normalizing -> transcribing -> refining ->
// completed, or to failed from any non-terminal state. Each accepted job
// gets its own worker goroutine, which is the only writer of that job's
// record; everything else reads snapshots from the Registry. Admission is
// bounded by a bulkhead: when every slot is busy, Submit returns
// ErrRejected instead of queueing.
package job
