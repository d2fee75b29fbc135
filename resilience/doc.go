// Package resilience holds the fault-tolerance primitives used around the
// pipeline's external calls: a bulkhead for job admission, retry with
// exponential backoff for transient HTTP failures, and a circuit breaker in
// front of the refinement model.
package resilience
