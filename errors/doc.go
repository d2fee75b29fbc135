// Package errors provides the service's structured error type with error
// codes, HTTP status mapping and retryable detection following RFC 7807.
//
// Pipeline stages return their own typed errors; the HTTP layer maps them
// onto AppError so clients always receive the same envelope:
//
//	{"error": {"code": "NOT_FOUND", "message": "Job not found", "retryable": false}}
package errors
