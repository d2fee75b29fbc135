package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Availability errors (retryable)
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
)

// Resource errors
const (
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	ErrCodeConflict ErrorCode = "CONFLICT"
)

// Validation errors
const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Authentication errors
const (
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
)

// Pipeline errors
const (
	// ErrCodeUnsupportedFormat: the input container is rejected by policy. User-correctable.
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	// ErrCodeConversionFailed: the normalizer could not decode or re-encode the input.
	ErrCodeConversionFailed ErrorCode = "CONVERSION_FAILED"
	// ErrCodeRecognitionFailed: the speech-recognition service failed.
	ErrCodeRecognitionFailed ErrorCode = "RECOGNITION_FAILED"
	// ErrCodeRecognitionTimeout: the recognition operation did not finish in time.
	ErrCodeRecognitionTimeout ErrorCode = "RECOGNITION_TIMEOUT"
	// ErrCodeRefinementFailed is absorbed by the refiner and never reaches a client.
	ErrCodeRefinementFailed ErrorCode = "REFINEMENT_FAILED"
	// ErrCodeRenderFailed: export document generation failed.
	ErrCodeRenderFailed ErrorCode = "RENDER_FAILED"
	// ErrCodeJobNotCompleted: export requested before the job completed.
	ErrCodeJobNotCompleted ErrorCode = "JOB_NOT_COMPLETED"
)

// Internal errors
const (
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Resubmission is the only recovery for pipeline failures, so none of the
// pipeline codes are retryable in the automatic sense.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeExternalService:    true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
