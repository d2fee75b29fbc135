package audio

import "fmt"

// UnsupportedFormatError rejects an input container by policy.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Extension == "" {
		return "unsupported audio format: file has no extension"
	}
	return fmt.Sprintf("unsupported audio format: %s files are not accepted", e.Extension)
}

// ConversionError means the input could not be read or ffmpeg failed.
type ConversionError struct {
	Message string
	// Detail is the tail of the tool's stderr, for logs only.
	Detail string
	Err    error
}

func (e *ConversionError) Error() string {
	return "audio conversion failed: " + e.Message
}

func (e *ConversionError) Unwrap() error { return e.Err }
