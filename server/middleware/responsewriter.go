package middleware

import "net/http"

// recorder remembers what the handler sent so RequestLogger can report it.
// Flush and Unwrap pass through; the SSE handler depends on both.
type recorder struct {
	http.ResponseWriter
	status   int
	bytes    int64
	streamed bool
}

func record(w http.ResponseWriter) *recorder {
	return &recorder{ResponseWriter: w}
}

func (rw *recorder) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recorder) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

// Flush marks the response as a stream.
func (rw *recorder) Flush() {
	rw.streamed = true
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *recorder) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// Status is the sent status, or 200 when the handler wrote nothing.
func (rw *recorder) Status() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}
