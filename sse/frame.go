package sse

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Event names used on the stream.
const (
	EventConnected = "connected"
	EventStatus    = "status"
)

// Frame is one SSE message. Seq, when non-zero, is written as the event id
// and lets a stream drop frames it already delivered.
type Frame struct {
	Event string
	Seq   uint64
	Data  []byte
}

// WriteTo writes f in the text/event-stream wire format.
func (f Frame) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	if f.Event != "" {
		fmt.Fprintf(&b, "event: %s\n", f.Event)
	}
	if f.Seq != 0 {
		fmt.Fprintf(&b, "id: %d\n", f.Seq)
	}
	// Multi-line payloads need one data field per line.
	for _, line := range strings.Split(string(f.Data), "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// LastEventID parses the Last-Event-ID header value a reconnecting browser
// sends. Invalid values read as zero.
func LastEventID(v string) uint64 {
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
