package sse

// Broadcaster sends frames to every client whose id matches pattern.
// Pattern uses filepath.Match syntax, e.g. "job:*" or "job:abc:*".
type Broadcaster interface {
	BroadcastToPattern(pattern string, f Frame)
}
