// Package storage stores uploaded audio and the normalized FLAC derived from
// it. Backends register themselves by provider name: local filesystem,
// Amazon S3 (and S3-compatible services), Google Cloud Storage through its
// S3 interoperability API, and an in-memory store.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Download when no object exists at the key.
var ErrNotFound = errors.New("storage: object not found")

// Storage defines the object operations the pipeline needs.
type Storage interface {
	// Upload writes data from reader to key, replacing any existing object.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download returns a reader for the object at key. The caller closes it.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object exists at key.
	Exists(ctx context.Context, key string) (bool, error)

	// Ref returns the canonical reference for key, e.g. s3://bucket/key.
	Ref(key string) string
}

// Sizer is implemented by backends that can report an object's size
// without reading it.
type Sizer interface {
	Size(ctx context.Context, key string) (int64, error)
}
