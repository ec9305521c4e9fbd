package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Package storage contains the read-only media store abstraction the gateway
// serves from. Implementations stream bytes; nothing is ever buffered whole.

// ErrNotFound is returned when the requested object does not exist in the
// backend. Callers map it to HTTP 404.
var ErrNotFound = errors.New("object not found")

// ObjectInfo contains basic information about an object in the store.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// MediaStore is a read-only store of media objects addressed by
// "{category}/{filename}" keys. Implementations must be safe for concurrent
// use; the gateway holds no per-object locks because it never writes.
type MediaStore interface {
	// Stat returns size and modification info for an object without opening it.
	Stat(ctx context.Context, key string) (ObjectInfo, error)

	// OpenRange opens a reader over the inclusive byte interval [start, end].
	// The returned reader yields exactly end-start+1 bytes and must be closed
	// on every exit path; closing it releases the underlying handle and stops
	// any further backend reads.
	OpenRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error)
}
