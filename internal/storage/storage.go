package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Package storage abstracts the S3-compatible object store that holds
// encrypted document blobs. Implementations must avoid local disk and rely
// on streaming I/O only.

// ErrObjectNotFound is returned when the referenced key does not exist in
// the store. During a user-initiated delete the caller may treat it as
// idempotent success.
var ErrObjectNotFound = errors.New("object not found in storage")

// PresignExpiry is how long retrieval URLs stay valid.
const PresignExpiry = time.Hour

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a reusable, S3-compatible object storage client interface.
//
// Put generates the object key itself; the key is opaque to callers and is
// time-prefixed so orphaned blobs remain discoverable by prefix for
// reconciliation sweeps. Where the backend supports it, Put also requests
// server-side at-rest encryption on top of the application-level cipher.
type Storage interface {
	// Put uploads content under a newly generated unique key and returns it.
	// suggestedName contributes only the file extension and the
	// original-filename metadata; size must be the exact byte count.
	Put(ctx context.Context, r io.Reader, suggestedName, contentType string, size int64) (string, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key, returning ErrObjectNotFound when absent.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited, credential-free download URL that
	// forces the given filename on download. The URL grants read only.
	PresignGet(ctx context.Context, key, downloadFilename string) (string, time.Time, error)
}
