package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Package storage contains object storage backends and the per-user Gateway
// the ingestion flow writes through. Backends stream; no local disk is used.

var (
	// ErrNotFound is returned when an object does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrConflict is returned when a write would overwrite an existing object.
	ErrConflict = errors.New("object already exists")
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1.
// IfAbsent asks the backend to refuse overwriting an existing key.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
	IfAbsent    bool
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is an S3-compatible object storage client.
// Implementations map missing objects to ErrNotFound and refused
// conditional writes to ErrConflict.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Stat returns an object's info without its content.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
