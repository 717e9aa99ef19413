package filestorage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Backend names the storage system holding an object.
type Backend string

const (
	BackendLocal Backend = "local"
	BackendR2    Backend = "r2"
)

var (
	ErrNotFound          = errors.New("stored file not found")
	ErrNameCollision     = errors.New("could not generate a unique file name")
	ErrInvalidKey        = errors.New("invalid storage key")
	ErrPresignNotSupport = errors.New("backend does not issue presigned URLs")
	ErrUnknownBackend    = errors.New("unknown storage backend")
)

// SaveRequest describes an object to write. The storage generates the final
// key as Dir/NamePrefix<random>Ext.
type SaveRequest struct {
	Dir         string
	NamePrefix  string
	Ext         string
	ContentType string
	Data        []byte
}

// Object is a stored file.
type Object struct {
	Key         string  `json:"key"`
	Backend     Backend `json:"backend"`
	Size        int64   `json:"size"`
	ContentType string  `json:"contentType"`
}

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// Save writes the data under a freshly generated key
	Save(ctx context.Context, req SaveRequest) (*Object, error)

	// Open returns a reader for the stored object
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object; deleting a missing object is not an error
	Delete(ctx context.Context, key string) error

	// Exists reports whether the object is present
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns a time-limited URL for the object when the backend supports it
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Backend identifies the storage system
	Backend() Backend
}

// NameFunc returns the random part of a generated file name.
type NameFunc func() string
