package filestorage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Store picks where new files go and routes reads to the backend that holds
// an existing file. When a remote backend is configured it is tried first and
// a failed write falls back to local disk without surfacing the error.
type Store struct {
	local      *LocalStorage
	remote     FileStorage
	logger     zerolog.Logger
	onFallback func(err error)
}

// NewStore creates a Store. remote may be nil, in which case only local disk is used.
func NewStore(local *LocalStorage, remote FileStorage, lgr zerolog.Logger) *Store {
	if remote == nil {
		lgr.Warn().Msg("Object storage credentials not configured, using local storage only")
	}
	return &Store{
		local:  local,
		remote: remote,
		logger: lgr,
	}
}

// OnFallback registers a hook invoked each time a remote write falls back to disk.
func (s *Store) OnFallback(fn func(err error)) {
	s.onFallback = fn
}

// Primary returns the backend new files are written to first.
func (s *Store) Primary() Backend {
	if s.remote != nil {
		return s.remote.Backend()
	}
	return BackendLocal
}

// Save writes to the remote backend when available, otherwise (or on failure) to disk.
func (s *Store) Save(ctx context.Context, req SaveRequest) (*Object, error) {
	if s.remote != nil {
		obj, err := s.remote.Save(ctx, req)
		if err == nil {
			return obj, nil
		}
		s.logger.Warn().Err(err).Str("dir", req.Dir).Msg("Remote storage write failed, falling back to local disk")
		if s.onFallback != nil {
			s.onFallback(err)
		}
	}
	return s.local.Save(ctx, req)
}

// Open reads a file from the backend it was written to.
func (s *Store) Open(ctx context.Context, backend Backend, key string) (io.ReadCloser, error) {
	fs, err := s.backend(backend)
	if err != nil {
		return nil, err
	}
	return fs.Open(ctx, key)
}

// URL returns a presigned URL for remote files.
func (s *Store) URL(ctx context.Context, backend Backend, key string, ttl time.Duration) (string, error) {
	fs, err := s.backend(backend)
	if err != nil {
		return "", err
	}
	return fs.URL(ctx, key, ttl)
}

func (s *Store) backend(b Backend) (FileStorage, error) {
	switch {
	case b == BackendLocal:
		return s.local, nil
	case s.remote != nil && b == s.remote.Backend():
		return s.remote, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, b)
	}
}
