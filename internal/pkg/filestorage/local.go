package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MaxNameAttempts caps how many generated names are tried before giving up.
const MaxNameAttempts = 10

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string
	newName  NameFunc
	logger   zerolog.Logger
}

// NewLocalStorage creates the base directory if needed.
func NewLocalStorage(basePath string, lgr zerolog.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		lgr.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	lgr.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		newName:  randomHex,
		logger:   lgr,
	}, nil
}

// WithNameFunc replaces the random name generator.
func (ls *LocalStorage) WithNameFunc(fn NameFunc) *LocalStorage {
	ls.newName = fn
	return ls
}

// Backend implements FileStorage
func (ls *LocalStorage) Backend() Backend {
	return BackendLocal
}

// Save writes data under Dir with a generated name. An existing file is never
// overwritten: on collision a new name is generated, up to MaxNameAttempts.
func (ls *LocalStorage) Save(ctx context.Context, req SaveRequest) (*Object, error) {
	dir, err := ls.resolve(req.Dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		ls.logger.Error().Err(err).Str("path", dir).Msg("Failed to create subdirectory")
		return nil, fmt.Errorf("failed to create subdirectory: %w", err)
	}

	for attempt := 1; attempt <= MaxNameAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := req.NamePrefix + ls.newName() + req.Ext
		key := path.Join(req.Dir, name)
		dst := filepath.Join(dir, name)

		f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
		if errors.Is(err, fs.ErrExist) {
			ls.logger.Debug().Str("key", key).Int("attempt", attempt).Msg("File name taken, regenerating")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create destination file: %w", err)
		}

		if _, err := f.Write(req.Data); err != nil {
			f.Close()
			_ = os.Remove(dst)
			return nil, fmt.Errorf("failed to write file content: %w", err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(dst)
			return nil, fmt.Errorf("failed to close destination file: %w", err)
		}

		ls.logger.Info().Str("key", key).Int("size", len(req.Data)).Msg("File saved to local storage")
		return &Object{
			Key:         key,
			Backend:     BackendLocal,
			Size:        int64(len(req.Data)),
			ContentType: req.ContentType,
		}, nil
	}

	ls.logger.Error().Str("dir", req.Dir).Int("attempts", MaxNameAttempts).Msg("Exhausted file name attempts")
	return nil, ErrNameCollision
}

// Open implements FileStorage
func (ls *LocalStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	full, err := ls.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	return f, nil
}

// Delete implements FileStorage
func (ls *LocalStorage) Delete(_ context.Context, key string) error {
	full, err := ls.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		ls.logger.Error().Err(err).Str("key", key).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists implements FileStorage
func (ls *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	full, err := ls.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// URL is not available for local files; they are served by the application.
func (ls *LocalStorage) URL(context.Context, string, time.Duration) (string, error) {
	return "", ErrPresignNotSupport
}

// resolve maps a slash-separated key onto the base directory and refuses
// anything that would escape it.
func (ls *LocalStorage) resolve(key string) (string, error) {
	if strings.Contains(key, "\\") || path.IsAbs(key) {
		return "", ErrInvalidKey
	}
	clean := path.Clean("/" + key)
	if clean != "/"+strings.TrimSuffix(key, "/") && key != "" {
		return "", ErrInvalidKey
	}
	return filepath.Join(ls.basePath, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func randomHex() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")
}
