// Package filestore implements ports.KeyValueStore with one file per key.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

// Store keeps each key in <dir>/<escaped key>.json.
type Store struct {
	dir string
}

// New creates the directory if needed and returns a store rooted at dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

// Save writes value to a temporary file and renames it over the target,
// so a reader never observes a partial write.
func (s *Store) Save(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return domain.NewStorageError("save", key, err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return domain.NewStorageError("save", key, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return domain.NewStorageError("save", key, err)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return domain.NewStorageError("save", key, err)
	}

	return nil
}

// Load reads the file for key, or returns domain.ErrNotFound.
func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.NewNotFoundError("key", key)
	}

	if err != nil {
		return nil, domain.NewStorageError("load", key, err)
	}

	return data, nil
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string { return "storage" }

// Check implements ports.HealthChecker by confirming the directory is reachable.
func (s *Store) Check(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}

	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}
