package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore keeps files under a single upload root directory.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: root}, nil
}

// Root returns the upload root directory.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) Exists(_ context.Context, name string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.root, name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *LocalStore) Create(_ context.Context, name string, r io.Reader, limit int64) (string, int64, error) {
	dstPath := filepath.Join(s.root, name)
	out, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, err
	}

	// Enforce the limit by reading one byte past it
	lr := &io.LimitedReader{R: r, N: limit + 1}
	written, err := io.Copy(out, lr)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && written > limit {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(dstPath)
		return "", 0, err
	}
	return dstPath, written, nil
}

func (s *LocalStore) Open(_ context.Context, locator string) (io.ReadCloser, error) {
	return os.Open(locator)
}

func (s *LocalStore) Remove(_ context.Context, locator string) error {
	err := os.Remove(locator)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
