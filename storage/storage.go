// Package storage keeps the bytes behind attachment rows. Rows reference stored
// objects by locator; the locator format belongs to the backend that produced it.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrExists is returned by Create when the name is already taken.
	ErrExists = fs.ErrExist
	// ErrNotExist is returned by Open for a locator with no backing object.
	ErrNotExist = fs.ErrNotExist
	// ErrTooLarge is returned by Create when the content exceeds the limit.
	ErrTooLarge = errors.New("storage: content exceeds size limit")
)

// Store is a flat namespace of uploaded files.
type Store interface {
	// Exists reports whether name is taken.
	Exists(ctx context.Context, name string) (bool, error)
	// Create writes at most limit bytes from r under name and returns the locator and size written.
	Create(ctx context.Context, name string, r io.Reader, limit int64) (string, int64, error)
	Open(ctx context.Context, locator string) (io.ReadCloser, error)
	// Remove deletes the object; removing a missing object is not an error.
	Remove(ctx context.Context, locator string) error
}

var reIllegalFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}_\-. ]`)

// SanitizeFilename drops any directory part and replaces characters that are unsafe in a stored name.
// Leading dots are stripped from the base name only, so ".txt" keeps its extension.
func SanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	filename = reIllegalFilenameChars.ReplaceAllString(filename, "_")
	ext := filepath.Ext(filename)
	if ext == "." {
		ext = ""
	}
	base := strings.TrimLeft(strings.TrimSuffix(filename, filepath.Ext(filename)), ". ")
	if base == "" {
		base = "unnamed"
	}
	return base + ext
}

// UniqueName returns desired if it is free in s, otherwise the first free
// "<name>_<n><ext>" for n = 1, 2, ...
// The check and the later Create are not atomic.
func UniqueName(ctx context.Context, s Store, desired string) (string, error) {
	ext := filepath.Ext(desired)
	base := strings.TrimSuffix(desired, ext)
	name := desired
	for counter := 1; ; counter++ {
		taken, err := s.Exists(ctx, name)
		if err != nil {
			return "", err
		}
		if !taken {
			return name, nil
		}
		name = fmt.Sprintf("%s_%d%s", base, counter, ext)
	}
}

// PublicPath renders a locator in forward-slash form for API responses.
func PublicPath(locator string) string {
	p := strings.ReplaceAll(locator, "\\", "/")
	p = strings.ReplaceAll(p, "./", "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
