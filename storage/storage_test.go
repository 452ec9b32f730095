package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	return s
}

func TestUniqueName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	name, err := UniqueName(ctx, s, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", name)

	_, _, err = s.Create(ctx, "a.txt", strings.NewReader("one"), 100)
	require.NoError(t, err)
	name, err = UniqueName(ctx, s, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "a_1.txt", name)

	_, _, err = s.Create(ctx, "a_1.txt", strings.NewReader("two"), 100)
	require.NoError(t, err)
	name, err = UniqueName(ctx, s, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "a_2.txt", name)
}

func TestUniqueNameWithoutExtension(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, _, err := s.Create(ctx, "README", strings.NewReader("x"), 10)
	require.NoError(t, err)

	name, err := UniqueName(ctx, s, "README")
	require.NoError(t, err)
	assert.Equal(t, "README_1", name)
}

func TestLocalCreateRejectsOversized(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, _, err := s.Create(ctx, "big.txt", strings.NewReader("0123456789"), 5)
	assert.True(t, errors.Is(err, ErrTooLarge))

	exists, err := s.Exists(ctx, "big.txt")
	require.NoError(t, err)
	assert.False(t, exists, "partial file must be removed")
}

func TestLocalCreateRefusesOverwrite(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, _, err := s.Create(ctx, "a.txt", strings.NewReader("one"), 10)
	require.NoError(t, err)

	_, _, err = s.Create(ctx, "a.txt", strings.NewReader("two"), 10)
	assert.True(t, errors.Is(err, ErrExists))
}

func TestLocalOpenAndRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	loc, n, err := s.Create(ctx, "doc.pdf", strings.NewReader("hello"), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	rc, err := s.Open(ctx, loc)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(b))

	require.NoError(t, s.Remove(ctx, loc))
	_, err = os.Stat(loc)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.NoError(t, s.Remove(ctx, loc), "removing a missing file is not an error")

	_, err = s.Open(ctx, loc)
	assert.True(t, errors.Is(err, ErrNotExist))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a.txt", SanitizeFilename("a.txt"))
	assert.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "evil.txt", SanitizeFilename(`C:\temp\evil.txt`))
	assert.Equal(t, "보고서 1.pdf", SanitizeFilename("보고서 1.pdf"))
	assert.Equal(t, "a_b.txt", SanitizeFilename("a:b.txt"))
	assert.Equal(t, "unnamed", SanitizeFilename(".."))
	assert.Equal(t, "unnamed.txt", SanitizeFilename(".txt"))
	assert.Equal(t, "hidden.txt", SanitizeFilename("..hidden.txt"))
	assert.Equal(t, "a", SanitizeFilename("a."))
}

func TestPublicPath(t *testing.T) {
	assert.Equal(t, "/uploads/a.txt", PublicPath("./uploads/a.txt"))
	assert.Equal(t, "/uploads/a.txt", PublicPath(`uploads\a.txt`))
	assert.Equal(t, "/uploads/a.txt", PublicPath("uploads/a.txt"))
}
