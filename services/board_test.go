package services

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yjchoi-grove/vibe-coding/config"
	"github.com/yjchoi-grove/vibe-coding/models"
	"github.com/yjchoi-grove/vibe-coding/storage"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type testEnv struct {
	board *Board
	db    *gorm.DB
	store *storage.LocalStore
	clock *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := config.InitDatabase(config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: ":memory:",
		LogLevel:    "silent",
	}, models.All()...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}

	board := NewBoard(Options{
		DB:                db,
		Store:             store,
		Clock:             clock,
		MaxUploadBytes:    64,
		AllowedExtensions: config.DefaultAllowedExtensions,
		MaxLoginFailures:  3,
	})
	return &testEnv{board: board, db: db, store: store, clock: clock}
}

func (e *testEnv) addUser(t *testing.T, id, name string) {
	t.Helper()
	_, err := e.board.CreateUser(context.Background(), id, name, "password123")
	require.NoError(t, err)
}

func (e *testEnv) createPost(t *testing.T, author, title string) *PostDetail {
	t.Helper()
	post, err := e.board.CreatePost(context.Background(), author, PostInput{Title: title, Content: "body of " + title}, nil)
	require.NoError(t, err)
	e.clock.Advance(time.Minute)
	return post
}

func memUpload(name string, body []byte) Upload {
	return Upload{
		Filename: name,
		Size:     int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		},
	}
}
