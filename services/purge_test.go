package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yjchoi-grove/vibe-coding/models"
)

func TestPurgerRemovesExpiredFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post, err := env.board.CreatePost(ctx, "alice", PostInput{Title: "t", Content: "c"}, []Upload{
		memUpload("a.txt", []byte("a")),
	})
	require.NoError(t, err)
	require.NoError(t, env.board.DeletePost(ctx, post.ID, "alice"))

	purger := NewPurger(env.db, env.store, env.clock, nil, time.Hour)
	path := filepath.Join(env.store.Root(), "a.txt")

	n, err := purger.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = os.Stat(path)
	require.NoError(t, err, "file kept during retention")

	env.clock.Advance(2 * time.Hour)
	n, err = purger.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	var row models.Attachment
	require.NoError(t, env.db.First(&row, post.Attachments[0].ID).Error)
	assert.True(t, row.FilePurged)

	n, err = purger.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
