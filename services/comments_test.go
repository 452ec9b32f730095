package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteCommentTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, "alice", "p")
	c, err := env.board.CreateComment(ctx, post.ID, "bob", "hi", 0)
	require.NoError(t, err)

	assert.ErrorIs(t, env.board.DeleteComment(ctx, c.ID, "alice"), ErrForbidden)
	require.NoError(t, env.board.DeleteComment(ctx, c.ID, "bob"))
	assert.ErrorIs(t, env.board.DeleteComment(ctx, c.ID, "bob"), ErrNotFound)
}

func TestDeletedParentOrphansReplies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, "alice", "p")

	parent, err := env.board.CreateComment(ctx, post.ID, "bob", "parent", 0)
	require.NoError(t, err)
	env.clock.Advance(time.Second)
	reply, err := env.board.CreateComment(ctx, post.ID, "carol", "reply", parent.ID)
	require.NoError(t, err)
	env.clock.Advance(time.Second)
	other, err := env.board.CreateComment(ctx, post.ID, "carol", "other", 0)
	require.NoError(t, err)

	tree, err := env.board.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, []uint{reply.ID}, ids(tree[0].Replies))

	require.NoError(t, env.board.DeleteComment(ctx, parent.ID, "bob"))

	tree, err = env.board.ListComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{other.ID}, ids(tree))

	// the reply row itself is untouched
	_, err = env.board.activeComment(ctx, reply.ID)
	assert.NoError(t, err)
}

func TestCreateCommentParentRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, "alice", "p")
	otherPost := env.createPost(t, "alice", "q")

	top, err := env.board.CreateComment(ctx, post.ID, "bob", "top", 0)
	require.NoError(t, err)
	reply, err := env.board.CreateComment(ctx, post.ID, "bob", "reply", top.ID)
	require.NoError(t, err)
	assert.Equal(t, top.ID, reply.ParentID)

	_, err = env.board.CreateComment(ctx, post.ID, "bob", "deeper", reply.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.board.CreateComment(ctx, otherPost.ID, "bob", "cross", top.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.board.CreateComment(ctx, post.ID, "bob", "missing", 999)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.board.CreateComment(ctx, post.ID, "bob", "   ", 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.board.CreateComment(ctx, 999, "bob", "nowhere", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateComment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, "alice", "p")
	c, err := env.board.CreateComment(ctx, post.ID, "bob", "hi", 0)
	require.NoError(t, err)

	_, err = env.board.UpdateComment(ctx, c.ID, "alice", "mine now")
	assert.ErrorIs(t, err, ErrForbidden)

	env.clock.Advance(time.Hour)
	updated, err := env.board.UpdateComment(ctx, c.ID, "bob", "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.True(t, updated.UpdatedAt.After(c.UpdatedAt))

	_, err = env.board.UpdateComment(ctx, 999, "bob", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListCommentsOfDeletedPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, "alice", "p")
	require.NoError(t, env.board.DeletePost(ctx, post.ID, "alice"))

	_, err := env.board.ListComments(ctx, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
