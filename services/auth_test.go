package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "Alice")
	ctx := context.Background()

	user, err := env.board.Authenticate(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.DisplayName)
	require.NotNil(t, user.LastLoginAt)
	assert.True(t, user.LastLoginAt.Equal(env.clock.Now()))

	_, err = env.board.Authenticate(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticateLocksAfterFailures(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "Alice")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.board.Authenticate(ctx, "alice", "wrong")
		assert.ErrorIs(t, err, ErrUnauthorized)
	}
	_, err := env.board.Authenticate(ctx, "alice", "password123")
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, env.board.SetPassword(ctx, "alice", "another-pass"))
	_, err = env.board.Authenticate(ctx, "alice", "another-pass")
	assert.NoError(t, err)
}

func TestAuthenticateResetsFailureCount(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "Alice")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _ = env.board.Authenticate(ctx, "alice", "wrong")
	}
	_, err := env.board.Authenticate(ctx, "alice", "password123")
	require.NoError(t, err)
	_, _ = env.board.Authenticate(ctx, "alice", "wrong")
	_, err = env.board.Authenticate(ctx, "alice", "password123")
	assert.NoError(t, err)
}

func TestAuthenticateInactive(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "Alice")
	ctx := context.Background()
	require.NoError(t, env.board.SetActive(ctx, "alice", false))

	_, err := env.board.Authenticate(ctx, "alice", "password123")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateUserRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.board.CreateUser(ctx, "alice", "", "short")
	assert.ErrorIs(t, err, ErrValidation)

	user, err := env.board.CreateUser(ctx, "alice", "", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.DisplayName)
	assert.True(t, user.Active)

	_, err = env.board.CreateUser(ctx, "alice", "Again", "password123")
	assert.ErrorIs(t, err, ErrValidation)

	assert.ErrorIs(t, env.board.SetPassword(ctx, "ghost", "password123"), ErrNotFound)
	_, err = env.board.GetUser(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "Alice")
	ctx := context.Background()
	post := env.createPost(t, "alice", "p")
	gone := env.createPost(t, "alice", "q")
	_, err := env.board.CreateComment(ctx, post.ID, "alice", "c", 0)
	require.NoError(t, err)
	require.NoError(t, env.board.DeletePost(ctx, gone.ID, "alice"))

	s := env.board.Stats(ctx)
	assert.Equal(t, Stats{UserCount: 1, PostCount: 1, CommentCount: 1}, s)
}
