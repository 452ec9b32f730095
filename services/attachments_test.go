package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yjchoi-grove/vibe-coding/models"
)

func TestSameNameUploadsGetSuffix(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, "alice", "p")

	first, err := env.board.AddAttachments(ctx, post.ID, "alice", []Upload{memUpload("a.txt", []byte("one"))})
	require.NoError(t, err)
	second, err := env.board.AddAttachments(ctx, post.ID, "alice", []Upload{memUpload("a.txt", []byte("two"))})
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, "a.txt", first[0].Filename)
	assert.Equal(t, "a_1.txt", second[0].Filename)
	assert.Equal(t, "a.txt", second[0].OriginalFilename)
	assert.Equal(t, "text/plain; charset=utf-8", second[0].MimeType)

	active, err := env.board.ListPostAttachments(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestAddAttachmentsRequiresOwner(t *testing.T) {
	env := newTestEnv(t)
	post := env.createPost(t, "alice", "p")
	_, err := env.board.AddAttachments(context.Background(), post.ID, "bob", []Upload{memUpload("a.txt", []byte("x"))})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUploadValidationRejectsBeforeWriting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.board.CreatePost(ctx, "alice", PostInput{Title: "t", Content: "c"}, []Upload{
		memUpload("ok.txt", []byte("fine")),
		memUpload("evil.exe", []byte("MZ")),
	})
	assert.ErrorIs(t, err, ErrValidation)

	big := memUpload("big.pdf", make([]byte, 65))
	_, err = env.board.CreatePost(ctx, "alice", PostInput{Title: "t", Content: "c"}, []Upload{big})
	assert.ErrorIs(t, err, ErrValidation)

	var posts int64
	require.NoError(t, env.db.Model(&models.Post{}).Count(&posts).Error)
	assert.Zero(t, posts)
	entries, err := os.ReadDir(env.store.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOversizedStreamRollsBackCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// declared size passes validation; the stream is larger than the limit
	liar := memUpload("b.txt", make([]byte, 100))
	liar.Size = 10
	_, err := env.board.CreatePost(ctx, "alice", PostInput{Title: "t", Content: "c"}, []Upload{
		memUpload("a.txt", []byte("first")),
		liar,
	})
	assert.ErrorIs(t, err, ErrValidation)

	var posts, attachments int64
	require.NoError(t, env.db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, env.db.Model(&models.Attachment{}).Count(&attachments).Error)
	assert.Zero(t, posts)
	assert.Zero(t, attachments)
	entries, err := os.ReadDir(env.store.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReplaceAttachmentsKeepsListed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post, err := env.board.CreatePost(ctx, "alice", PostInput{Title: "t", Content: "c"}, []Upload{
		memUpload("keep.txt", []byte("k")),
		memUpload("drop.txt", []byte("d")),
	})
	require.NoError(t, err)
	require.Len(t, post.Attachments, 2)
	keep, drop := post.Attachments[0], post.Attachments[1]

	active, err := env.board.ReplaceAttachments(ctx, post.ID, "alice",
		[]Upload{memUpload("new.txt", []byte("n"))}, []uint{keep.ID})
	require.NoError(t, err)

	var names []string
	for _, a := range active {
		names = append(names, a.Filename)
	}
	assert.ElementsMatch(t, []string{"keep.txt", "new.txt"}, names)

	var dropped models.Attachment
	require.NoError(t, env.db.First(&dropped, drop.ID).Error)
	assert.True(t, dropped.Deleted)
	assert.True(t, dropped.FilePurged)
	_, err = os.Stat(filepath.Join(env.store.Root(), "drop.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestUpdatePostReplacesAllAttachments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post, err := env.board.CreatePost(ctx, "alice", PostInput{Title: "t", Content: "c"}, []Upload{
		memUpload("a.txt", []byte("a")),
	})
	require.NoError(t, err)

	updated, err := env.board.UpdatePost(ctx, post.ID, "alice", PostUpdate{
		PostInput:          PostInput{Title: "t2", Content: "c2"},
		ReplaceAttachments: true,
		Files:              []Upload{memUpload("a.txt", []byte("b"))},
	})
	require.NoError(t, err)
	require.Len(t, updated.Attachments, 1)
	// the new file is written while the old one still exists; removal happens after commit
	assert.Equal(t, "a_1.txt", updated.Attachments[0].Filename)
	assert.NotEqual(t, post.Attachments[0].ID, updated.Attachments[0].ID)

	var old models.Attachment
	require.NoError(t, env.db.First(&old, post.Attachments[0].ID).Error)
	assert.True(t, old.Deleted)
	assert.True(t, old.FilePurged)
	_, err = os.Stat(filepath.Join(env.store.Root(), "a.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(env.store.Root(), "a_1.txt"))
	assert.NoError(t, err)
}

func TestCreatePostKeepsExtensionOfDotFile(t *testing.T) {
	env := newTestEnv(t)
	post, err := env.board.CreatePost(context.Background(), "alice", PostInput{Title: "t", Content: "c"}, []Upload{
		memUpload(".txt", []byte("x")),
	})
	require.NoError(t, err)
	require.Len(t, post.Attachments, 1)
	assert.Equal(t, "unnamed.txt", post.Attachments[0].Filename)
	assert.Equal(t, ".txt", post.Attachments[0].OriginalFilename)
}

func TestDeleteAttachment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post, err := env.board.CreatePost(ctx, "alice", PostInput{Title: "t", Content: "c"}, []Upload{
		memUpload("a.txt", []byte("a")),
	})
	require.NoError(t, err)
	other := env.createPost(t, "alice", "other")
	att := post.Attachments[0]

	assert.ErrorIs(t, env.board.DeleteAttachment(ctx, other.ID, att.ID, "alice"), ErrNotFound)
	assert.ErrorIs(t, env.board.DeleteAttachment(ctx, post.ID, att.ID, "bob"), ErrForbidden)
	require.NoError(t, env.board.DeleteAttachment(ctx, post.ID, att.ID, "alice"))
	assert.ErrorIs(t, env.board.DeleteAttachment(ctx, 0, att.ID, "alice"), ErrNotFound)

	_, _, err = env.board.OpenAttachment(ctx, 0, att.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = os.Stat(filepath.Join(env.store.Root(), "a.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteAttachmentSurvivesFileRemovalFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post, err := env.board.CreatePost(ctx, "alice", PostInput{Title: "t", Content: "c"}, []Upload{
		memUpload("a.txt", []byte("a")),
	})
	require.NoError(t, err)
	att := post.Attachments[0]

	// replace the file with a non-empty directory so removal fails
	path := filepath.Join(env.store.Root(), "a.txt")
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "x"), 0o755))

	require.NoError(t, env.board.DeleteAttachment(ctx, post.ID, att.ID, "alice"))

	var row models.Attachment
	require.NoError(t, env.db.First(&row, att.ID).Error)
	assert.True(t, row.Deleted)
	assert.False(t, row.FilePurged)
}

func TestOpenAttachment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post, err := env.board.CreatePost(ctx, "alice", PostInput{Title: "t", Content: "c"}, []Upload{
		memUpload("report.pdf", []byte("%PDF-1.4 test")),
	})
	require.NoError(t, err)
	att := post.Attachments[0]
	assert.Equal(t, "application/pdf", att.MimeType)

	view, rc, err := env.board.OpenAttachment(ctx, post.ID, att.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(body))
	assert.Equal(t, "report.pdf", view.OriginalFilename)

	all, err := env.board.ListAttachments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
