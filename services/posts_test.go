package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yjchoi-grove/vibe-coding/models"
)

func TestCreatePostThenDetailCountsView(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "Alice")
	ctx := context.Background()

	created, err := env.board.CreatePost(ctx, "alice", PostInput{Title: "Hello", Content: "World"}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), created.ViewCount)
	assert.Equal(t, "alice", created.Author.ID)
	assert.Equal(t, "Alice", created.Author.Name)
	assert.Empty(t, created.Attachments)
	assert.Empty(t, created.Comments)

	detail, err := env.board.GetPostDetail(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.ViewCount)
	assert.Equal(t, "Hello", detail.Title)

	var stored models.Post
	require.NoError(t, env.db.First(&stored, created.ID).Error)
	assert.Equal(t, int64(1), stored.ViewCount)
}

func TestCreatePostValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   PostInput
	}{
		{"empty title", PostInput{Title: "  ", Content: "x"}},
		{"tags only title", PostInput{Title: "<b></b>", Content: "x"}},
		{"empty content", PostInput{Title: "t", Content: ""}},
		{"long title", PostInput{Title: strings.Repeat("a", 201), Content: "x"}},
		{"bad video", PostInput{Title: "t", Content: "x", VideoURL: "https://vimeo.com/1"}},
		{"bad image", PostInput{Title: "t", Content: "x", ImageURL: "https://example.com/a.bmp"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.board.CreatePost(ctx, "alice", tc.in, nil)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	var count int64
	require.NoError(t, env.db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreatePostSanitizes(t *testing.T) {
	env := newTestEnv(t)
	post, err := env.board.CreatePost(context.Background(), "alice", PostInput{
		Title:    "<script>x</script>Tom & <i>Jerry</i>",
		Content:  `<p onclick="evil()">hi</p><script>alert(1)</script>`,
		VideoURL: "https://youtu.be/dQw4w9WgXcQ",
		ImageURL: "https://example.com/cat.PNG?size=2",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Tom &amp; Jerry", post.Title)
	assert.Equal(t, "<p>hi</p>", post.Content)
	require.NotNil(t, post.VideoURL)
	require.NotNil(t, post.ImageURL)
}

func TestDeletePostHidesAndCascades(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "Alice")
	ctx := context.Background()

	post, err := env.board.CreatePost(ctx, "alice", PostInput{Title: "t", Content: "c"},
		[]Upload{memUpload("a.txt", []byte("hello"))})
	require.NoError(t, err)
	top, err := env.board.CreateComment(ctx, post.ID, "bob", "first", 0)
	require.NoError(t, err)
	_, err = env.board.CreateComment(ctx, post.ID, "alice", "reply", top.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.board.DeletePost(ctx, post.ID, "bob"), ErrForbidden)
	require.NoError(t, env.board.DeletePost(ctx, post.ID, "alice"))

	list, err := env.board.ListPosts(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
	assert.Empty(t, list.Posts)

	_, err = env.board.GetPostDetail(ctx, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.board.DeletePost(ctx, post.ID, "alice"), ErrNotFound)

	var activeComments, activeAttachments int64
	require.NoError(t, env.db.Model(&models.Comment{}).Where("post_no = ? AND is_delete = ?", post.ID, false).Count(&activeComments).Error)
	require.NoError(t, env.db.Model(&models.Attachment{}).Where("post_no = ? AND is_delete = ?", post.ID, false).Count(&activeAttachments).Error)
	assert.Zero(t, activeComments)
	assert.Zero(t, activeAttachments)

	// rows are kept
	var rows int64
	require.NoError(t, env.db.Model(&models.Post{}).Where("post_no = ?", post.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestDeletePostRollsBackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post, err := env.board.CreatePost(ctx, "alice", PostInput{Title: "t", Content: "c"}, []Upload{
		memUpload("a.txt", []byte("a")),
	})
	require.NoError(t, err)

	// comments are flagged last; without their table the cascade fails after the post and attachments
	require.NoError(t, env.db.Migrator().DropTable(&models.Comment{}))

	err = env.board.DeletePost(ctx, post.ID, "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInternal)

	var stored models.Post
	require.NoError(t, env.db.First(&stored, post.ID).Error)
	assert.False(t, stored.Deleted)
	var att models.Attachment
	require.NoError(t, env.db.First(&att, post.Attachments[0].ID).Error)
	assert.False(t, att.Deleted)
}

func TestDeletePostMissing(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorIs(t, env.board.DeletePost(context.Background(), 42, "alice"), ErrNotFound)
}

func TestUpdatePostRequiresOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, "alice", "before")

	_, err := env.board.UpdatePost(ctx, post.ID, "bob", PostUpdate{PostInput: PostInput{Title: "x", Content: "y"}})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := env.board.UpdatePost(ctx, post.ID, "alice", PostUpdate{PostInput: PostInput{Title: "after", Content: "new"}})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Title)
	assert.True(t, updated.UpdatedAt.After(post.UpdatedAt))
	assert.Equal(t, post.CreatedAt.Unix(), updated.CreatedAt.Unix())
}

func TestListPostsPagingSearchAndSort(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "Alice Kim")
	env.addUser(t, "bob", "Bob Lee")
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		env.createPost(t, "alice", "alpha post")
	}
	golang := env.createPost(t, "bob", "Go tips")
	_, err := env.board.CreateComment(ctx, golang.ID, "alice", "nice", 0)
	require.NoError(t, err)
	_, err = env.board.GetPostDetail(ctx, golang.ID)
	require.NoError(t, err)

	first, err := env.board.ListPosts(ctx, ListQuery{Page: -3})
	require.NoError(t, err)
	assert.Equal(t, int64(13), first.Total)
	require.Len(t, first.Posts, PageSize)
	assert.Equal(t, golang.ID, first.Posts[0].ID)
	assert.Equal(t, int64(1), first.Posts[0].CommentCount)

	second, err := env.board.ListPosts(ctx, ListQuery{Page: 2})
	require.NoError(t, err)
	assert.Len(t, second.Posts, 3)

	byTitle, err := env.board.ListPosts(ctx, ListQuery{Search: "GO", SearchType: "title"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), byTitle.Total)

	byAuthor, err := env.board.ListPosts(ctx, ListQuery{Search: "bob", SearchType: "author"})
	require.NoError(t, err)
	require.Equal(t, int64(1), byAuthor.Total)
	assert.Equal(t, "Bob Lee", byAuthor.Posts[0].Author.Name)

	byContent, err := env.board.ListPosts(ctx, ListQuery{Search: "body of alpha", SearchType: "content"})
	require.NoError(t, err)
	assert.Equal(t, int64(12), byContent.Total)

	byViews, err := env.board.ListPosts(ctx, ListQuery{SortBy: "view_cnt", SortOrder: "asc"})
	require.NoError(t, err)
	assert.NotEqual(t, golang.ID, byViews.Posts[0].ID)

	mine, err := env.board.ListPosts(ctx, ListQuery{AuthorID: "bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine.Total)
}

func TestListCacheKey(t *testing.T) {
	assert.Equal(t, listCachePrefix+"author=:sort=created_at:DESC:page=2", listCacheKey("", "", "created_at", "DESC", 2))
	assert.Equal(t, listCachePrefix+"author=bob:sort=created_at:ASC:page=1", listCacheKey("bob", "", "created_at", "ASC", 1))
	assert.Empty(t, listCacheKey("", "hello", "created_at", "DESC", 1))
	assert.Empty(t, listCacheKey("", "", "view_cnt", "DESC", 1))
}
