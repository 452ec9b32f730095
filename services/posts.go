package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/yjchoi-grove/vibe-coding/models"
	"github.com/yjchoi-grove/vibe-coding/utils"
)

const (
	// PageSize is the fixed number of posts per list page.
	PageSize       = 10
	maxTitleLength = 200
)

// ListQuery holds the list filters accepted from clients.
type ListQuery struct {
	Page       int
	Search     string
	SearchType string // title, content, author; anything else searches title and content
	AuthorID   string
	SortBy     string // createdAt or view_cnt
	SortOrder  string // asc or desc
}

// PostSummary is one row of the post list.
type PostSummary struct {
	ID           uint       `json:"id"`
	Title        string     `json:"title"`
	Author       AuthorView `json:"author"`
	CreatedAt    time.Time  `json:"createdAt"`
	ViewCount    int64      `json:"view_cnt"`
	CommentCount int64      `json:"commentCount"`
}

// PostList is a page of posts plus the total number of matches.
type PostList struct {
	Posts []PostSummary `json:"posts"`
	Total int64         `json:"total"`
}

// PostDetail is a post with its active attachments and comment tree.
type PostDetail struct {
	ID          uint             `json:"id"`
	Title       string           `json:"title"`
	Content     string           `json:"content"`
	VideoURL    *string          `json:"videoUrl"`
	ImageURL    *string          `json:"imgUrl"`
	Author      AuthorView       `json:"author"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	ViewCount   int64            `json:"view_cnt"`
	Attachments []AttachmentView `json:"attachments"`
	Comments    []CommentView    `json:"comments"`
}

// PostInput is the editable part of a post as received from a client.
type PostInput struct {
	Title    string
	Content  string
	VideoURL string
	ImageURL string
}

// PostUpdate is PostInput plus optional attachment changes.
// Attachments are only touched when ReplaceAttachments is set.
type PostUpdate struct {
	PostInput
	ReplaceAttachments bool
	KeepAttachmentIDs  []uint
	Files              []Upload
}

type cleanPost struct {
	title    string
	content  string
	videoURL *string
	imageURL *string
}

func normalizePost(in PostInput) (cleanPost, error) {
	title := strings.TrimSpace(utils.SanitizeTitle(in.Title))
	if title == "" {
		return cleanPost{}, invalid("title cannot be empty")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return cleanPost{}, invalid("title must be at most %d characters", maxTitleLength)
	}
	content := utils.SanitizeContent(in.Content)
	if strings.TrimSpace(content) == "" {
		return cleanPost{}, invalid("content cannot be empty")
	}
	videoURL := strings.TrimSpace(in.VideoURL)
	if !utils.IsValidVideoURL(videoURL) {
		return cleanPost{}, invalid("video URL must be a YouTube or Naver TV link")
	}
	imageURL := strings.TrimSpace(in.ImageURL)
	if !utils.IsValidImageURL(imageURL) {
		return cleanPost{}, invalid("image URL must point to a jpg, jpeg, png, gif or webp file")
	}
	return cleanPost{title: title, content: content, videoURL: optional(videoURL), imageURL: optional(imageURL)}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// listCacheKey names the cached page, or returns "" when the page is not cached.
// Searches would explode the key space. Pages ordered by view count are not
// cached either, since every detail read changes that order.
func listCacheKey(authorID, search, sortCol, dir string, page int) string {
	if search != "" || sortCol == "view_cnt" {
		return ""
	}
	return fmt.Sprintf("%sauthor=%s:sort=%s:%s:page=%d", listCachePrefix, authorID, sortCol, dir, page)
}

// ListPosts returns one page of active posts.
func (b *Board) ListPosts(ctx context.Context, q ListQuery) (*PostList, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	search := strings.TrimSpace(q.Search)
	sortCol, dir := "created_at", "DESC"
	if q.SortBy == "view_cnt" {
		sortCol = "view_cnt"
	}
	if strings.EqualFold(q.SortOrder, "asc") {
		dir = "ASC"
	}

	cacheKey := listCacheKey(q.AuthorID, search, sortCol, dir, q.Page)
	if cacheKey != "" {
		var cached PostList
		if b.cache.GetJSON(ctx, cacheKey, &cached) {
			return &cached, nil
		}
	}

	base := func() *gorm.DB {
		tx := b.db.WithContext(ctx).Model(&models.Post{}).Where("is_delete = ?", false)
		if q.AuthorID != "" {
			tx = tx.Where("author_usrid = ?", q.AuthorID)
		}
		if search == "" {
			return tx
		}
		pattern := "%" + strings.ToLower(search) + "%"
		switch q.SearchType {
		case "title":
			return tx.Where("LOWER(title) LIKE ?", pattern)
		case "content":
			return tx.Where("LOWER(contents) LIKE ?", pattern)
		case "author":
			authors := b.db.WithContext(ctx).Model(&models.User{}).Select("usr_id").Where("LOWER(usr_nm) LIKE ?", pattern)
			return tx.Where("author_usrid IN (?)", authors)
		default:
			return tx.Where("LOWER(title) LIKE ? OR LOWER(contents) LIKE ?", pattern, pattern)
		}
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, internal("failed to count posts", err)
	}
	var posts []models.Post
	if err := base().Order(sortCol + " " + dir).Order("post_no " + dir).
		Offset((q.Page - 1) * PageSize).Limit(PageSize).Find(&posts).Error; err != nil {
		return nil, internal("failed to list posts", err)
	}

	ids := make([]uint, 0, len(posts))
	authorIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
		authorIDs = append(authorIDs, p.AuthorID)
	}
	names, err := b.displayNames(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	counts, err := b.commentCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := &PostList{Posts: make([]PostSummary, 0, len(posts)), Total: total}
	for _, p := range posts {
		out.Posts = append(out.Posts, PostSummary{
			ID:           p.ID,
			Title:        p.Title,
			Author:       authorView(p.AuthorID, names),
			CreatedAt:    p.CreatedAt,
			ViewCount:    p.ViewCount,
			CommentCount: counts[p.ID],
		})
	}
	if cacheKey != "" {
		b.cache.SetJSON(ctx, cacheKey, out, b.listCacheTTL)
	}
	return out, nil
}

func (b *Board) commentCounts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		PostID uint
		Cnt    int64
	}
	if err := b.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_no AS post_id, COUNT(*) AS cnt").
		Where("post_no IN ? AND is_delete = ?", postIDs, false).
		Group("post_no").Scan(&rows).Error; err != nil {
		return nil, internal("failed to count comments", err)
	}
	for _, r := range rows {
		counts[r.PostID] = r.Cnt
	}
	return counts, nil
}

// GetPostDetail returns an active post and counts the view.
// Replies in the comment tree are newest first.
func (b *Board) GetPostDetail(ctx context.Context, postID uint) (*PostDetail, error) {
	post, err := activePost(ctx, b.db, postID)
	if err != nil {
		return nil, err
	}
	// UpdateColumn leaves updated_at alone; a view is not an edit
	if err := b.db.WithContext(ctx).Model(&models.Post{}).Where("post_no = ?", post.ID).
		UpdateColumn("view_cnt", gorm.Expr("view_cnt + ?", 1)).Error; err != nil {
		return nil, internal("failed to count view", err)
	}
	post.ViewCount++
	return b.detail(ctx, post)
}

func (b *Board) detail(ctx context.Context, post *models.Post) (*PostDetail, error) {
	var attachments []models.Attachment
	if err := b.db.WithContext(ctx).Where("post_no = ? AND is_delete = ?", post.ID, false).
		Order("seq ASC").Find(&attachments).Error; err != nil {
		return nil, internal("failed to load attachments", err)
	}
	var comments []models.Comment
	if err := b.db.WithContext(ctx).Where("post_no = ? AND is_delete = ?", post.ID, false).
		Find(&comments).Error; err != nil {
		return nil, internal("failed to load comments", err)
	}

	authorIDs := []string{post.AuthorID}
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
	}
	names, err := b.displayNames(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	return &PostDetail{
		ID:          post.ID,
		Title:       post.Title,
		Content:     post.Content,
		VideoURL:    post.VideoURL,
		ImageURL:    post.ImageURL,
		Author:      authorView(post.AuthorID, names),
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
		ViewCount:   post.ViewCount,
		Attachments: toAttachmentViews(attachments),
		Comments:    BuildCommentTree(comments, RepliesDescending, names),
	}, nil
}

// CreatePost stores a post and its files in one transaction. Files are validated
// up front; files written before a failure are removed again.
func (b *Board) CreatePost(ctx context.Context, requesterID string, in PostInput, files []Upload) (*PostDetail, error) {
	clean, err := normalizePost(in)
	if err != nil {
		return nil, err
	}
	if err := b.ValidateUploads(files); err != nil {
		return nil, err
	}

	now := b.clock.Now()
	post := models.Post{
		Title:     clean.title,
		Content:   clean.content,
		ImageURL:  clean.imageURL,
		VideoURL:  clean.videoURL,
		AuthorID:  requesterID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	var written []string
	err = b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return internal("failed to create post", err)
		}
		var err error
		_, written, err = b.writeUploads(ctx, tx, post.ID, files)
		return err
	})
	if err != nil {
		b.discard(ctx, written)
		return nil, asBoardError(err, "failed to create post")
	}

	b.invalidateLists(ctx)
	return b.detail(ctx, &post)
}

// UpdatePost edits a post owned by the requester and optionally replaces its attachments.
func (b *Board) UpdatePost(ctx context.Context, postID uint, requesterID string, in PostUpdate) (*PostDetail, error) {
	clean, err := normalizePost(in.PostInput)
	if err != nil {
		return nil, err
	}
	if err := b.ValidateUploads(in.Files); err != nil {
		return nil, err
	}
	post, err := b.ownedPost(ctx, b.db, postID, requesterID)
	if err != nil {
		return nil, err
	}

	now := b.clock.Now()
	var replaced []models.Attachment
	var written []string
	err = b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).Where("post_no = ?", post.ID).Updates(map[string]interface{}{
			"title":      clean.title,
			"contents":   clean.content,
			"img_url":    clean.imageURL,
			"video_url":  clean.videoURL,
			"updated_at": now,
		}).Error; err != nil {
			return internal("failed to update post", err)
		}
		if !in.ReplaceAttachments {
			return nil
		}
		var err error
		if replaced, err = b.replaceInTx(ctx, tx, post.ID, in.KeepAttachmentIDs); err != nil {
			return err
		}
		_, written, err = b.writeUploads(ctx, tx, post.ID, in.Files)
		return err
	})
	if err != nil {
		b.discard(ctx, written)
		return nil, asBoardError(err, "failed to update post")
	}
	b.purgeFiles(ctx, replaced)
	b.invalidateLists(ctx)

	post.Title, post.Content = clean.title, clean.content
	post.ImageURL, post.VideoURL = clean.imageURL, clean.videoURL
	post.UpdatedAt = now
	return b.detail(ctx, post)
}

// DeletePost soft-deletes a post with all of its active comments and attachments.
// Either every row is flagged or none is. Backing files are left for the purger.
func (b *Board) DeletePost(ctx context.Context, postID uint, requesterID string) error {
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := b.ownedPost(ctx, tx, postID, requesterID)
		if err != nil {
			return err
		}
		flag := map[string]interface{}{"is_delete": true, "updated_at": b.clock.Now()}
		if err := tx.Model(&models.Post{}).Where("post_no = ?", post.ID).Updates(flag).Error; err != nil {
			return internal("failed to delete post", err)
		}
		if err := tx.Model(&models.Attachment{}).Where("post_no = ? AND is_delete = ?", post.ID, false).
			Updates(flag).Error; err != nil {
			return internal("failed to delete attachments", err)
		}
		if err := tx.Model(&models.Comment{}).Where("post_no = ? AND is_delete = ?", post.ID, false).
			Updates(flag).Error; err != nil {
			return internal("failed to delete comments", err)
		}
		return nil
	})
	if err != nil {
		return asBoardError(err, "failed to delete post")
	}
	softDeleteTotal.WithLabelValues("post").Inc()
	b.invalidateLists(ctx)
	return nil
}
