package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/yjchoi-grove/vibe-coding/models"
	"github.com/yjchoi-grove/vibe-coding/utils"
)

const maxCommentLength = 500

// ListComments returns the comment tree of an active post with replies oldest first.
func (b *Board) ListComments(ctx context.Context, postID uint) ([]CommentView, error) {
	if _, err := activePost(ctx, b.db, postID); err != nil {
		return nil, err
	}
	var comments []models.Comment
	if err := b.db.WithContext(ctx).Where("post_no = ? AND is_delete = ?", postID, false).
		Find(&comments).Error; err != nil {
		return nil, internal("failed to load comments", err)
	}
	authorIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
	}
	names, err := b.displayNames(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	return BuildCommentTree(comments, RepliesAscending, names), nil
}

func normalizeComment(content string) (string, error) {
	content = strings.TrimSpace(utils.SanitizeContent(content))
	if content == "" {
		return "", invalid("content cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return "", invalid("comment must be at most %d characters", maxCommentLength)
	}
	return content, nil
}

// CreateComment adds a comment to an active post. A nonzero parentID must name an
// active top-level comment of the same post; replies to replies are rejected.
func (b *Board) CreateComment(ctx context.Context, postID uint, requesterID, content string, parentID uint) (*CommentView, error) {
	content, err := normalizeComment(content)
	if err != nil {
		return nil, err
	}
	if _, err := activePost(ctx, b.db, postID); err != nil {
		return nil, err
	}
	if parentID != 0 {
		parent, err := b.activeComment(ctx, parentID)
		if errors.Is(err, ErrNotFound) {
			return nil, invalid("parent comment not found")
		}
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID {
			return nil, invalid("parent comment belongs to another post")
		}
		if parent.ParentCommentID != 0 {
			return nil, invalid("replies can only be added to top-level comments")
		}
	}

	now := b.clock.Now()
	comment := models.Comment{
		PostID:          postID,
		AuthorID:        requesterID,
		Content:         content,
		ParentCommentID: parentID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := b.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, internal("failed to create comment", err)
	}
	b.invalidateLists(ctx)
	return b.commentView(ctx, comment)
}

// UpdateComment changes the text of a comment owned by the requester.
func (b *Board) UpdateComment(ctx context.Context, commentID uint, requesterID, content string) (*CommentView, error) {
	content, err := normalizeComment(content)
	if err != nil {
		return nil, err
	}
	comment, err := b.ownedComment(ctx, commentID, requesterID, "you can only edit your own comment")
	if err != nil {
		return nil, err
	}
	now := b.clock.Now()
	if err := b.db.WithContext(ctx).Model(&models.Comment{}).Where("seq = ?", comment.ID).
		Updates(map[string]interface{}{"contents": content, "updated_at": now}).Error; err != nil {
		return nil, internal("failed to update comment", err)
	}
	comment.Content = content
	comment.UpdatedAt = now
	return b.commentView(ctx, *comment)
}

// DeleteComment soft-deletes a single comment owned by the requester. Replies are not touched.
func (b *Board) DeleteComment(ctx context.Context, commentID uint, requesterID string) error {
	comment, err := b.ownedComment(ctx, commentID, requesterID, "you can only delete your own comment")
	if err != nil {
		return err
	}
	res := b.db.WithContext(ctx).Model(&models.Comment{}).
		Where("seq = ? AND is_delete = ?", comment.ID, false).
		Updates(map[string]interface{}{"is_delete": true, "updated_at": b.clock.Now()})
	if res.Error != nil {
		return internal("failed to delete comment", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("comment not found")
	}
	softDeleteTotal.WithLabelValues("comment").Inc()
	b.invalidateLists(ctx)
	return nil
}

func (b *Board) activeComment(ctx context.Context, commentID uint) (*models.Comment, error) {
	var comment models.Comment
	err := b.db.WithContext(ctx).Where("seq = ? AND is_delete = ?", commentID, false).First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("comment not found")
	}
	if err != nil {
		return nil, internal("failed to load comment", err)
	}
	return &comment, nil
}

func (b *Board) ownedComment(ctx context.Context, commentID uint, requesterID, denied string) (*models.Comment, error) {
	comment, err := b.activeComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != requesterID {
		return nil, forbidden(denied)
	}
	return comment, nil
}

func (b *Board) commentView(ctx context.Context, c models.Comment) (*CommentView, error) {
	names, err := b.displayNames(ctx, []string{c.AuthorID})
	if err != nil {
		return nil, err
	}
	view := toCommentView(c, names)
	return &view, nil
}
