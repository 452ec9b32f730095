package services

import (
	"context"

	"github.com/yjchoi-grove/vibe-coding/models"
)

// Stats holds board-wide counts of live rows.
type Stats struct {
	UserCount       int64 `json:"user_count"`
	PostCount       int64 `json:"post_count"`
	CommentCount    int64 `json:"comment_count"`
	AttachmentCount int64 `json:"attachment_count"`
}

// Stats counts active users and non-deleted posts, comments and attachments.
// A failing count is logged and reported as 0 rather than failing the call.
func (b *Board) Stats(ctx context.Context) Stats {
	var s Stats
	db := b.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Where("is_active = ?", true).Count(&s.UserCount).Error; err != nil {
		b.log.Sugar().Warnf("count users failed: %v", err)
	}
	if err := db.Model(&models.Post{}).Where("is_delete = ?", false).Count(&s.PostCount).Error; err != nil {
		b.log.Sugar().Warnf("count posts failed: %v", err)
	}
	if err := db.Model(&models.Comment{}).Where("is_delete = ?", false).Count(&s.CommentCount).Error; err != nil {
		b.log.Sugar().Warnf("count comments failed: %v", err)
	}
	if err := db.Model(&models.Attachment{}).Where("is_delete = ?", false).Count(&s.AttachmentCount).Error; err != nil {
		b.log.Sugar().Warnf("count attachments failed: %v", err)
	}
	return s
}
