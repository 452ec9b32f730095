package models

import "time"

// Comment is a reply to a post. ParentCommentID is 0 for top-level comments.
type Comment struct {
	ID              uint      `gorm:"column:seq;primaryKey;autoIncrement" json:"id"`
	PostID          uint      `gorm:"column:post_no;not null;index" json:"post_id"`
	AuthorID        string    `gorm:"column:author_usrid;size:50;not null" json:"author_id"`
	Content         string    `gorm:"column:contents;size:500" json:"content"`
	ParentCommentID uint      `gorm:"column:parent_cmmt_no;not null;default:0" json:"parent_id"`
	Deleted         bool      `gorm:"column:is_delete;not null;default:false" json:"-"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Comment) TableName() string { return "comments" }
