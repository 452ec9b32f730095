package models

import "time"

// Post represents a board post. Rows are never physically removed; Deleted marks them gone.
type Post struct {
	ID        uint      `gorm:"column:post_no;primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"column:title;size:200;not null" json:"title"`
	Content   string    `gorm:"column:contents;type:text" json:"content"`
	ImageURL  *string   `gorm:"column:img_url;size:500" json:"img_url"`
	VideoURL  *string   `gorm:"column:video_url;size:500" json:"video_url"`
	AuthorID  string    `gorm:"column:author_usrid;size:50;not null;index" json:"author_id"`
	ViewCount int64     `gorm:"column:view_cnt;not null;default:0" json:"view_cnt"`
	Deleted   bool      `gorm:"column:is_delete;not null;default:false;index" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Post) TableName() string { return "posts" }
