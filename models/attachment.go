package models

import "time"

// Attachment records an uploaded file bound to a post.
// FilePurged is set once the backing file of a deleted attachment has been removed from storage.
type Attachment struct {
	ID               uint      `gorm:"column:seq;primaryKey;autoIncrement" json:"id"`
	PostID           uint      `gorm:"column:post_no;not null;index" json:"post_id"`
	StoredFilename   string    `gorm:"column:file_nm;size:255;not null" json:"filename"`
	OriginalFilename string    `gorm:"column:org_file_nm;size:255;not null" json:"original_filename"`
	StoragePath      string    `gorm:"column:file_path;size:500;not null" json:"-"`
	SizeBytes        int64     `gorm:"column:file_size;not null" json:"file_size"`
	MimeType         string    `gorm:"column:mime_type;size:100;not null" json:"mime_type"`
	Deleted          bool      `gorm:"column:is_delete;not null;default:false" json:"-"`
	FilePurged       bool      `gorm:"column:file_purged;not null;default:false" json:"-"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at;index" json:"updated_at"`
}

func (Attachment) TableName() string { return "attachments" }

// All returns every model the board migrates.
func All() []interface{} {
	return []interface{}{&User{}, &Post{}, &Comment{}, &Attachment{}}
}
