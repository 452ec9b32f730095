package models

import "time"

// User represents a board member. Passwords are stored as bcrypt hashes only.
type User struct {
	ID               string     `gorm:"column:usr_id;primaryKey;size:50" json:"id"`
	DisplayName      string     `gorm:"column:usr_nm;size:200;not null" json:"name"`
	PasswordHash     string     `gorm:"column:pwd;size:255;not null" json:"-"`
	Active           bool       `gorm:"column:is_active;not null" json:"active"`
	FailedLoginCount int        `gorm:"column:login_fail_cnt;not null;default:0" json:"-"`
	LastLoginAt      *time.Time `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	CreatedAt        time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (User) TableName() string { return "users" }
