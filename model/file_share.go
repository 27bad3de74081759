package model

import (
	"time"

	"gorm.io/gorm"
)

// ShareLink is a bearer token for a file. One link exists per (file, creator).
type ShareLink struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	FileID    string `gorm:"column:file_id;type:varchar(36);not null;uniqueIndex:uk_share_file_creator,priority:1" json:"file_id"`
	CreatedBy string `gorm:"column:created_by;type:varchar(36);not null;uniqueIndex:uk_share_file_creator,priority:2" json:"created_by"`

	ShareToken string     `gorm:"column:share_token;size:64;not null;uniqueIndex" json:"share_token"`
	IsPublic   bool       `gorm:"column:is_public;not null;default:false" json:"is_public"`
	ExpiresAt  *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (ShareLink) TableName() string {
	return "file_shares"
}

// BeforeCreate assigns a UUID when none is set.
func (s *ShareLink) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// Usable reports whether the link grants access at the given time.
func (s *ShareLink) Usable(now time.Time) bool {
	if !s.IsPublic {
		return false
	}
	return s.ExpiresAt == nil || now.Before(*s.ExpiresAt)
}
