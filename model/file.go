package model

import (
	"time"

	"gorm.io/gorm"
)

type File struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	OwnerID string `gorm:"column:owner_id;type:varchar(36);not null;index" json:"owner_id"`

	Name      string `gorm:"column:name;size:255;not null" json:"name"`
	SizeBytes int64  `gorm:"column:size_bytes;not null;default:0" json:"size_bytes"`
	MimeType  string `gorm:"column:mime_type;size:255;not null;default:''" json:"mime_type"`

	// StoragePath is the object key inside the bucket: <owner_id>/<unique name>.
	StoragePath string `gorm:"column:storage_path;size:512;not null;uniqueIndex" json:"storage_path"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName returns the database table name.
func (File) TableName() string {
	return "files"
}

// BeforeCreate assigns a UUID when none is set.
func (f *File) BeforeCreate(tx *gorm.DB) error {
	assignID(&f.ID)
	return nil
}
