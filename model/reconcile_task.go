package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	// ReconcileOrphanObject removes a stored object that no file row references.
	ReconcileOrphanObject = "orphan_object"
	// ReconcileDanglingFile removes a file row whose object is gone.
	ReconcileDanglingFile = "dangling_file"
)

const (
	TaskPending   = "pending"
	TaskRunning   = "running"
	TaskRetrying  = "retrying"
	TaskCompleted = "completed"
	TaskFailed    = "failed"
)

type ReconcileTask struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	Kind        string `gorm:"column:kind;type:varchar(32);not null" json:"kind"`
	Bucket      string `gorm:"column:bucket;type:varchar(64);not null" json:"bucket"`
	StoragePath string `gorm:"column:storage_path;size:512;not null" json:"storage_path"`
	FileID      string `gorm:"column:file_id;type:varchar(36)" json:"file_id,omitempty"`

	Status      string     `gorm:"column:status;type:varchar(32);index;not null" json:"status"`
	ErrorMsg    string     `gorm:"column:error_msg;type:text" json:"error_msg"`
	RetryCount  int        `gorm:"column:retry_count;default:0" json:"retry_count"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at" json:"next_retry_at"`
	StartedAt   *time.Time `gorm:"column:started_at" json:"started_at"`
	FinishedAt  *time.Time `gorm:"column:finished_at" json:"finished_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (ReconcileTask) TableName() string {
	return "reconcile_tasks"
}

// BeforeCreate assigns a UUID when none is set.
func (t *ReconcileTask) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	return nil
}
