package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestDenied   = "denied"
)

type AccessRequest struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	FileID      string `gorm:"column:file_id;type:varchar(36);not null;index:idx_request_file_requester,priority:1" json:"file_id"`
	RequestedBy string `gorm:"column:requested_by;type:varchar(36);not null;index:idx_request_file_requester,priority:2" json:"requested_by"`
	OwnerID     string `gorm:"column:owner_id;type:varchar(36);not null;index" json:"owner_id"`

	RequestedPermission PermissionType `gorm:"column:requested_permission;type:varchar(16);not null" json:"requested_permission"`
	Message             *string        `gorm:"column:message;type:text" json:"message,omitempty"`

	Status      string     `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `gorm:"column:responded_at" json:"responded_at,omitempty"`
	RespondedBy *string    `gorm:"column:responded_by;type:varchar(36)" json:"responded_by,omitempty"`
}

// TableName returns the database table name.
func (AccessRequest) TableName() string {
	return "access_requests"
}

// BeforeCreate assigns a UUID when none is set.
func (r *AccessRequest) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}
