package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// PermissionType is a capability level on a file. Levels are ordered view < edit < admin.
type PermissionType string

const (
	PermissionView  PermissionType = "view"
	PermissionEdit  PermissionType = "edit"
	PermissionAdmin PermissionType = "admin"

	// PermissionOwner is never stored; it is the level an owner resolves to.
	PermissionOwner PermissionType = "owner"
)

// Rank returns the position of p in the capability order. Unknown levels rank 0.
func (p PermissionType) Rank() int {
	switch p {
	case PermissionView:
		return 1
	case PermissionEdit:
		return 2
	case PermissionAdmin:
		return 3
	case PermissionOwner:
		return 4
	default:
		return 0
	}
}

// Covers reports whether p grants at least the required level.
func (p PermissionType) Covers(required PermissionType) bool {
	return p.Rank() > 0 && p.Rank() >= required.Rank()
}

// Grantable reports whether p may be requested or stored on a grant.
func (p PermissionType) Grantable() bool {
	return p == PermissionView || p == PermissionEdit || p == PermissionAdmin
}

// ParsePermission normalizes user input; empty input means view.
func ParsePermission(raw string) (PermissionType, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return PermissionView, true
	}
	p := PermissionType(raw)
	return p, p.Grantable()
}

// PermissionGrant gives a non-owner an explicit level on a file.
type PermissionGrant struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	FileID string `gorm:"column:file_id;type:varchar(36);not null;uniqueIndex:uk_permission_file_user,priority:1" json:"file_id"`
	UserID string `gorm:"column:user_id;type:varchar(36);not null;uniqueIndex:uk_permission_file_user,priority:2;index" json:"user_id"`

	PermissionType PermissionType `gorm:"column:permission_type;type:varchar(16);not null" json:"permission_type"`
	GrantedBy      string         `gorm:"column:granted_by;type:varchar(36);not null" json:"granted_by"`
	GrantedAt      time.Time      `gorm:"column:granted_at;not null" json:"granted_at"`
}

// TableName returns the database table name.
func (PermissionGrant) TableName() string {
	return "file_permissions"
}

// BeforeCreate assigns a UUID when none is set.
func (g *PermissionGrant) BeforeCreate(tx *gorm.DB) error {
	assignID(&g.ID)
	return nil
}
