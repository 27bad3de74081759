package service

import (
	"Mini_Drive/internal/repo"
	"Mini_Drive/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Access sources, in resolution order.
const (
	AccessViaOwner = "owner"
	AccessViaRole  = "admin_role"
	AccessViaGrant = "grant"
	AccessViaShare = "share_link"
)

// AccessDecision is the result of resolving a caller's access to a file.
type AccessDecision struct {
	FileID           string               `json:"file_id"`
	Level            model.PermissionType `json:"level,omitempty"`
	Source           string               `json:"source,omitempty"`
	CanRequestAccess bool                 `json:"can_request_access"`
}

// Allows reports whether the decision covers the required level.
func (d *AccessDecision) Allows(required model.PermissionType) bool {
	return d != nil && d.Level.Covers(required)
}

func loadFile(ctx context.Context, db *gorm.DB, fileID string) (*model.File, error) {
	var file model.File
	if err := db.WithContext(ctx).Where("id = ?", fileID).First(&file).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

func findGrant(ctx context.Context, db *gorm.DB, fileID, userID string) (*model.PermissionGrant, error) {
	var grant model.PermissionGrant
	err := db.WithContext(ctx).Where("file_id = ? AND user_id = ?", fileID, userID).First(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

// resolveFor applies the resolution rules to an already loaded file. First match wins:
// owner, admin role, explicit grant, usable share link for this file.
func resolveFor(ctx context.Context, file *model.File, callerID, shareToken string) (*AccessDecision, error) {
	decision := &AccessDecision{FileID: file.ID}
	if callerID != "" {
		if callerID == file.OwnerID {
			decision.Level, decision.Source = model.PermissionOwner, AccessViaOwner
			return decision, nil
		}
		admin, err := IsAdmin(ctx, callerID)
		if err != nil {
			return nil, err
		}
		if admin {
			decision.Level, decision.Source = model.PermissionAdmin, AccessViaRole
			return decision, nil
		}
		grant, err := findGrant(ctx, repo.Db, file.ID, callerID)
		if err != nil {
			return nil, err
		}
		if grant != nil && grant.PermissionType.Grantable() {
			decision.Level, decision.Source = grant.PermissionType, AccessViaGrant
			return decision, nil
		}
	}
	if shareToken != "" {
		link, err := lookupShareLink(ctx, shareToken)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if link != nil && link.FileID == file.ID && link.Usable(time.Now()) {
			decision.Level, decision.Source = model.PermissionView, AccessViaShare
			return decision, nil
		}
	}
	decision.CanRequestAccess = callerID != ""
	return decision, nil
}

// ResolveAccess reports what the caller may do with a file.
func ResolveAccess(ctx context.Context, fileID, callerID, shareToken string) (*model.File, *AccessDecision, error) {
	file, err := loadFile(ctx, repo.Db, fileID)
	if err != nil {
		return nil, nil, err
	}
	decision, err := resolveFor(ctx, file, callerID, shareToken)
	if err != nil {
		return nil, nil, err
	}
	return file, decision, nil
}

// Authorize loads the file and fails unless the caller holds the required level.
func Authorize(ctx context.Context, fileID, callerID, shareToken string, required model.PermissionType) (*model.File, *AccessDecision, error) {
	file, decision, err := ResolveAccess(ctx, fileID, callerID, shareToken)
	if err != nil {
		return nil, nil, err
	}
	if decision.Allows(required) {
		return file, decision, nil
	}
	if callerID == "" {
		return nil, nil, ErrUnauthenticated
	}
	return nil, nil, &AccessDeniedError{
		FileID:           fileID,
		Required:         required,
		CanRequestAccess: decision.CanRequestAccess,
	}
}
