package service

import (
	"Mini_Drive/config"
	"Mini_Drive/internal/repo"
	"Mini_Drive/model"
	"Mini_Drive/utils"
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"
)

const maxTokenAttempts = 3

// ShareURL builds the link a recipient opens for a token.
func ShareURL(fileID, token string) string {
	base := strings.TrimRight(config.AppConfig.ShareBaseURL, "/")
	return fmt.Sprintf("%s/file/%s?token=%s", base, url.PathEscape(fileID), url.QueryEscape(token))
}

// EnsureShareLink returns the caller's link for a file, creating it on first use.
// Sharing again keeps the token and applies the new visibility and expiry.
func EnsureShareLink(ctx context.Context, actorID, fileID string, isPublic bool, expiresAt *time.Time) (*model.ShareLink, error) {
	if _, _, err := Authorize(ctx, fileID, actorID, "", model.PermissionAdmin); err != nil {
		return nil, err
	}
	if expiresAt != nil && !expiresAt.After(time.Now()) {
		return nil, invalidf("expiry must be in the future")
	}

	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		link, err := findShareLink(ctx, fileID, actorID)
		if err != nil {
			return nil, err
		}
		if link != nil {
			return updateShareLink(ctx, link, isPublic, expiresAt)
		}

		token, err := utils.GenerateShareToken()
		if err != nil {
			return nil, err
		}
		link = &model.ShareLink{
			FileID:     fileID,
			CreatedBy:  actorID,
			ShareToken: token,
			IsPublic:   isPublic,
			ExpiresAt:  expiresAt,
		}
		err = repo.Db.WithContext(ctx).Create(link).Error
		if err == nil {
			return link, nil
		}
		if !repo.IsDuplicateKey(err) {
			return nil, err
		}
		// a concurrent share for the same (file, creator) won, or the token collided; retry the lookup
	}
	return nil, conflictf("could not allocate share link")
}

func findShareLink(ctx context.Context, fileID, createdBy string) (*model.ShareLink, error) {
	var link model.ShareLink
	err := repo.Db.WithContext(ctx).Where("file_id = ? AND created_by = ?", fileID, createdBy).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func updateShareLink(ctx context.Context, link *model.ShareLink, isPublic bool, expiresAt *time.Time) (*model.ShareLink, error) {
	err := repo.Db.WithContext(ctx).Model(link).Updates(map[string]interface{}{
		"is_public":  isPublic,
		"expires_at": expiresAt,
	}).Error
	if err != nil {
		return nil, err
	}
	link.IsPublic = isPublic
	link.ExpiresAt = expiresAt
	invalidateShareLink(ctx, link.ShareToken)
	return link, nil
}

// GetMyShareLink returns the caller's link for a file, if any.
func GetMyShareLink(ctx context.Context, actorID, fileID string) (*model.ShareLink, error) {
	if _, _, err := Authorize(ctx, fileID, actorID, "", model.PermissionAdmin); err != nil {
		return nil, err
	}
	link, err := findShareLink(ctx, fileID, actorID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrNotFound
	}
	return link, nil
}

// RevokeShareLink deletes the caller's link for a file.
func RevokeShareLink(ctx context.Context, actorID, fileID string) error {
	if _, _, err := Authorize(ctx, fileID, actorID, "", model.PermissionAdmin); err != nil {
		return err
	}
	link, err := findShareLink(ctx, fileID, actorID)
	if err != nil {
		return err
	}
	if link == nil {
		return ErrNotFound
	}
	if err := repo.Db.WithContext(ctx).Delete(link).Error; err != nil {
		return err
	}
	invalidateShareLink(ctx, link.ShareToken)
	return nil
}

// lookupShareLink finds a link by token, through the cache.
func lookupShareLink(ctx context.Context, token string) (*model.ShareLink, error) {
	hash := utils.HashShareToken(token)
	if link, ok := utils.GetShareLinkFromCache(ctx, hash); ok {
		return link, nil
	}
	var link model.ShareLink
	if err := repo.Db.WithContext(ctx).Where("share_token = ?", token).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	ttl := config.AppConfig.ShareCacheTTL
	if link.ExpiresAt != nil {
		if remaining := time.Until(*link.ExpiresAt); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl > 0 {
		if err := utils.SetShareLinkToCache(ctx, hash, &link, ttl); err != nil {
			log.Printf("cache share link %s failed: %v", hash[:12], err)
		}
	}
	return &link, nil
}

func invalidateShareLink(ctx context.Context, token string) {
	hash := utils.HashShareToken(token)
	if err := utils.InvalidateShareLinkCache(ctx, hash); err != nil {
		log.Printf("invalidate share link %s failed: %v", hash[:12], err)
	}
}

// resolveSharedLink returns a usable link for a token or the reason it is not usable.
func resolveSharedLink(ctx context.Context, token string) (*model.ShareLink, error) {
	link, err := lookupShareLink(ctx, token)
	if err != nil {
		return nil, err
	}
	if !link.IsPublic {
		return nil, fmt.Errorf("%w: share link is not public", ErrForbidden)
	}
	if !link.Usable(time.Now()) {
		return nil, fmt.Errorf("%w: share link expired", ErrForbidden)
	}
	return link, nil
}

// GetSharedFile resolves a public link to its file metadata.
func GetSharedFile(ctx context.Context, token string) (*model.File, *model.ShareLink, error) {
	link, err := resolveSharedLink(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	file, err := loadFile(ctx, repo.Db, link.FileID)
	if err != nil {
		return nil, nil, err
	}
	return file, link, nil
}
