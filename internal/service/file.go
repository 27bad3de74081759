package service

import (
	"Mini_Drive/config"
	"Mini_Drive/internal/repo"
	"Mini_Drive/internal/storage"
	"Mini_Drive/model"
	"Mini_Drive/utils"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const sniffBytes = 3072

// UploadInput describes one uploaded file.
type UploadInput struct {
	OwnerID     string
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// SharedFile is a file the caller holds a grant on.
type SharedFile struct {
	model.File `gorm:"embedded"`
	Permission model.PermissionType `json:"permission"`
	OwnerEmail string               `json:"owner_email"`
}

func bucket() string {
	return config.AppConfig.BucketName
}

// buildStoragePath scopes the object under the owner's id.
func buildStoragePath(ownerID, name string, now time.Time) string {
	ext := strings.ToLower(path.Ext(name))
	return fmt.Sprintf("%s/%d-%s%s", ownerID, now.UnixNano(), uuid.NewString()[:8], ext)
}

func normalizeMime(raw string) string {
	if raw == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return ""
	}
	return mediaType
}

// detectMime picks the declared type, then the extension, then content sniffing.
// It returns a reader that still yields the full body.
func detectMime(declared, name string, body io.Reader) (string, io.Reader, error) {
	if mt := normalizeMime(declared); mt != "" && mt != "application/octet-stream" {
		return mt, body, nil
	}
	if mt := normalizeMime(mime.TypeByExtension(strings.ToLower(path.Ext(name)))); mt != "" {
		return mt, body, nil
	}
	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	head = head[:n]
	return normalizeMime(mimetype.Detect(head).String()), io.MultiReader(bytes.NewReader(head), body), nil
}

// UploadFile stores the bytes first and writes the metadata row only after the object exists.
func UploadFile(ctx context.Context, in UploadInput) (*model.File, error) {
	if in.OwnerID == "" {
		return nil, ErrUnauthenticated
	}
	name := utils.SanitizeFileName(in.Name)
	if name == "" {
		return nil, invalidf("file name required")
	}
	if in.Size < 0 {
		return nil, invalidf("file size unknown")
	}
	if limit := config.AppConfig.MaxUploadBytes; limit > 0 && in.Size > limit {
		return nil, invalidf("file exceeds the %d byte upload limit", limit)
	}
	mimeType, body, err := detectMime(in.ContentType, name, in.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	file := &model.File{
		OwnerID:     in.OwnerID,
		Name:        name,
		SizeBytes:   in.Size,
		MimeType:    mimeType,
		StoragePath: buildStoragePath(in.OwnerID, name, time.Now()),
	}
	if err := storage.Default.PutObject(ctx, bucket(), file.StoragePath, body, in.Size, storage.PutOptions{
		ContentType: mimeType,
	}); err != nil {
		return nil, storageErr("upload object", err)
	}

	if err := repo.Db.WithContext(ctx).Create(file).Error; err != nil {
		cleanupCtx := context.WithoutCancel(ctx)
		if rmErr := storage.Default.RemoveObject(cleanupCtx, bucket(), file.StoragePath); rmErr != nil {
			log.Printf("upload cleanup failed for %s: %v", file.StoragePath, rmErr)
			enqueueReconcile(cleanupCtx, model.ReconcileOrphanObject, file.StoragePath, "")
			return nil, &OrphanError{StoragePath: file.StoragePath, Err: err}
		}
		return nil, fmt.Errorf("save file metadata: %w", err)
	}
	return file, nil
}

// GetFile returns file metadata when the caller may view it.
func GetFile(ctx context.Context, callerID, fileID, shareToken string) (*model.File, *AccessDecision, error) {
	return Authorize(ctx, fileID, callerID, shareToken, model.PermissionView)
}

// ListOwnFiles lists the caller's files, newest first.
func ListOwnFiles(ctx context.Context, ownerID string) ([]model.File, error) {
	var files []model.File
	err := repo.Db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}

// ListSharedWithMe lists files the caller holds a grant on.
func ListSharedWithMe(ctx context.Context, userID string) ([]SharedFile, error) {
	var files []SharedFile
	err := repo.Db.WithContext(ctx).
		Table("files").
		Select("files.*, file_permissions.permission_type AS permission, users.email AS owner_email").
		Joins("JOIN file_permissions ON file_permissions.file_id = files.id").
		Joins("LEFT JOIN users ON users.id = files.owner_id").
		Where("file_permissions.user_id = ? AND files.owner_id <> ?", userID, userID).
		Order("files.created_at DESC").
		Scan(&files).Error
	return files, err
}

// OpenFile streams the file's bytes when the caller may view it. The caller closes the reader.
func OpenFile(ctx context.Context, callerID, fileID, shareToken string) (io.ReadCloser, *model.File, storage.ObjectInfo, error) {
	file, _, err := Authorize(ctx, fileID, callerID, shareToken, model.PermissionView)
	if err != nil {
		return nil, nil, storage.ObjectInfo{}, err
	}
	body, info, err := storage.Default.GetObject(ctx, bucket(), file.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			enqueueReconcile(context.WithoutCancel(ctx), model.ReconcileDanglingFile, file.StoragePath, file.ID)
		}
		return nil, nil, storage.ObjectInfo{}, storageErr("read object", err)
	}
	return body, file, info, nil
}

// OpenSharedFile streams a file through a public share token.
func OpenSharedFile(ctx context.Context, token string) (io.ReadCloser, *model.File, storage.ObjectInfo, error) {
	link, err := resolveSharedLink(ctx, token)
	if err != nil {
		return nil, nil, storage.ObjectInfo{}, err
	}
	body, file, info, err := OpenFile(ctx, "", link.FileID, token)
	if errors.Is(err, ErrUnauthenticated) {
		// the link was revoked between the two lookups
		return nil, nil, storage.ObjectInfo{}, ErrForbidden
	}
	return body, file, info, err
}

// SignedURL returns a time-limited direct download URL.
func SignedURL(ctx context.Context, callerID, fileID, shareToken string) (string, time.Time, error) {
	file, _, err := Authorize(ctx, fileID, callerID, shareToken, model.PermissionView)
	if err != nil {
		return "", time.Time{}, err
	}
	ttl := config.AppConfig.SignedURLTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	u, err := storage.Default.PresignedGetObjectWithResponse(ctx, bucket(), file.StoragePath, ttl, map[string]string{
		"response-content-type":        file.MimeType,
		"response-content-disposition": utils.ContentDisposition("attachment", file.Name),
	})
	if err != nil {
		return "", time.Time{}, storageErr("sign url", err)
	}
	return u, time.Now().Add(ttl), nil
}

// DeleteFile removes the metadata rows and the object as one unit. The object is removed
// inside the transaction, so a storage failure rolls the rows back. If the commit fails
// after the object is gone, a PartialDeleteError is returned and reconciliation is queued.
func DeleteFile(ctx context.Context, actorID, fileID string) error {
	file, decision, err := ResolveAccess(ctx, fileID, actorID, "")
	if err != nil {
		return err
	}
	if decision.Source != AccessViaOwner && decision.Source != AccessViaRole {
		if actorID == "" {
			return ErrUnauthenticated
		}
		return &AccessDeniedError{FileID: fileID, Required: model.PermissionOwner, CanRequestAccess: false}
	}

	var tokens []string
	objectRemoved := false
	err = repo.Db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ShareLink{}).Where("file_id = ?", file.ID).Pluck("share_token", &tokens).Error; err != nil {
			return err
		}
		for _, m := range []interface{}{&model.PermissionGrant{}, &model.AccessRequest{}, &model.ShareLink{}} {
			if err := tx.Where("file_id = ?", file.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", file.ID).Delete(&model.File{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := storage.Default.RemoveObject(ctx, bucket(), file.StoragePath); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			return storageErr("remove object", err)
		}
		objectRemoved = true
		return nil
	})
	if err != nil {
		if objectRemoved {
			enqueueReconcile(context.WithoutCancel(ctx), model.ReconcileDanglingFile, file.StoragePath, file.ID)
			return &PartialDeleteError{FileID: file.ID, StoragePath: file.StoragePath, Err: err}
		}
		return err
	}
	for _, token := range tokens {
		invalidateShareLink(ctx, token)
	}
	return nil
}
