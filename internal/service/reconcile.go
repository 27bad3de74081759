package service

import (
	"Mini_Drive/internal/repo"
	"Mini_Drive/internal/storage"
	"Mini_Drive/model"
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
)

// Reconciler queues repair work for storage and metadata that drifted apart.
type Reconciler interface {
	Enqueue(ctx context.Context, kind, storagePath, fileID string) error
}

type logReconciler struct{}

func (logReconciler) Enqueue(ctx context.Context, kind, storagePath, fileID string) error {
	log.Printf("reconcile needed: kind=%s path=%s file=%s (no queue configured)", kind, storagePath, fileID)
	return nil
}

var reconciler Reconciler = logReconciler{}

// SetReconciler installs the queue used for repair work.
func SetReconciler(r Reconciler) {
	if r == nil {
		r = logReconciler{}
	}
	reconciler = r
}

func enqueueReconcile(ctx context.Context, kind, storagePath, fileID string) {
	if err := reconciler.Enqueue(ctx, kind, storagePath, fileID); err != nil {
		log.Printf("enqueue reconcile %s for %s failed: %v", kind, storagePath, err)
	}
}

// ReconcileOrphanObject removes an object that no file row references.
func ReconcileOrphanObject(ctx context.Context, storagePath string) error {
	var count int64
	if err := repo.Db.WithContext(ctx).Model(&model.File{}).Where("storage_path = ?", storagePath).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if err := storage.Default.RemoveObject(ctx, bucket(), storagePath); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return storageErr("remove orphan", err)
	}
	return nil
}

// ReconcileDanglingFile deletes a file row and its dependents when its object is gone.
// A file whose object still exists is left alone.
func ReconcileDanglingFile(ctx context.Context, fileID, storagePath string) error {
	if fileID == "" {
		return invalidf("dangling file task without file id")
	}
	_, err := storage.Default.StatObject(ctx, bucket(), storagePath)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrObjectNotFound) {
		return storageErr("stat object", err)
	}
	return repo.Db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&model.PermissionGrant{}, &model.AccessRequest{}, &model.ShareLink{}} {
			if err := tx.Where("file_id = ?", fileID).Delete(m).Error; err != nil {
				return fmt.Errorf("delete dependents: %w", err)
			}
		}
		return tx.Where("id = ? AND storage_path = ?", fileID, storagePath).Delete(&model.File{}).Error
	})
}
