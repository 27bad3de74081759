package task

import (
	"Mini_Drive/config"
	"Mini_Drive/internal/mq"
	"Mini_Drive/internal/repo"
	"Mini_Drive/internal/service"
	"Mini_Drive/model"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ReconcileMessage is the payload sent to the worker.
type ReconcileMessage struct {
	TaskID  string `json:"task_id"`
	Attempt int    `json:"attempt"`
}

// publishTask sends a message to the task queue. Tests replace it.
var publishTask = func(ctx context.Context, body []byte) error {
	publisher, err := mq.GetPublisher()
	if err != nil {
		return err
	}
	return publisher.PublishTask(ctx, body)
}

// Enqueuer persists and publishes reconcile tasks for the service layer.
type Enqueuer struct{}

// Enqueue records a task and publishes it.
func (Enqueuer) Enqueue(ctx context.Context, kind, storagePath, fileID string) error {
	_, err := CreateReconcileTask(ctx, kind, storagePath, fileID)
	return err
}

// CreateReconcileTask creates and enqueues a reconcile task. An unfinished task for the
// same target is returned instead of a new one. The row survives a publish failure,
// marked failed, so the inconsistency stays visible to admins.
func CreateReconcileTask(ctx context.Context, kind, storagePath, fileID string) (*model.ReconcileTask, error) {
	switch kind {
	case model.ReconcileOrphanObject, model.ReconcileDanglingFile:
	default:
		return nil, fmt.Errorf("unknown reconcile kind %q", kind)
	}
	active, err := findActiveReconcileTask(ctx, kind, storagePath, fileID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return active, nil
	}
	task := &model.ReconcileTask{
		Kind:        kind,
		Bucket:      config.AppConfig.BucketName,
		StoragePath: storagePath,
		FileID:      fileID,
		Status:      model.TaskPending,
	}
	if err := repo.Db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, err
	}
	body, err := json.Marshal(ReconcileMessage{TaskID: task.ID})
	if err != nil {
		markReconcileTaskFailed(ctx, task.ID, err)
		return nil, err
	}
	if err := publishTask(ctx, body); err != nil {
		markReconcileTaskFailed(ctx, task.ID, err)
		return nil, err
	}
	return task, nil
}

// findActiveReconcileTask returns an unfinished task for the same target, if any.
func findActiveReconcileTask(ctx context.Context, kind, storagePath, fileID string) (*model.ReconcileTask, error) {
	q := repo.Db.WithContext(ctx).
		Where("kind = ? AND status NOT IN ?", kind, []string{model.TaskCompleted, model.TaskFailed})
	if fileID != "" {
		q = q.Where("file_id = ?", fileID)
	} else {
		q = q.Where("storage_path = ?", storagePath)
	}
	var tasks []model.ReconcileTask
	if err := q.Order("created_at ASC").Limit(1).Find(&tasks).Error; err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return &tasks[0], nil
}

// ListReconcileTasks lists tasks, newest first, optionally by status.
func ListReconcileTasks(ctx context.Context, status string, limit int) ([]model.ReconcileTask, error) {
	if limit <= 0 {
		limit = 20
	}
	q := repo.Db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var tasks []model.ReconcileTask
	err := q.Find(&tasks).Error
	return tasks, err
}

// ProcessReconcileTask runs one task. Finished tasks are skipped.
func ProcessReconcileTask(ctx context.Context, taskID string) error {
	var task model.ReconcileTask
	if err := repo.Db.WithContext(ctx).Where("id = ?", taskID).First(&task).Error; err != nil {
		return err
	}
	startedAt := time.Now()
	res := repo.Db.WithContext(ctx).Model(&model.ReconcileTask{}).
		Where("id = ? AND status NOT IN ?", taskID, []string{model.TaskCompleted, model.TaskFailed}).
		Updates(map[string]interface{}{
			"status":     model.TaskRunning,
			"started_at": &startedAt,
			"error_msg":  "",
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}

	var err error
	switch task.Kind {
	case model.ReconcileOrphanObject:
		err = service.ReconcileOrphanObject(ctx, task.StoragePath)
	case model.ReconcileDanglingFile:
		err = service.ReconcileDanglingFile(ctx, task.FileID, task.StoragePath)
	default:
		err = fmt.Errorf("%w: unknown reconcile kind %q", service.ErrInvalidInput, task.Kind)
	}
	if err != nil {
		return err
	}

	finishedAt := time.Now()
	return repo.Db.WithContext(ctx).Model(&task).Updates(map[string]interface{}{
		"status":      model.TaskCompleted,
		"finished_at": &finishedAt,
	}).Error
}

func markReconcileTaskFailed(ctx context.Context, taskID string, err error) {
	finishedAt := time.Now()
	_ = repo.Db.WithContext(context.WithoutCancel(ctx)).Model(&model.ReconcileTask{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"status":      model.TaskFailed,
			"error_msg":   err.Error(),
			"finished_at": &finishedAt,
		}).Error
}
