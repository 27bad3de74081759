package task

import (
	"Mini_Drive/config"
	"Mini_Drive/internal/repo"
	"Mini_Drive/internal/storage"
	"Mini_Drive/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTask(t *testing.T) (*storage.MemoryStore, *[][]byte) {
	t.Helper()
	config.AppConfig = config.Config{BucketName: "user-files"}
	db, err := repo.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")))
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	repo.Db = db

	store := storage.NewMemoryStore()
	storage.Default = store

	published := &[][]byte{}
	original := publishTask
	publishTask = func(ctx context.Context, body []byte) error {
		*published = append(*published, body)
		return nil
	}
	t.Cleanup(func() {
		publishTask = original
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return store, published
}

func loadTask(t *testing.T, id string) model.ReconcileTask {
	t.Helper()
	var got model.ReconcileTask
	require.NoError(t, repo.Db.Where("id = ?", id).First(&got).Error)
	return got
}

func TestCreateReconcileTaskPublishes(t *testing.T) {
	_, published := setupTask(t)
	ctx := context.Background()

	created, err := CreateReconcileTask(ctx, model.ReconcileOrphanObject, "u/1.bin", "")
	require.NoError(t, err)
	assert.Equal(t, model.TaskPending, created.Status)
	assert.Equal(t, "user-files", created.Bucket)

	require.Len(t, *published, 1)
	var msg ReconcileMessage
	require.NoError(t, json.Unmarshal((*published)[0], &msg))
	assert.Equal(t, created.ID, msg.TaskID)
	assert.Zero(t, msg.Attempt)

	_, err = CreateReconcileTask(ctx, "bogus", "u/1.bin", "")
	assert.Error(t, err)
}

func TestCreateReconcileTaskReusesActiveTask(t *testing.T) {
	_, published := setupTask(t)
	ctx := context.Background()

	first, err := CreateReconcileTask(ctx, model.ReconcileDanglingFile, "u/a.pdf", "file-1")
	require.NoError(t, err)
	again, err := CreateReconcileTask(ctx, model.ReconcileDanglingFile, "u/a.pdf", "file-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, *published, 1)

	require.NoError(t, repo.Db.Model(&model.ReconcileTask{}).Where("id = ?", first.ID).
		Update("status", model.TaskRetrying).Error)
	again, err = CreateReconcileTask(ctx, model.ReconcileDanglingFile, "u/a.pdf", "file-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	// other files and other kinds get their own task
	other, err := CreateReconcileTask(ctx, model.ReconcileDanglingFile, "u/b.pdf", "file-2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
	orphan, err := CreateReconcileTask(ctx, model.ReconcileOrphanObject, "u/a.pdf", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, orphan.ID)
	sameOrphan, err := CreateReconcileTask(ctx, model.ReconcileOrphanObject, "u/a.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, orphan.ID, sameOrphan.ID)
	assert.Len(t, *published, 3)

	require.NoError(t, repo.Db.Model(&model.ReconcileTask{}).Where("id = ?", first.ID).
		Update("status", model.TaskCompleted).Error)
	fresh, err := CreateReconcileTask(ctx, model.ReconcileDanglingFile, "u/a.pdf", "file-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, fresh.ID)
	assert.Len(t, *published, 4)
}

func TestCreateReconcileTaskPublishFailure(t *testing.T) {
	setupTask(t)
	publishTask = func(ctx context.Context, body []byte) error { return errors.New("broker down") }

	err := Enqueuer{}.Enqueue(context.Background(), model.ReconcileDanglingFile, "u/1.bin", "file-1")
	require.Error(t, err)

	tasks, err := ListReconcileTasks(context.Background(), model.TaskFailed, 0)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "broker down", tasks[0].ErrorMsg)
	assert.NotNil(t, tasks[0].FinishedAt)
}

func TestProcessOrphanTask(t *testing.T) {
	store, _ := setupTask(t)
	ctx := context.Background()
	require.NoError(t, store.PutObject(ctx, "user-files", "u/orphan.bin", strings.NewReader("abc"), 3, storage.PutOptions{}))

	created, err := CreateReconcileTask(ctx, model.ReconcileOrphanObject, "u/orphan.bin", "")
	require.NoError(t, err)
	require.NoError(t, ProcessReconcileTask(ctx, created.ID))

	assert.Equal(t, 0, store.Len())
	got := loadTask(t, created.ID)
	assert.Equal(t, model.TaskCompleted, got.Status)
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.FinishedAt)

	// completed tasks are not run again
	require.NoError(t, store.PutObject(ctx, "user-files", "u/orphan.bin", strings.NewReader("abc"), 3, storage.PutOptions{}))
	require.NoError(t, ProcessReconcileTask(ctx, created.ID))
	assert.Equal(t, 1, store.Len())
}

func TestProcessDanglingTask(t *testing.T) {
	store, _ := setupTask(t)
	ctx := context.Background()

	present := &model.File{OwnerID: "u", Name: "a.pdf", SizeBytes: 3, MimeType: "application/pdf", StoragePath: "u/a.pdf"}
	gone := &model.File{OwnerID: "u", Name: "b.pdf", SizeBytes: 3, MimeType: "application/pdf", StoragePath: "u/b.pdf"}
	require.NoError(t, repo.Db.Create(present).Error)
	require.NoError(t, repo.Db.Create(gone).Error)
	require.NoError(t, store.PutObject(ctx, "user-files", present.StoragePath, strings.NewReader("abc"), 3, storage.PutOptions{}))

	for _, f := range []*model.File{present, gone} {
		created, err := CreateReconcileTask(ctx, model.ReconcileDanglingFile, f.StoragePath, f.ID)
		require.NoError(t, err)
		require.NoError(t, ProcessReconcileTask(ctx, created.ID))
	}

	var count int64
	require.NoError(t, repo.Db.Model(&model.File{}).Where("id = ?", present.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, repo.Db.Model(&model.File{}).Where("id = ?", gone.ID).Count(&count).Error)
	assert.Zero(t, count)

	done, err := ListReconcileTasks(ctx, model.TaskCompleted, 10)
	require.NoError(t, err)
	assert.Len(t, done, 2)
}

func TestProcessMissingTask(t *testing.T) {
	setupTask(t)
	err := ProcessReconcileTask(context.Background(), "missing")
	assert.True(t, repo.IsNotFound(err))
}
