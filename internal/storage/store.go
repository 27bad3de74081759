package storage

import (
	"Mini_Drive/config"
	"context"
	"errors"
	"io"
	"log"
	"time"
)

// ErrObjectNotFound is returned when the object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// PutOptions describes upload options for object storage.
type PutOptions struct {
	ContentType string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	ObjectName  string
	Size        int64
	ContentType string
}

// Store abstracts object storage operations.
type Store interface {
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts PutOptions) error
	GetObject(ctx context.Context, bucket, object string) (io.ReadCloser, ObjectInfo, error)
	StatObject(ctx context.Context, bucket, object string) (ObjectInfo, error)
	RemoveObject(ctx context.Context, bucket, object string) error
	PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration) (string, error)
	PresignedGetObjectWithResponse(ctx context.Context, bucket, object string, expiry time.Duration, params map[string]string) (string, error)
}

// Default is the main object store instance.
var Default Store

// Init builds Default from the configured storage driver.
func Init() {
	cfg := config.StorageConfigInstance
	switch cfg.Driver {
	case "s3":
		InitS3(cfg)
	case "memory":
		log.Println("storage: using in-memory store, objects are not persisted")
		Default = NewMemoryStore()
	default:
		InitMinio(cfg)
	}
}
