package storage

import (
	"Mini_Drive/config"
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore implements Store with a MinIO client.
type MinioStore struct {
	client *minio.Client
}

// NewMinioStore builds a Store from a MinIO client.
func NewMinioStore(client *minio.Client) *MinioStore {
	return &MinioStore{client: client}
}

// PutObject uploads an object to MinIO.
func (s *MinioStore) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts PutOptions) error {
	_, err := s.client.PutObject(ctx, bucket, object, reader, size, minio.PutObjectOptions{
		ContentType: opts.ContentType,
	})
	return err
}

// GetObject fetches an object and its metadata from MinIO.
func (s *MinioStore) GetObject(ctx context.Context, bucket, object string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := s.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, translateMinioError(err)
	}
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, ObjectInfo{}, translateMinioError(err)
	}
	return obj, ObjectInfo{ObjectName: object, Size: stat.Size, ContentType: stat.ContentType}, nil
}

// StatObject returns object metadata without reading the body.
func (s *MinioStore) StatObject(ctx context.Context, bucket, object string) (ObjectInfo, error) {
	stat, err := s.client.StatObject(ctx, bucket, object, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, translateMinioError(err)
	}
	return ObjectInfo{ObjectName: object, Size: stat.Size, ContentType: stat.ContentType}, nil
}

// RemoveObject deletes an object from MinIO.
func (s *MinioStore) RemoveObject(ctx context.Context, bucket, object string) error {
	return s.client.RemoveObject(ctx, bucket, object, minio.RemoveObjectOptions{})
}

// PresignedGetObject returns a presigned URL for downloading an object.
func (s *MinioStore) PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration) (string, error) {
	return s.PresignedGetObjectWithResponse(ctx, bucket, object, expiry, nil)
}

// PresignedGetObjectWithResponse returns a presigned URL with response header overrides.
func (s *MinioStore) PresignedGetObjectWithResponse(
	ctx context.Context,
	bucket,
	object string,
	expiry time.Duration,
	params map[string]string,
) (string, error) {
	values := url.Values{}
	for key, value := range params {
		if value == "" {
			continue
		}
		values.Set(key, value)
	}
	u, err := s.client.PresignedGetObject(ctx, bucket, object, expiry, values)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func translateMinioError(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrObjectNotFound
	}
	return err
}

// InitMinio initializes the MinIO client and bucket.
func InitMinio(cfg *config.StorageConfig) {
	client, err := minio.New(fmt.Sprintf("%s:%s", cfg.Minio.Host, cfg.Minio.Port), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.Username, cfg.Minio.Password, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		log.Fatalln("minio error:", err)
	}
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		log.Fatalln("check bucket fail:", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			log.Fatalln("create bucket fail:", err)
		}
	}
	Default = NewMinioStore(client)
}
