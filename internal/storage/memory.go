package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStore keeps objects in process memory. It backs local development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

func memoryKey(bucket, object string) string {
	return bucket + "/" + object
}

// PutObject stores the reader's bytes.
func (s *MemoryStore) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts PutOptions) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("size mismatch: declared %d, read %d", size, len(data))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[memoryKey(bucket, object)] = memoryObject{data: data, contentType: opts.ContentType}
	return nil
}

// GetObject returns a reader over a copy of the stored bytes.
func (s *MemoryStore) GetObject(ctx context.Context, bucket, object string) (io.ReadCloser, ObjectInfo, error) {
	s.mu.RLock()
	obj, ok := s.objects[memoryKey(bucket, object)]
	s.mu.RUnlock()
	if !ok {
		return nil, ObjectInfo{}, ErrObjectNotFound
	}
	data := append([]byte(nil), obj.data...)
	info := ObjectInfo{ObjectName: object, Size: int64(len(data)), ContentType: obj.contentType}
	return io.NopCloser(bytes.NewReader(data)), info, nil
}

// StatObject returns object metadata.
func (s *MemoryStore) StatObject(ctx context.Context, bucket, object string) (ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[memoryKey(bucket, object)]
	if !ok {
		return ObjectInfo{}, ErrObjectNotFound
	}
	return ObjectInfo{ObjectName: object, Size: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

// RemoveObject deletes an object. Deleting a missing key succeeds.
func (s *MemoryStore) RemoveObject(ctx context.Context, bucket, object string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, memoryKey(bucket, object))
	return nil
}

// PresignedGetObject returns a memory:// URL carrying the expiry.
func (s *MemoryStore) PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration) (string, error) {
	return s.PresignedGetObjectWithResponse(ctx, bucket, object, expiry, nil)
}

// PresignedGetObjectWithResponse returns a memory:// URL with the response params encoded.
func (s *MemoryStore) PresignedGetObjectWithResponse(
	ctx context.Context,
	bucket,
	object string,
	expiry time.Duration,
	params map[string]string,
) (string, error) {
	if _, err := s.StatObject(ctx, bucket, object); err != nil {
		return "", err
	}
	values := url.Values{}
	values.Set("expires", time.Now().Add(expiry).UTC().Format(time.RFC3339))
	for key, value := range params {
		if value != "" {
			values.Set(key, value)
		}
	}
	u := url.URL{Scheme: "memory", Host: bucket, Path: "/" + object, RawQuery: values.Encode()}
	return u.String(), nil
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
