package storage

import (
	"Mini_Drive/config"
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Store implements Store against S3 or any S3-compatible endpoint.
type S3Store struct {
	client   *s3.S3
	uploader *s3manager.Uploader
}

// NewS3Store builds a Store from an AWS session.
func NewS3Store(sess *session.Session) *S3Store {
	return &S3Store{
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
	}
}

// PutObject streams an object to S3 using multipart upload for large bodies.
func (s *S3Store) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts PutOptions) error {
	input := &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(object),
		Body:   reader,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	_, err := s.uploader.UploadWithContext(ctx, input)
	return err
}

// GetObject fetches an object body and metadata.
func (s *S3Store) GetObject(ctx context.Context, bucket, object string) (io.ReadCloser, ObjectInfo, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(object),
	})
	if err != nil {
		return nil, ObjectInfo{}, translateS3Error(err)
	}
	info := ObjectInfo{
		ObjectName:  object,
		Size:        aws.Int64Value(out.ContentLength),
		ContentType: aws.StringValue(out.ContentType),
	}
	return out.Body, info, nil
}

// StatObject returns object metadata via HEAD.
func (s *S3Store) StatObject(ctx context.Context, bucket, object string) (ObjectInfo, error) {
	out, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(object),
	})
	if err != nil {
		return ObjectInfo{}, translateS3Error(err)
	}
	return ObjectInfo{
		ObjectName:  object,
		Size:        aws.Int64Value(out.ContentLength),
		ContentType: aws.StringValue(out.ContentType),
	}, nil
}

// RemoveObject deletes an object. Deleting a missing key succeeds.
func (s *S3Store) RemoveObject(ctx context.Context, bucket, object string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(object),
	})
	return err
}

// PresignedGetObject returns a presigned GET URL.
func (s *S3Store) PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration) (string, error) {
	return s.PresignedGetObjectWithResponse(ctx, bucket, object, expiry, nil)
}

// PresignedGetObjectWithResponse returns a presigned GET URL with response header overrides.
func (s *S3Store) PresignedGetObjectWithResponse(
	ctx context.Context,
	bucket,
	object string,
	expiry time.Duration,
	params map[string]string,
) (string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(object),
	}
	if v := params["response-content-type"]; v != "" {
		input.ResponseContentType = aws.String(v)
	}
	if v := params["response-content-disposition"]; v != "" {
		input.ResponseContentDisposition = aws.String(v)
	}
	req, _ := s.client.GetObjectRequest(input)
	req.SetContext(ctx)
	return req.Presign(expiry)
}

func translateS3Error(err error) error {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return ErrObjectNotFound
		}
	}
	return err
}

// InitS3 initializes the S3 client and bucket.
func InitS3(cfg *config.StorageConfig) {
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.S3.Region),
		S3ForcePathStyle: aws.Bool(cfg.S3.ForcePathStyle),
	}
	if cfg.S3.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.S3.Endpoint)
	}
	if cfg.S3.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.S3.AccessKey, cfg.S3.SecretKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		log.Fatalln("s3 session error:", err)
	}
	store := NewS3Store(sess)

	ctx := context.Background()
	_, err = store.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)})
	if err != nil {
		if _, createErr := store.client.CreateBucketWithContext(ctx, &s3.CreateBucketInput{
			Bucket: aws.String(cfg.Bucket),
		}); createErr != nil {
			log.Fatalln("create bucket fail:", createErr)
		}
	}
	Default = store
}
