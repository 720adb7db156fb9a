package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	a "gallery/photo-api/aws"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const minMultipartSize = 12 << 20

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 stores files in an S3 compatible bucket
type S3 struct {
	client   objectAPI
	uploader *manager.Uploader
	bucket   *string
	backoff  func() backoff.BackOff
}

func NewS3(c *a.S3Client) *S3 {
	return &S3{
		client: c.C,
		uploader: manager.NewUploader(c.C, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		}),
		bucket:  c.Bucket,
		backoff: deleteBackoff,
	}
}

func deleteBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 10 * time.Second

	return backoff.WithMaxRetries(b, 4)
}

func (s *S3) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket:        s.bucket,
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("private, max-age=31536000, immutable"),
	}

	var err error
	if s.uploader != nil && size > minMultipartSize {
		_, err = s.uploader.Upload(ctx, in)
	} else {
		_, err = s.client.PutObject(ctx, in)
	}
	if err != nil {
		return fmt.Errorf("failed to upload %s to s3, %w", key, err)
	}

	return nil
}

func (s *S3) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: s.bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		if isMissing(err) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to get %s from s3, %w", key, err)
	}

	return out.Body, nil
}

// Delete removes the object, retrying transient failures
func (s *S3) Delete(ctx context.Context, key string) error {
	op := func() error {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: s.bucket,
			Key:    aws.String(key),
		})
		if err == nil || isMissing(err) {
			return nil
		}

		if isPermanent(err) {
			return backoff.Permanent(err)
		}

		zap.L().Warn("Retrying S3 delete", zap.String("key", key), zap.Error(err))
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(s.backoff(), ctx)); err != nil {
		return fmt.Errorf("failed to delete %s from s3, %w", key, err)
	}

	return nil
}

func isMissing(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}

	return false
}

func isPermanent(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "NoSuchBucket", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return true
		}
	}

	return false
}
