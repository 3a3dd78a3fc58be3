package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

const defaultPresignExpiry = 15 * time.Minute

// S3 is a Blob backed by an AWS S3 bucket. Credentials come from the
// SDK's default chain (env, shared config, IAM role).
type S3 struct {
	client        *s3.Client
	presign       *s3.PresignClient
	bucket        string
	presignExpiry time.Duration
}

// NewS3 creates an S3-backed blob store for the given bucket and
// region. A zero presignExpiry falls back to 15 minutes.
func NewS3(ctx context.Context, bucket, region string, presignExpiry time.Duration) (*S3, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if region == "" {
		return nil, fmt.Errorf("s3 region is required")
	}
	if presignExpiry <= 0 {
		presignExpiry = defaultPresignExpiry
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3{
		client:        client,
		presign:       s3.NewPresignClient(client),
		bucket:        bucket,
		presignExpiry: presignExpiry,
	}, nil
}

// Put stores the reader's content under key and reports the number of
// bytes the SDK consumed from the reader.
func (s *S3) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	k, err := cleanKey(key)
	if err != nil {
		return 0, err
	}

	cr := &countingReader{r: r}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
		Body:   cr,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload blob to s3: %w", err)
	}
	return cr.n, nil
}

// Get opens the blob stored under key.
func (s *S3) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to download blob from s3: %w", err)
	}
	return out.Body, nil
}

// Delete removes the blob stored under key.
func (s *S3) Delete(ctx context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		if isNotFound(err) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("failed to delete blob from s3: %w", err)
	}
	return nil
}

// Exists reports whether a blob is stored under key.
func (s *S3) Exists(ctx context.Context, key string) (bool, error) {
	k, err := cleanKey(key)
	if err != nil {
		return false, err
	}

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head blob on s3: %w", err)
	}
	return true, nil
}

// URL returns a presigned GET URL for the blob, valid for the
// configured expiry.
func (s *S3) URL(ctx context.Context, key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	exists, err := s.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrBlobNotFound
	}

	out, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.presignExpiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign blob url: %w", err)
	}
	return out.URL, nil
}

// isNotFound reports whether err is S3 telling us the object or bucket
// key does not exist. HeadObject surfaces a bare 404 as "NotFound"
// rather than "NoSuchKey".
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}

// countingReader counts bytes as the SDK drains the wrapped reader, so
// Put can report the uploaded size without buffering.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
