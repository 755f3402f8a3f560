// Package storage keeps vault content blobs in S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrObjectNotFound is returned when the requested key has no object.
var ErrObjectNotFound = errors.New("object not found in storage")

// FileStorage stores and fetches objects by key.
type FileStorage interface {
	UploadFile(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	DownloadFile(ctx context.Context, objectKey string) (io.ReadCloser, error)
}

// MinioClient implements FileStorage on a single MinIO bucket.
type MinioClient struct {
	client     *minio.Client
	bucketName string
}

// MinioConfig holds the connection parameters.
type MinioConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
	Region          string
}

// NewMinioClient connects to MinIO and creates the bucket if it is missing.
func NewMinioClient(ctx context.Context, cfg MinioConfig) (*MinioClient, error) {
	slog.Info("[Minio] initializing client", "endpoint", cfg.Endpoint, "bucket", cfg.BucketName)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.BucketName, err)
	}
	if !exists {
		if err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.BucketName, err)
		}
		slog.Info("[Minio] bucket created", "bucket", cfg.BucketName)
	}

	return &MinioClient{client: client, bucketName: cfg.BucketName}, nil
}

// UploadFile stores reader under objectKey. A negative size streams until EOF.
func (c *MinioClient) UploadFile(
	ctx context.Context,
	objectKey string,
	reader io.Reader,
	size int64,
	contentType string,
) error {
	info, err := c.client.PutObject(ctx, c.bucketName, objectKey, reader, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		slog.ErrorContext(ctx, "[Minio] upload failed", "key", objectKey, "error", err)
		return fmt.Errorf("upload object: %w", err)
	}
	slog.DebugContext(ctx, "[Minio] object uploaded", "key", objectKey, "size", info.Size, "etag", info.ETag)
	return nil
}

// DownloadFile opens the object under objectKey. The caller closes the reader.
func (c *MinioClient) DownloadFile(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	object, err := c.client.GetObject(ctx, c.bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, c.mapError(objectKey, err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the body is streamed.
	if _, err = object.Stat(); err != nil {
		_ = object.Close()
		return nil, c.mapError(objectKey, err)
	}
	return object, nil
}

func (c *MinioClient) mapError(objectKey string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrObjectNotFound
	}
	slog.Error("[Minio] download failed", "key", objectKey, "error", err)
	return fmt.Errorf("download object: %w", err)
}
