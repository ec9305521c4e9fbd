package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"vodgate/internal/config"
)

// minioStore implements MediaStore over an S3-compatible backend (MinIO, AWS
// S3, etc.). Used when MEDIA_BACKEND=s3. It is safe for concurrent use by
// multiple goroutines.
type minioStore struct {
	client *minio.Client
	bucket string
}

// NewMinIO creates an S3-compatible media store backed by MinIO.
// It validates connectivity and requires the bucket to already exist: the
// gateway is a read-only consumer and never provisions storage.
func NewMinIO(cfg config.MinIOConfig) (MediaStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.Bucket)
	}

	return &minioStore{client: cli, bucket: cfg.Bucket}, nil
}

// Stat fetches object info without reading content.
func (m *minioStore) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	st, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, mapMinioErr(err)
	}
	return ObjectInfo{
		Key:          key,
		Size:         st.Size,
		LastModified: st.LastModified,
	}, nil
}

// OpenRange requests the inclusive interval [start, end] from the backend so
// only the needed bytes cross the wire.
func (m *minioStore) OpenRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error) {
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(start, end); err != nil {
		return nil, fmt.Errorf("set range %d-%d: %w", start, end, err)
	}
	obj, err := m.client.GetObject(ctx, m.bucket, key, opts)
	if err != nil {
		return nil, mapMinioErr(err)
	}
	// GetObject is lazy; surface a missing object now instead of mid-stream.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, mapMinioErr(err)
	}
	return obj, nil
}

func mapMinioErr(err error) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && (resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket") {
		return ErrNotFound
	}
	return err
}
