package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/akademix/lms-backend/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// BlobStore is the permanent object storage the media pipeline writes to:
// assembled sources, transcoded renditions and thumbnails.
type BlobStore interface {
	Put(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) error
	PutFile(ctx context.Context, objectPath, localPath, contentType string) error
	GetFile(ctx context.Context, objectPath, localPath string) error
	Remove(ctx context.Context, objectPath string) error
	RemovePrefix(ctx context.Context, prefix string) error
}

// MinioStore is the MinIO-backed BlobStore.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO and ensures the configured bucket exists.
func NewMinioStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	log.Info().
		Str("endpoint", cfg.MinioEndpoint).
		Str("bucket", cfg.MinioBucket).
		Msg("MinIO connected")

	return &MinioStore{client: client, bucket: cfg.MinioBucket}, nil
}

// Put streams an object into the bucket.
func (s *MinioStore) Put(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectPath, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", objectPath, err)
	}
	return nil
}

// PutFile uploads a local file into the bucket.
func (s *MinioStore) PutFile(ctx context.Context, objectPath, localPath, contentType string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, objectPath, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put file %s: %w", objectPath, err)
	}
	return nil
}

// GetFile downloads an object to a local path, e.g. as transcode input.
func (s *MinioStore) GetFile(ctx context.Context, objectPath, localPath string) error {
	if err := s.client.FGetObject(ctx, s.bucket, objectPath, localPath, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("get file %s: %w", objectPath, err)
	}
	return nil
}

// Remove deletes one object.
func (s *MinioStore) Remove(ctx context.Context, objectPath string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectPath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", objectPath, err)
	}
	return nil
}

// RemovePrefix deletes every object under the given prefix.
func (s *MinioStore) RemovePrefix(ctx context.Context, prefix string) error {
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return fmt.Errorf("list %s: %w", prefix, obj.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove %s: %w", obj.Key, err)
		}
	}
	return nil
}
