package s3

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/app/config"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// UploadResult is the narrow contract the rest of the service relies on:
// a public URL plus an opaque id usable for later deletion.
type UploadResult struct {
	URL string
	ID  string
}

type MediaStore interface {
	Upload(ctx context.Context, fileName string, data []byte, contentType string) (*UploadResult, error)
	Delete(ctx context.Context, id string) error
}

type s3MediaStore struct {
	client *minio.Client
	bucket string
	log    logger.Logger
}

func NewMediaStore(cfg config.MediaConfig, log logger.Logger) (MediaStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", cfg.Endpoint, err)
	}

	err = client.MakeBucket(context.Background(), cfg.Bucket, minio.MakeBucketOptions{})
	if err != nil {
		exists, errExists := client.BucketExists(context.Background(), cfg.Bucket)
		if errExists != nil || !exists {
			return nil, fmt.Errorf("failed to make/verify bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &s3MediaStore{
		client: client,
		bucket: cfg.Bucket,
		log:    log.With("adapter", "media_store"),
	}, nil
}

func (s *s3MediaStore) Upload(ctx context.Context, fileName string, data []byte, contentType string) (*UploadResult, error) {
	ext := filepath.Ext(fileName)
	objectKey := fmt.Sprintf("avatars/%s%s", uuid.NewString(), ext)

	_, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.log.Errorf("PutObject failed for %s: %v", objectKey, err)
		return nil, fmt.Errorf("failed to upload object %s to bucket %s: %w", objectKey, s.bucket, err)
	}

	url := fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, objectKey)
	s.log.Infof("uploaded %s (%d bytes) to %s", fileName, len(data), url)
	return &UploadResult{URL: url, ID: objectKey}, nil
}

func (s *s3MediaStore) Delete(ctx context.Context, id string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, id, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s from bucket %s: %w", id, s.bucket, err)
	}
	return nil
}
