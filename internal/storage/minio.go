package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL is the expiration time for presigned URLs.
const PresignedURLTTL = 15 * time.Minute

// MinioService implements Service using MinIO.
type MinioService struct {
	client      *minio.Client
	bucket      string
	maxFileSize int64
}

// NewMinioService creates a new MinIO storage service.
func NewMinioService(cfg Config) (*MinioService, error) {
	if !cfg.IsMinioEnabled() {
		return nil, fmt.Errorf("object storage is not configured")
	}

	client, err := minio.New(cfg.GetMinioEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinioAccessKey(), cfg.GetMinioSecretKey(), ""),
		Secure: cfg.GetMinioUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinioService{
		client:      client,
		bucket:      cfg.GetMinioBucket(),
		maxFileSize: cfg.GetMinioMaxFileSize(),
	}, nil
}

// EnsureBucketExists creates the configured bucket if it doesn't exist.
func (s *MinioService) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// GenerateUploadURL creates a presigned URL for uploading a file.
func (s *MinioService) GenerateUploadURL(ctx context.Context, folder, fileName, contentType string, sizeBytes int64) (*PresignedURL, error) {
	if err := validateContentType(contentType); err != nil {
		return nil, err
	}
	if err := s.validateFileSize(sizeBytes); err != nil {
		return nil, err
	}

	fileKey := uniqueFileKey(folder, fileName)

	expiresAt := time.Now().Add(PresignedURLTTL)
	presignedURL, err := s.client.PresignedPutObject(ctx, s.bucket, fileKey, PresignedURLTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned upload URL: %w", err)
	}

	return &PresignedURL{URL: presignedURL.String(), FileKey: fileKey, ExpiresAt: expiresAt}, nil
}

// GenerateDownloadURL creates a presigned URL for downloading a file.
func (s *MinioService) GenerateDownloadURL(ctx context.Context, fileKey string) (*PresignedURL, error) {
	expiresAt := time.Now().Add(PresignedURLTTL)

	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, fileKey, PresignedURLTTL, make(url.Values))
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	return &PresignedURL{URL: presignedURL.String(), FileKey: fileKey, ExpiresAt: expiresAt}, nil
}

// DeleteObject removes an object from storage.
func (s *MinioService) DeleteObject(ctx context.Context, fileKey string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, fileKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", fileKey, err)
	}
	return nil
}

// UploadFile uploads a file directly from an io.Reader and returns the file key.
func (s *MinioService) UploadFile(ctx context.Context, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	fileKey := uniqueFileKey(folder, fileName)

	_, err := s.client.PutObject(ctx, s.bucket, fileKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file %s: %w", fileKey, err)
	}
	return fileKey, nil
}

// uniqueFileKey suffixes the base name with a short UUID so uploads never
// overwrite each other.
func uniqueFileKey(folder, fileName string) string {
	ext := path.Ext(fileName)
	baseName := strings.TrimSuffix(fileName, ext)
	uniqueFileName := fmt.Sprintf("%s_%s%s", baseName, uuid.New().String()[:8], ext)
	return filepath.ToSlash(filepath.Join(folder, uniqueFileName))
}
