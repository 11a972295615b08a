// Package storage provides S3-compatible object storage for attachment files.
package storage

import (
	"context"
	"io"
	"time"
)

// PresignedURL contains the URL and metadata for a presigned upload or
// download operation.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service defines the object storage operations the domain modules use.
type Service interface {
	// GenerateUploadURL creates a presigned URL for uploading a file.
	// The folder parameter defines the path prefix (e.g. "events/{id}").
	GenerateUploadURL(ctx context.Context, folder, fileName, contentType string, sizeBytes int64) (*PresignedURL, error)

	// GenerateDownloadURL creates a presigned URL for downloading a file.
	GenerateDownloadURL(ctx context.Context, fileKey string) (*PresignedURL, error)

	// DeleteObject removes an object from storage.
	DeleteObject(ctx context.Context, fileKey string) error

	// UploadFile uploads a file directly from an io.Reader and returns the
	// full file key used for storage.
	UploadFile(ctx context.Context, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)

	// EnsureBucketExists creates the configured bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context) error
}

// Config defines the configuration the storage service needs.
type Config interface {
	GetMinioEndpoint() string
	GetMinioAccessKey() string
	GetMinioSecretKey() string
	GetMinioUseSSL() bool
	GetMinioBucket() string
	GetMinioMaxFileSize() int64
	IsMinioEnabled() bool
}
