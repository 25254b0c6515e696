// Package storage keeps generated documents in S3-compatible object storage.
package storage

import (
	"context"
	"io"
	"time"
)

// PresignedURL is a time-limited download link for one object.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StorageService is the object store used for quote PDFs.
type StorageService interface {
	// PutObject stores reader under exactly fileKey, replacing any previous object.
	PutObject(ctx context.Context, bucket, fileKey, contentType string, reader io.Reader, size int64) error
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error)
	// DownloadFile streams an object. Callers close the reader.
	DownloadFile(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error)
	EnsureBucketExists(ctx context.Context, bucket string) error

	ValidateContentType(contentType string) error
	ValidateFileSize(sizeBytes int64) error
}

// Config is the subset of settings the MinIO client reads.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}
