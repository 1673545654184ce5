package ports

import (
	"io"
)

// StoragePort stores exported artifacts (task snapshots) on a local disk or an
// S3-compatible bucket.
type StoragePort interface {
	// UploadFile writes file at path and returns a URL for it.
	UploadFile(file io.Reader, path string, contentType string) (string, error)

	DeleteFile(path string) error

	GetFileURL(path string) string

	// GetFileContent returns the object body and its content type.
	GetFileContent(path string) (io.ReadCloser, string, error)

	// ListFiles returns object paths under prefix.
	ListFiles(prefix string) ([]string, error)

	GetProviderName() string
}
