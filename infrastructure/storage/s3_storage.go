package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"task-tracker/domain/ports"
	"task-tracker/pkg/logger"
)

// S3Storage stores snapshots in an S3-compatible bucket (MinIO, R2, AWS).
type S3Storage struct {
	client    *minio.Client
	bucket    string
	publicURL string
	endpoint  string
	useSSL    bool
	timeout   time.Duration
}

type S3StorageConfig struct {
	Endpoint  string // minio:9000
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	PublicURL string // optional
}

// NewS3Storage connects to the endpoint and creates the bucket when missing.
func NewS3Storage(config S3StorageConfig) (ports.StoragePort, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, config.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		err = client.MakeBucket(ctx, config.Bucket, minio.MakeBucketOptions{
			Region: config.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("S3 bucket created", "bucket", config.Bucket)
	}

	logger.Info("S3 storage initialized",
		"endpoint", config.Endpoint,
		"bucket", config.Bucket,
		"ssl", config.UseSSL,
	)

	return &S3Storage{
		client:    client,
		bucket:    config.Bucket,
		publicURL: strings.TrimSuffix(config.PublicURL, "/"),
		endpoint:  config.Endpoint,
		useSSL:    config.UseSSL,
		timeout:   30 * time.Second,
	}, nil
}

func objectKey(path string) string {
	return strings.TrimPrefix(strings.ReplaceAll(path, "\\", "/"), "/")
}

func (s *S3Storage) UploadFile(file io.Reader, path string, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	key := objectKey(path)
	// size -1 streams until EOF
	_, err := s.client.PutObject(ctx, s.bucket, key, file, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	logger.Debug("File uploaded to S3", "path", key, "content_type", contentType)
	return s.GetFileURL(key), nil
}

func (s *S3Storage) DeleteFile(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	key := objectKey(path)
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Debug("File deleted from S3", "path", key)
	return nil
}

func (s *S3Storage) GetFileURL(path string) string {
	key := objectKey(path)
	if s.publicURL != "" {
		return s.publicURL + "/" + key
	}

	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, key)
}

// GetFileContent returns the object reader; the caller must close it.
func (s *S3Storage) GetFileContent(path string) (io.ReadCloser, string, error) {
	obj, err := s.client.GetObject(context.Background(), s.bucket, objectKey(path), minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get object: %w", err)
	}

	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, "", fmt.Errorf("failed to stat object: %w", err)
	}

	return obj, info.ContentType, nil
}

func (s *S3Storage) ListFiles(prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    objectKey(prefix),
		Recursive: true,
	})

	files := []string{}
	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		files = append(files, obj.Key)
	}

	sort.Strings(files)
	return files, nil
}

func (s *S3Storage) GetProviderName() string {
	return "s3"
}
