package storage

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"task-tracker/domain/ports"
)

// LocalStorage keeps snapshot files under a directory on disk.
type LocalStorage struct {
	basePath string
	baseURL  string
}

type LocalStorageConfig struct {
	BasePath string // ./data/snapshots
	BaseURL  string // optional, e.g. http://localhost:8080/snapshots
}

func NewLocalStorage(config LocalStorageConfig) (ports.StoragePort, error) {
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: config.BasePath,
		baseURL:  strings.TrimSuffix(config.BaseURL, "/"),
	}, nil
}

func (l *LocalStorage) fullPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return filepath.Join(l.basePath, filepath.FromSlash(path))
}

func (l *LocalStorage) UploadFile(file io.Reader, path string, contentType string) (string, error) {
	fullPath := l.fullPath(path)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return l.GetFileURL(path), nil
}

// DeleteFile treats a missing file as already deleted.
func (l *LocalStorage) DeleteFile(path string) error {
	fullPath := l.fullPath(path)

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return nil
	}
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	l.cleanupEmptyDirs(filepath.Dir(fullPath))
	return nil
}

// GetFileURL returns a URL under baseURL, or a file:// URL when none is set.
func (l *LocalStorage) GetFileURL(path string) string {
	path = strings.TrimPrefix(strings.ReplaceAll(path, "\\", "/"), "/")
	if l.baseURL == "" {
		abs, err := filepath.Abs(l.fullPath(path))
		if err != nil {
			abs = l.fullPath(path)
		}
		return "file://" + filepath.ToSlash(abs)
	}
	return l.baseURL + "/" + path
}

func (l *LocalStorage) GetFileContent(path string) (io.ReadCloser, string, error) {
	file, err := os.Open(l.fullPath(path))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return file, contentType, nil
}

// ListFiles returns slash-separated paths relative to the base directory,
// sorted lexically.
func (l *LocalStorage) ListFiles(prefix string) ([]string, error) {
	prefix = strings.TrimPrefix(strings.ReplaceAll(prefix, "\\", "/"), "/")
	root := l.fullPath(prefix)

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return []string{}, nil
	}

	files := []string{}
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

func (l *LocalStorage) GetProviderName() string {
	return "local"
}

// cleanupEmptyDirs removes empty directories up to, but not including, basePath.
func (l *LocalStorage) cleanupEmptyDirs(dir string) {
	absBase, _ := filepath.Abs(l.basePath)
	absDir, _ := filepath.Abs(dir)

	for absDir != absBase && strings.HasPrefix(absDir, absBase) {
		entries, err := os.ReadDir(absDir)
		if err != nil || len(entries) > 0 {
			break
		}
		os.Remove(absDir)
		absDir = filepath.Dir(absDir)
	}
}
