package images

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// DiskStore writes pictures to a directory.
type DiskStore struct {
	dir     string
	baseURL string
	maxSize int64
}

// NewDiskStore creates dir if needed and returns a store serving URLs
// under baseURL.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: baseURL, maxSize: DefaultMaxSize}, nil
}

// Put writes data to a new file. A partially written file is removed.
func (s *DiskStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := check(contentType, data, s.maxSize); err != nil {
		return "", err
	}
	key := newKey("", contentType)
	p := filepath.Join(s.dir, key)

	if err := os.WriteFile(p, data, 0o644); err != nil {
		os.Remove(p)
		return "", fmt.Errorf("write image: %w", err)
	}
	return joinURL(s.baseURL, key), nil
}

// Handler serves the stored files.
func (s *DiskStore) Handler() http.Handler {
	return http.FileServer(http.Dir(s.dir))
}
