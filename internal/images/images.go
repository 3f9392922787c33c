// Package images stores user profile pictures.
//
// Three backends are provided: MemoryStore for tests and local runs,
// DiskStore for single-node deployments and S3Store for object storage.
// All of them return a URL that clients can fetch the picture from.
package images

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxSize is the largest accepted picture.
const DefaultMaxSize = 5 << 20

var (
	// ErrTooLarge is returned when a picture exceeds the size limit.
	ErrTooLarge = errors.New("images: file too large")

	// ErrUnsupportedType is returned for content types other than images.
	ErrUnsupportedType = errors.New("images: unsupported content type")

	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("images: not found")
)

// Store persists a picture and returns the URL it is served from.
type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// check validates a picture before it is stored.
func check(contentType string, data []byte, maxSize int64) error {
	if maxSize > 0 && int64(len(data)) > maxSize {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	if _, ok := extensions[contentType]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	return nil
}

// newKey returns a fresh object key. Client file names are not used.
func newKey(prefix, contentType string) string {
	return path.Join(prefix, uuid.NewString()+extensions[contentType])
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
