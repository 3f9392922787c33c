package images

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps pictures in memory and serves them over HTTP.
type MemoryStore struct {
	baseURL string
	maxSize int64

	mu      sync.RWMutex
	objects map[string]object
}

type object struct {
	contentType string
	data        []byte
	created     time.Time
}

// NewMemoryStore creates a store whose URLs start with baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: baseURL,
		maxSize: DefaultMaxSize,
		objects: make(map[string]object),
	}
}

// Put stores a copy of data.
func (s *MemoryStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := check(contentType, data, s.maxSize); err != nil {
		return "", err
	}
	key := newKey("", contentType)

	s.mu.Lock()
	s.objects[key] = object{
		contentType: contentType,
		data:        append([]byte(nil), data...),
		created:     time.Now(),
	}
	s.mu.Unlock()

	return joinURL(s.baseURL, key), nil
}

// Get returns the picture stored under key.
func (s *MemoryStore) Get(key string) (contentType string, data []byte, err error) {
	obj, ok := s.lookup(key)
	if !ok {
		return "", nil, ErrNotFound
	}
	return obj.contentType, obj.data, nil
}

func (s *MemoryStore) lookup(key string) (object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// ServeHTTP serves a picture by the last path segment of the request.
func (s *MemoryStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	obj, ok := s.lookup(key)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", obj.contentType)
	http.ServeContent(w, r, key, obj.created, bytes.NewReader(obj.data))
}
