// Package memory is an in-process storage backend for development and tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/storage"
)

type object struct {
	contentType string
	data        []byte
}

// Storage implements storage.Storage with a map.
type Storage struct {
	mu      sync.RWMutex
	objects map[string]object
	baseURL string
}

// New creates an in-memory storage whose URLs start with baseURL.
func New(baseURL string) *Storage {
	return &Storage{objects: make(map[string]object), baseURL: baseURL}
}

// Upload keeps the object bytes in memory.
func (s *Storage) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	data, err := io.ReadAll(input.Data)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	s.mu.Lock()
	s.objects[input.Key] = object{contentType: input.ContentType, data: data}
	s.mu.Unlock()

	return &storage.UploadResult{Key: input.Key, URL: s.url(input.Key)}, nil
}

// Delete removes an object. Unknown keys yield storage.ErrNotFound.
func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	delete(s.objects, key)
	return nil
}

// GetURL returns baseURL/media/key for a stored object.
func (s *Storage) GetURL(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.objects[key]; !ok {
		return "", fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	return s.url(key), nil
}

// Open returns the stored bytes and content type of key.
func (s *Storage) Open(key string) (io.Reader, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	return bytes.NewReader(obj.data), obj.contentType, nil
}

// ServeHTTP answers GET /media/<key> with a stored object, so URLs handed out
// by GetURL resolve when the server mounts the store under /media/.
func (s *Storage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, contentType, err := s.Open(strings.TrimPrefix(r.URL.Path, "/media/"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_, _ = io.Copy(w, body)
}

func (s *Storage) url(key string) string {
	return s.baseURL + "/media/" + key
}
