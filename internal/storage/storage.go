// Package storage keeps uploaded product and banner images.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// FileStorage stores public images and returns the URL they are served from.
type FileStorage interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	Remove(ctx context.Context, key string) error

	// KeyOf returns the object key behind a URL this storage issued, or
	// false when the URL points elsewhere.
	KeyOf(url string) (string, bool)
}

func keyUnder(baseURL, url string) (string, bool) {
	key, ok := strings.CutPrefix(url, baseURL+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageKey builds an object key for an image of the given content type under
// folder. Unsupported types are rejected.
func ImageKey(folder, contentType string) (string, error) {
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", contentType)
	}
	return path.Join(folder, uuid.NewString()+ext), nil
}

// MemoryStorage keeps uploads in process. It backs the API when S3 is
// disabled and in tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

// NewMemoryStorage creates an in-memory FileStorage serving URLs under baseURL.
func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{
		objects: make(map[string][]byte),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *MemoryStorage) Upload(_ context.Context, key, _ string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return s.baseURL + "/" + key, nil
}

func (s *MemoryStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *MemoryStorage) KeyOf(url string) (string, bool) {
	return keyUnder(s.baseURL, url)
}

// Object returns a stored object.
func (s *MemoryStorage) Object(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}
