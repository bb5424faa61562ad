package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appmarketplace "github.com/erp/resale/internal/application/marketplace"
)

// MemoryImportArchive keeps archived files in process memory.
// It is used when object storage is disabled and in tests.
type MemoryImportArchive struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	// BaseURL prefixes generated download URLs
	BaseURL string
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryImportArchive creates a new MemoryImportArchive
func NewMemoryImportArchive() *MemoryImportArchive {
	return &MemoryImportArchive{
		objects: make(map[string]memoryObject),
		BaseURL: "memory://imports",
	}
}

// Store keeps a copy of data under key
func (a *MemoryImportArchive) Store(_ context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// Fetch returns the data stored under key
func (a *MemoryImportArchive) Fetch(_ context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	obj, ok := a.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q not found", key)
	}
	return append([]byte(nil), obj.data...), nil
}

// DownloadURL returns a pseudo URL for key
func (a *MemoryImportArchive) DownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	a.mu.RLock()
	_, ok := a.objects[key]
	a.mu.RUnlock()
	if !ok {
		return "", time.Time{}, fmt.Errorf("object %q not found", key)
	}
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}
	return a.BaseURL + "/" + key, time.Now().Add(expiresIn), nil
}

// ContentType returns the content type key was stored with
func (a *MemoryImportArchive) ContentType(key string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.objects[key].contentType
}

var _ appmarketplace.ImportArchive = (*MemoryImportArchive)(nil)
