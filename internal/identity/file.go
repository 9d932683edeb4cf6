package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/openclerk/clerk/internal/fileutil"
)

// FileStore persists identity values as a JSON object in a single file.
// Writes go through a temp file and rename so a crash never leaves a
// truncated identity file behind.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by the given file path.
// The file is created lazily on first Set.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Get retrieves a value from the identity file.
func (f *FileStore) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok || v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores a value in the identity file. An empty value removes the key.
func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	if value == "" {
		delete(values, key)
	} else {
		values[key] = value
	}
	return f.save(values)
}

// load reads the identity file. A missing file yields an empty map.
// Must be called with f.mu held.
func (f *FileStore) load() (map[string]string, error) {
	values := map[string]string{}
	if err := fileutil.ReadJSON(f.path, &values); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read identity file %s: %w", f.path, err)
	}
	return values, nil
}

// save writes the identity file atomically.
// Must be called with f.mu held.
func (f *FileStore) save(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create identity directory: %w", err)
	}
	if err := fileutil.WriteJSONAtomic(f.path, values, 0600); err != nil {
		return fmt.Errorf("failed to write identity file %s: %w", f.path, err)
	}
	return nil
}
