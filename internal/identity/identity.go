// Package identity persists the client-held session id and access token.
// Both are opaque strings durable across process restarts. On macOS the
// access token is kept in the system Keychain; elsewhere everything lives
// in identity.json under the Clerk data directory.
package identity

import (
	"errors"
	"sync"
)

// Well-known keys.
const (
	// KeySessionID is the persisted storefront session identifier.
	KeySessionID = "session_id"

	// KeyAccessToken is the persisted bearer token for authenticated calls.
	KeyAccessToken = "access_token"
)

// ServiceName used for Clerk credentials in the system keychain.
const ServiceName = "Clerk"

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("identity value not found")

// ErrNotSupported is returned when the keychain is not available on the
// current platform.
var ErrNotSupported = errors.New("secure store not supported on this platform")

// Store provides persistent key-value storage for the client identity.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves the value for a key.
	// Returns ErrNotFound if no value is stored.
	Get(key string) (string, error)

	// Set stores a value for a key. An empty value removes the key.
	Set(key, value string) error
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string]string)}
}

// Get retrieves a value from memory.
func (m *MemStore) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores a value in memory. An empty value removes the key.
func (m *MemStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value == "" {
		delete(m.values, key)
		return nil
	}
	m.values[key] = value
	return nil
}
