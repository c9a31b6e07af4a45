// Package localstore provides the browser-profile-scoped key/value store
// the widget keeps its devices, selection hints, and flags in. Values are
// opaque strings, mirroring web storage semantics. Nothing is persisted
// server-side: stores live in memory for the lifetime of the process and
// are keyed per browser profile.
package localstore

import "sync"

// Well-known storage keys. These match the keys the browser widget uses so
// that server- and client-resident state stay interchangeable.
const (
	KeyOrgToken      = "keyoIdentitiesOrgToken"
	KeyTokenExpiry   = "keyoIdentitiesOrgTokenExpiry"
	KeyDevices       = "keyoIdentitiesDevices"
	KeyLastDevice    = "keyoIdentitiesLastDevice"
	KeyDefaultDevice = "keyoIdentitiesDefaultDevice"
	KeyLastView      = "keyoIdentitiesLastView"
	KeyDemoMode      = "keyoIdentitiesDemoMode"
)

// Store is a flat string key/value store with web-storage semantics.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// MemoryStore is an in-memory Store, safe for concurrent use. Concurrent
// read-modify-write sequences by different callers can still race, exactly
// as two browser tabs can; callers accept last-write-wins.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value for key and whether it was present.
func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Manager hands out one Store per browser profile.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*MemoryStore
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{stores: make(map[string]*MemoryStore)}
}

// ForProfile returns the store for the given profile id, creating it on
// first use. The empty profile id maps to a shared anonymous store.
func (m *Manager) ForProfile(id string) Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	store, ok := m.stores[id]
	if !ok {
		store = NewMemoryStore()
		m.stores[id] = store
	}
	return store
}
