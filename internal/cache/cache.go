// Package cache provides an expiring key/value store over the persistent
// storage backend. Entries carry an absolute expiry fixed at write time;
// a read past the expiry behaves like a miss and evicts the entry.
package cache

import (
	"encoding/json"
	"time"

	"media-translator/internal/logger"
	"media-translator/internal/storage"
)

const (
	// keyPrefix namespaces cache entries so Clear never disturbs
	// unrelated persisted data (config, token).
	keyPrefix = "cache:"

	// DefaultTTL applies when no TTL source is configured.
	DefaultTTL = 24 * time.Hour
)

// entry is the persisted envelope around a cached value.
type entry struct {
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"created_at"` // unix milliseconds
	ExpiresAt int64           `json:"expires_at"` // unix milliseconds
}

// Manager is the expiring cache store. TTL is read from its source on
// every write, so later configuration changes do not move the expiry of
// entries already written.
type Manager struct {
	backend storage.Backend
	ttl     func() time.Duration
	now     func() time.Time
}

// NewManager creates a cache manager over backend. ttl supplies the
// entry lifetime at write time; nil means DefaultTTL.
func NewManager(backend storage.Backend, ttl func() time.Duration) *Manager {
	if ttl == nil {
		ttl = func() time.Duration { return DefaultTTL }
	}
	return &Manager{
		backend: backend,
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetClock overrides the time source. Tests use this to advance time
// without sleeping.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Set stores data under key with the configured TTL.
func (m *Manager) Set(key string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	created := m.now()
	e := entry{
		Data:      raw,
		CreatedAt: created.UnixMilli(),
		ExpiresAt: created.Add(m.ttl()).UnixMilli(),
	}

	encoded, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return m.backend.Set(keyPrefix+key, string(encoded))
}

// Get reads the entry under key into out. It returns false on a miss,
// on an expired entry, and on a corrupted entry; the latter two are
// removed as a side effect. It never returns an error to callers:
// corruption is indistinguishable from absence.
func (m *Manager) Get(key string, out interface{}) bool {
	raw, ok := m.backend.Get(keyPrefix + key)
	if !ok {
		return false
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		// Corrupted persisted value: self-heal by evicting it.
		logger.Warn("removing corrupted cache entry", logger.String("key", key), logger.Err(err))
		m.backend.Remove(keyPrefix + key)
		return false
	}

	if m.now().UnixMilli() > e.ExpiresAt {
		m.backend.Remove(keyPrefix + key)
		return false
	}

	if err := json.Unmarshal(e.Data, out); err != nil {
		logger.Warn("removing unreadable cache entry", logger.String("key", key), logger.Err(err))
		m.backend.Remove(keyPrefix + key)
		return false
	}

	return true
}

// Remove deletes the entry under key.
func (m *Manager) Remove(key string) error {
	return m.backend.Remove(keyPrefix + key)
}

// Clear removes every entry in this store's namespace. Keys outside the
// cache prefix are untouched.
func (m *Manager) Clear() error {
	for _, k := range m.backend.Keys(keyPrefix) {
		if err := m.backend.Remove(k); err != nil {
			return err
		}
	}
	return nil
}

// IsExpired reports whether key is expired or absent. A malformed entry
// counts as expired.
func (m *Manager) IsExpired(key string) bool {
	raw, ok := m.backend.Get(keyPrefix + key)
	if !ok {
		return true
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return true
	}

	return m.now().UnixMilli() > e.ExpiresAt
}
