package cache

import (
	"testing"
	"time"

	"media-translator/internal/storage"
)

func TestManager_SetGet(t *testing.T) {
	backend := storage.NewMemoryStore()
	m := NewManager(backend, nil)

	type payload struct {
		A int `json:"a"`
	}

	t.Run("round trip", func(t *testing.T) {
		if err := m.Set("x", payload{A: 1}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		var got payload
		if !m.Get("x", &got) {
			t.Fatal("expected cache hit")
		}
		if got.A != 1 {
			t.Errorf("expected a=1, got %d", got.A)
		}
	})

	t.Run("missing key is a miss", func(t *testing.T) {
		var got payload
		if m.Get("never-set", &got) {
			t.Error("expected cache miss")
		}
		if !m.IsExpired("never-set") {
			t.Error("absent key should report expired")
		}
	})

	t.Run("overwrite replaces value", func(t *testing.T) {
		if err := m.Set("x", payload{A: 2}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		var got payload
		if !m.Get("x", &got) {
			t.Fatal("expected cache hit")
		}
		if got.A != 2 {
			t.Errorf("expected a=2, got %d", got.A)
		}
	})
}

func TestManager_Expiry(t *testing.T) {
	backend := storage.NewMemoryStore()
	m := NewManager(backend, nil) // default 24h TTL

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return current })

	if err := m.Set("x", map[string]int{"a": 1}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got map[string]int
	if !m.Get("x", &got) {
		t.Fatal("expected hit before expiry")
	}
	if m.IsExpired("x") {
		t.Error("fresh entry should not be expired")
	}

	// Advance past the default 24h TTL.
	current = current.Add(25 * time.Hour)

	if m.Get("x", &got) {
		t.Error("expected miss after TTL elapsed")
	}
	if !m.IsExpired("x") {
		t.Error("expected IsExpired after TTL elapsed")
	}

	// The expired read must have evicted the underlying entry.
	if _, ok := backend.Get("cache:x"); ok {
		t.Error("expired entry was not evicted")
	}
}

func TestManager_TTLFixedAtWriteTime(t *testing.T) {
	backend := storage.NewMemoryStore()
	ttl := 2 * time.Hour
	m := NewManager(backend, func() time.Duration { return ttl })

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return current })

	if err := m.Set("x", 42); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Raising the TTL after the write must not extend the existing entry.
	ttl = 48 * time.Hour
	current = current.Add(3 * time.Hour)

	var got int
	if m.Get("x", &got) {
		t.Error("entry should keep the expiry fixed at write time")
	}
}

func TestManager_CorruptedEntry(t *testing.T) {
	backend := storage.NewMemoryStore()
	m := NewManager(backend, nil)

	// Write malformed non-JSON data directly under the cache key.
	if err := backend.Set("cache:bad", "{not json"); err != nil {
		t.Fatalf("backend.Set failed: %v", err)
	}

	var got map[string]int
	if m.Get("bad", &got) {
		t.Error("corrupted entry should behave like a miss")
	}
	if !m.IsExpired("bad") {
		t.Error("corrupted entry should report expired")
	}

	// The corrupted value must have been removed.
	if _, ok := backend.Get("cache:bad"); ok {
		t.Error("corrupted entry was not self-healed")
	}
}

func TestManager_ClearScopedToNamespace(t *testing.T) {
	backend := storage.NewMemoryStore()
	m := NewManager(backend, nil)

	if err := m.Set("a", 1); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := m.Set("b", 2); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	// Unrelated persisted data outside the cache namespace.
	if err := backend.Set("config", `{"theme":"dark"}`); err != nil {
		t.Fatalf("backend.Set failed: %v", err)
	}

	if err := m.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	var got int
	if m.Get("a", &got) || m.Get("b", &got) {
		t.Error("cache entries should be gone after Clear")
	}
	if _, ok := backend.Get("config"); !ok {
		t.Error("Clear must not disturb keys outside the cache namespace")
	}
}
