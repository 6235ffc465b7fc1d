package config

import (
	"testing"
	"time"

	"media-translator/internal/storage"
	"media-translator/internal/types"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func TestManager_Defaults(t *testing.T) {
	m := NewManager(storage.NewMemoryStore())

	cfg := m.GetConfig()
	if cfg.APIBaseURL != DefaultBaseURL {
		t.Errorf("expected default base URL %s, got %s", DefaultBaseURL, cfg.APIBaseURL)
	}
	if cfg.PollingIntervalSecs != DefaultPollingIntervalSecs {
		t.Errorf("expected default polling interval, got %d", cfg.PollingIntervalSecs)
	}
	if cfg.PollingTimeoutSecs != DefaultPollingTimeoutSecs {
		t.Errorf("expected default polling timeout, got %d", cfg.PollingTimeoutSecs)
	}
	if cfg.CacheExpirationHours != DefaultCacheExpirationHours {
		t.Errorf("expected default cache TTL, got %d", cfg.CacheExpirationHours)
	}
}

func TestManager_SaveConfigPartialMerge(t *testing.T) {
	m := NewManager(storage.NewMemoryStore())

	err := m.SaveConfig(types.ConfigPatch{
		Username: strPtr("alice"),
		Theme:    strPtr("dark"),
	})
	if err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	// A later partial save must not touch unspecified fields.
	err = m.SaveConfig(types.ConfigPatch{
		PollingIntervalSecs: intPtr(5),
	})
	if err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	cfg := m.GetConfig()
	if cfg.Username != "alice" {
		t.Errorf("expected username 'alice', got '%s'", cfg.Username)
	}
	if cfg.Theme != "dark" {
		t.Errorf("expected theme 'dark', got '%s'", cfg.Theme)
	}
	if cfg.PollingIntervalSecs != 5 {
		t.Errorf("expected polling interval 5, got %d", cfg.PollingIntervalSecs)
	}

	// Explicit false must overwrite a stored true.
	err = m.SaveConfig(types.ConfigPatch{ShowElapsedTime: boolPtr(false)})
	if err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if m.GetConfig().ShowElapsedTime {
		t.Error("expected ShowElapsedTime false after patch")
	}
}

func TestManager_TokenLifecycle(t *testing.T) {
	backend := storage.NewMemoryStore()
	m := NewManager(backend)

	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return current })

	if err := m.SaveToken("tok-123"); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	t.Run("valid within window", func(t *testing.T) {
		current = current.Add(TokenValidity - time.Hour)
		tok, ok := m.GetValidToken()
		if !ok || tok != "tok-123" {
			t.Fatalf("expected valid token, got %q ok=%v", tok, ok)
		}
	})

	t.Run("expired past window and cleared", func(t *testing.T) {
		current = current.Add(2 * time.Hour) // now validity + 1h past save
		if _, ok := m.GetValidToken(); ok {
			t.Fatal("expected expired token")
		}
		// The expiry check must clear the stored value, not just hide it.
		if _, ok := backend.Get("auth_token"); ok {
			t.Error("expired token was not cleared from storage")
		}
	})

	t.Run("clear token", func(t *testing.T) {
		if err := m.SaveToken("tok-456"); err != nil {
			t.Fatalf("SaveToken failed: %v", err)
		}
		if err := m.ClearToken(); err != nil {
			t.Fatalf("ClearToken failed: %v", err)
		}
		if _, ok := m.GetValidToken(); ok {
			t.Error("expected no token after ClearToken")
		}
	})
}

func TestManager_ResetAll(t *testing.T) {
	backend := storage.NewMemoryStore()
	m := NewManager(backend)

	if err := m.SaveConfig(types.ConfigPatch{Username: strPtr("alice")}); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if err := m.SaveToken("tok-123"); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	if err := m.ResetAll(); err != nil {
		t.Fatalf("ResetAll failed: %v", err)
	}

	if m.GetConfig().Username != "" {
		t.Error("config should be cleared by ResetAll")
	}
	if _, ok := m.GetValidToken(); ok {
		t.Error("token should be cleared by ResetAll")
	}
}

func TestManager_CorruptStoredConfig(t *testing.T) {
	backend := storage.NewMemoryStore()
	if err := backend.Set("config", "not json"); err != nil {
		t.Fatalf("backend.Set failed: %v", err)
	}

	m := NewManager(backend)
	cfg := m.GetConfig()
	if cfg.APIBaseURL != DefaultBaseURL {
		t.Error("corrupt config should fall back to defaults")
	}
}
