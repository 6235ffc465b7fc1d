// Package config provides configuration and session management for the
// media translator application. User settings and the API bearer token
// share one persistent backend but live under separate keys: the token
// has its own fixed validity window, independent of cache TTLs.
package config

import (
	"encoding/json"
	"os"
	"time"

	"media-translator/internal/logger"
	"media-translator/internal/storage"
	"media-translator/internal/types"
)

const (
	// EnvAPIKey is the environment variable consulted when the stored
	// configuration carries no API key.
	EnvAPIKey = "MEDIA_TRANSLATOR_API_KEY"
	// DefaultBaseURL is the default API base URL
	DefaultBaseURL = "https://api.mediatranslator.app/v1"
	// DefaultPollingIntervalSecs is the default delay between job status checks
	DefaultPollingIntervalSecs = 10
	// DefaultPollingTimeoutSecs is the default whole-job polling ceiling (2 hours)
	DefaultPollingTimeoutSecs = 7200
	// DefaultCacheExpirationHours is the default TTL for cached metadata
	DefaultCacheExpirationHours = 24

	// TokenValidity is the fixed bearer token lifetime. It is deliberately
	// not configurable: the server invalidates tokens on the same schedule.
	TokenValidity = 6 * time.Hour

	configKey = "config"
	tokenKey  = "auth_token"
)

// storedToken is the persisted shape of the bearer token.
type storedToken struct {
	Token     string `json:"token"`
	SavedAt   int64  `json:"saved_at"`   // unix milliseconds
	ExpiresAt int64  `json:"expires_at"` // unix milliseconds
}

// Manager manages the persisted configuration and session token.
type Manager struct {
	backend storage.Backend
	now     func() time.Time
}

// NewManager creates a Manager over the given backend.
func NewManager(backend storage.Backend) *Manager {
	return &Manager{
		backend: backend,
		now:     time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// defaultConfig returns a Config with default values
func defaultConfig() types.Config {
	return types.Config{
		APIBaseURL:           DefaultBaseURL,
		PollingIntervalSecs:  DefaultPollingIntervalSecs,
		PollingTimeoutSecs:   DefaultPollingTimeoutSecs,
		CacheExpirationHours: DefaultCacheExpirationHours,
		ShowElapsedTime:      true,
	}
}

// GetConfig returns the stored configuration with defaults applied to
// empty fields. A missing or unreadable stored value yields defaults.
func (m *Manager) GetConfig() types.Config {
	cfg := defaultConfig()

	raw, ok := m.backend.Get(configKey)
	if ok {
		var stored types.Config
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			logger.Warn("invalid stored config, using defaults", logger.Err(err))
		} else {
			cfg = stored
		}
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultBaseURL
	}
	if cfg.PollingIntervalSecs <= 0 {
		cfg.PollingIntervalSecs = DefaultPollingIntervalSecs
	}
	if cfg.PollingTimeoutSecs <= 0 {
		cfg.PollingTimeoutSecs = DefaultPollingTimeoutSecs
	}
	if cfg.CacheExpirationHours <= 0 {
		cfg.CacheExpirationHours = DefaultCacheExpirationHours
	}

	return cfg
}

// SaveConfig merges patch into the stored configuration. Nil patch
// fields leave the stored values untouched.
func (m *Manager) SaveConfig(patch types.ConfigPatch) error {
	cfg := m.GetConfig()

	if patch.APIKey != nil {
		cfg.APIKey = *patch.APIKey
	}
	if patch.Username != nil {
		cfg.Username = *patch.Username
	}
	if patch.Password != nil {
		cfg.Password = *patch.Password
	}
	if patch.APIBaseURL != nil {
		cfg.APIBaseURL = *patch.APIBaseURL
	}
	if patch.TranscriptionModel != nil {
		cfg.TranscriptionModel = *patch.TranscriptionModel
	}
	if patch.TranslationModel != nil {
		cfg.TranslationModel = *patch.TranslationModel
	}
	if patch.PollingIntervalSecs != nil {
		cfg.PollingIntervalSecs = *patch.PollingIntervalSecs
	}
	if patch.PollingTimeoutSecs != nil {
		cfg.PollingTimeoutSecs = *patch.PollingTimeoutSecs
	}
	if patch.CacheExpirationHours != nil {
		cfg.CacheExpirationHours = *patch.CacheExpirationHours
	}
	if patch.PreferredLanguage != nil {
		cfg.PreferredLanguage = *patch.PreferredLanguage
	}
	if patch.LastMediaDirectory != nil {
		cfg.LastMediaDirectory = *patch.LastMediaDirectory
	}
	if patch.DownloadDirectory != nil {
		cfg.DownloadDirectory = *patch.DownloadDirectory
	}
	if patch.Theme != nil {
		cfg.Theme = *patch.Theme
	}
	if patch.ShowElapsedTime != nil {
		cfg.ShowElapsedTime = *patch.ShowElapsedTime
	}
	if patch.KeepCredentialsSigned != nil {
		cfg.KeepCredentialsSigned = *patch.KeepCredentialsSigned
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return types.NewAppError(types.ErrConfig, "failed to encode config", err)
	}

	if err := m.backend.Set(configKey, string(data)); err != nil {
		return types.NewAppError(types.ErrConfig, "failed to persist config", err)
	}

	logger.Debug("configuration saved")
	return nil
}

// GetAPIKey returns the configured API key, falling back to the
// environment variable when unset.
func (m *Manager) GetAPIKey() string {
	if key := m.GetConfig().APIKey; key != "" {
		return key
	}
	return os.Getenv(EnvAPIKey)
}

// CacheTTL returns the configured cache lifetime.
func (m *Manager) CacheTTL() time.Duration {
	return time.Duration(m.GetConfig().CacheExpirationHours) * time.Hour
}

// PollingInterval returns the configured delay between status checks.
func (m *Manager) PollingInterval() time.Duration {
	return time.Duration(m.GetConfig().PollingIntervalSecs) * time.Second
}

// PollingTimeout returns the configured whole-job polling ceiling.
func (m *Manager) PollingTimeout() time.Duration {
	return time.Duration(m.GetConfig().PollingTimeoutSecs) * time.Second
}

// SaveToken stores token with an expiry of now + TokenValidity.
func (m *Manager) SaveToken(token string) error {
	saved := m.now()
	st := storedToken{
		Token:     token,
		SavedAt:   saved.UnixMilli(),
		ExpiresAt: saved.Add(TokenValidity).UnixMilli(),
	}

	data, err := json.Marshal(st)
	if err != nil {
		return types.NewAppError(types.ErrConfig, "failed to encode token", err)
	}

	if err := m.backend.Set(tokenKey, string(data)); err != nil {
		return types.NewAppError(types.ErrConfig, "failed to persist token", err)
	}

	logger.Info("session token saved", logger.Duration("validity", TokenValidity))
	return nil
}

// GetValidToken returns the stored token if it is still within its
// validity window. An expired or unreadable token is actively cleared
// as a side effect of the check.
func (m *Manager) GetValidToken() (string, bool) {
	raw, ok := m.backend.Get(tokenKey)
	if !ok {
		return "", false
	}

	var st storedToken
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		logger.Warn("clearing unreadable session token", logger.Err(err))
		m.backend.Remove(tokenKey)
		return "", false
	}

	if m.now().UnixMilli() > st.ExpiresAt {
		logger.Info("session token expired, clearing")
		m.backend.Remove(tokenKey)
		return "", false
	}

	return st.Token, true
}

// ClearToken removes the stored token.
func (m *Manager) ClearToken() error {
	logger.Info("session token cleared")
	return m.backend.Remove(tokenKey)
}

// ResetAll clears the configuration and the token together. A reset
// that leaves one without the other is a defect, so the token removal
// is attempted even when the config removal fails.
func (m *Manager) ResetAll() error {
	cfgErr := m.backend.Remove(configKey)
	tokErr := m.backend.Remove(tokenKey)

	if cfgErr != nil {
		return types.NewAppError(types.ErrConfig, "failed to reset config", cfgErr)
	}
	if tokErr != nil {
		return types.NewAppError(types.ErrConfig, "failed to reset token", tokErr)
	}

	logger.Info("all settings reset")
	return nil
}
