// Package api implements the authenticated client for the media
// translation service. Every method validates its credential material
// before touching the network, consults the cache for cacheable reads,
// and routes the actual call through the resilient request executor.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"media-translator/internal/cache"
	"media-translator/internal/config"
	"media-translator/internal/logger"
	"media-translator/internal/network"
	"media-translator/internal/request"
	"media-translator/internal/types"
)

const (
	// httpTimeout bounds a single HTTP attempt. Uploads of large media
	// can be slow, so this is generous; a hit classifies as a retryable
	// timeout.
	httpTimeout = 5 * time.Minute

	headerAPIKey = "Api-Key"
	userAgent    = "MediaTranslator/1.0"
)

// Client talks to the remote media translation API.
type Client struct {
	session *config.Manager
	cache   *cache.Manager
	exec    *request.Executor
	http    *http.Client

	// login de-duplication: concurrent callers share one in-flight
	// network login instead of issuing duplicates.
	loginGroup singleflight.Group

	// OnSessionExpired, when set, is called after a 401/403 response has
	// invalidated the stored token. One-shot notification; no auto-login.
	OnSessionExpired func()
}

// NewClient creates a client over the given session store, cache and
// executor.
func NewClient(session *config.Manager, cacheMgr *cache.Manager, exec *request.Executor) *Client {
	return &Client{
		session: session,
		cache:   cacheMgr,
		exec:    exec,
		http: &http.Client{
			Timeout: httpTimeout,
		},
	}
}

// SetHTTPClient overrides the underlying HTTP client, for tests.
func (c *Client) SetHTTPClient(h *http.Client) {
	c.http = h
}

// baseURL returns the configured API base URL without a trailing slash.
func (c *Client) baseURL() string {
	return strings.TrimRight(c.session.GetConfig().APIBaseURL, "/")
}

// Login authenticates with the service and stores the bearer token.
// It is always a single network attempt: a rate-limited or failing auth
// endpoint must never be hammered with backoff retries, because repeated
// bad-credential attempts can trigger server-side lockout. Concurrent
// callers collapse into one in-flight request and share its outcome.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	apiKey := c.session.GetAPIKey()
	if apiKey == "" {
		return "", types.NewAppError(types.ErrAuth, "API key is not configured", nil)
	}
	if username == "" || password == "" {
		return "", types.NewAppError(types.ErrInvalidInput, "username and password are required", nil)
	}

	token, err, shared := c.loginGroup.Do("login", func() (interface{}, error) {
		return c.doLogin(ctx, apiKey, username, password)
	})
	if shared {
		logger.Debug("login call joined an in-flight attempt")
	}
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (c *Client) doLogin(ctx context.Context, apiKey, username, password string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to encode login request", err)
	}

	var payload struct {
		Token string `json:"token"`
	}

	// Limit 0: exactly one attempt regardless of classification.
	err = c.exec.DoWithLimit(ctx, "login", 0, func(ctx context.Context) error {
		return c.roundTrip(ctx, http.MethodPost, "/login", nil, bytes.NewReader(body),
			"application/json", "", &payload)
	})
	if err != nil {
		return "", err
	}

	if payload.Token == "" {
		return "", types.NewAppError(types.ErrAPICall, "login response carried no token", nil)
	}

	if err := c.session.SaveToken(payload.Token); err != nil {
		return "", err
	}
	logger.Info("login succeeded", logger.String("username", username))
	return payload.Token, nil
}

// EnsureSession returns a valid bearer token, reusing the stored one
// when it is still inside its validity window and logging in with the
// configured credentials otherwise.
func (c *Client) EnsureSession(ctx context.Context) (string, error) {
	if token, ok := c.session.GetValidToken(); ok {
		return token, nil
	}

	cfg := c.session.GetConfig()
	if cfg.Username == "" || cfg.Password == "" {
		return "", types.NewAppError(types.ErrAuth, "sign in required", nil)
	}
	return c.Login(ctx, cfg.Username, cfg.Password)
}

// Logout clears the stored token.
func (c *Client) Logout() error {
	return c.session.ClearToken()
}

// get runs an authenticated-or-anonymous GET through the retry executor
// and decodes the (possibly enveloped) response into out.
func (c *Client) get(ctx context.Context, desc, path string, query url.Values, authed bool, out interface{}) error {
	apiKey := c.session.GetAPIKey()
	if apiKey == "" {
		return types.NewAppError(types.ErrAuth, "API key is not configured", nil)
	}

	token := ""
	if authed {
		t, err := c.EnsureSession(ctx)
		if err != nil {
			return err
		}
		token = t
	}

	return c.exec.Do(ctx, desc, func(ctx context.Context) error {
		return c.roundTrip(ctx, http.MethodGet, path, query, nil, "", token, out)
	})
}

// postMultipart uploads a multipart body through the retry executor. The
// body bytes are rebuilt into a fresh reader per attempt so retries never
// send a half-consumed stream.
func (c *Client) postMultipart(ctx context.Context, desc, path string, body []byte, contentType string, out interface{}) error {
	apiKey := c.session.GetAPIKey()
	if apiKey == "" {
		return types.NewAppError(types.ErrAuth, "API key is not configured", nil)
	}

	token, err := c.EnsureSession(ctx)
	if err != nil {
		return err
	}

	return c.exec.Do(ctx, desc, func(ctx context.Context) error {
		return c.roundTrip(ctx, http.MethodPost, path, nil, bytes.NewReader(body), contentType, token, out)
	})
}

// roundTrip performs one HTTP attempt: build, send, check status, decode.
// A 401/403 clears the stored token before the classified error
// propagates, so the session layer observes the expiry exactly once.
func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType, token string, out interface{}) error {
	u := c.baseURL() + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return types.NewAppError(types.ErrInternal, "failed to create request", err)
	}

	req.Header.Set(headerAPIKey, c.session.GetAPIKey())
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		logger.Warn("session rejected by server, clearing token", logger.Int("status", resp.StatusCode))
		c.session.ClearToken()
		if c.OnSessionExpired != nil {
			c.OnSessionExpired()
		}
		return &network.HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &network.HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := decodeEnvelope(data, out); err != nil {
		return types.NewAppError(types.ErrAPICall, "failed to decode response", err)
	}
	return nil
}

// decodeEnvelope normalizes the two response shapes the service produces:
// the payload either sits under a "data" key or arrives bare. This is the
// single place response-shape tolerance lives.
func decodeEnvelope(data []byte, out interface{}) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Data) > 0 {
		return json.Unmarshal(envelope.Data, out)
	}
	return json.Unmarshal(data, out)
}
