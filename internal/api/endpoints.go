package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strings"

	"media-translator/internal/logger"
	"media-translator/internal/types"
)

// cachedGet is read-through caching for GETs: serve fresh cache entries
// without a network call, otherwise fetch and store. A cache write
// failure is logged but never fails the call.
func (c *Client) cachedGet(ctx context.Context, desc, path string, query url.Values, authed bool, cacheKey string, out interface{}) error {
	if c.cache.Get(cacheKey, out) {
		logger.Debug("cache hit", logger.String("key", cacheKey))
		return nil
	}
	if err := c.get(ctx, desc, path, query, authed, out); err != nil {
		return err
	}
	if err := c.cache.Set(cacheKey, out); err != nil {
		logger.Warn("cache write failed", logger.String("key", cacheKey), logger.Err(err))
	}
	return nil
}

// Models lists the models available for a job kind. Cached.
func (c *Client) Models(ctx context.Context, kind types.JobKind) ([]Model, error) {
	var models []Model
	query := url.Values{"type": {string(kind)}}
	err := c.cachedGet(ctx, "fetch models", "/models", query, false,
		"models:"+string(kind), &models)
	if err != nil {
		return nil, err
	}
	return models, nil
}

// Languages lists the languages supported for a job kind. Cached.
func (c *Client) Languages(ctx context.Context, kind types.JobKind) ([]Language, error) {
	var langs []Language
	query := url.Values{"type": {string(kind)}}
	err := c.cachedGet(ctx, "fetch languages", "/languages", query, false,
		"languages:"+string(kind), &langs)
	if err != nil {
		return nil, err
	}
	return langs, nil
}

// SubtitleLanguages lists the languages available for subtitle search.
// Cached.
func (c *Client) SubtitleLanguages(ctx context.Context) ([]Language, error) {
	var langs []Language
	err := c.cachedGet(ctx, "fetch subtitle languages", "/subtitles/languages", nil, false,
		"languages:subtitles", &langs)
	if err != nil {
		return nil, err
	}
	return langs, nil
}

// Credits returns the account's remaining credit balance. Never cached:
// showing a stale balance after a job consumed credits would mislead.
func (c *Client) Credits(ctx context.Context) (*Credits, error) {
	var credits Credits
	if err := c.get(ctx, "fetch credits", "/credits", nil, true, &credits); err != nil {
		return nil, err
	}
	return &credits, nil
}

// CreditPackages lists the purchasable credit packages. Cached.
func (c *Client) CreditPackages(ctx context.Context) ([]CreditPackage, error) {
	var packages []CreditPackage
	err := c.cachedGet(ctx, "fetch credit packages", "/credits/packages", nil, false,
		"credit_packages", &packages)
	if err != nil {
		return nil, err
	}
	return packages, nil
}

// RecentMedia lists the account's recently processed media. Cached
// briefly so the history view does not hammer the endpoint.
func (c *Client) RecentMedia(ctx context.Context) ([]MediaItem, error) {
	var items []MediaItem
	err := c.cachedGet(ctx, "fetch recent media", "/media/recent", nil, true,
		"recent_media", &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Transcribe submits a transcription job for the given media file.
func (c *Client) Transcribe(ctx context.Context, req UploadRequest) (*InitiateResult, error) {
	return c.initiateJob(ctx, "transcribe media", "/transcribe", req)
}

// Translate submits a translation job for the given media file.
func (c *Client) Translate(ctx context.Context, req UploadRequest) (*InitiateResult, error) {
	return c.initiateJob(ctx, "translate media", "/translate", req)
}

// DetectLanguage submits a language-detection job for the given media
// file.
func (c *Client) DetectLanguage(ctx context.Context, req UploadRequest) (*InitiateResult, error) {
	return c.initiateJob(ctx, "detect language", "/detect-language", req)
}

// initiateJob uploads the media as multipart form data and normalizes
// the server's answer: small files may complete synchronously, larger
// ones come back with a correlation id for polling.
func (c *Client) initiateJob(ctx context.Context, desc, path string, req UploadRequest) (*InitiateResult, error) {
	if req.FileName == "" {
		return nil, types.NewAppError(types.ErrInvalidInput, "file name is required", nil)
	}
	if len(req.Content) == 0 {
		return nil, types.NewAppError(types.ErrInvalidInput, "file content is empty", nil)
	}

	// Built once; the executor hands roundTrip a fresh reader over these
	// bytes on every attempt.
	body, contentType, err := buildUploadBody(req)
	if err != nil {
		return nil, err
	}

	var payload struct {
		CorrelationID string     `json:"correlation_id"`
		Status        string     `json:"status"`
		Data          *JobOutput `json:"result"`
	}
	if err := c.postMultipart(ctx, desc, path, body, contentType, &payload); err != nil {
		return nil, err
	}

	if payload.CorrelationID != "" {
		logger.Info("job accepted",
			logger.String("operation", desc),
			logger.String("correlation_id", payload.CorrelationID))
		return &InitiateResult{CorrelationID: payload.CorrelationID}, nil
	}
	if payload.Data != nil {
		return &InitiateResult{Completed: true, Output: payload.Data}, nil
	}
	return nil, types.NewAppError(types.ErrAPICall,
		"server returned neither a result nor a correlation id", nil)
}

// buildUploadBody assembles the multipart form for a job submission.
func buildUploadBody(req UploadRequest) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(req.FileName))
	if err != nil {
		return nil, "", types.NewAppError(types.ErrInternal, "failed to build upload form", err)
	}
	if _, err := part.Write(req.Content); err != nil {
		return nil, "", types.NewAppError(types.ErrInternal, "failed to build upload form", err)
	}

	fields := map[string]string{
		"language":        req.Language,
		"source_language": req.SourceLanguage,
		"target_language": req.TargetLanguage,
		"model":           req.Model,
	}
	for key, value := range fields {
		if value == "" {
			continue
		}
		if err := w.WriteField(key, value); err != nil {
			return nil, "", types.NewAppError(types.ErrInternal, "failed to build upload form", err)
		}
	}
	for key, value := range req.Extra {
		if err := w.WriteField(key, value); err != nil {
			return nil, "", types.NewAppError(types.ErrInternal, "failed to build upload form", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", types.NewAppError(types.ErrInternal, "failed to build upload form", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// JobStatus fetches the current state of an asynchronous job.
func (c *Client) JobStatus(ctx context.Context, correlationID string) (*JobStatus, error) {
	if correlationID == "" {
		return nil, types.NewAppError(types.ErrInvalidInput, "correlation id is required", nil)
	}
	var status JobStatus
	path := "/jobs/" + url.PathEscape(correlationID)
	if err := c.get(ctx, "check job status", path, nil, true, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SearchSubtitles queries the subtitle catalog.
func (c *Client) SearchSubtitles(ctx context.Context, q SubtitleQuery) ([]SubtitleResult, error) {
	if q.Query == "" && q.MovieHash == "" {
		return nil, types.NewAppError(types.ErrInvalidInput, "a title or a movie hash is required", nil)
	}

	query := url.Values{}
	if q.Query != "" {
		query.Set("query", q.Query)
	}
	if q.MovieHash != "" {
		query.Set("moviehash", q.MovieHash)
	}
	if len(q.Languages) > 0 {
		query.Set("languages", strings.Join(q.Languages, ","))
	}
	if q.Year > 0 {
		query.Set("year", fmt.Sprintf("%d", q.Year))
	}

	var results []SubtitleResult
	if err := c.get(ctx, "search subtitles", "/subtitles/search", query, true, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// ResolveFileURL exchanges a media id for a short-lived download URL.
func (c *Client) ResolveFileURL(ctx context.Context, mediaID string) (string, error) {
	if mediaID == "" {
		return "", types.NewAppError(types.ErrInvalidInput, "media id is required", nil)
	}
	var payload struct {
		URL string `json:"url"`
	}
	path := "/media/" + url.PathEscape(mediaID) + "/url"
	if err := c.get(ctx, "resolve file url", path, nil, true, &payload); err != nil {
		return "", err
	}
	if payload.URL == "" {
		return "", types.NewAppError(types.ErrAPICall, "server returned no download url", nil)
	}
	return payload.URL, nil
}
