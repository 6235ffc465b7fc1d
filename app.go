package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"media-translator/internal/api"
	"media-translator/internal/cache"
	"media-translator/internal/config"
	"media-translator/internal/downloader"
	"media-translator/internal/language"
	"media-translator/internal/logger"
	"media-translator/internal/network"
	"media-translator/internal/poller"
	"media-translator/internal/request"
	"media-translator/internal/storage"
	"media-translator/internal/types"
)

// Event names for frontend communication
const (
	EventActivityChanged     = "activity-changed"
	EventJobProgress         = "job-progress"
	EventJobStatus           = "job-status"
	EventSessionExpired      = "session-expired"
	EventConnectivityChanged = "connectivity-changed"
)

// BindingResult is the envelope every frontend binding returns. The
// frontend never sees a raw Go error: failures carry a stable code and
// a user-facing message.
type BindingResult struct {
	Success bool          `json:"success"`
	Data    interface{}   `json:"data,omitempty"`
	Error   *BindingError `json:"error,omitempty"`
}

// BindingError is the JS-friendly error payload.
type BindingError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func ok(data interface{}) BindingResult {
	return BindingResult{Success: true, Data: data}
}

// fail converts any error into a BindingResult, preserving the error
// taxonomy: classified network errors keep their policy-defined user
// message, AppErrors keep their code.
func fail(err error) BindingResult {
	switch e := err.(type) {
	case *network.Error:
		return BindingResult{Success: false, Error: &BindingError{
			Code:    string(e.Type),
			Message: e.Message,
		}}
	case *types.AppError:
		return BindingResult{Success: false, Error: &BindingError{
			Code:    string(e.Code),
			Message: e.Message,
			Details: e.Details,
		}}
	default:
		return BindingResult{Success: false, Error: &BindingError{
			Code:    string(types.ErrInternal),
			Message: err.Error(),
		}}
	}
}

// App is the main Wails application controller. It wires the session
// store, cache, retry executor, API client, poller and downloader, and
// exposes them to the frontend as bindings.
type App struct {
	ctx context.Context

	session    *config.Manager
	cache      *cache.Manager
	monitor    *network.SignalMonitor
	tracker    *request.Tracker
	executor   *request.Executor
	client     *api.Client
	poller     *poller.Poller
	downloader *downloader.Downloader

	// Current job cancellation. One in-flight media job at a time; the
	// window-close guard and CancelJob act on this.
	jobMu     sync.Mutex
	jobCancel context.CancelFunc

	statusMu sync.RWMutex
	status   types.Status

	// isWailsRuntime gates EventsEmit so CLI mode and tests can run the
	// same code paths without a frontend.
	isWailsRuntime bool
}

// NewApp creates the App with all modules wired over the persistent
// store at the platform config directory.
func NewApp() (*App, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return NewAppWithStorePath(filepath.Join(dir, "media-translator", "store.json"))
}

// NewAppWithStorePath creates the App over a specific store file. Used
// by tests and the CLI --store flag.
func NewAppWithStorePath(storePath string) (*App, error) {
	backend, err := storage.NewFileStore(storePath)
	if err != nil {
		return nil, err
	}

	a := &App{
		session: config.NewManager(backend),
		monitor: network.NewSignalMonitor(true),
		tracker: request.NewTracker(),
		status:  types.Status{Phase: types.PhaseIdle},
	}
	a.cache = cache.NewManager(backend, a.session.CacheTTL)
	a.executor = request.NewExecutor(network.DefaultPolicy(), a.monitor, a.tracker)
	a.client = api.NewClient(a.session, a.cache, a.executor)
	a.client.OnSessionExpired = func() {
		a.safeEmit(EventSessionExpired)
	}
	a.poller = poller.New(a.client.JobStatus, a.session.PollingInterval, a.session.PollingTimeout)
	a.downloader = downloader.New()

	a.tracker.Subscribe(func(active []request.Operation) {
		a.safeEmit(EventActivityChanged, active)
	})
	a.monitor.Subscribe(func(online bool) {
		a.safeEmit(EventConnectivityChanged, online)
	})
	return a, nil
}

// safeEmit emits an event to the frontend, only when running under the
// Wails runtime.
func (a *App) safeEmit(eventName string, data ...interface{}) {
	if !a.isWailsRuntime || a.ctx == nil {
		logger.Debug("event emit skipped (not in Wails runtime)",
			logger.String("event", eventName))
		return
	}
	runtime.EventsEmit(a.ctx, eventName, data...)
}

// SetWailsRuntime marks the app as running under Wails. Called from
// main.go in GUI mode.
func (a *App) SetWailsRuntime(isWails bool) {
	a.isWailsRuntime = isWails
}

// startup is called by Wails when the app starts.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	logger.Info("application started")
}

// shutdown is called by Wails when the app exits.
func (a *App) shutdown(ctx context.Context) {
	a.CancelJob()
	logger.Close()
}

// --- Session bindings ---

// Login authenticates and stores the session token.
func (a *App) Login(username, password string) BindingResult {
	if _, err := a.client.Login(a.bgCtx(), username, password); err != nil {
		return fail(err)
	}
	if a.session.GetConfig().KeepCredentialsSigned {
		if err := a.session.SaveConfig(types.ConfigPatch{
			Username: &username,
			Password: &password,
		}); err != nil {
			logger.Warn("failed to persist credentials", logger.Err(err))
		}
	}
	return ok(true)
}

// Logout discards the stored session token.
func (a *App) Logout() BindingResult {
	if err := a.client.Logout(); err != nil {
		return fail(err)
	}
	return ok(true)
}

// IsSignedIn reports whether a non-expired token is stored.
func (a *App) IsSignedIn() BindingResult {
	_, valid := a.session.GetValidToken()
	return ok(valid)
}

// --- Settings bindings ---

// GetSettings returns the effective configuration.
func (a *App) GetSettings() BindingResult {
	return ok(a.session.GetConfig())
}

// SaveSettings merges the patch into the stored configuration. Fields
// absent from the patch keep their current values.
func (a *App) SaveSettings(patch types.ConfigPatch) BindingResult {
	if err := a.session.SaveConfig(patch); err != nil {
		return fail(err)
	}
	return ok(a.session.GetConfig())
}

// ResetSettings restores defaults and signs the user out.
func (a *App) ResetSettings() BindingResult {
	if err := a.session.ResetAll(); err != nil {
		return fail(err)
	}
	return ok(a.session.GetConfig())
}

// ClearCache drops all cached API responses.
func (a *App) ClearCache() BindingResult {
	if err := a.cache.Clear(); err != nil {
		return fail(err)
	}
	return ok(true)
}

// SetOnline feeds the frontend's connectivity signal into the request
// pipeline. The browser runtime knows when the machine goes offline;
// Go only finds out when a call fails.
func (a *App) SetOnline(online bool) BindingResult {
	a.monitor.SetOnline(online)
	return ok(online)
}

// --- Catalog bindings ---

// GetModels lists the models available for a job kind.
func (a *App) GetModels(kind string) BindingResult {
	models, err := a.client.Models(a.bgCtx(), types.JobKind(kind))
	if err != nil {
		return fail(err)
	}
	return ok(models)
}

// GetLanguages lists the raw provider languages for a job kind.
func (a *App) GetLanguages(kind string) BindingResult {
	langs, err := a.client.Languages(a.bgCtx(), types.JobKind(kind))
	if err != nil {
		return fail(err)
	}
	return ok(langs)
}

// GetConsolidatedLanguages merges every capability's language list into
// the deduplicated selection model the language picker shows.
func (a *App) GetConsolidatedLanguages() BindingResult {
	byProvider, err := a.languagesByProvider()
	if err != nil {
		return fail(err)
	}
	return ok(language.Consolidate(byProvider))
}

// GetCompatibilityMatrix reports which capabilities support each
// consolidated language id.
func (a *App) GetCompatibilityMatrix() BindingResult {
	byProvider, err := a.languagesByProvider()
	if err != nil {
		return fail(err)
	}
	providers := make([]string, 0, len(byProvider))
	for _, kind := range providerKinds {
		if _, present := byProvider[string(kind)]; present {
			providers = append(providers, string(kind))
		}
	}
	return ok(language.BuildCompatibilityMatrix(byProvider, providers))
}

var providerKinds = []types.JobKind{
	types.JobTranscription,
	types.JobTranslation,
}

func (a *App) languagesByProvider() (map[string][]api.Language, error) {
	byProvider := make(map[string][]api.Language)
	for _, kind := range providerKinds {
		langs, err := a.client.Languages(a.bgCtx(), kind)
		if err != nil {
			return nil, err
		}
		byProvider[string(kind)] = langs
	}
	return byProvider, nil
}

// GetCredits returns the live credit balance.
func (a *App) GetCredits() BindingResult {
	credits, err := a.client.Credits(a.bgCtx())
	if err != nil {
		return fail(err)
	}
	return ok(credits)
}

// GetCreditPackages lists the purchasable credit packages.
func (a *App) GetCreditPackages() BindingResult {
	packages, err := a.client.CreditPackages(a.bgCtx())
	if err != nil {
		return fail(err)
	}
	return ok(packages)
}

// GetRecentMedia lists the account's recently processed media.
func (a *App) GetRecentMedia() BindingResult {
	items, err := a.client.RecentMedia(a.bgCtx())
	if err != nil {
		return fail(err)
	}
	return ok(items)
}

// SearchSubtitles queries the subtitle catalog.
func (a *App) SearchSubtitles(query api.SubtitleQuery) BindingResult {
	results, err := a.client.SearchSubtitles(a.bgCtx(), query)
	if err != nil {
		return fail(err)
	}
	return ok(results)
}

// --- Job bindings ---

// Transcribe submits a transcription job for the given media file and
// waits for the result, following the long-poll protocol when the job
// runs asynchronously.
func (a *App) Transcribe(filePath, languageCode, model string) BindingResult {
	return a.runJob("transcribe", filePath, func(ctx context.Context, content []byte) (*api.InitiateResult, error) {
		return a.client.Transcribe(ctx, api.UploadRequest{
			FileName: filePath,
			Content:  content,
			Language: languageCode,
			Model:    model,
		})
	})
}

// Translate submits a translation job for the given media file and
// waits for the result.
func (a *App) Translate(filePath, sourceLanguage, targetLanguage, model string) BindingResult {
	return a.runJob("translate", filePath, func(ctx context.Context, content []byte) (*api.InitiateResult, error) {
		return a.client.Translate(ctx, api.UploadRequest{
			FileName:       filePath,
			Content:        content,
			SourceLanguage: sourceLanguage,
			TargetLanguage: targetLanguage,
			Model:          model,
		})
	})
}

// DetectLanguage asks the service to identify the spoken language of a
// media file.
func (a *App) DetectLanguage(filePath string) BindingResult {
	return a.runJob("detect language", filePath, func(ctx context.Context, content []byte) (*api.InitiateResult, error) {
		return a.client.DetectLanguage(ctx, api.UploadRequest{
			FileName: filePath,
			Content:  content,
		})
	})
}

type initiateFunc func(ctx context.Context, content []byte) (*api.InitiateResult, error)

// updateStatus records the current processing phase and mirrors it to
// the frontend.
func (a *App) updateStatus(phase types.ProcessPhase, progress int, message string) {
	a.statusMu.Lock()
	a.status = types.Status{Phase: phase, Progress: progress, Message: message}
	a.statusMu.Unlock()
	a.safeEmit(EventJobStatus, a.GetStatus().Data)
}

func (a *App) updateStatusError(message string) {
	a.statusMu.Lock()
	a.status = types.Status{Phase: types.PhaseError, Message: message, Error: message}
	a.statusMu.Unlock()
	a.safeEmit(EventJobStatus, a.GetStatus().Data)
}

// GetStatus returns the current processing phase.
func (a *App) GetStatus() BindingResult {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	return ok(a.status)
}

// runJob is the shared submit-and-wait flow: read the media file,
// initiate the job, and if the server answers with a correlation id,
// poll it to a terminal state while reporting elapsed time.
func (a *App) runJob(desc, filePath string, initiate initiateFunc) BindingResult {
	content, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fail(types.NewAppError(types.ErrFileNotFound,
				fmt.Sprintf("file not found: %s", filePath), err))
		}
		return fail(types.NewAppError(types.ErrInvalidInput, "failed to read media file", err))
	}

	ctx, cancel, err := a.beginJob()
	if err != nil {
		return fail(err)
	}
	defer a.endJob(cancel)

	a.updateStatus(types.PhaseUploading, 10, "Uploading media")
	res, err := initiate(ctx, content)
	if err != nil {
		a.updateStatusError(err.Error())
		return fail(err)
	}
	if res.Completed {
		a.updateStatus(types.PhaseComplete, 100, "Done")
		return ok(res.Output)
	}

	logger.Info("waiting for job",
		logger.String("operation", desc),
		logger.String("correlation_id", res.CorrelationID))

	a.updateStatus(types.PhasePolling, 50, "Processing")
	output, err := a.poller.Wait(ctx, res.CorrelationID, func(elapsed time.Duration) {
		a.safeEmit(EventJobProgress, map[string]interface{}{
			"correlationId":  res.CorrelationID,
			"elapsedSeconds": int(elapsed.Seconds()),
		})
	})
	if err != nil {
		a.updateStatusError(err.Error())
		return fail(err)
	}
	a.updateStatus(types.PhaseComplete, 100, "Done")
	return ok(output)
}

// beginJob registers the job's cancel function; a second concurrent
// media job is refused rather than queued.
func (a *App) beginJob() (context.Context, context.CancelFunc, error) {
	a.jobMu.Lock()
	defer a.jobMu.Unlock()
	if a.jobCancel != nil {
		return nil, nil, types.NewAppError(types.ErrInvalidInput,
			"another job is already in progress", nil)
	}
	ctx, cancel := context.WithCancel(a.bgCtx())
	a.jobCancel = cancel
	return ctx, cancel, nil
}

func (a *App) endJob(cancel context.CancelFunc) {
	a.jobMu.Lock()
	a.jobCancel = nil
	a.jobMu.Unlock()
	cancel()
}

// CancelJob aborts the in-flight media job, if any.
func (a *App) CancelJob() BindingResult {
	a.jobMu.Lock()
	cancel := a.jobCancel
	a.jobMu.Unlock()
	if cancel != nil {
		cancel()
		logger.Info("job cancelled by user")
	}
	return ok(cancel != nil)
}

// IsBusy reports whether any network operation or media job is in
// flight. Drives the activity indicator and the close-window guard.
func (a *App) IsBusy() BindingResult {
	a.jobMu.Lock()
	jobRunning := a.jobCancel != nil
	a.jobMu.Unlock()
	return ok(jobRunning || a.tracker.Busy())
}

// isBusy is the internal form used by the close-window guard.
func (a *App) isBusy() bool {
	a.jobMu.Lock()
	jobRunning := a.jobCancel != nil
	a.jobMu.Unlock()
	return jobRunning || a.tracker.Busy()
}

// --- Download bindings ---

// DownloadResult saves a produced file into the configured download
// directory (falling back to the user's home) and returns its path.
func (a *App) DownloadResult(url, fileName string) BindingResult {
	dir := a.session.GetConfig().DownloadDirectory
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dir = filepath.Join(home, "Downloads")
	}

	a.updateStatus(types.PhaseDownloading, 90, "Downloading result")
	path, err := a.downloader.Download(a.bgCtx(), url, dir, fileName)
	if err != nil {
		a.updateStatusError(err.Error())
		return fail(err)
	}
	a.updateStatus(types.PhaseComplete, 100, "Done")
	return ok(path)
}

// DownloadMedia resolves a media id to its short-lived URL and
// downloads it.
func (a *App) DownloadMedia(mediaID, fileName string) BindingResult {
	url, err := a.client.ResolveFileURL(a.bgCtx(), mediaID)
	if err != nil {
		return fail(err)
	}
	return a.DownloadResult(url, fileName)
}

// bgCtx returns the app lifetime context, or Background before startup
// (CLI mode, tests).
func (a *App) bgCtx() context.Context {
	if a.ctx != nil {
		return a.ctx
	}
	return context.Background()
}
