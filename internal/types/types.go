// Package types defines core data types and enums for the media translator application.
package types

// Config holds the persisted user-level settings.
type Config struct {
	APIKey                string `json:"api_key"`
	Username              string `json:"username"`
	Password              string `json:"password"`
	APIBaseURL            string `json:"api_base_url"`
	TranscriptionModel    string `json:"transcription_model"`    // default model id for transcription jobs
	TranslationModel      string `json:"translation_model"`      // default model id for translation jobs
	PollingIntervalSecs   int    `json:"polling_interval_secs"`  // seconds between job status checks
	PollingTimeoutSecs    int    `json:"polling_timeout_secs"`   // whole-job ceiling in seconds
	CacheExpirationHours  int    `json:"cache_expiration_hours"` // TTL for cached metadata
	PreferredLanguage     string `json:"preferred_language"`     // last selected target language (canonical id)
	LastMediaDirectory    string `json:"last_media_directory"`
	DownloadDirectory     string `json:"download_directory"`
	Theme                 string `json:"theme"`
	ShowElapsedTime       bool   `json:"show_elapsed_time"` // surface poll elapsed seconds in the UI
	KeepCredentialsSigned bool   `json:"keep_credentials_signed"`
}

// ConfigPatch is a partial configuration update. Nil fields leave the
// stored value untouched; non-nil fields overwrite it.
type ConfigPatch struct {
	APIKey                *string `json:"api_key,omitempty"`
	Username              *string `json:"username,omitempty"`
	Password              *string `json:"password,omitempty"`
	APIBaseURL            *string `json:"api_base_url,omitempty"`
	TranscriptionModel    *string `json:"transcription_model,omitempty"`
	TranslationModel      *string `json:"translation_model,omitempty"`
	PollingIntervalSecs   *int    `json:"polling_interval_secs,omitempty"`
	PollingTimeoutSecs    *int    `json:"polling_timeout_secs,omitempty"`
	CacheExpirationHours  *int    `json:"cache_expiration_hours,omitempty"`
	PreferredLanguage     *string `json:"preferred_language,omitempty"`
	LastMediaDirectory    *string `json:"last_media_directory,omitempty"`
	DownloadDirectory     *string `json:"download_directory,omitempty"`
	Theme                 *string `json:"theme,omitempty"`
	ShowElapsedTime       *bool   `json:"show_elapsed_time,omitempty"`
	KeepCredentialsSigned *bool   `json:"keep_credentials_signed,omitempty"`
}

// JobKind identifies the capability a job was submitted against.
type JobKind string

const (
	JobTranscription  JobKind = "transcription"
	JobTranslation    JobKind = "translation"
	JobLanguageDetect JobKind = "detect_language"
)

// JobState is the server-side lifecycle of an asynchronous job.
type JobState string

const (
	JobStateCreated   JobState = "CREATED"
	JobStatePending   JobState = "PENDING"
	JobStateCompleted JobState = "COMPLETED"
	JobStateError     JobState = "ERROR"
	JobStateTimeout   JobState = "TIMEOUT"
)

// Terminal reports whether the state ends the poll loop.
func (s JobState) Terminal() bool {
	switch s {
	case JobStateCompleted, JobStateError, JobStateTimeout:
		return true
	}
	return false
}

// ProcessPhase is the client-side phase of one logical operation.
type ProcessPhase string

const (
	PhaseIdle        ProcessPhase = "idle"
	PhaseUploading   ProcessPhase = "uploading"
	PhasePolling     ProcessPhase = "polling"
	PhaseDownloading ProcessPhase = "downloading"
	PhaseComplete    ProcessPhase = "complete"
	PhaseError       ProcessPhase = "error"
)

// Status reports processing state to the frontend.
type Status struct {
	Phase    ProcessPhase `json:"phase"`
	Progress int          `json:"progress"` // 0-100
	Message  string       `json:"message"`
	Error    string       `json:"error,omitempty"`
}

// ErrorCode classifies application errors.
type ErrorCode string

const (
	ErrNetwork      ErrorCode = "NETWORK_ERROR"
	ErrOffline      ErrorCode = "OFFLINE"
	ErrTimeout      ErrorCode = "TIMEOUT"
	ErrRateLimit    ErrorCode = "RATE_LIMIT"
	ErrAuth         ErrorCode = "AUTH_ERROR"
	ErrAPICall      ErrorCode = "API_CALL_ERROR"
	ErrCache        ErrorCode = "CACHE_ERROR"
	ErrConfig       ErrorCode = "CONFIG_ERROR"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrDownload     ErrorCode = "DOWNLOAD_ERROR"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError is the application error type carried across component
// boundaries. Cause is excluded from JSON so raw transport errors never
// reach the frontend.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}
