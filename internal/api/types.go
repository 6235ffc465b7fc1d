package api

import "media-translator/internal/types"

// Model is one AI engine offered by the service for a capability.
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Default     bool   `json:"default,omitempty"`
}

// Language is a provider-specific language entry as the service reports
// it. Codes are provider taxonomy, not canonical ids.
type Language struct {
	Code string `json:"language_code"`
	Name string `json:"language_name"`
}

// Credits is the account's remaining balance.
type Credits struct {
	Remaining int `json:"remaining"`
	Total     int `json:"total"`
}

// CreditPackage is a purchasable credit bundle.
type CreditPackage struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Credits    int    `json:"credits"`
	PriceCents int    `json:"price_cents"`
	Currency   string `json:"currency"`
}

// MediaItem is a previously processed media entry.
type MediaItem struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	Kind      string `json:"kind"`
	CreatedAt string `json:"created_at"`
	URL       string `json:"url,omitempty"`
}

// JobOutput is the payload of a completed job.
type JobOutput struct {
	URL      string `json:"url,omitempty"`
	Text     string `json:"text,omitempty"`
	Language string `json:"language,omitempty"`
	MediaID  string `json:"media_id,omitempty"`
}

// JobStatus is one status-check response for an asynchronous job.
type JobStatus struct {
	Status types.JobState `json:"status"`
	Data   *JobOutput     `json:"result,omitempty"`
	Errors []string       `json:"errors,omitempty"`
}

// InitiateResult is the outcome of submitting a job: either the server
// finished synchronously, or it handed back a correlation id to poll.
type InitiateResult struct {
	Completed     bool       `json:"completed"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	Output        *JobOutput `json:"output,omitempty"`
}

// UploadRequest carries a media file plus operation parameters for the
// job-initiate endpoints.
type UploadRequest struct {
	FileName string
	Content  []byte

	// Language is the spoken language for transcription/detection; empty
	// or "auto" lets the server detect it.
	Language string
	// SourceLanguage / TargetLanguage apply to translation jobs.
	SourceLanguage string
	TargetLanguage string
	// Model selects the AI engine; empty uses the server default.
	Model string
	// Extra carries additional form fields without code changes.
	Extra map[string]string
}

// SubtitleQuery is a subtitle/feature search request.
type SubtitleQuery struct {
	Query     string
	Languages []string
	MovieHash string
	Year      int
}

// SubtitleResult is one subtitle search hit.
type SubtitleResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Year        int    `json:"year,omitempty"`
	Language    string `json:"language"`
	Downloads   int    `json:"downloads,omitempty"`
	DownloadURL string `json:"download_url"`
}
