package models

// This file holds the JSON request/response bodies of the control-plane
// HTTP surface (spec.md §6). Bodies are validated at the edge with
// go-playground/validator tags before reaching any core component.

// ScrapeRequest is the body of POST /proxies/scrape.
type ScrapeRequest struct {
	Quantity  int      `json:"quantity" validate:"required,gt=0"`
	Country   string   `json:"country,omitempty"`
	Protocols []string `json:"protocols,omitempty" validate:"dive,oneof=http https socks4 socks5"`
	Sources   []string `json:"sources,omitempty"`
	TimeoutS  int      `json:"timeout,omitempty"`
	Retries   int      `json:"retries,omitempty"`
}

// ScrapeResponse is the body returned by POST /proxies/scrape.
type ScrapeResponse struct {
	Success         bool        `json:"success"`
	TotalFound      int         `json:"total_found"`
	Proxies         []ProxyItem `json:"proxies"`
	ExecutionTimeMs int64       `json:"execution_time_ms"`
}

// ValidateRequest is the body of POST /proxies/validate.
type ValidateRequest struct {
	Proxies         []string `json:"proxies" validate:"required,min=1"`
	TestURLs        []string `json:"test_urls" validate:"required,min=1"`
	TimeoutS        int      `json:"timeout,omitempty"`
	CheckAnonymity  bool     `json:"check_anonymity,omitempty"`
	CheckGeo        bool     `json:"check_geolocation,omitempty"`
	ConcurrentTests int      `json:"concurrent_tests,omitempty"`
	TestAllURLs     bool     `json:"test_all_urls,omitempty"`
}

// ValidateResponse is the body returned by POST /proxies/validate.
type ValidateResponse struct {
	Success         bool               `json:"success"`
	TotalTested     int                `json:"total_tested"`
	ValidProxies    int                `json:"valid_proxies"`
	InvalidProxies  int                `json:"invalid_proxies"`
	Results         []ValidationResult `json:"results"`
	ExecutionTimeMs int64              `json:"execution_time_ms"`
}

// ListResponse is the body returned by GET /proxies.
type ListResponse struct {
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	TotalPages int         `json:"total_pages"`
	Proxies    []ProxyItem `json:"proxies"`
}

// UpdateProxyRequest is the body of PATCH /proxies/{id}.
type UpdateProxyRequest struct {
	Country   *string `json:"country,omitempty"`
	Anonymity *string `json:"anonymity,omitempty" validate:"omitempty,oneof=transparent anonymous elite"`
}

// DeleteResponse is the body returned by DELETE /proxies.
type DeleteResponse struct {
	Success      bool `json:"success"`
	DeletedCount int  `json:"deleted_count"`
}

// ImportRequest is the body of POST /proxies/import.
type ImportRequest struct {
	Proxies        []string `json:"proxies" validate:"required,min=1"`
	AutoValidate   bool     `json:"auto_validate,omitempty"`
	ValidationURLs []string `json:"validation_urls,omitempty"`
}

// ImportResponse is the body returned by POST /proxies/import.
type ImportResponse struct {
	Success           bool   `json:"success"`
	Imported          int    `json:"imported"`
	Duplicates        int    `json:"duplicates"`
	ValidationStarted bool   `json:"validation_started"`
	PollingURL        string `json:"polling_url,omitempty"`
}

// ScheduleRequest is the body of POST /proxies/schedule.
type ScheduleRequest struct {
	Type string `json:"type" validate:"required,oneof=validate scrape"`

	// scrape fields
	Quantity  int      `json:"quantity,omitempty"`
	Country   string   `json:"country,omitempty"`
	Protocols []string `json:"protocols,omitempty"`
	Sources   []string `json:"sources,omitempty"`

	// validate fields
	Proxies         []string `json:"proxies,omitempty"`
	TestURLs        []string `json:"test_urls,omitempty"`
	CheckAnonymity  bool     `json:"check_anonymity,omitempty"`
	CheckGeo        bool     `json:"check_geolocation,omitempty"`
	ConcurrentTests int      `json:"concurrent_tests,omitempty"`
	TestAllURLs     bool     `json:"test_all_urls,omitempty"`

	TimeoutS int `json:"timeout,omitempty"`
	Retries  int `json:"retries,omitempty"`
}

// JobSubmissionResponse is returned by POST /proxies/schedule and by Job
// Registry creation in general (spec.md §4.5).
type JobSubmissionResponse struct {
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
	PollingURL string `json:"polling_url"`
}

// JobStatusResponse is the body returned by GET /jobs/{id}.
type JobStatusResponse struct {
	JobID           string                 `json:"job_id"`
	Status          string                 `json:"status"`
	Progress        *float64               `json:"progress,omitempty"`
	ETASeconds      *float64               `json:"eta_seconds,omitempty"`
	DurationSeconds *float64               `json:"duration_seconds,omitempty"`
	Result          map[string]interface{} `json:"result,omitempty"`
	Error           string                 `json:"error,omitempty"`
}

// RegisterWebhookRequest is the body of POST /webhooks/register.
type RegisterWebhookRequest struct {
	URL       string   `json:"url" validate:"required,url"`
	Events    []string `json:"events" validate:"required,min=1"`
	SecretKey string   `json:"secret_key,omitempty"`
}

// WebhookListResponse is the body returned by GET /webhooks.
type WebhookListResponse struct {
	Total    int        `json:"total"`
	Webhooks []*Webhook `json:"webhooks"`
}

// ErrorResponse is the standard shape of a 4xx/5xx error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
