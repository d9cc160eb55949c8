// Package crawl defines the domain records tracked by the control panel and
// the interfaces its services are built against.
package crawl

import (
	"encoding/json"
	"time"
)

// JobStatus is the lifecycle state of a crawl job.
type JobStatus string

// Job lifecycle states. Queued and running jobs are repaired by the restart
// recovery pass; completed and failed are terminal.
const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further transition can leave the status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is one tracked asynchronous crawl request. The config payload is
// forwarded to the crawl engine verbatim, so it is carried as raw JSON and
// never reinterpreted here. Exactly one of Result/Error is populated once
// the job leaves running.
type Job struct {
	ID          string          `json:"id"`
	Status      JobStatus       `json:"status"`
	Config      json.RawMessage `json:"config"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Settings is the process-wide singleton configuration record. Field names
// match the persisted JSON the control panel frontend reads.
type Settings struct {
	CrawlBaseURL          string `json:"crawl4ai_base_url"`
	LLMBaseURL            string `json:"litellm_base_url"`
	OutputBasePath        string `json:"output_base_path"`
	FileStoragePath       string `json:"file_storage_path"`
	ActiveLLMProvider     string `json:"active_llm_provider,omitempty"`
	DefaultCrawlDepth     int    `json:"default_crawl_depth,omitempty"`
	DefaultConcurrency    int    `json:"default_concurrency,omitempty"`
	DefaultPDFDownloads   bool   `json:"default_pdf_downloads"`
	DefaultOtherDownloads bool   `json:"default_other_downloads"`
}

// AuthProfileConfig holds the credential material for one profile. Which
// fields are set depends on the profile type.
type AuthProfileConfig struct {
	Username string            `json:"username,omitempty"`
	Password string            `json:"password,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Cookies  string            `json:"cookies,omitempty"`
	LoginURL string            `json:"login_url,omitempty"`
	Hooks    map[string]string `json:"hooks,omitempty"`
}

// AuthProfile is a named credential bundle referenced by crawl configs that
// need authentication. Type is one of "form", "headers" or "cookies".
type AuthProfile struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Type        string            `json:"type"`
	Config      AuthProfileConfig `json:"config"`
}

// LLMProvider is one registry entry for a configured LLM backend. Provider
// is the routing string the LLM gateway understands, e.g. "openai/gpt-4o-mini".
type LLMProvider struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Provider  string   `json:"provider"`
	APIKeyEnv string   `json:"api_key_env"`
	APIBase   string   `json:"api_base,omitempty"`
	Enabled   bool     `json:"enabled"`
	Models    []string `json:"models,omitempty"`
}
