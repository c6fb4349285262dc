package types

import (
	"fmt"
	"net/url"
	"time"
)

// ConfigError reports missing or malformed configuration. It is fatal at
// startup and never produced per query.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the overall HTTP client timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "genoscope/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the connector federation.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the E-utilities endpoint root, ending in a slash.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey is the optional NCBI credential. Its presence only raises the
	// rate-limit tier.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Tool and Email identify the client to NCBI.
	Tool  string `json:"tool" yaml:"tool" mapstructure:"tool"`
	Email string `json:"email" yaml:"email" mapstructure:"email"`

	// MaxResults is the per-strategy record cap (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// RequestTimeout bounds every individual backend call.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" mapstructure:"request_timeout"`

	// QueryTimeout is the outer deadline for a whole query.
	QueryTimeout time.Duration `json:"query_timeout" yaml:"query_timeout" mapstructure:"query_timeout"`

	// MaxRetries is the retry ceiling for transient failures.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RetryBaseDelay is the first backoff interval; it doubles per attempt.
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay" mapstructure:"retry_base_delay"`

	// RateWithKey and RateWithoutKey are requests per second for the shared
	// token bucket, chosen by whether APIKey is set.
	RateWithKey    float64 `json:"rate_with_key" yaml:"rate_with_key" mapstructure:"rate_with_key"`
	RateWithoutKey float64 `json:"rate_without_key" yaml:"rate_without_key" mapstructure:"rate_without_key"`

	// Databases restricts which backends are registered. Empty means all.
	Databases []DatabaseID `json:"databases,omitempty" yaml:"databases,omitempty" mapstructure:"databases"`
}

// HasCredential reports whether an API key is configured.
func (c SearchConfig) HasCredential() bool {
	return c.APIKey != ""
}

// RequestsPerSecond returns the rate tier for the configured credential state.
func (c SearchConfig) RequestsPerSecond() float64 {
	if c.HasCredential() {
		return c.RateWithKey
	}
	return c.RateWithoutKey
}

// EnabledDatabases returns Databases, or every backend when none are listed.
func (c SearchConfig) EnabledDatabases() []DatabaseID {
	if len(c.Databases) == 0 {
		return AllDatabases
	}
	return c.Databases
}

// Validate checks the search configuration for values that would make every
// query fail.
func (c SearchConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return &ConfigError{Field: "search.base_url", Reason: err.Error()}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ConfigError{Field: "search.base_url", Reason: fmt.Sprintf("%q is not an absolute http(s) URL", c.BaseURL)}
	}
	if c.RateWithKey <= 0 || c.RateWithoutKey <= 0 {
		return &ConfigError{Field: "search.rate", Reason: "request rates must be positive"}
	}
	if c.MaxRetries < 0 {
		return &ConfigError{Field: "search.max_retries", Reason: "must not be negative"}
	}
	if c.RequestTimeout <= 0 {
		return &ConfigError{Field: "search.request_timeout", Reason: "must be positive"}
	}
	for _, db := range c.Databases {
		if !db.Valid() {
			return &ConfigError{Field: "search.databases", Reason: fmt.Sprintf("unknown database %q", db)}
		}
	}
	return nil
}

// RankConfig holds the relevance weights. They must sum to 1.
type RankConfig struct {
	Organism  float64 `json:"organism" yaml:"organism" mapstructure:"organism"`
	DataType  float64 `json:"data_type" yaml:"data_type" mapstructure:"data_type"`
	Condition float64 `json:"condition" yaml:"condition" mapstructure:"condition"`
	Keyword   float64 `json:"keyword" yaml:"keyword" mapstructure:"keyword"`
	Recency   float64 `json:"recency" yaml:"recency" mapstructure:"recency"`
}

// FormatConfig holds settings for the result formatter.
type FormatConfig struct {
	// SummaryLength caps the summary in runes (default 200).
	SummaryLength int `json:"summary_length" yaml:"summary_length" mapstructure:"summary_length"`
}

// HistoryConfig holds settings for the query history store.
type HistoryConfig struct {
	// Dir holds the history database (history.db).
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default number of history rows returned (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// FetchConfig holds settings for record downloads.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// OutDir receives downloaded records and their metadata sidecars.
	OutDir string `json:"out_dir" yaml:"out_dir" mapstructure:"out_dir"`

	// DownloadDelay is the pause between consecutive downloads.
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay" mapstructure:"download_delay"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level   string `json:"level" yaml:"level" mapstructure:"level"`
	Console bool   `json:"console" yaml:"console" mapstructure:"console"`
}

// Config groups all stage configurations.
type Config struct {
	Search  SearchConfig  `json:"search" yaml:"search" mapstructure:"search"`
	Rank    RankConfig    `json:"rank" yaml:"rank" mapstructure:"rank"`
	Format  FormatConfig  `json:"format" yaml:"format" mapstructure:"format"`
	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Server  ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the configuration used when no file or flag overrides
// a value. Rates follow NCBI's published limits.
func DefaultConfig() Config {
	httpCfg := HTTPConfig{Timeout: 30 * time.Second, UserAgent: "genoscope/0.1"}
	return Config{
		Search: SearchConfig{
			HTTPConfig:     httpCfg,
			BaseURL:        "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/",
			Tool:           "genoscope",
			MaxResults:     20,
			RequestTimeout: 15 * time.Second,
			QueryTimeout:   60 * time.Second,
			MaxRetries:     3,
			RetryBaseDelay: 500 * time.Millisecond,
			RateWithKey:    10,
			RateWithoutKey: 3,
		},
		Rank: RankConfig{
			Organism:  0.30,
			DataType:  0.30,
			Condition: 0.20,
			Keyword:   0.15,
			Recency:   0.05,
		},
		Format:  FormatConfig{SummaryLength: 200},
		History: HistoryConfig{Dir: ".genoscope", MaxResults: 20},
		Fetch:   FetchConfig{HTTPConfig: httpCfg, OutDir: "downloads", DownloadDelay: 350 * time.Millisecond},
		Server:  ServerConfig{Addr: ":8080"},
		Log:     LogConfig{Level: "info", Console: true},
	}
}
