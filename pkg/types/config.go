// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout. Timeouts are per external
	// call, never per cascade, so one slow source cannot consume the time
	// budget of the sources after it (prd004-verification R4.3).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "refcheck/0.1"). Per prd004-verification R5.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ExtractionConfig holds settings for the Grobid extraction adapter.
// Per prd002-extraction R2.1-R2.4.
type ExtractionConfig struct {
	HTTPConfig `yaml:",inline"`

	// GrobidURL is the base URL of the Grobid service.
	GrobidURL string `json:"grobid_url" yaml:"grobid_url"`

	// RetryDelay is the backoff before the single retry after a
	// connection failure or timeout (default 2s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`
}

// ParserConfig holds settings for the fallback citation parser.
// Per prd003-normalization R4.1-R4.3.
type ParserConfig struct {
	HTTPConfig `yaml:",inline"`

	// OllamaHost is the base URL of the local model server.
	OllamaHost string `json:"ollama_host" yaml:"ollama_host"`

	// Model is the model identifier (e.g. "llama3").
	Model string `json:"model" yaml:"model"`
}

// MatchConfig holds the policy parameters of the source cascade.
// The similarity cutoff and acceptance threshold are configuration, not
// constants: behavior must stay monotonic in confidence across the
// plausible 0.75-0.9 band (prd004-verification R3.5).
type MatchConfig struct {
	HTTPConfig `yaml:",inline"`

	// SimilarityCutoff is the minimum normalized title similarity for a
	// fuzzy candidate to count as a match (default 0.90).
	SimilarityCutoff float64 `json:"similarity_cutoff" yaml:"similarity_cutoff"`

	// AcceptConfidence is the minimum confidence at which the cascade
	// stops (default 0.75).
	AcceptConfidence float64 `json:"accept_confidence" yaml:"accept_confidence"`

	// MaxCandidates bounds how many search rows a source scores per query
	// (default 15).
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates"`

	// MaxWorkers bounds concurrent per-citation cascades (default 5).
	// Kept small to respect aggregate rate budgets across in-flight
	// cascades (prd004-verification R5.1).
	MaxWorkers int `json:"max_workers" yaml:"max_workers"`

	// ContactEmail is sent as the mailto parameter required by the
	// OpenAlex and Crossref polite pools.
	ContactEmail string `json:"contact_email" yaml:"contact_email"`

	// SemanticScholarAPIKey is an optional key for higher S2 rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// RatePerSecond overrides the default request budget for a source,
	// keyed by source name. Each source owns an independent token bucket
	// (prd004-verification R5.1).
	RatePerSecond map[string]float64 `json:"rate_per_second,omitempty" yaml:"rate_per_second,omitempty"`
}

// ServerConfig holds settings for the HTTP inbound surface.
// Per prd006-server R1.1-R1.3.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// MaxUploadBytes caps the accepted PDF size (default 100 MiB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Parser     ParserConfig     `json:"parser" yaml:"parser"`
	Match      MatchConfig      `json:"match" yaml:"match"`
	Server     ServerConfig     `json:"server" yaml:"server"`
}

// Defaults returns a PipelineConfig with the documented default values.
func Defaults() PipelineConfig {
	return PipelineConfig{
		Extraction: ExtractionConfig{
			HTTPConfig: HTTPConfig{Timeout: 60 * time.Second, UserAgent: DefaultUserAgent},
			GrobidURL:  "http://localhost:8070",
			RetryDelay: 2 * time.Second,
		},
		Parser: ParserConfig{
			HTTPConfig: HTTPConfig{Timeout: 60 * time.Second, UserAgent: DefaultUserAgent},
			OllamaHost: "http://localhost:11434",
			Model:      "llama3",
		},
		Match: MatchConfig{
			HTTPConfig:       HTTPConfig{Timeout: 10 * time.Second, UserAgent: DefaultUserAgent},
			SimilarityCutoff: 0.90,
			AcceptConfidence: 0.75,
			MaxCandidates:    15,
			MaxWorkers:       5,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 100 << 20,
		},
	}
}

// DefaultUserAgent identifies refcheck to external APIs.
const DefaultUserAgent = "refcheck/0.1"
