package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-scraper/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// RateLimit is the maximum number of requests per second. Zero
	// disables throttling.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`

	// RetryCount is the number of retries on service-limit responses
	// (HTTP 429/503). Zero uses the default (5); negative disables retries.
	RetryCount int `json:"retry_count" yaml:"retry_count"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of results to return (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// EnableArxiv controls whether the arXiv backend is used.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv"`

	// EnableSemanticScholar controls whether the Semantic Scholar backend is used.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`

	// EnableOpenAlex controls whether the OpenAlex backend is used.
	EnableOpenAlex bool `json:"enable_openalex" yaml:"enable_openalex"`

	// EnableCrossRef controls whether the CrossRef backend is used.
	EnableCrossRef bool `json:"enable_crossref" yaml:"enable_crossref"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// CrossRefAPIKey is an optional Crossref Plus token sent as
	// "Crossref-Plus-API-Token: Bearer <key>".
	CrossRefAPIKey string `json:"crossref_api_key,omitempty" yaml:"crossref_api_key,omitempty"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// InterBackendDelay is the delay between API calls to different backends (default 1s).
	InterBackendDelay time.Duration `json:"inter_backend_delay" yaml:"inter_backend_delay"`

	// RecencyBiasWindow is the time window for boosting recent papers (default 2 years).
	RecencyBiasWindow time.Duration `json:"recency_bias_window" yaml:"recency_bias_window"`
}

// ScrapeConfig holds settings for the scrape stage.
type ScrapeConfig struct {
	HTTPConfig `yaml:",inline"`

	// Concurrency is the maximum number of papers downloaded in parallel
	// (default 2). The shared rate limiter still bounds the request rate.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// PapersDir is the base directory for papers (contains raw/, metadata/, markdown/).
	PapersDir string `json:"papers_dir" yaml:"papers_dir"`

	// CrossRefAPIKey is an optional Crossref Plus token used for metadata lookups.
	CrossRefAPIKey string `json:"crossref_api_key,omitempty" yaml:"crossref_api_key,omitempty"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`
}

// TextBackend identifies the PDF text extraction tool.
type TextBackend string

const (
	BackendPdftotext  TextBackend = "pdftotext"
	BackendMarkitdown TextBackend = "markitdown"
)

// TextConfig holds settings for the text extraction stage.
type TextConfig struct {
	// Backend selects the extraction tool: pdftotext or markitdown.
	Backend TextBackend `json:"backend" yaml:"backend"`

	// PapersDir is the base directory for papers (contains raw/, metadata/, markdown/).
	PapersDir string `json:"papers_dir" yaml:"papers_dir"`
}

// LibraryConfig holds settings for the library index stage.
type LibraryConfig struct {
	// LibraryDir is the base directory for the index (contains index/).
	LibraryDir string `json:"library_dir" yaml:"library_dir"`

	// PapersDir is the base directory for papers (contains raw/, metadata/, markdown/).
	PapersDir string `json:"papers_dir" yaml:"papers_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search  SearchConfig  `json:"search" yaml:"search"`
	Scrape  ScrapeConfig  `json:"scrape" yaml:"scrape"`
	Text    TextConfig    `json:"text" yaml:"text"`
	Library LibraryConfig `json:"library" yaml:"library"`
}
