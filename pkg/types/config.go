package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-spider/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for query execution and result filtering.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider selects the web-search backend: serpapi or serper.
	Provider string `json:"provider" yaml:"provider"`

	// MaxSources caps how many sources one research run collects (default 50).
	MaxSources int `json:"max_sources" yaml:"max_sources"`

	// ResultsPerQuery is how many organic results to request per query (default 30).
	ResultsPerQuery int `json:"results_per_query" yaml:"results_per_query"`

	// QueryDelay is the politeness delay between consecutive search calls (default 1s).
	QueryDelay time.Duration `json:"query_delay" yaml:"query_delay"`

	// SkipDomains are URL substrings that disqualify a result outright.
	SkipDomains []string `json:"skip_domains" yaml:"skip_domains"`

	// UnsupportedExtensions are URL suffixes rejected during classification.
	UnsupportedExtensions []string `json:"unsupported_extensions" yaml:"unsupported_extensions"`
}

// DefaultSkipDomains mirrors the stock search configuration.
var DefaultSkipDomains = []string{"pinterest.com", "youtube.com", "amazon.com", "ebay.com"}

// DefaultUnsupportedExtensions lists document suffixes the extractor cannot read.
var DefaultUnsupportedExtensions = []string{".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".zip", ".rar"}

// BudgetConfig holds settings for the API credit gate consulted before a run.
type BudgetConfig struct {
	HTTPConfig `yaml:",inline"`

	// Enabled controls whether the gate is consulted at all.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// WarningThreshold is the remaining-searches level that produces a warning (default 100).
	WarningThreshold int `json:"warning_threshold" yaml:"warning_threshold"`

	// CriticalThreshold is the remaining-searches level that blocks research (default 20).
	CriticalThreshold int `json:"critical_threshold" yaml:"critical_threshold"`

	// AutoStopOnCritical aborts the run when remaining searches fall below
	// the estimated need, instead of proceeding on a warning.
	AutoStopOnCritical bool `json:"auto_stop_on_critical" yaml:"auto_stop_on_critical"`
}

// ExtractionConfig holds settings for content extraction.
type ExtractionConfig struct {
	HTTPConfig `yaml:",inline"`

	// RequestDelay is the politeness delay between extraction fetches (default 1.5s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// MinContentLength rejects extractions shorter than this many characters (default 150).
	MinContentLength int `json:"min_content_length" yaml:"min_content_length"`

	// MaxPDFPages bounds how many PDF pages are read (default 50).
	MaxPDFPages int `json:"max_pdf_pages" yaml:"max_pdf_pages"`
}

// CleaningConfig toggles the content-cleaning stages. All stages default on;
// use DefaultCleaningConfig rather than the zero value.
type CleaningConfig struct {
	RemoveCitations     bool `json:"remove_citations" yaml:"remove_citations"`
	RemoveSourceMarkers bool `json:"remove_source_markers" yaml:"remove_source_markers"`
	ConvertMarkdown     bool `json:"convert_markdown" yaml:"convert_markdown"`
	RemoveNonParagraph  bool `json:"remove_non_paragraph" yaml:"remove_non_paragraph"`
	RemoveIncomplete    bool `json:"remove_incomplete_paragraphs" yaml:"remove_incomplete_paragraphs"`

	// MinParagraphLength drops paragraphs shorter than this (default 50).
	MinParagraphLength int `json:"min_paragraph_length" yaml:"min_paragraph_length"`
}

// DefaultCleaningConfig returns the stock cleaning configuration with every
// stage enabled.
func DefaultCleaningConfig() CleaningConfig {
	return CleaningConfig{
		RemoveCitations:     true,
		RemoveSourceMarkers: true,
		ConvertMarkdown:     true,
		RemoveNonParagraph:  true,
		RemoveIncomplete:    true,
		MinParagraphLength:  50,
	}
}

// StoreConfig holds settings for the research-run cache.
type StoreConfig struct {
	// DataDir is the directory containing the cache database (default "research").
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// IndexConfig holds settings for the passage retrieval index.
type IndexConfig struct {
	// DataDir is the directory containing the index database (default "research").
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// ChunkSize is the approximate passage size in characters (default 1000).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// ChunkOverlap is the character overlap between consecutive passages (default 200).
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"`

	// MaxResults is the default retrieval result count (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ArticleConfig holds settings for article assembly.
type ArticleConfig struct {
	HTTPConfig `yaml:",inline"`

	// PostsDir is the output directory for rendered articles (default "_posts").
	PostsDir string `json:"posts_dir" yaml:"posts_dir"`

	// FetchImages controls whether section images are fetched from
	// Wikimedia Commons.
	FetchImages bool `json:"fetch_images" yaml:"fetch_images"`

	// ImageWidth and ImageHeight standardize section image dimensions.
	ImageWidth  int `json:"image_width" yaml:"image_width"`
	ImageHeight int `json:"image_height" yaml:"image_height"`

	// DefaultImage is the fallback image path used when loading fails.
	DefaultImage string `json:"default_image" yaml:"default_image"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search     SearchConfig     `json:"search" yaml:"search"`
	Budget     BudgetConfig     `json:"budget" yaml:"budget"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Cleaning   CleaningConfig   `json:"cleaning" yaml:"cleaning"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	Index      IndexConfig      `json:"index" yaml:"index"`
	Article    ArticleConfig    `json:"article" yaml:"article"`
}
