// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-spider pipeline:
// search results, extracted sources, domain profiles, and per-stage configuration.
package types

import "time"

// DocumentType classifies a candidate URL by the kind of document it points at.
type DocumentType string

const (
	DocHTML        DocumentType = "html"
	DocPDF         DocumentType = "pdf"
	DocText        DocumentType = "text"
	DocUnsupported DocumentType = "unsupported"
)

// QueryPriority is a coarse tag on a search query reflecting the expected
// quality of the sources it targets. It feeds the result scoring.
type QueryPriority string

const (
	PriorityHigh   QueryPriority = "high"
	PriorityMedium QueryPriority = "medium"
	PriorityLow    QueryPriority = "low"
)

// SearchResult is one organic result returned by a web-search provider,
// annotated with the query that produced it. Results are ephemeral: they
// exist only between search execution and extraction.
type SearchResult struct {
	// URL is the result link.
	URL string `json:"url" yaml:"url"`

	// Title is the result title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// Snippet is the short description under the title.
	Snippet string `json:"snippet" yaml:"snippet"`

	// DocType classifies the URL: html, pdf, or text.
	DocType DocumentType `json:"doc_type" yaml:"doc_type"`

	// Priority is inherited from the query that produced this result.
	Priority QueryPriority `json:"priority" yaml:"priority"`

	// SourceQuery is the query string that surfaced this result.
	SourceQuery string `json:"query" yaml:"query"`
}

// ReliabilityTier is a coarse bucket summarizing a source's estimated
// trustworthiness.
type ReliabilityTier string

const (
	TierVeryHigh ReliabilityTier = "very_high"
	TierHigh     ReliabilityTier = "high"
	TierMedium   ReliabilityTier = "medium"
	TierLow      ReliabilityTier = "low"
)

// SourceMetadata describes where an extracted source came from.
type SourceMetadata struct {
	// SourceName is a human-readable name for the publisher
	// (e.g. "Wikipedia", "Stellenbosch University").
	SourceName string `json:"source" yaml:"source"`

	// Reliability is the tier derived from the host's trust score and the
	// extracted content.
	Reliability ReliabilityTier `json:"reliability" yaml:"reliability"`

	// URL is the page the text was extracted from.
	URL string `json:"url" yaml:"url"`

	// Host is the URL's hostname.
	Host string `json:"domain" yaml:"domain"`

	// Title is the extracted page title.
	Title string `json:"title" yaml:"title"`

	// ScrapedDate is the extraction date in YYYY-MM-DD format.
	ScrapedDate string `json:"scraped_date" yaml:"scraped_date"`

	// ResearchDomain is the subject area the research ran under
	// (botany, medical, mathematics, ...).
	ResearchDomain string `json:"research_domain" yaml:"research_domain"`

	// DocumentType records what kind of document the text came from.
	DocumentType DocumentType `json:"document_type" yaml:"document_type"`
}

// Source is cleaned text extracted from one URL plus its provenance.
// A Source is immutable once created; the orchestrator owns the slice
// for the duration of one research run.
type Source struct {
	Text     string         `json:"text" yaml:"text"`
	Metadata SourceMetadata `json:"metadata" yaml:"metadata"`
}

// ResearchRun is the persisted output of one research invocation.
type ResearchRun struct {
	// ID is a UUID assigned when the run is saved.
	ID string `json:"id" yaml:"id"`

	// Query is the researched term.
	Query string `json:"query" yaml:"query"`

	// Domain is the research domain the run used.
	Domain string `json:"domain" yaml:"domain"`

	// CollectedAt is when the run finished.
	CollectedAt time.Time `json:"collected_at" yaml:"collected_at"`

	// Sources are the extracted sources, ordered by host reliability.
	Sources []Source `json:"sources" yaml:"sources"`
}

// DomainProfile configures one research domain: which keywords steer the
// query planner and which questions drive article sections.
type DomainProfile struct {
	// Name is the display name (e.g. "Botanical Research").
	Name string `json:"name" yaml:"name"`

	// Description explains what the domain covers.
	Description string `json:"description" yaml:"description"`

	// PrimarySources lists source-category tags for the domain.
	PrimarySources []string `json:"primary_sources" yaml:"primary_sources"`

	// Questions are section prompt templates, in article order.
	Questions []string `json:"questions" yaml:"questions"`

	// Keywords steer query construction and result scoring.
	Keywords []string `json:"keywords" yaml:"keywords"`
}
