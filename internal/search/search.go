// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search executes planned queries against a web-search provider and
// turns the raw organic results into a deduplicated, reliability-ranked
// shortlist of candidate sources.
package search

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/research-spider/internal/queryplan"
	"github.com/pdiddy/research-spider/internal/reliability"
	"github.com/pdiddy/research-spider/pkg/types"
)

// Result is one organic result as returned by a provider.
type Result struct {
	URL     string
	Title   string
	Snippet string
}

// Provider searches the web for a single query. Each provider (SerpAPI,
// Serper) implements this interface per the Strategy pattern.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, cfg types.SearchConfig) ([]Result, error)
}

// NewProvider constructs the provider named in cfg.Provider with its API key.
func NewProvider(name, apiKey string) (Provider, error) {
	switch name {
	case "serpapi", "":
		return &SerpAPIProvider{APIKey: apiKey}, nil
	case "serper":
		return &SerperProvider{APIKey: apiKey}, nil
	default:
		return nil, fmt.Errorf("unknown search provider %q: use serpapi or serper", name)
	}
}

// Classify determines the document type for a URL. PDF detection runs first
// because many PDF links carry query strings rather than a clean suffix.
func Classify(rawURL string, unsupportedExts []string) types.DocumentType {
	lower := strings.ToLower(rawURL)

	if strings.HasSuffix(lower, ".pdf") || strings.Contains(lower, "pdf") {
		return types.DocPDF
	}
	if strings.HasSuffix(lower, ".txt") {
		return types.DocText
	}
	for _, ext := range unsupportedExts {
		if strings.HasSuffix(lower, ext) {
			return types.DocUnsupported
		}
	}
	return types.DocHTML
}

// Gather issues the planned queries in order, accumulating results
// deduplicated by URL. It stops early once cfg.MaxSources raw results have
// been collected and sleeps cfg.QueryDelay between provider calls. A failed
// query contributes zero results and never aborts the run.
func Gather(ctx context.Context, provider Provider, queries []queryplan.PlannedQuery, cfg types.SearchConfig, w io.Writer) []types.SearchResult {
	seen := make(map[string]bool)
	var results []types.SearchResult

	for i, pq := range queries {
		if i > 0 && cfg.QueryDelay > 0 {
			time.Sleep(cfg.QueryDelay)
		}

		fmt.Fprintf(w, "  [%s] %s\n", pq.Priority, pq.Query)

		raw, err := provider.Search(ctx, pq.Query, cfg)
		if err != nil {
			fmt.Fprintf(w, "    warning: query failed: %v\n", err)
			continue
		}
		fmt.Fprintf(w, "    %d results\n", len(raw))

		for _, r := range raw {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			docType := Classify(r.URL, cfg.UnsupportedExtensions)
			if docType == types.DocUnsupported {
				continue
			}
			seen[r.URL] = true
			results = append(results, types.SearchResult{
				URL:         r.URL,
				Title:       r.Title,
				Snippet:     r.Snippet,
				DocType:     docType,
				Priority:    pq.Priority,
				SourceQuery: pq.Query,
			})
		}

		if cfg.MaxSources > 0 && len(results) >= cfg.MaxSources {
			break
		}
	}

	return results
}

// ScoreWeights are the tuning constants of the composite relevance score.
// The defaults come from the stock configuration; the relative ordering they
// produce matters more than the absolute values.
type ScoreWeights struct {
	PriorityHigh     int
	PriorityMedium   int
	PriorityLow      int
	TermInTitle      int
	TermInSnippet    int
	FirstWordMatch   int
	KeywordInTitle   int
	KeywordInSnippet int
	ReliabilityScale int
	AcademicHost     int
	PDFBonus         int

	// MinScore is the strict lower bound a result must exceed to survive.
	MinScore int
}

// DefaultScoreWeights returns the stock scoring constants.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		PriorityHigh:     30,
		PriorityMedium:   20,
		PriorityLow:      10,
		TermInTitle:      15,
		TermInSnippet:    10,
		FirstWordMatch:   8,
		KeywordInTitle:   5,
		KeywordInSnippet: 3,
		ReliabilityScale: 20,
		AcademicHost:     15,
		PDFBonus:         8,
		MinScore:         15,
	}
}

// FilterAndRank deduplicates raw results, drops skip-listed and unsupported
// candidates, scores the rest, and returns a capped shortlist sorted by
// descending score. Ties preserve discovery order. Deterministic for
// identical inputs.
func FilterAndRank(raw []types.SearchResult, term string, keywords []string, relMap reliability.Map, skipDomains []string, maxSources int, weights ScoreWeights) []types.SearchResult {
	type scored struct {
		result types.SearchResult
		score  int
	}

	seen := make(map[string]bool)
	var kept []scored

	for _, r := range raw {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		if urlMatchesSkipList(r.URL, skipDomains) {
			continue
		}
		docType := r.DocType
		if docType == "" {
			docType = Classify(r.URL, nil)
		}
		if docType == types.DocUnsupported {
			continue
		}
		seen[r.URL] = true

		r.DocType = docType
		score := Score(r, term, keywords, relMap, weights)
		if score > weights.MinScore {
			kept = append(kept, scored{result: r, score: score})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score > kept[j].score
	})

	limit := maxSources + 10
	if maxSources > 0 && len(kept) > limit {
		kept = kept[:limit]
	}

	out := make([]types.SearchResult, len(kept))
	for i, s := range kept {
		out[i] = s.result
	}
	return out
}

// Score computes the composite relevance score for one result.
func Score(r types.SearchResult, term string, keywords []string, relMap reliability.Map, weights ScoreWeights) int {
	title := strings.ToLower(r.Title)
	snippet := strings.ToLower(r.Snippet)
	termLower := strings.ToLower(term)

	score := 0

	switch r.Priority {
	case types.PriorityHigh:
		score += weights.PriorityHigh
	case types.PriorityMedium:
		score += weights.PriorityMedium
	default:
		score += weights.PriorityLow
	}

	if termLower != "" {
		if strings.Contains(title, termLower) {
			score += weights.TermInTitle
		}
		if strings.Contains(snippet, termLower) {
			score += weights.TermInSnippet
		}
	}

	if words := strings.Fields(termLower); len(words) > 0 {
		first := words[0]
		if strings.Contains(title, first) || strings.Contains(snippet, first) {
			score += weights.FirstWordMatch
		}
	}

	top := keywords
	if len(top) > 5 {
		top = top[:5]
	}
	for _, kw := range top {
		kwLower := strings.ToLower(kw)
		if strings.Contains(title, kwLower) {
			score += weights.KeywordInTitle
		}
		if strings.Contains(snippet, kwLower) {
			score += weights.KeywordInSnippet
		}
	}

	host := Host(r.URL)
	score += int(relMap.Score(host) * float64(weights.ReliabilityScale))

	if reliability.IsAcademicHost(host) {
		score += weights.AcademicHost
	}

	if r.DocType == types.DocPDF {
		score += weights.PDFBonus
	}

	return score
}

// Host extracts the hostname from a URL, or "" when it cannot be parsed.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func urlMatchesSkipList(rawURL string, skipDomains []string) bool {
	lower := strings.ToLower(rawURL)
	for _, skip := range skipDomains {
		if skip != "" && strings.Contains(lower, strings.ToLower(skip)) {
			return true
		}
	}
	return false
}
