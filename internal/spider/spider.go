// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package spider orchestrates a research run: credit gate, query planning,
// search, candidate ranking, content extraction, and persistence. Individual
// source failures are reported and skipped; only systemic failures (blocked
// credit gate, storage errors) abort a run.
package spider

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/research-spider/internal/budget"
	"github.com/pdiddy/research-spider/internal/queryplan"
	"github.com/pdiddy/research-spider/internal/reliability"
	"github.com/pdiddy/research-spider/internal/search"
	"github.com/pdiddy/research-spider/pkg/types"
)

// Per-host extraction caps. Academic hosts carry more weight per source, so
// they get a higher allowance before the spider moves on.
const (
	academicHostCap = 5
	defaultHostCap  = 3
)

// RunStore persists research runs and serves cached ones.
type RunStore interface {
	SaveRun(ctx context.Context, run *types.ResearchRun) error
	LatestRun(ctx context.Context, query, domain string) (*types.ResearchRun, error)
}

// SourceExtractor fetches one URL and returns its cleaned source.
type SourceExtractor interface {
	Extract(ctx context.Context, rawURL string, docType types.DocumentType) (*types.Source, error)
}

// CreditGate decides whether a run expected to spend requiredSearches
// credits may start.
type CreditGate interface {
	Gate(ctx context.Context, requiredSearches int, w io.Writer) bool
}

// Spider runs the research pipeline end to end.
type Spider struct {
	Provider  search.Provider
	Extractor SourceExtractor
	Store     RunStore
	Gate      CreditGate
	RelMap    reliability.Map
	Config    types.PipelineConfig

	// sleep is overridable in tests.
	sleep func(time.Duration)
}

// New assembles a Spider. Store and Gate may be nil, disabling caching and
// the credit check respectively.
func New(provider search.Provider, extractor SourceExtractor, store RunStore, gate CreditGate, relMap reliability.Map, cfg types.PipelineConfig) *Spider {
	return &Spider{
		Provider:  provider,
		Extractor: extractor,
		Store:     store,
		Gate:      gate,
		RelMap:    relMap,
		Config:    cfg,
		sleep:     time.Sleep,
	}
}

// Options control a single research run.
type Options struct {
	// Refresh skips the cache and always collects fresh sources.
	Refresh bool
}

// Run researches term within the given domain profile and returns the
// collected run. A cached run for the same term and domain is returned
// as-is unless opts.Refresh is set. Finding zero sources is not an error.
func (s *Spider) Run(ctx context.Context, term string, profile types.DomainProfile, opts Options, w io.Writer) (*types.ResearchRun, error) {
	if !opts.Refresh && s.Store != nil {
		cached, err := s.Store.LatestRun(ctx, term, profile.Name)
		if err != nil {
			return nil, fmt.Errorf("checking run cache: %w", err)
		}
		if cached != nil {
			fmt.Fprintf(w, "using cached run %s from %s (%d sources)\n",
				cached.ID, cached.CollectedAt.Format("2006-01-02"), len(cached.Sources))
			return cached, nil
		}
	}

	queries := queryplan.BuildQueries(term, profile.Keywords)
	fmt.Fprintf(w, "planned %d queries for %q\n", len(queries), term)

	if s.Gate != nil && !s.Gate.Gate(ctx, budget.EstimateSearches(len(queries)), w) {
		return nil, fmt.Errorf("research halted: insufficient search credit")
	}

	raw := search.Gather(ctx, s.Provider, queries, s.Config.Search, w)
	fmt.Fprintf(w, "gathered %d raw results\n", len(raw))

	shortlist := search.FilterAndRank(raw, term, profile.Keywords, s.RelMap,
		s.Config.Search.SkipDomains, s.Config.Search.MaxSources, search.DefaultScoreWeights())
	fmt.Fprintf(w, "shortlisted %d candidates\n", len(shortlist))

	sources := s.extractAll(ctx, shortlist, w)

	// Highest-reliability sources lead the run; order within equal hosts is
	// the shortlist order.
	sort.SliceStable(sources, func(i, j int) bool {
		return s.RelMap.Score(sources[i].Metadata.Host) > s.RelMap.Score(sources[j].Metadata.Host)
	})

	run := &types.ResearchRun{
		ID:          uuid.NewString(),
		Query:       term,
		Domain:      profile.Name,
		CollectedAt: time.Now().UTC(),
		Sources:     sources,
	}

	if s.Store != nil {
		if err := s.Store.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("caching run: %w", err)
		}
	}

	s.report(run, w)
	return run, nil
}

// extractAll walks the shortlist, honoring per-host caps and the configured
// request delay. Extraction failures are warnings, not errors. Candidates
// rejected by a host cap consume no fetch and no delay.
func (s *Spider) extractAll(ctx context.Context, shortlist []types.SearchResult, w io.Writer) []types.Source {
	maxSources := s.Config.Search.MaxSources
	if maxSources <= 0 {
		maxSources = 10
	}

	var sources []types.Source
	hostCounts := make(map[string]int)
	fetched := false

	for _, candidate := range shortlist {
		if len(sources) >= maxSources {
			break
		}
		if err := ctx.Err(); err != nil {
			fmt.Fprintf(w, "warning: extraction stopped: %v\n", err)
			break
		}

		host := search.Host(candidate.URL)
		hostCap := defaultHostCap
		if reliability.IsAcademicHost(host) {
			hostCap = academicHostCap
		}
		if hostCounts[host] >= hostCap {
			continue
		}

		if fetched && s.Config.Extraction.RequestDelay > 0 {
			s.sleep(s.Config.Extraction.RequestDelay)
		}
		fetched = true

		src, err := s.Extractor.Extract(ctx, candidate.URL, candidate.DocType)
		if err != nil {
			fmt.Fprintf(w, "warning: skipping %s: %v\n", candidate.URL, err)
			continue
		}

		sources = append(sources, *src)
		hostCounts[host]++
		fmt.Fprintf(w, "extracted %s (%s, %d chars)\n",
			candidate.URL, src.Metadata.Reliability, len(src.Text))
	}
	return sources
}

func (s *Spider) report(run *types.ResearchRun, w io.Writer) {
	if len(run.Sources) == 0 {
		fmt.Fprintf(w, "no sources found for %q in domain %s\n", run.Query, run.Domain)
		return
	}

	tiers := make(map[types.ReliabilityTier]int)
	for _, src := range run.Sources {
		tiers[src.Metadata.Reliability]++
	}

	fmt.Fprintf(w, "collected %d sources for %q:", len(run.Sources), run.Query)
	for _, tier := range []types.ReliabilityTier{types.TierVeryHigh, types.TierHigh, types.TierMedium, types.TierLow} {
		if n := tiers[tier]; n > 0 {
			fmt.Fprintf(w, " %s=%d", tier, n)
		}
	}
	fmt.Fprintln(w)
}
