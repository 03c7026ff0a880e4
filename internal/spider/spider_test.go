// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package spider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/research-spider/internal/reliability"
	"github.com/pdiddy/research-spider/internal/search"
	"github.com/pdiddy/research-spider/pkg/types"
)

type fakeProvider struct {
	results []search.Result
	calls   int
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Search(ctx context.Context, query string, cfg types.SearchConfig) ([]search.Result, error) {
	p.calls++
	if p.calls == 1 {
		return p.results, nil
	}
	return nil, nil
}

type fakeExtractor struct {
	failing  map[string]bool
	extracts []string
}

func (e *fakeExtractor) Extract(ctx context.Context, rawURL string, docType types.DocumentType) (*types.Source, error) {
	e.extracts = append(e.extracts, rawURL)
	if e.failing[rawURL] {
		return nil, fmt.Errorf("content too short")
	}
	host := search.Host(rawURL)
	return &types.Source{
		Text: "Extracted content from " + rawURL,
		Metadata: types.SourceMetadata{
			URL:         rawURL,
			Host:        host,
			Reliability: types.TierHigh,
		},
	}, nil
}

type fakeStore struct {
	saved  []*types.ResearchRun
	cached *types.ResearchRun
}

func (s *fakeStore) SaveRun(ctx context.Context, run *types.ResearchRun) error {
	s.saved = append(s.saved, run)
	return nil
}

func (s *fakeStore) LatestRun(ctx context.Context, query, domain string) (*types.ResearchRun, error) {
	return s.cached, nil
}

type fakeGate struct{ allow bool }

func (g fakeGate) Gate(ctx context.Context, required int, w io.Writer) bool { return g.allow }

func botanyProfile() types.DomainProfile {
	return types.DomainProfile{
		Name:     "botany",
		Keywords: []string{"cultivation", "care"},
	}
}

func pipelineConfig(maxSources int) types.PipelineConfig {
	return types.PipelineConfig{
		Search: types.SearchConfig{
			MaxSources:      maxSources,
			ResultsPerQuery: 30,
		},
	}
}

func newTestSpider(provider search.Provider, extractor SourceExtractor, store RunStore, gate CreditGate, relMap reliability.Map, maxSources int) *Spider {
	s := New(provider, extractor, store, gate, relMap, pipelineConfig(maxSources))
	s.sleep = func(time.Duration) {}
	return s
}

func TestRunCollectsAndPersists(t *testing.T) {
	provider := &fakeProvider{results: []search.Result{
		{URL: "https://sanbi.org/aloe", Title: "Aloe ferox cultivation", Snippet: "care notes"},
		{URL: "https://example.org/aloe", Title: "Aloe ferox basics", Snippet: "cultivation"},
	}}
	extractor := &fakeExtractor{}
	store := &fakeStore{}
	relMap := reliability.Map{"sanbi.org": 0.98, "example.org": 0.6}

	s := newTestSpider(provider, extractor, store, fakeGate{allow: true}, relMap, 10)

	var buf bytes.Buffer
	run, err := s.Run(context.Background(), "aloe ferox", botanyProfile(), Options{Refresh: true}, &buf)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(run.Sources) != 2 {
		t.Fatalf("len(Sources) = %d, want 2", len(run.Sources))
	}
	if run.Sources[0].Metadata.Host != "sanbi.org" {
		t.Errorf("sources not ordered by reliability: %q first", run.Sources[0].Metadata.Host)
	}
	if run.ID == "" || run.Domain != "botany" || run.Query != "aloe ferox" {
		t.Errorf("run metadata incomplete: %+v", run)
	}
	if len(store.saved) != 1 || store.saved[0].ID != run.ID {
		t.Errorf("run not persisted")
	}
	if !strings.Contains(buf.String(), "collected 2 sources") {
		t.Errorf("missing summary in output:\n%s", buf.String())
	}
}

func TestRunBlockedByCreditGate(t *testing.T) {
	s := newTestSpider(&fakeProvider{}, &fakeExtractor{}, &fakeStore{}, fakeGate{allow: false}, reliability.Map{}, 10)

	var buf bytes.Buffer
	if _, err := s.Run(context.Background(), "aloe", botanyProfile(), Options{Refresh: true}, &buf); err == nil {
		t.Fatal("expected error when gate blocks")
	}
}

func TestRunReturnsCachedRun(t *testing.T) {
	cached := &types.ResearchRun{
		ID:          "cached-run",
		Query:       "aloe ferox",
		Domain:      "botany",
		CollectedAt: time.Now().UTC(),
		Sources:     []types.Source{{Text: "cached"}},
	}
	provider := &fakeProvider{}
	s := newTestSpider(provider, &fakeExtractor{}, &fakeStore{cached: cached}, fakeGate{allow: true}, reliability.Map{}, 10)

	var buf bytes.Buffer
	run, err := s.Run(context.Background(), "aloe ferox", botanyProfile(), Options{}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if run.ID != "cached-run" {
		t.Errorf("cache bypassed: got run %q", run.ID)
	}
	if provider.calls != 0 {
		t.Errorf("provider called despite cache hit")
	}
}

func TestRunRefreshBypassesCache(t *testing.T) {
	cached := &types.ResearchRun{ID: "cached-run", Query: "aloe ferox", Domain: "botany"}
	provider := &fakeProvider{results: []search.Result{
		{URL: "https://sanbi.org/aloe", Title: "aloe ferox cultivation", Snippet: ""},
	}}
	s := newTestSpider(provider, &fakeExtractor{}, &fakeStore{cached: cached}, fakeGate{allow: true}, reliability.Map{"sanbi.org": 0.98}, 10)

	var buf bytes.Buffer
	run, err := s.Run(context.Background(), "aloe ferox", botanyProfile(), Options{Refresh: true}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if run.ID == "cached-run" {
		t.Error("refresh returned cached run")
	}
	if provider.calls == 0 {
		t.Error("provider not called on refresh")
	}
}

func TestRunExtractionFailureIsWarning(t *testing.T) {
	provider := &fakeProvider{results: []search.Result{
		{URL: "https://sanbi.org/good", Title: "aloe ferox cultivation", Snippet: ""},
		{URL: "https://kew.org/bad", Title: "aloe ferox care", Snippet: ""},
	}}
	extractor := &fakeExtractor{failing: map[string]bool{"https://kew.org/bad": true}}
	relMap := reliability.Map{"sanbi.org": 0.98, "kew.org": 0.97}

	s := newTestSpider(provider, extractor, &fakeStore{}, fakeGate{allow: true}, relMap, 10)

	var buf bytes.Buffer
	run, err := s.Run(context.Background(), "aloe ferox", botanyProfile(), Options{Refresh: true}, &buf)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(run.Sources) != 1 {
		t.Fatalf("len(Sources) = %d, want 1", len(run.Sources))
	}
	if !strings.Contains(buf.String(), "warning: skipping https://kew.org/bad") {
		t.Errorf("missing warning in output:\n%s", buf.String())
	}
}

func TestRunHostCaps(t *testing.T) {
	// Ten candidates on one non-academic host: only three may be fetched.
	var results []search.Result
	for i := 0; i < 10; i++ {
		results = append(results, search.Result{
			URL:   fmt.Sprintf("https://example.org/aloe-%d", i),
			Title: "aloe ferox cultivation care",
		})
	}
	provider := &fakeProvider{results: results}
	extractor := &fakeExtractor{}
	relMap := reliability.Map{"example.org": 0.9}

	s := newTestSpider(provider, extractor, &fakeStore{}, fakeGate{allow: true}, relMap, 10)

	var buf bytes.Buffer
	run, err := s.Run(context.Background(), "aloe ferox", botanyProfile(), Options{Refresh: true}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(run.Sources) != 3 {
		t.Errorf("len(Sources) = %d, want host cap of 3", len(run.Sources))
	}
	if len(extractor.extracts) != 3 {
		t.Errorf("extractor called %d times, want 3", len(extractor.extracts))
	}
}

func TestRunAcademicHostCap(t *testing.T) {
	var results []search.Result
	for i := 0; i < 10; i++ {
		results = append(results, search.Result{
			URL:   fmt.Sprintf("https://botany.university.edu/aloe-%d", i),
			Title: "aloe ferox cultivation care",
		})
	}
	provider := &fakeProvider{results: results}
	extractor := &fakeExtractor{}
	relMap := reliability.Map{"botany.university.edu": 0.95}

	s := newTestSpider(provider, extractor, &fakeStore{}, fakeGate{allow: true}, relMap, 10)

	var buf bytes.Buffer
	run, err := s.Run(context.Background(), "aloe ferox", botanyProfile(), Options{Refresh: true}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(run.Sources) != 5 {
		t.Errorf("len(Sources) = %d, want academic host cap of 5", len(run.Sources))
	}
}

func TestRunNoSourcesIsNotError(t *testing.T) {
	s := newTestSpider(&fakeProvider{}, &fakeExtractor{}, &fakeStore{}, fakeGate{allow: true}, reliability.Map{}, 10)

	var buf bytes.Buffer
	run, err := s.Run(context.Background(), "nonexistent topic", botanyProfile(), Options{Refresh: true}, &buf)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(run.Sources) != 0 {
		t.Errorf("len(Sources) = %d, want 0", len(run.Sources))
	}
	if !strings.Contains(buf.String(), "no sources found") {
		t.Errorf("missing empty-run notice:\n%s", buf.String())
	}
}

func TestRunMaxSourcesStopsExtraction(t *testing.T) {
	var results []search.Result
	for i := 0; i < 6; i++ {
		results = append(results, search.Result{
			URL:   fmt.Sprintf("https://site-%d.university.edu/aloe", i),
			Title: "aloe ferox cultivation care",
		})
	}
	provider := &fakeProvider{results: results}
	extractor := &fakeExtractor{}
	relMap := reliability.Map{}

	s := newTestSpider(provider, extractor, &fakeStore{}, fakeGate{allow: true}, relMap, 2)

	var buf bytes.Buffer
	run, err := s.Run(context.Background(), "aloe ferox", botanyProfile(), Options{Refresh: true}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(run.Sources) != 2 {
		t.Errorf("len(Sources) = %d, want MaxSources 2", len(run.Sources))
	}
	if len(extractor.extracts) != 2 {
		t.Errorf("extractor called %d times after limit reached", len(extractor.extracts))
	}
}
