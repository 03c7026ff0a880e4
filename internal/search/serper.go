// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/research-spider/pkg/types"
)

// serperAPIBase is the Serper search endpoint, overridable in tests.
var serperAPIBase = "https://google.serper.dev/search"

// SerperProvider queries the serper.dev Google search API.
type SerperProvider struct {
	APIKey string
	Client *http.Client
}

// Name returns the provider identifier.
func (p *SerperProvider) Name() string { return "serper" }

// Search runs one query and returns its organic results.
func (p *SerperProvider) Search(ctx context.Context, query string, cfg types.SearchConfig) ([]Result, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("serper: missing API key")
	}

	num := cfg.ResultsPerQuery
	if num <= 0 {
		num = 30
	}

	body, err := json.Marshal(map[string]any{"q": query, "num": num})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serperAPIBase, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-API-KEY", p.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := p.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper returned HTTP %d", resp.StatusCode)
	}

	var payload struct {
		Organic []struct {
			Link    string `json:"link"`
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("parsing serper response: %w", err)
	}

	results := make([]Result, 0, len(payload.Organic))
	for _, r := range payload.Organic {
		results = append(results, Result{URL: r.Link, Title: r.Title, Snippet: r.Snippet})
	}
	return results, nil
}

func (p *SerperProvider) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return http.DefaultClient
}
