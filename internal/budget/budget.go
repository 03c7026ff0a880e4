// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package budget gates research runs on remaining search-API credits.
// The gate is a hard stop: a run blocked here is never retried automatically.
package budget

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pdiddy/research-spider/pkg/types"
)

// accountAPIBase is the SerpAPI account endpoint, overridable in tests.
var accountAPIBase = "https://serpapi.com/account"

// Status summarizes the credit check.
type Status struct {
	// CanProceed reports whether research may start.
	CanProceed bool

	// Remaining is the number of searches left on the plan.
	Remaining int

	// Used is the number of searches consumed this cycle.
	Used int

	// PlanTotal is the monthly search allowance.
	PlanTotal int

	// Level is "ok", "warning", "critical", or "error".
	Level string

	// Message explains the decision.
	Message string
}

// UsagePercent returns consumed credit as a percentage of the plan.
func (s Status) UsagePercent() float64 {
	if s.PlanTotal <= 0 {
		return 0
	}
	return float64(s.Used) / float64(s.PlanTotal) * 100
}

// Monitor checks SerpAPI account credit against configured thresholds.
type Monitor struct {
	APIKey string
	Client *http.Client
	Config types.BudgetConfig
}

// NewMonitor builds a Monitor. Thresholds of zero take the stock defaults.
func NewMonitor(apiKey string, cfg types.BudgetConfig) *Monitor {
	if cfg.WarningThreshold <= 0 {
		cfg.WarningThreshold = 100
	}
	if cfg.CriticalThreshold <= 0 {
		cfg.CriticalThreshold = 20
	}
	return &Monitor{APIKey: apiKey, Config: cfg}
}

// Check fetches account credit and classifies it against the thresholds.
// A failed account lookup yields CanProceed=false: with no visibility into
// remaining credit the safe call is to block.
func (m *Monitor) Check(ctx context.Context) Status {
	remaining, planTotal, err := m.accountInfo(ctx)
	if err != nil {
		return Status{
			CanProceed: false,
			Level:      "error",
			Message:    fmt.Sprintf("failed to retrieve account information: %v", err),
		}
	}

	used := planTotal - remaining
	st := Status{Remaining: remaining, Used: used, PlanTotal: planTotal}

	switch {
	case remaining <= m.Config.CriticalThreshold:
		st.Level = "critical"
		st.CanProceed = false
		st.Message = fmt.Sprintf("only %d searches remaining, research halted", remaining)
	case remaining <= m.Config.WarningThreshold:
		st.Level = "warning"
		st.CanProceed = true
		st.Message = fmt.Sprintf("low on searches: %d remaining", remaining)
	default:
		st.Level = "ok"
		st.CanProceed = true
		st.Message = fmt.Sprintf("sufficient searches available: %d remaining", remaining)
	}
	return st
}

// Gate runs the full pre-research check for a run expected to consume
// requiredSearches credits. It reports the decision on w.
func (m *Monitor) Gate(ctx context.Context, requiredSearches int, w io.Writer) bool {
	if !m.Config.Enabled {
		return true
	}

	st := m.Check(ctx)
	fmt.Fprintf(w, "credit check [%s]: %s\n", st.Level, st.Message)

	if !st.CanProceed {
		return false
	}
	if st.Remaining < requiredSearches && m.Config.AutoStopOnCritical {
		fmt.Fprintf(w, "credit check: %d remaining, need ~%d; auto-stop enabled\n",
			st.Remaining, requiredSearches)
		return false
	}
	return true
}

// EstimateSearches predicts how many provider calls a research run will make:
// one per planned query, bounded by the early-stop behaviour only at runtime,
// so the estimate is the worst case.
func EstimateSearches(plannedQueries int) int {
	return plannedQueries
}

func (m *Monitor) accountInfo(ctx context.Context) (remaining, planTotal int, err error) {
	if m.APIKey == "" {
		return 0, 0, fmt.Errorf("missing API key")
	}

	params := url.Values{}
	params.Set("api_key", m.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, accountAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", m.Config.UserAgent)

	resp, err := m.client().Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("account request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("account endpoint returned HTTP %d", resp.StatusCode)
	}

	var payload struct {
		TotalSearchesLeft    int `json:"total_searches_left"`
		PlanSearchesPerMonth int `json:"plan_searches_per_month"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, 0, fmt.Errorf("parsing account response: %w", err)
	}
	return payload.TotalSearchesLeft, payload.PlanSearchesPerMonth, nil
}

func (m *Monitor) client() *http.Client {
	if m.Client != nil {
		return m.Client
	}
	return http.DefaultClient
}
