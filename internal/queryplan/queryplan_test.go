// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package queryplan

import (
	"strings"
	"testing"

	"github.com/pdiddy/research-spider/pkg/types"
)

func TestBuildQueriesFullPlan(t *testing.T) {
	queries := BuildQueries("Aloe", []string{"cultivation", "care", "habitat"})

	// 9 high (3 keywords x 3 scopes) + 6 medium (3 x 2 qualifiers)
	// + 1 combined medium + 2 low.
	if len(queries) != 18 {
		t.Fatalf("len(queries) = %d, want 18", len(queries))
	}

	counts := map[types.QueryPriority]int{}
	for _, q := range queries {
		counts[q.Priority]++
	}
	if counts[types.PriorityHigh] != 9 {
		t.Errorf("high = %d, want 9", counts[types.PriorityHigh])
	}
	if counts[types.PriorityMedium] != 7 {
		t.Errorf("medium = %d, want 7", counts[types.PriorityMedium])
	}
	if counts[types.PriorityLow] != 2 {
		t.Errorf("low = %d, want 2", counts[types.PriorityLow])
	}

	// Priority order: all high before any medium, all medium before any low.
	lastHigh, firstMedium, lastMedium, firstLow := -1, -1, -1, -1
	for i, q := range queries {
		switch q.Priority {
		case types.PriorityHigh:
			lastHigh = i
		case types.PriorityMedium:
			if firstMedium < 0 {
				firstMedium = i
			}
			lastMedium = i
		case types.PriorityLow:
			if firstLow < 0 {
				firstLow = i
			}
		}
	}
	if lastHigh > firstMedium || lastMedium > firstLow {
		t.Errorf("queries not in priority order")
	}

	if queries[0].Query != "Aloe cultivation site:edu" {
		t.Errorf("queries[0] = %q", queries[0].Query)
	}
	if queries[15].Query != "Aloe cultivation care" {
		t.Errorf("combined query = %q, want %q", queries[15].Query, "Aloe cultivation care")
	}
	if queries[17].Query != "Aloe site:britannica.com" {
		t.Errorf("last query = %q", queries[17].Query)
	}
}

func TestBuildQueriesUsesTopThreeKeywords(t *testing.T) {
	queries := BuildQueries("oak", []string{"a", "b", "c", "d", "e"})
	for _, q := range queries {
		if strings.Contains(q.Query, " d ") || strings.Contains(q.Query, " e ") {
			t.Errorf("query uses keyword beyond the top three: %q", q.Query)
		}
	}
}

func TestBuildQueriesNoKeywords(t *testing.T) {
	queries := BuildQueries("Aloe", nil)
	if len(queries) != 3 {
		t.Fatalf("len(queries) = %d, want 3", len(queries))
	}
	if queries[0].Priority != types.PriorityMedium || queries[0].Query != "Aloe" {
		t.Errorf("queries[0] = %+v", queries[0])
	}
	if queries[1].Query != "Aloe site:wikipedia.org" {
		t.Errorf("queries[1] = %q", queries[1].Query)
	}
}

func TestBuildQueriesSingleKeyword(t *testing.T) {
	queries := BuildQueries("fynbos", []string{"habitat"})
	// 3 high + 2 medium + 1 combined + 2 low.
	if len(queries) != 8 {
		t.Fatalf("len(queries) = %d, want 8", len(queries))
	}
	want := "fynbos habitat"
	if queries[5].Query != want {
		t.Errorf("combined = %q, want %q", queries[5].Query, want)
	}
}
