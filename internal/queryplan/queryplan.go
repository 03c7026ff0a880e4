// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package queryplan builds the prioritized list of search-engine queries for
// a research term. Queries are issued in list order, so academic-restricted
// queries come first and encyclopedic fallbacks last.
package queryplan

import (
	"fmt"
	"strings"

	"github.com/pdiddy/research-spider/pkg/types"
)

// academicScopes are the site restrictions for high-priority queries.
var academicScopes = []string{"site:edu", "site:ac.uk", "site:ac.za"}

// institutionalQualifiers broaden the net to research organizations.
var institutionalQualifiers = []string{"research", "institute"}

// encyclopedicScopes are the low-priority fallback restrictions.
var encyclopedicScopes = []string{"site:wikipedia.org", "site:britannica.com"}

// PlannedQuery pairs a query string with the priority of the sources it targets.
type PlannedQuery struct {
	Priority types.QueryPriority
	Query    string
}

// BuildQueries constructs the query plan for term using up to the first
// three domain keywords:
//
//  1. high:   term + keyword restricted to each academic site scope
//  2. medium: term + keyword with each institutional qualifier
//  3. medium: term combined with the first two keywords, unqualified
//  4. low:    term restricted to each encyclopedic source
//
// With no keywords only the combined and encyclopedic queries remain.
func BuildQueries(term string, keywords []string) []PlannedQuery {
	top := keywords
	if len(top) > 3 {
		top = top[:3]
	}

	var queries []PlannedQuery

	for _, kw := range top {
		for _, scope := range academicScopes {
			queries = append(queries, PlannedQuery{
				Priority: types.PriorityHigh,
				Query:    fmt.Sprintf("%s %s %s", term, kw, scope),
			})
		}
	}

	for _, kw := range top {
		for _, qualifier := range institutionalQualifiers {
			queries = append(queries, PlannedQuery{
				Priority: types.PriorityMedium,
				Query:    fmt.Sprintf("%s %s %s", term, kw, qualifier),
			})
		}
	}

	combined := top
	if len(combined) > 2 {
		combined = combined[:2]
	}
	queries = append(queries, PlannedQuery{
		Priority: types.PriorityMedium,
		Query:    strings.TrimSpace(term + " " + strings.Join(combined, " ")),
	})

	for _, scope := range encyclopedicScopes {
		queries = append(queries, PlannedQuery{
			Priority: types.PriorityLow,
			Query:    fmt.Sprintf("%s %s", term, scope),
		})
	}

	return queries
}
