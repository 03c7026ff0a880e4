// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reliability maps hostnames to trust scores. Scores are configured
// per research domain as a category-grouped table and flattened for lookup;
// unknown hosts get a neutral default rather than failing.
package reliability

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-spider/pkg/types"
)

// DefaultScore is returned for hosts not present in the table.
const DefaultScore = 0.5

// Table groups host trust scores by source category
// (e.g. "botanical_institutes" -> {"sanbi.org": 0.98}).
type Table map[string]map[string]float64

// Map is the flattened hostname -> score lookup built from a Table.
type Map map[string]float64

// Flatten merges every category of t into a single lookup map. Later
// categories win on duplicate hosts, matching the original table semantics.
func (t Table) Flatten() Map {
	m := make(Map)
	for _, hosts := range t {
		for host, score := range hosts {
			m[host] = score
		}
	}
	return m
}

// Score returns the trust score for host, or DefaultScore when unknown.
func (m Map) Score(host string) float64 {
	if s, ok := m[host]; ok {
		return s
	}
	return DefaultScore
}

// academicMarkers identify hosts that get an institutional scoring bonus.
var academicMarkers = []string{".edu", ".ac.", "university", "institute"}

// IsAcademicHost reports whether host carries an academic marker.
func IsAcademicHost(host string) bool {
	for _, marker := range academicMarkers {
		if strings.Contains(host, marker) {
			return true
		}
	}
	return false
}

// ContentScore derives a source reliability score from the host's base trust
// plus content signals: +0.02 per domain keyword found in the text (capped at
// +0.1) and +0.05 when the text exceeds 1000 characters, clamped to 1.0.
func (m Map) ContentScore(host, content string, keywords []string) float64 {
	score := m.Score(host)

	lower := strings.ToLower(content)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			matches++
		}
	}
	boost := float64(matches) * 0.02
	if boost > 0.1 {
		boost = 0.1
	}
	score += boost

	if len(content) > 1000 {
		score += 0.05
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// TierFor buckets a reliability score into a coarse tier.
func TierFor(score float64) types.ReliabilityTier {
	switch {
	case score >= 0.95:
		return types.TierVeryHigh
	case score >= 0.85:
		return types.TierHigh
	case score >= 0.75:
		return types.TierMedium
	default:
		return types.TierLow
	}
}

// LoadTable reads a category-grouped reliability table from a YAML file.
// A missing file falls back to the built-in table for the domain.
func LoadTable(path, domain string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultTable(domain), nil
		}
		return nil, fmt.Errorf("reading reliability table: %w", err)
	}

	// The file maps domain name -> category -> host -> score so one file
	// can cover several research domains.
	var byDomain map[string]Table
	if err := yaml.Unmarshal(data, &byDomain); err != nil {
		return nil, fmt.Errorf("parsing reliability table: %w", err)
	}
	if t, ok := byDomain[domain]; ok {
		return t, nil
	}
	return DefaultTable(domain), nil
}

// DefaultTable returns the compiled-in trust table for a research domain.
// Domains without a dedicated table get a generic academic one.
func DefaultTable(domain string) Table {
	switch domain {
	case "botany":
		return Table{
			"south_african_academic": {
				"up.ac.za": 0.98, "uct.ac.za": 0.98, "wits.ac.za": 0.98,
				"sun.ac.za": 0.98, "ru.ac.za": 0.97, "ukzn.ac.za": 0.97,
			},
			"botanical_institutes": {
				"sanbi.org": 0.98, "plantzafrica.com": 0.97, "kew.org": 0.95,
			},
			"international_academic": {
				"en.wikipedia.org": 0.93, "britannica.com": 0.87,
			},
			"gardening_sites": {
				"thespruce.com": 0.70, "rhs.org.uk": 0.86,
			},
		}
	case "medical":
		return Table{
			"academic_medical": {
				"nih.gov": 0.98, "cdc.gov": 0.98, "who.int": 0.97,
				"mayo.edu": 0.96, "clevelandclinic.org": 0.95,
			},
			"medical_journals": {
				"nejm.org": 0.98, "thelancet.com": 0.98, "bmj.com": 0.97,
			},
			"university_medical": {
				"harvard.edu": 0.96, "stanford.edu": 0.96, "jhmi.edu": 0.96,
			},
			"general_medical": {
				"webmd.com": 0.75, "healthline.com": 0.75,
			},
		}
	case "mathematics":
		return Table{
			"academic": {
				"mit.edu": 0.98, "stanford.edu": 0.98, "cam.ac.uk": 0.97,
			},
			"math_resources": {
				"mathworld.wolfram.com": 0.95, "brilliant.org": 0.90,
			},
			"organizations": {
				"ams.org": 0.96, "siam.org": 0.95,
			},
		}
	default:
		return Table{
			"academic": {
				"edu": 0.90, "ac.uk": 0.90, "ac.za": 0.90,
			},
			"research": {
				"researchgate.net": 0.85, "arxiv.org": 0.88,
			},
			"general": {
				"wikipedia.org": 0.80,
			},
		}
	}
}
