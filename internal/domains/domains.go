// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package domains loads research-domain profiles: keyword sets and section
// questions per subject area.
package domains

import (
	"fmt"
	"os"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-spider/pkg/types"
)

// Profiles maps a domain key (botany, medical, ...) to its profile.
type Profiles map[string]types.DomainProfile

// Load reads domain profiles from a YAML file. A missing file yields the
// built-in profiles; profiles present in the file override built-ins with
// the same key.
func Load(path string) (Profiles, error) {
	profiles := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return profiles, nil
		}
		return nil, fmt.Errorf("reading domain profiles: %w", err)
	}

	var fromFile Profiles
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("parsing domain profiles: %w", err)
	}
	for key, p := range fromFile {
		profiles[key] = p
	}
	return profiles, nil
}

// Get returns the profile for a domain key.
func (p Profiles) Get(domain string) (types.DomainProfile, error) {
	profile, ok := p[domain]
	if !ok {
		return types.DomainProfile{}, fmt.Errorf("unknown research domain %q (available: %v)", domain, p.Keys())
	}
	return profile, nil
}

// Keys returns the configured domain keys in sorted order.
func (p Profiles) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Defaults returns the compiled-in domain profiles.
func Defaults() Profiles {
	return Profiles{
		"botany": {
			Name:           "Botanical Research",
			Description:    "Plant and flora research",
			PrimarySources: []string{"university", "research_institute", "botanical_garden"},
			Questions: []string{
				"what are the benefits",
				"interesting facts",
				"care and cultivation guide",
				"physical description and characteristics",
			},
			Keywords: []string{"cultivation", "care", "habitat", "propagation", "species"},
		},
		"medical": {
			Name:           "Medical Research",
			Description:    "Medical and healthcare research",
			PrimarySources: []string{"university", "hospital", "research_institute", "medical_journal"},
			Questions: []string{
				"what are the symptoms",
				"what are the treatments",
				"what causes this condition",
				"what are the risk factors",
			},
			Keywords: []string{"treatment", "symptoms", "diagnosis", "prevention", "causes"},
		},
		"carpentry": {
			Name:           "Carpentry & Woodworking",
			Description:    "Woodworking techniques and materials",
			PrimarySources: []string{"university", "trade_school", "professional_association"},
			Questions: []string{
				"what are the techniques",
				"what tools are required",
				"safety considerations",
				"best practices and tips",
			},
			Keywords: []string{"joinery", "tools", "techniques", "materials", "finishing"},
		},
		"mathematics": {
			Name:           "Mathematics Research",
			Description:    "Mathematical concepts and formulas",
			PrimarySources: []string{"university", "research_institute", "mathematical_society"},
			Questions: []string{
				"what is the theorem or formula",
				"what are the applications",
				"proof and derivation",
				"historical context and development",
			},
			Keywords: []string{"theorem", "proof", "formula", "applications", "derivation"},
		},
	}
}
