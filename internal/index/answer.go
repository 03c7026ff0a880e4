// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"strings"
)

// Answerer turns retrieved passages into section text for one question.
// Implementations may summarize, rewrite, or generate; the default simply
// stitches the best passages together.
type Answerer interface {
	Answer(ctx context.Context, question string, passages []Passage) (string, error)
}

// ExtractiveAnswerer is the default Answerer. It concatenates the top
// passages verbatim, so section text is always traceable to a source.
type ExtractiveAnswerer struct {
	// MaxPassages caps how many passages make up an answer (default 3).
	MaxPassages int
}

// Answer joins up to MaxPassages passage texts. No passages yields an
// empty answer, which callers treat as an unanswerable question.
func (a ExtractiveAnswerer) Answer(ctx context.Context, question string, passages []Passage) (string, error) {
	limit := a.MaxPassages
	if limit <= 0 {
		limit = 3
	}
	if len(passages) > limit {
		passages = passages[:limit]
	}

	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		if t := strings.TrimSpace(p.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}
