// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cleaner normalizes scraped and generated text into publishable
// markup. Stages run in a fixed order; each can be disabled via config.
// Clean is idempotent: cleaning already-clean text changes nothing.
package cleaner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/research-spider/pkg/types"
)

var (
	citationMarker   = regexp.MustCompile(`\[\d+\]`)
	sourceLabel      = regexp.MustCompile(`\[?[Ss]ource:?\s*\d+\]?`)
	refLabel         = regexp.MustCompile(`Ref:\s*\[[a-zA-Z0-9]+\]`)
	doubleParenURL   = regexp.MustCompile(`\(\(https?://[^)]+\)\)`)
	searchJSONBlob   = regexp.MustCompile(`:\s*\{[^}]*serpapi[^}]*\}`)
	sourceHashLine   = regexp.MustCompile(`(?m)^Source: \[[0-9a-fA-F]+\]\n`)
	instMarker       = regexp.MustCompile(`\[/?INST\]`)
	trailingCitation = regexp.MustCompile(`(?m)\[\d+\]\s*$`)

	h3Heading = regexp.MustCompile(`(?m)^###\s+(.+)$`)
	h2AsH3    = regexp.MustCompile(`(?m)^##\s+(.+)$`)
	h2Heading = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	boldSpan  = regexp.MustCompile(`\*\*(.+?)\*\*`)
	emSpan    = regexp.MustCompile(`\*([^*]+?)\*`)

	paragraphSplit = regexp.MustCompile(`\n\s*\n`)
	sentenceSplit  = regexp.MustCompile(`[.!?]+\s+`)
	sentenceStart  = regexp.MustCompile(`[.!?]\s+([A-Z])`)

	excessBlankLines = regexp.MustCompile(`\n{3,}`)
	multiSpace       = regexp.MustCompile(` {2,}`)
)

// noiseFragments mark lines of leaked search-API payloads, not prose.
var noiseFragments = []string{
	"{'id':", `{"id":`, "serpapi.com", "json_endpoint",
	"raw_html_file", "created_at", "processed_at",
}

// Cleaner applies the configured cleaning stages to text.
type Cleaner struct {
	Config types.CleaningConfig
}

// New returns a Cleaner for cfg. A zero MinParagraphLength gets the default.
func New(cfg types.CleaningConfig) *Cleaner {
	if cfg.MinParagraphLength <= 0 {
		cfg.MinParagraphLength = 50
	}
	return &Cleaner{Config: cfg}
}

// Clean runs every enabled stage in order and normalizes whitespace.
func (c *Cleaner) Clean(text string) string {
	text = c.RemoveCitations(text)
	text = c.RemoveSourceMarkers(text)
	text = c.ConvertMarkdown(text)
	text = c.RemoveNoiseLines(text)
	text = c.RemoveIncompleteParagraphs(text)
	return normalizeWhitespace(text)
}

// RemoveCitations strips citation markers, inline source labels, and leaked
// search-API URLs.
func (c *Cleaner) RemoveCitations(text string) string {
	if !c.Config.RemoveCitations {
		return text
	}
	text = citationMarker.ReplaceAllString(text, "")
	text = sourceLabel.ReplaceAllString(text, "")
	text = refLabel.ReplaceAllString(text, "")
	text = doubleParenURL.ReplaceAllString(text, "")
	text = searchJSONBlob.ReplaceAllString(text, "")
	text = sourceHashLine.ReplaceAllString(text, "")
	return text
}

// RemoveSourceMarkers strips instruction markers and line-final citations.
func (c *Cleaner) RemoveSourceMarkers(text string) string {
	if !c.Config.RemoveSourceMarkers {
		return text
	}
	text = instMarker.ReplaceAllString(text, "")
	text = trailingCitation.ReplaceAllString(text, "")
	return text
}

// ConvertMarkdown rewrites markdown headings, emphasis, and bullet lists as
// HTML. Both ## and ### become h3; # becomes h2, the article section level.
func (c *Cleaner) ConvertMarkdown(text string) string {
	if !c.Config.ConvertMarkdown {
		return text
	}
	text = h3Heading.ReplaceAllString(text, "<h3>$1</h3>")
	text = h2AsH3.ReplaceAllString(text, "<h3>$1</h3>")
	text = h2Heading.ReplaceAllString(text, "<h2>$1</h2>")
	text = boldSpan.ReplaceAllString(text, "<br>\n<strong>$1</strong>")
	text = emSpan.ReplaceAllString(text, "<em>$1</em>")
	return convertBulletLists(text)
}

func convertBulletLists(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	inList := false
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "* ") || strings.HasPrefix(stripped, "- ") {
			if !inList {
				out = append(out, "<ul>")
				inList = true
			}
			out = append(out, fmt.Sprintf("<li>%s</li>", strings.TrimSpace(stripped[2:])))
			continue
		}
		if inList {
			out = append(out, "</ul>")
			inList = false
		}
		out = append(out, line)
	}
	if inList {
		out = append(out, "</ul>")
	}
	return strings.Join(out, "\n")
}

// RemoveNoiseLines drops lines that are search-API debris or too short and
// unpunctuated to be prose. Markup lines and blank lines pass through.
func (c *Cleaner) RemoveNoiseLines(text string) string {
	if !c.Config.RemoveNonParagraph {
		return text
	}
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "<") || stripped == "" {
			kept = append(kept, line)
			continue
		}
		if containsAny(stripped, noiseFragments) {
			continue
		}
		if strings.HasPrefix(stripped, ":") {
			continue
		}
		if len(stripped) < 20 && !strings.ContainsAny(stripped, ".!?") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// RemoveIncompleteParagraphs drops paragraphs below the minimum length and
// repairs paragraphs that start or end mid-sentence. Markup paragraphs pass
// through untouched.
func (c *Cleaner) RemoveIncompleteParagraphs(text string) string {
	if !c.Config.RemoveIncomplete {
		return text
	}
	paragraphs := paragraphSplit.Split(text, -1)
	kept := make([]string, 0, len(paragraphs))

	for _, para := range paragraphs {
		stripped := strings.TrimSpace(para)
		if strings.HasPrefix(stripped, "<") && strings.HasSuffix(stripped, ">") {
			kept = append(kept, para)
			continue
		}
		if strings.Contains(para, "<h2>") || strings.Contains(para, "<h3>") ||
			strings.Contains(para, "<ul>") || strings.Contains(para, "<li>") {
			kept = append(kept, para)
			continue
		}

		para = stripped
		if len(para) < c.Config.MinParagraphLength {
			continue
		}

		// A paragraph ending mid-sentence keeps only its complete sentences.
		if !strings.ContainsAny(para[len(para)-1:], `.!?":)]>`) {
			sentences := sentenceSplit.Split(para, -1)
			if len(sentences) < 2 {
				continue
			}
			para = strings.Join(sentences[:len(sentences)-1], ". ") + "."
		}

		// A paragraph starting mid-sentence is trimmed to its first full one.
		if startsLower(para) {
			loc := sentenceStart.FindStringSubmatchIndex(para)
			if loc == nil {
				continue
			}
			para = para[loc[2]:]
		}

		kept = append(kept, para)
	}
	return strings.Join(kept, "\n\n")
}

func startsLower(para string) bool {
	if para == "" || strings.HasPrefix(para, "<") {
		return false
	}
	if strings.HasPrefix(para, "e.g.") || strings.HasPrefix(para, "i.e.") {
		return false
	}
	first := rune(para[0])
	return first >= 'a' && first <= 'z'
}

func normalizeWhitespace(text string) string {
	text = excessBlankLines.ReplaceAllString(text, "\n\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = strings.Join(lines, "\n")
	text = multiSpace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
