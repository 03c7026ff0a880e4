// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cleaner

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emojiLabel = regexp.MustCompile(`([\x{1F300}-\x{1F9FF}])\s*\*\*([^*:]+):\*\*`)
	emptyPara  = regexp.MustCompile(`<p>\s*</p>`)
)

// blockPrefixes are markup openers that must not be wrapped in <p>.
var blockPrefixes = []string{
	"<h", "<ul", "<ol", "<div", "<img", "<p>", "</p>", "<br", "<li", "</ul>", "</ol>",
}

// Formatter turns cleaned text into display-ready HTML.
type Formatter struct {
	cleaner *Cleaner
}

// NewFormatter wraps c with the HTML formatting pass.
func NewFormatter(c *Cleaner) *Formatter {
	return &Formatter{cleaner: c}
}

// Format cleans content and wraps bare prose lines in paragraph tags.
// Lines already inside markup, and short connective fragments, are left alone.
func (f *Formatter) Format(content string) string {
	content = f.cleaner.Clean(content)
	content = formatEmojiLabels(content)
	content = emptyPara.ReplaceAllString(content, "")

	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		switch {
		case stripped == "":
			out = append(out, line)
		case hasBlockPrefix(stripped) || strings.HasPrefix(stripped, "</"):
			out = append(out, line)
		case !strings.HasPrefix(stripped, "<"):
			if strings.Contains(line, "<strong>") || strings.Contains(line, "<em>") ||
				strings.Contains(line, "<a ") || len(stripped) > 30 {
				out = append(out, fmt.Sprintf("<p>%s</p>", stripped))
			} else {
				out = append(out, line)
			}
		default:
			out = append(out, line)
		}
	}
	content = strings.Join(out, "\n")
	return emptyPara.ReplaceAllString(content, "")
}

// formatEmojiLabels rewrites emoji-prefixed bold labels as their own
// paragraph, a convention carried over from generated draft text.
func formatEmojiLabels(text string) string {
	return emojiLabel.ReplaceAllString(text, "\n\n<p><strong>$1 $2:</strong></p>\n<p>")
}

func hasBlockPrefix(s string) bool {
	for _, p := range blockPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
