// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cleaner

import (
	"strings"
	"testing"

	"github.com/pdiddy/research-spider/pkg/types"
)

func defaultCleaner() *Cleaner {
	return New(types.DefaultCleaningConfig())
}

func TestRemoveCitations(t *testing.T) {
	c := defaultCleaner()
	tests := []struct {
		name  string
		in    string
		gone  []string
		stays []string
	}{
		{
			name:  "numeric markers",
			in:    "Aloe vera [1] is a succulent [23] species.",
			gone:  []string{"[1]", "[23]"},
			stays: []string{"Aloe vera", "is a succulent", "species."},
		},
		{
			name:  "source labels",
			in:    "The plant thrives in arid climates Source: 3 and coastal regions [source: 12].",
			gone:  []string{"Source: 3", "source: 12"},
			stays: []string{"arid climates", "coastal regions"},
		},
		{
			name:  "ref labels and wrapped urls",
			in:    "Growth is slow Ref: [a1b2] ((https://example.org/paper)) in shade.",
			gone:  []string{"Ref:", "https://example.org"},
			stays: []string{"Growth is slow", "in shade."},
		},
		{
			name:  "leaked api payload",
			in:    "metadata: {\"engine\": \"serpapi.com\"} trailing prose stays put.",
			gone:  []string{"serpapi"},
			stays: []string{"metadata", "trailing prose stays put."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.RemoveCitations(tt.in)
			for _, s := range tt.gone {
				if strings.Contains(got, s) {
					t.Errorf("%q survived: %q", s, got)
				}
			}
			for _, s := range tt.stays {
				if !strings.Contains(got, s) {
					t.Errorf("%q removed: %q", s, got)
				}
			}
		})
	}
}

func TestRemoveCitationsHashSourceLine(t *testing.T) {
	c := defaultCleaner()
	in := "Source: [deadbeef]\nReal content follows on the next line here."
	got := c.RemoveCitations(in)
	if strings.Contains(got, "deadbeef") {
		t.Errorf("hash source line survived: %q", got)
	}
	if !strings.Contains(got, "Real content follows") {
		t.Errorf("content removed: %q", got)
	}
}

func TestRemoveSourceMarkers(t *testing.T) {
	c := defaultCleaner()
	in := "[INST]The species flowers in winter.[/INST] It needs full sun. [4]"
	got := c.RemoveSourceMarkers(in)
	if strings.Contains(got, "INST") || strings.Contains(got, "[4]") {
		t.Errorf("markers survived: %q", got)
	}
	if !strings.Contains(got, "flowers in winter") {
		t.Errorf("content removed: %q", got)
	}
}

func TestConvertMarkdownHeadings(t *testing.T) {
	c := defaultCleaner()
	in := "# Overview\n## Habitat\n### Soil"
	got := c.ConvertMarkdown(in)
	for _, want := range []string{"<h2>Overview</h2>", "<h3>Habitat</h3>", "<h3>Soil</h3>"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
}

func TestConvertMarkdownEmphasis(t *testing.T) {
	c := defaultCleaner()
	got := c.ConvertMarkdown("Needs **full sun** and *well-drained* soil.")
	if !strings.Contains(got, "<strong>full sun</strong>") {
		t.Errorf("bold not converted: %q", got)
	}
	if !strings.Contains(got, "<em>well-drained</em>") {
		t.Errorf("emphasis not converted: %q", got)
	}
}

func TestConvertMarkdownLists(t *testing.T) {
	c := defaultCleaner()
	in := "Care requirements:\n* bright light\n- sandy soil\nEnd of list."
	got := c.ConvertMarkdown(in)

	wantOrder := []string{"<ul>", "<li>bright light</li>", "<li>sandy soil</li>", "</ul>", "End of list."}
	last := -1
	for _, w := range wantOrder {
		idx := strings.Index(got, w)
		if idx < 0 {
			t.Fatalf("missing %q in %q", w, got)
		}
		if idx < last {
			t.Fatalf("%q out of order in %q", w, got)
		}
		last = idx
	}
}

func TestConvertMarkdownUnterminatedList(t *testing.T) {
	c := defaultCleaner()
	got := c.ConvertMarkdown("* only item")
	if !strings.HasSuffix(strings.TrimSpace(got), "</ul>") {
		t.Errorf("list left open: %q", got)
	}
}

func TestRemoveNoiseLines(t *testing.T) {
	c := defaultCleaner()
	in := strings.Join([]string{
		"A proper sentence about aloe cultivation in gardens.",
		`{"id": "abc", "json_endpoint": "x"}`,
		": orphaned value",
		"tiny frag",
		"Short but real.",
		"<h2>Heading</h2>",
		"",
	}, "\n")
	got := c.RemoveNoiseLines(in)

	for _, gone := range []string{"json_endpoint", ": orphaned", "tiny frag"} {
		if strings.Contains(got, gone) {
			t.Errorf("noise %q survived: %q", gone, got)
		}
	}
	for _, stays := range []string{"proper sentence", "Short but real.", "<h2>Heading</h2>"} {
		if !strings.Contains(got, stays) {
			t.Errorf("%q removed: %q", stays, got)
		}
	}
}

func TestRemoveIncompleteParagraphsMinLength(t *testing.T) {
	c := defaultCleaner()
	// 49 characters drops, 50 survives.
	drop := strings.Repeat("x", 48) + "."
	keep := strings.Repeat("y", 49) + "."
	if len(drop) != 49 || len(keep) != 50 {
		t.Fatalf("fixture lengths %d, %d", len(drop), len(keep))
	}

	got := c.RemoveIncompleteParagraphs(drop + "\n\n" + keep)
	if strings.Contains(got, drop) {
		t.Errorf("49-char paragraph survived")
	}
	if !strings.Contains(got, keep) {
		t.Errorf("50-char paragraph removed")
	}
}

func TestRemoveIncompleteParagraphsTruncatedEnd(t *testing.T) {
	c := defaultCleaner()
	in := "The plant prefers full sun and tolerates drought. It also survives in rocky soils and"
	got := c.RemoveIncompleteParagraphs(in)
	if !strings.HasSuffix(got, ".") {
		t.Errorf("trailing fragment kept: %q", got)
	}
	if strings.Contains(got, "rocky soils and") {
		t.Errorf("incomplete sentence survived: %q", got)
	}
	if !strings.Contains(got, "full sun") {
		t.Errorf("complete sentence removed: %q", got)
	}
}

func TestRemoveIncompleteParagraphsLowercaseStart(t *testing.T) {
	c := defaultCleaner()
	in := "and its leaves store water for long periods. The species is native to southern Africa and widely cultivated."
	got := c.RemoveIncompleteParagraphs(in)
	if strings.HasPrefix(got, "and its leaves") {
		t.Errorf("mid-sentence start survived: %q", got)
	}
	if !strings.HasPrefix(got, "The species is native") {
		t.Errorf("first full sentence lost: %q", got)
	}
}

func TestRemoveIncompleteParagraphsKeepsMarkup(t *testing.T) {
	c := defaultCleaner()
	in := "<h2>Care</h2>\n\n<ul>\n<li>water sparingly</li>\n</ul>"
	got := c.RemoveIncompleteParagraphs(in)
	if got != in {
		t.Errorf("markup paragraphs altered:\n%q\n%q", in, got)
	}
}

func TestCleanIdempotent(t *testing.T) {
	c := defaultCleaner()
	in := "# Aloe\n\nAloe vera [1] is a succulent plant species of the genus Aloe. " +
		"It is widely grown as an ornamental and medicinal plant across the world.\n\n\n\n" +
		"* thick leaves\n* shallow roots\n"
	once := c.Clean(in)
	twice := c.Clean(once)
	if once != twice {
		t.Errorf("Clean not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func TestCleanCollapsesWhitespace(t *testing.T) {
	c := defaultCleaner()
	in := "A complete first paragraph about aloe cultivation methods.\n\n\n\n\nA complete  second   paragraph about aloe propagation methods."
	got := c.Clean(in)
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("blank lines not collapsed: %q", got)
	}
	if strings.Contains(got, "  ") {
		t.Errorf("double spaces not collapsed: %q", got)
	}
}

func TestStagesDisabled(t *testing.T) {
	c := New(types.CleaningConfig{MinParagraphLength: 50})
	in := "Aloe [1] **bold** * item"
	if got := c.RemoveCitations(in); got != in {
		t.Errorf("disabled RemoveCitations changed text")
	}
	if got := c.ConvertMarkdown(in); got != in {
		t.Errorf("disabled ConvertMarkdown changed text")
	}
	if got := c.RemoveIncompleteParagraphs(in); got != in {
		t.Errorf("disabled RemoveIncompleteParagraphs changed text")
	}
}

func TestFormatterWrapsProse(t *testing.T) {
	f := NewFormatter(defaultCleaner())
	in := "<h2>Habitat</h2>\n\nAloe ferox grows on rocky hillsides across the Eastern Cape region of South Africa."
	got := f.Format(in)
	if !strings.Contains(got, "<p>Aloe ferox grows") {
		t.Errorf("prose not wrapped: %q", got)
	}
	if strings.Contains(got, "<p><h2>") {
		t.Errorf("heading wrapped in paragraph: %q", got)
	}
}

func TestFormatterDropsEmptyParagraphs(t *testing.T) {
	f := NewFormatter(defaultCleaner())
	got := f.Format("<p>  </p>\n\n<h2>Uses</h2>\n\nThe sap of this species is harvested commercially for bitter aloes production.")
	if strings.Contains(got, "<p>  </p>") || strings.Contains(got, "<p></p>") {
		t.Errorf("empty paragraph survived: %q", got)
	}
}
