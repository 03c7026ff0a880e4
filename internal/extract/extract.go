// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract fetches candidate URLs and turns them into cleaned source
// text plus provenance metadata. Extraction failures are ordinary errors the
// orchestrator logs and skips; one bad URL never aborts a batch.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"

	"github.com/pdiddy/research-spider/internal/httputil"
	"github.com/pdiddy/research-spider/internal/reliability"
	"github.com/pdiddy/research-spider/pkg/types"
)

// titleSelectors are tried in order; the first non-trivial match wins.
var titleSelectors = []string{"h1", "title", ".page-title", ".entry-title"}

// contentSelectors locate the main content container of a page.
var contentSelectors = []string{"article", ".content", ".entry-content", "main", "#content", ".post-content"}

// strippedElements are removed before any text extraction.
const strippedElements = "script, style, nav, header, footer"

const (
	maxContainerParagraphs = 15
	fallbackScanLimit      = 20
	fallbackParagraphs     = 8
	maxParagraphs          = 10
	minParagraphChars      = 40
)

// Extractor fetches URLs and produces Sources.
type Extractor struct {
	Client   *http.Client
	Config   types.ExtractionConfig
	RelMap   reliability.Map
	Keywords []string

	// Domain is the research domain recorded in source metadata.
	Domain string

	// now is overridable in tests for a stable scraped date.
	now func() time.Time
}

// NewExtractor builds an Extractor with defaults applied.
func NewExtractor(client *http.Client, cfg types.ExtractionConfig, relMap reliability.Map, keywords []string, domain string) *Extractor {
	if cfg.MinContentLength <= 0 {
		cfg.MinContentLength = 150
	}
	if cfg.MaxPDFPages <= 0 {
		cfg.MaxPDFPages = 50
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Extractor{
		Client:   client,
		Config:   cfg,
		RelMap:   relMap,
		Keywords: keywords,
		Domain:   domain,
		now:      time.Now,
	}
}

// Extract fetches rawURL and returns the cleaned source, or an error when
// the document cannot be fetched, parsed, or yields too little text.
func (e *Extractor) Extract(ctx context.Context, rawURL string, docType types.DocumentType) (*types.Source, error) {
	var (
		text  string
		title string
		err   error
	)

	switch docType {
	case types.DocPDF:
		text, err = e.extractPDF(ctx, rawURL)
		title = titleFromURL(rawURL, ".pdf")
	case types.DocText:
		text, err = e.extractTextFile(ctx, rawURL)
		title = titleFromURL(rawURL, ".txt")
	default:
		text, title, err = e.extractHTML(ctx, rawURL)
	}
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if len(text) < e.Config.MinContentLength {
		// Short content is a placeholder, paywall notice, or extraction
		// failure, not usable research material.
		return nil, fmt.Errorf("content too short (%d chars, need %d)", len(text), e.Config.MinContentLength)
	}

	host := hostOf(rawURL)
	score := e.RelMap.ContentScore(host, text, e.Keywords)

	return &types.Source{
		Text: text,
		Metadata: types.SourceMetadata{
			SourceName:     SourceName(host, title),
			Reliability:    reliability.TierFor(score),
			URL:            rawURL,
			Host:           host,
			Title:          title,
			ScrapedDate:    e.now().Format("2006-01-02"),
			ResearchDomain: e.Domain,
			DocumentType:   docType,
		},
	}, nil
}

// extractHTML parses the page, strips boilerplate elements, and collects
// paragraphs from the first matching content container, scanning the whole
// page when the container yields too little. When even that comes up short
// it falls back to readability's article extraction.
func (e *Extractor) extractHTML(ctx context.Context, rawURL string) (text, title string, err error) {
	body, err := e.fetch(ctx, rawURL)
	if err != nil {
		return "", "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("parsing HTML: %w", err)
	}

	doc.Find(strippedElements).Remove()

	title = extractTitle(doc)

	var parts []string
	for _, selector := range contentSelectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		container.Find("p").EachWithBreak(func(i int, s *goquery.Selection) bool {
			if i >= maxContainerParagraphs {
				return false
			}
			if t := strings.TrimSpace(s.Text()); len(t) > minParagraphChars {
				parts = append(parts, t)
			}
			return true
		})
		if len(parts) >= 5 {
			break
		}
	}

	// Container selectors found too little: scan every paragraph on the page.
	if len(parts) < 3 {
		parts = parts[:0]
		doc.Find("p").EachWithBreak(func(i int, s *goquery.Selection) bool {
			if i >= fallbackScanLimit || len(parts) >= fallbackParagraphs {
				return false
			}
			if t := strings.TrimSpace(s.Text()); len(t) > minParagraphChars {
				parts = append(parts, t)
			}
			return true
		})
	}

	if len(parts) > maxParagraphs {
		parts = parts[:maxParagraphs]
	}
	text = strings.Join(parts, "\n\n")

	if len(text) < e.Config.MinContentLength {
		if rText, rTitle := e.readabilityFallback(body, rawURL); len(rText) > len(text) {
			text = rText
			if title == "Document" && rTitle != "" {
				title = rTitle
			}
		}
	}

	return text, title, nil
}

// readabilityFallback runs go-readability over the raw page. It returns
// empty strings when readability cannot find an article either.
func (e *Extractor) readabilityFallback(body []byte, rawURL string) (text, title string) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", ""
	}
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return "", ""
	}
	return strings.TrimSpace(article.TextContent), strings.TrimSpace(article.Title)
}

// extractPDF reads up to MaxPDFPages pages, keeping pages whose extracted
// text exceeds 50 characters. Unreadable pages are skipped, not fatal.
func (e *Extractor) extractPDF(ctx context.Context, rawURL string) (string, error) {
	body, err := e.fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("parsing PDF: %w", err)
	}

	pages := reader.NumPage()
	if pages > e.Config.MaxPDFPages {
		pages = e.Config.MaxPDFPages
	}

	var parts []string
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if t := strings.TrimSpace(pageText); len(t) > 50 {
			parts = append(parts, t)
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no readable text in PDF")
	}
	return strings.Join(parts, "\n\n"), nil
}

// extractTextFile decodes a plain-text document, trying UTF-8 first and
// falling back through Latin-1 and ISO 8859-1. The first decoding that
// yields at least 50 non-whitespace characters wins.
func (e *Extractor) extractTextFile(ctx context.Context, rawURL string) (string, error) {
	body, err := e.fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}

	var candidates []string
	if utf8.Valid(body) {
		candidates = append(candidates, string(body))
	}
	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
		if decoded, err := cm.NewDecoder().Bytes(body); err == nil {
			candidates = append(candidates, string(decoded))
		}
	}

	for _, text := range candidates {
		if countNonSpace(text) >= 50 {
			return strings.TrimSpace(text), nil
		}
	}
	return "", fmt.Errorf("no decoding yielded usable text")
}

func (e *Extractor) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", e.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, e.Client, req, 2, io.Discard)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: HTTP %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	return body, nil
}

func extractTitle(doc *goquery.Document) string {
	for _, selector := range titleSelectors {
		if t := strings.TrimSpace(doc.Find(selector).First().Text()); len(t) > 3 {
			return t
		}
	}
	return "Document"
}

var titleCaser = cases.Title(language.English)

// titleFromURL derives a display title from the last path segment.
func titleFromURL(rawURL, ext string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	base := path.Base(p)
	base = strings.TrimSuffix(base, ext)
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	if base == "" || base == "." || base == "/" {
		return "Document"
	}
	return titleCaser.String(base)
}

// SourceName derives a human-readable publisher name from host and title.
func SourceName(host, title string) string {
	switch {
	case strings.Contains(host, "wikipedia"):
		return "Wikipedia"
	case strings.Contains(host, "britannica"):
		return "Encyclopædia Britannica"
	case strings.Contains(host, "edu"):
		name := strings.TrimPrefix(host, "www.")
		name = strings.TrimSuffix(name, ".edu")
		return titleCaser.String(name) + " University"
	}
	if idx := strings.Index(title, " - "); idx > 0 {
		return title[:idx]
	}
	return host
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
