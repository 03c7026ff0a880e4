// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package article assembles research runs into publishable articles. Each
// domain profile's questions become sections; section text comes from the
// passage index through an Answerer, so articles cite only collected
// material.
package article

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/research-spider/internal/cleaner"
	"github.com/pdiddy/research-spider/internal/index"
	"github.com/pdiddy/research-spider/pkg/types"
)

// headingTemplates are the title/subtitle pairs an article draws from.
var headingTemplates = []struct {
	Title    string
	Subtitle string
}{
	{"The Complete Guide to %s", "Everything you need to know about %s"},
	{"Discovering %s", "A closer look at %s"},
	{"%s: An In-Depth Look", "Research-backed insight into %s"},
	{"Understanding %s", "What the sources say about %s"},
}

const backgroundImageCount = 17

// Retriever serves ranked passages for one run.
type Retriever interface {
	RetrieveForRun(ctx context.Context, runID, query string, maxResults int) ([]index.Passage, error)
}

// Section is one article section.
type Section struct {
	Heading  string `json:"heading"`
	Question string `json:"question"`
	Content  string `json:"content"`
	Image    *Image `json:"image,omitempty"`
}

// Article is an assembled article ready for rendering.
type Article struct {
	Term       string    `json:"term"`
	Domain     string    `json:"domain"`
	Title      string    `json:"title"`
	Subtitle   string    `json:"subtitle"`
	Date       time.Time `json:"date"`
	Background string    `json:"background"`
	Categories []string  `json:"categories"`
	Tags       []string  `json:"tags"`
	Sections   []Section `json:"sections"`
}

// Assembler generates articles from cached research runs.
type Assembler struct {
	Retriever Retriever
	Answerer  index.Answerer
	Images    ImageSource
	Formatter *cleaner.Formatter
	Config    types.ArticleConfig

	// now and intn are overridable in tests.
	now  func() time.Time
	intn func(int) int
}

// NewAssembler builds an Assembler with defaults applied. Images may be nil
// to disable illustration fetching.
func NewAssembler(retriever Retriever, answerer index.Answerer, images ImageSource, formatter *cleaner.Formatter, cfg types.ArticleConfig) *Assembler {
	if cfg.PostsDir == "" {
		cfg.PostsDir = "_posts"
	}
	if cfg.ImageWidth <= 0 {
		cfg.ImageWidth = 800
	}
	if cfg.ImageHeight <= 0 {
		cfg.ImageHeight = 600
	}
	if cfg.DefaultImage == "" {
		cfg.DefaultImage = "/img/posts/default.jpg"
	}
	return &Assembler{
		Retriever: retriever,
		Answerer:  answerer,
		Images:    images,
		Formatter: formatter,
		Config:    cfg,
		now:       time.Now,
		intn:      rand.Intn,
	}
}

// Generate assembles the article for a research run. Sections are the
// domain profile's questions bracketed by an introduction and a conclusion.
// Retrieval and image failures degrade the article, they never abort it.
func (a *Assembler) Generate(ctx context.Context, run *types.ResearchRun, profile types.DomainProfile, w io.Writer) (*Article, error) {
	specs := sectionSpecs(run.Query, profile)

	var images []Image
	if a.Config.FetchImages && a.Images != nil {
		fmt.Fprintf(w, "fetching images for %q\n", run.Query)
		images = a.Images.ImagesFor(ctx, run.Query)
		fmt.Fprintf(w, "found %d images\n", len(images))
	}

	sections := make([]Section, 0, len(specs))
	for i, spec := range specs {
		content := a.sectionContent(ctx, run, spec, w)
		section := Section{
			Heading:  spec.heading,
			Question: spec.question,
			Content:  content,
		}
		if i < len(images) {
			img := images[i]
			section.Image = &img
		}
		sections = append(sections, section)
	}

	pick := headingTemplates[a.intn(len(headingTemplates))]
	date := a.now()

	return &Article{
		Term:       run.Query,
		Domain:     run.Domain,
		Title:      fmt.Sprintf(pick.Title, titleWord(run.Query)),
		Subtitle:   fmt.Sprintf(pick.Subtitle, run.Query),
		Date:       date,
		Background: fmt.Sprintf("/img/posts/%02d.jpg", a.intn(backgroundImageCount)+1),
		Categories: []string{profile.Name, "Research Guide"},
		Tags:       []string{Slug(run.Query), "research-guide"},
		Sections:   sections,
	}, nil
}

type sectionSpec struct {
	heading  string
	question string
	query    string
}

func sectionSpecs(term string, profile types.DomainProfile) []sectionSpec {
	specs := []sectionSpec{{
		heading:  "Introduction",
		question: "introduction and overview",
		query:    term + " overview origin significance",
	}}
	for _, q := range profile.Questions {
		specs = append(specs, sectionSpec{
			heading:  headingFor(q),
			question: q,
			query:    term + " " + q,
		})
	}
	specs = append(specs, sectionSpec{
		heading:  "Conclusion",
		question: "summary of key points",
		query:    term + " summary key points",
	})
	return specs
}

func (a *Assembler) sectionContent(ctx context.Context, run *types.ResearchRun, spec sectionSpec, w io.Writer) string {
	var content string
	if a.Retriever != nil && a.Answerer != nil {
		passages, err := a.Retriever.RetrieveForRun(ctx, run.ID, spec.query, 10)
		if err != nil {
			fmt.Fprintf(w, "warning: retrieval failed for %q: %v\n", spec.heading, err)
		} else if answer, err := a.Answerer.Answer(ctx, spec.question, passages); err != nil {
			fmt.Fprintf(w, "warning: answering failed for %q: %v\n", spec.heading, err)
		} else {
			content = answer
		}
	}
	if strings.TrimSpace(content) == "" {
		content = fmt.Sprintf("Information about %s for %s is not yet available from the collected sources.",
			run.Query, spec.heading)
	}
	return a.Formatter.Format(content)
}

// headingFor turns a profile question into a section heading.
func headingFor(question string) string {
	q := strings.TrimSpace(question)
	q = strings.TrimSuffix(q, "?")
	for _, prefix := range []string{"what are the ", "what is the ", "what causes ", "what "} {
		if strings.HasPrefix(strings.ToLower(q), prefix) {
			q = q[len(prefix):]
			break
		}
	}
	words := strings.Fields(q)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func titleWord(term string) string {
	words := strings.Fields(term)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slug converts a term to a filename-safe slug.
func Slug(term string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(term), "-")
	return strings.Trim(s, "-")
}

// RenderHTML renders the article as a Jekyll post: YAML front matter
// followed by section markup.
func (a *Assembler) RenderHTML(art *Article) string {
	var b strings.Builder

	fmt.Fprintf(&b, "---\n")
	fmt.Fprintf(&b, "layout: post\n")
	fmt.Fprintf(&b, "title: %q\n", art.Title)
	fmt.Fprintf(&b, "subtitle: %q\n", art.Subtitle)
	fmt.Fprintf(&b, "date: %s\n", art.Date.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "background: '%s'\n", art.Background)
	fmt.Fprintf(&b, "categories: [%s]\n", strings.Join(art.Categories, ", "))
	fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(art.Tags, ", "))
	fmt.Fprintf(&b, "---\n\n")

	for i, section := range art.Sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if section.Image != nil {
			b.WriteString(imageHTML(*section.Image, art.Term, section.Heading,
				a.Config.ImageWidth, a.Config.ImageHeight, a.Config.DefaultImage))
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "<h2 class=\"section-heading\">%s</h2>\n", section.Heading)
		b.WriteString(section.Content)
	}
	b.WriteString("\n")
	return b.String()
}

// RenderText renders the article as plain text with markup stripped.
func (a *Assembler) RenderText(art *Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n", art.Title, art.Subtitle)
	for _, section := range art.Sections {
		fmt.Fprintf(&b, "%s\n\n", strings.ToUpper(section.Heading))
		text := htmlTag.ReplaceAllString(section.Content, "")
		b.WriteString(strings.TrimSpace(text))
		b.WriteString("\n\n")
	}
	return b.String()
}

// RenderJSON renders the article as indented JSON.
func (a *Assembler) RenderJSON(art *Article) ([]byte, error) {
	return json.MarshalIndent(art, "", "  ")
}

// WriteArticle renders the article in the given format ("html", "text", or
// "json") and writes it under the posts directory as
// YYYY-MM-DD-<slug>.<ext>. It returns the written path.
func (a *Assembler) WriteArticle(art *Article, format string) (string, error) {
	var (
		content []byte
		ext     string
		err     error
	)
	switch format {
	case "html", "":
		content = []byte(a.RenderHTML(art))
		ext = "html"
	case "text":
		content = []byte(a.RenderText(art))
		ext = "txt"
	case "json":
		content, err = a.RenderJSON(art)
		ext = "json"
		if err != nil {
			return "", fmt.Errorf("encoding article: %w", err)
		}
	default:
		return "", fmt.Errorf("unknown article format %q", format)
	}

	if err := os.MkdirAll(a.Config.PostsDir, 0o755); err != nil {
		return "", fmt.Errorf("creating posts directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.%s", art.Date.Format("2006-01-02"), Slug(art.Term), ext)
	path := filepath.Join(a.Config.PostsDir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("writing article: %w", err)
	}
	return path, nil
}
