// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-spider/internal/article"
	"github.com/pdiddy/research-spider/internal/cleaner"
	"github.com/pdiddy/research-spider/internal/domains"
	"github.com/pdiddy/research-spider/internal/index"
	"github.com/pdiddy/research-spider/internal/store"
)

var articleCmd = &cobra.Command{
	Use:   "article [term]",
	Short: "Generate an article from a cached research run",
	Long: `Article assembles a Jekyll-ready post for a term previously researched with
the research command. Each domain profile question becomes a section whose
content is retrieved from the passage index; sections can be illustrated
with Wikimedia Commons images.`,
	RunE: runArticle,
}

func init() {
	articleCmd.Flags().String("domain", "botany", "research domain profile")
	articleCmd.Flags().String("posts-dir", "", "output directory (default from config)")
	articleCmd.Flags().String("format", "html", "output format: html, text, or json")
	articleCmd.Flags().Bool("no-images", false, "skip Wikimedia Commons image fetching")

	rootCmd.AddCommand(articleCmd)
}

func runArticle(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a research term")
	}
	term := strings.Join(args, " ")

	domainKey, _ := cmd.Flags().GetString("domain")
	postsDir, _ := cmd.Flags().GetString("posts-dir")
	format, _ := cmd.Flags().GetString("format")
	noImages, _ := cmd.Flags().GetBool("no-images")

	cfg := pipelineConfig()
	if postsDir != "" {
		cfg.Article.PostsDir = postsDir
	}
	if noImages {
		cfg.Article.FetchImages = false
	}

	profiles, err := domains.Load("domains.yaml")
	if err != nil {
		return err
	}
	profile, err := profiles.Get(domainKey)
	if err != nil {
		return err
	}

	runStore, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer runStore.Close()

	run, err := runStore.LatestRun(context.Background(), term, profile.Name)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("no cached research for %q in domain %s; run `research-spider research %s --domain %s` first",
			term, domainKey, term, domainKey)
	}

	ix, err := index.New(cfg.Index)
	if err != nil {
		return err
	}
	defer ix.Close()

	var images article.ImageSource
	if cfg.Article.FetchImages {
		images = &article.CommonsFetcher{
			Client:    &http.Client{Timeout: httpTimeout()},
			UserAgent: defaultUserAgent,
		}
	}

	assembler := article.NewAssembler(ix, index.ExtractiveAnswerer{}, images,
		cleaner.NewFormatter(cleaner.New(cfg.Cleaning)), cfg.Article)

	art, err := assembler.Generate(context.Background(), run, profile, os.Stdout)
	if err != nil {
		return err
	}

	path, err := assembler.WriteArticle(art, format)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "article written: %s (%d sections)\n", path, len(art.Sections))
	return nil
}
