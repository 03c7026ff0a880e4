// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-spider CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-spider/internal/secrets"
	"github.com/pdiddy/research-spider/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const defaultUserAgent = "research-spider/0.1"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// apiKey resolves the search API key for a provider: config value first,
// then the .secrets/ file named <provider>-api-key.
func apiKey(provider string) string {
	if v := viper.GetString(provider + "_api_key"); v != "" {
		return v
	}
	return loadedSecrets[provider+"-api-key"]
}

// rootCmd is the base command for the research-spider CLI.
var rootCmd = &cobra.Command{
	Use:   "research-spider",
	Short: "Multi-domain web research and article generation",
	Long: `research-spider collects source material from the web for a research term:
it plans search queries biased toward academic sources, filters and ranks
results by source reliability, extracts readable content from HTML, PDF, and
text documents, and caches the collected run locally.

Collected runs feed a full-text passage index and an article generator that
renders Jekyll-ready posts with sections answered from the collected sources.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-spider.yaml or ~/.config/research-spider/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "directory for the run cache and passage index (default: research)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-spider")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-spider"))
		}
	}

	viper.SetEnvPrefix("RESEARCH_SPIDER")
	viper.AutomaticEnv()

	viper.SetDefault("search.provider", "serpapi")
	viper.SetDefault("search.max_sources", 10)
	viper.SetDefault("search.results_per_query", 30)
	viper.SetDefault("search.query_delay", "1s")
	viper.SetDefault("search.timeout", "30s")
	viper.SetDefault("budget.enabled", true)
	viper.SetDefault("budget.warning_threshold", 100)
	viper.SetDefault("budget.critical_threshold", 20)
	viper.SetDefault("budget.auto_stop_on_critical", true)
	viper.SetDefault("extraction.request_delay", "1s")
	viper.SetDefault("extraction.min_content_length", 150)
	viper.SetDefault("extraction.max_pdf_pages", 50)
	viper.SetDefault("data_dir", "research")
	viper.SetDefault("article.posts_dir", "_posts")
	viper.SetDefault("article.fetch_images", true)
	viper.SetDefault("article.image_width", 800)
	viper.SetDefault("article.image_height", 600)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// dataDir resolves the data directory: flag, then config, then default.
func dataDir() string {
	if d, _ := rootCmd.PersistentFlags().GetString("data-dir"); d != "" {
		return d
	}
	return viper.GetString("data_dir")
}

// pipelineConfig assembles the full pipeline configuration from viper.
func pipelineConfig() types.PipelineConfig {
	dir := dataDir()
	httpCfg := types.HTTPConfig{
		Timeout:   viper.GetDuration("search.timeout"),
		UserAgent: defaultUserAgent,
	}
	return types.PipelineConfig{
		Search: types.SearchConfig{
			HTTPConfig:            httpCfg,
			Provider:              viper.GetString("search.provider"),
			MaxSources:            viper.GetInt("search.max_sources"),
			ResultsPerQuery:       viper.GetInt("search.results_per_query"),
			QueryDelay:            viper.GetDuration("search.query_delay"),
			SkipDomains:           skipDomains(),
			UnsupportedExtensions: types.DefaultUnsupportedExtensions,
		},
		Budget: types.BudgetConfig{
			HTTPConfig:         httpCfg,
			Enabled:            viper.GetBool("budget.enabled"),
			WarningThreshold:   viper.GetInt("budget.warning_threshold"),
			CriticalThreshold:  viper.GetInt("budget.critical_threshold"),
			AutoStopOnCritical: viper.GetBool("budget.auto_stop_on_critical"),
		},
		Extraction: types.ExtractionConfig{
			HTTPConfig:       httpCfg,
			RequestDelay:     viper.GetDuration("extraction.request_delay"),
			MinContentLength: viper.GetInt("extraction.min_content_length"),
			MaxPDFPages:      viper.GetInt("extraction.max_pdf_pages"),
		},
		Cleaning: cleaningConfig(),
		Store:    types.StoreConfig{DataDir: dir},
		Index: types.IndexConfig{
			DataDir:      dir,
			ChunkSize:    viper.GetInt("index.chunk_size"),
			ChunkOverlap: viper.GetInt("index.chunk_overlap"),
			MaxResults:   viper.GetInt("index.max_results"),
		},
		Article: types.ArticleConfig{
			PostsDir:     viper.GetString("article.posts_dir"),
			FetchImages:  viper.GetBool("article.fetch_images"),
			ImageWidth:   viper.GetInt("article.image_width"),
			ImageHeight:  viper.GetInt("article.image_height"),
			DefaultImage: viper.GetString("article.default_image"),
		},
	}
}

func skipDomains() []string {
	if v := viper.GetStringSlice("search.skip_domains"); len(v) > 0 {
		return v
	}
	return types.DefaultSkipDomains
}

func cleaningConfig() types.CleaningConfig {
	cfg := types.DefaultCleaningConfig()
	if viper.IsSet("cleaning.min_paragraph_length") {
		cfg.MinParagraphLength = viper.GetInt("cleaning.min_paragraph_length")
	}
	for key, target := range map[string]*bool{
		"cleaning.remove_citations":             &cfg.RemoveCitations,
		"cleaning.remove_source_markers":        &cfg.RemoveSourceMarkers,
		"cleaning.convert_markdown":             &cfg.ConvertMarkdown,
		"cleaning.remove_non_paragraph":         &cfg.RemoveNonParagraph,
		"cleaning.remove_incomplete_paragraphs": &cfg.RemoveIncomplete,
	} {
		if viper.IsSet(key) {
			*target = viper.GetBool(key)
		}
	}
	return cfg
}

func httpTimeout() time.Duration {
	if t := viper.GetDuration("search.timeout"); t > 0 {
		return t
	}
	return 30 * time.Second
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
