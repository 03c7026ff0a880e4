// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-spider/internal/budget"
	"github.com/pdiddy/research-spider/internal/domains"
	"github.com/pdiddy/research-spider/internal/extract"
	"github.com/pdiddy/research-spider/internal/index"
	"github.com/pdiddy/research-spider/internal/reliability"
	"github.com/pdiddy/research-spider/internal/search"
	"github.com/pdiddy/research-spider/internal/spider"
	"github.com/pdiddy/research-spider/internal/store"
)

var researchCmd = &cobra.Command{
	Use:   "research [term]",
	Short: "Collect web sources for a research term",
	Long: `Research plans academically biased search queries for a term, gathers and
ranks results by source reliability, extracts readable content, and caches
the collected run. The run also feeds the passage index used by the article
and retrieve commands.

A cached run for the same term and domain is reused unless --refresh is set.`,
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().String("domain", "botany", "research domain profile")
	researchCmd.Flags().Int("max-sources", 0, "maximum sources to collect (default from config)")
	researchCmd.Flags().Bool("skip-budget-check", false, "skip the search credit gate")
	researchCmd.Flags().Bool("refresh", false, "ignore the run cache and collect fresh sources")
	researchCmd.Flags().Bool("json", false, "print the collected run as JSON")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a research term")
	}
	term := strings.Join(args, " ")

	domainKey, _ := cmd.Flags().GetString("domain")
	maxSources, _ := cmd.Flags().GetInt("max-sources")
	skipBudget, _ := cmd.Flags().GetBool("skip-budget-check")
	refresh, _ := cmd.Flags().GetBool("refresh")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg := pipelineConfig()
	if maxSources > 0 {
		cfg.Search.MaxSources = maxSources
	}

	profiles, err := domains.Load("domains.yaml")
	if err != nil {
		return err
	}
	profile, err := profiles.Get(domainKey)
	if err != nil {
		return err
	}

	table, err := reliability.LoadTable("reliability.yaml", domainKey)
	if err != nil {
		return err
	}
	relMap := table.Flatten()

	provider, err := search.NewProvider(cfg.Search.Provider, apiKey(cfg.Search.Provider))
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: httpTimeout()}
	extractor := extract.NewExtractor(client, cfg.Extraction, relMap, profile.Keywords, profile.Name)

	runStore, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer runStore.Close()

	var gate spider.CreditGate
	if !skipBudget && cfg.Budget.Enabled {
		monitor := budget.NewMonitor(apiKey("serpapi"), cfg.Budget)
		monitor.Client = client
		gate = monitor
	}

	s := spider.New(provider, extractor, runStore, gate, relMap, cfg)

	run, err := s.Run(context.Background(), term, profile, spider.Options{Refresh: refresh}, os.Stdout)
	if err != nil {
		return err
	}

	// Index the run so retrieve and article can query it immediately.
	ix, err := index.New(cfg.Index)
	if err != nil {
		return err
	}
	defer ix.Close()
	if n, err := ix.IndexRun(context.Background(), run); err != nil {
		fmt.Fprintf(os.Stderr, "warning: indexing failed: %v\n", err)
	} else {
		fmt.Fprintf(os.Stdout, "indexed %d passages\n", n)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}
	return nil
}
