// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-spider/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the research-run cache",
	Long: `Cache manages the local SQLite cache of research runs. Use subcommands to
list cached runs, show one run's sources, delete a run, or clear everything.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached research runs",
	RunE:  runCacheList,
}

var cacheShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one cached run with its sources",
	RunE:  runCacheShow,
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete [run-id]",
	Short: "Delete one cached run",
	RunE:  runCacheDelete,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached run",
	RunE:  runCacheClear,
}

func init() {
	cacheListCmd.Flags().Bool("json", false, "output as JSON")
	cacheShowCmd.Flags().Bool("json", false, "output as JSON")

	cacheCmd.AddCommand(cacheListCmd, cacheShowCmd, cacheDeleteCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openStore() (*store.Store, error) {
	return store.NewStore(pipelineConfig().Store)
}

func runCacheList(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	infos, err := s.ListRuns(context.Background())
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	if len(infos) == 0 {
		fmt.Println("No cached runs.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-25s  %-20s  %-19s  %s\n",
		"ID", "Query", "Domain", "Collected", "Sources")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for _, info := range infos {
		fmt.Fprintf(os.Stdout, "%-36s  %-25s  %-20s  %-19s  %d\n",
			info.ID, truncate(info.Query, 25), truncate(info.Domain, 20),
			info.CollectedAt.Format("2006-01-02 15:04:05"), info.SourceCount)
	}
	return nil
}

func runCacheShow(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide a run ID (see `research-spider cache list`)")
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	run, err := s.GetRun(context.Background(), args[0])
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", args[0])
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	fmt.Fprintf(os.Stdout, "run %s: %q in %s, collected %s\n\n",
		run.ID, run.Query, run.Domain, run.CollectedAt.Format("2006-01-02 15:04:05"))
	for i, src := range run.Sources {
		fmt.Fprintf(os.Stdout, "[%d] %s (%s)\n    %s\n    %d chars\n",
			i+1, src.Metadata.SourceName, src.Metadata.Reliability,
			src.Metadata.URL, len(src.Text))
	}
	return nil
}

func runCacheDelete(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide a run ID (see `research-spider cache list`)")
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.DeleteRun(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "deleted run %s\n", args[0])
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.Clear(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "deleted %d run(s)\n", n)
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
