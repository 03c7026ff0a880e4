// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-spider/internal/index"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the passage index",
	Long: `Retrieve searches the full-text passage index built from collected research
runs and prints the best-matching passages with provenance.`,
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().Int("k", 5, "number of passages to return")
	retrieveCmd.Flags().String("run", "", "restrict retrieval to one run ID")
	retrieveCmd.Flags().Bool("json", false, "output passages as JSON")

	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a search query")
	}
	query := strings.Join(args, " ")

	k, _ := cmd.Flags().GetInt("k")
	runID, _ := cmd.Flags().GetString("run")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg := pipelineConfig()
	ix, err := index.New(cfg.Index)
	if err != nil {
		return err
	}
	defer ix.Close()

	var passages []index.Passage
	if runID != "" {
		passages, err = ix.RetrieveForRun(context.Background(), runID, query, k)
	} else {
		passages, err = ix.Retrieve(context.Background(), query, k)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(passages)
	}

	if len(passages) == 0 {
		fmt.Println("No passages found.")
		return nil
	}

	for i, p := range passages {
		fmt.Fprintf(os.Stdout, "[%d] %s (%s, %s)\n", i+1, p.SourceName, p.Reliability, p.URL)
		text := p.Text
		if len(text) > 300 {
			text = text[:300] + "..."
		}
		fmt.Fprintf(os.Stdout, "    %s\n\n", strings.ReplaceAll(text, "\n", "\n    "))
	}
	return nil
}
