// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-spider/internal/domains"
)

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List configured research domains",
	Long: `Domains lists the research domain profiles available to the research and
article commands: built-in profiles plus any overrides from ./domains.yaml.`,
	RunE: runDomains,
}

func init() {
	domainsCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(domainsCmd)
}

func runDomains(cmd *cobra.Command, args []string) error {
	profiles, err := domains.Load("domains.yaml")
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(profiles)
	}

	for _, key := range profiles.Keys() {
		p := profiles[key]
		fmt.Fprintf(os.Stdout, "%s: %s\n", key, p.Name)
		fmt.Fprintf(os.Stdout, "  %s\n", p.Description)
		fmt.Fprintf(os.Stdout, "  keywords: %s\n", strings.Join(p.Keywords, ", "))
		fmt.Fprintf(os.Stdout, "  sections: %s\n\n", strings.Join(p.Questions, "; "))
	}
	return nil
}
