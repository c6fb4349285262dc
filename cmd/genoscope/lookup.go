// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/genoscope/internal/format"
	"github.com/pdiddy/genoscope/internal/search"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <accession>",
	Short: "Show the record behind an accession",
	Long: `Lookup searches each NCBI database for an exact accession (GSE, SRR,
NM_, NP_, ...) and prints the first record found with its metadata.`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().Bool("json", false, "output the record as JSON")

	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Search.QueryTimeout)
	defer cancel()

	rec, err := search.LookupAccession(ctx, a.registry, args[0])
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	fmt.Printf("Accession:  %s\n", rec.Accession)
	fmt.Printf("Database:   %s\n", rec.DatabaseID)
	fmt.Printf("Title:      %s\n", rec.Title)
	fmt.Printf("URL:        %s\n", format.DownloadURL(rec.DatabaseID, rec.Accession))
	if rec.Summary != "" {
		fmt.Printf("Summary:    %s\n", format.Truncate(rec.Summary, 400))
	}

	keys := make([]string, 0, len(rec.Metadata))
	for k := range rec.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-18s %s\n", k+":", rec.Metadata[k])
	}
	return nil
}
