// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/genoscope/internal/fetch"
	"github.com/pdiddy/genoscope/internal/search"
	"github.com/pdiddy/genoscope/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [accessions...]",
	Short: "Download records by accession",
	Long: `Fetch resolves each accession, downloads the record with efetch, and
writes a YAML metadata file beside it. Nucleotide and protein records are
saved as FASTA or GenBank; SRA runs as runinfo CSV; GEO DataSets as text.
Existing files are skipped.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("format", "fasta", "sequence format: fasta or gb")
	fetchCmd.Flags().String("out", "", "output directory (default downloads)")
	fetchCmd.Flags().Duration("delay", 0, "delay between consecutive downloads (default 350ms)")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more accessions (e.g. NM_007294.4, GSE12345, SRR000001)")
	}
	formatName, _ := cmd.Flags().GetString("format")
	ft, err := fetch.ParseFormat(formatName)
	if err != nil {
		return err
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg.Fetch
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		cfg.OutDir = out
	}
	if delay, _ := cmd.Flags().GetDuration("delay"); delay > 0 {
		cfg.DownloadDelay = delay
	}

	resolve := func(ctx context.Context, accession string) (types.RawResult, error) {
		return search.LookupAccession(ctx, a.registry, accession)
	}
	f := fetch.New(a.eutils, resolve, cfg, a.log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result := f.FetchBatch(ctx, args, ft, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d record(s) failed to download", result.Failed)
	}
	return nil
}
