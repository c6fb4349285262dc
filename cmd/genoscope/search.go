// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/genoscope/internal/format"
	"github.com/pdiddy/genoscope/internal/pipeline"
	"github.com/pdiddy/genoscope/pkg/types"
)

var errNoMatches = errors.New("no matches")

var searchCmd = &cobra.Command{
	Use:   "search [question...]",
	Short: "Search NCBI databases with a plain-language research question",
	Long: `Search parses a research question into an organism, a data type, conditions,
and free keywords, builds one query per relevant NCBI database, runs them
concurrently, and prints a single ranked list.

Exit status is 0 when records were found, 2 when nothing matched, and 3 when
every database was unavailable.`,
	Example: `  genoscope search human breast cancer RNA-seq
  genoscope search --json "mouse alzheimer single cell"`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("max-results", 0, "maximum records per database (default 20)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("yaml", false, "output results as YAML")
	searchCmd.Flags().Duration("timeout", 0, "deadline for the whole query (default 60s)")
	searchCmd.Flags().Bool("csl", false, "output results as CSL-YAML dataset citations")
	searchCmd.Flags().Bool("save-history", false, "record the query in the history database")
	searchCmd.Flags().String("save", "", "save the query and results to a YAML file")
	searchCmd.Flags().String("load", "", "print a saved query file instead of searching")

	viper.BindPFlag("search.query_timeout", searchCmd.Flags().Lookup("timeout"))

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if path, _ := cmd.Flags().GetString("load"); path != "" {
		qf, err := format.ReadQueryFile(path)
		if err != nil {
			return err
		}
		return writeResultSet(cmd, qf.ResultSet())
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("provide a research question, e.g. genoscope search human breast cancer RNA-seq")
	}

	saveHistory, _ := cmd.Flags().GetBool("save-history")
	a, err := newApp(saveHistory)
	if err != nil {
		return err
	}
	defer a.Close()

	engine, err := a.engine()
	if err != nil {
		return err
	}

	maxResults, _ := cmd.Flags().GetInt("max-results")
	if maxResults <= 0 {
		maxResults = a.cfg.Search.MaxResults
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rs, err := engine.ProcessQuery(ctx, question, maxResults)
	if err != nil && !errors.Is(err, pipeline.ErrAllBackendsFailed) {
		return err
	}
	if werr := writeResultSet(cmd, rs); werr != nil {
		return werr
	}
	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if werr := format.WriteQueryFile(path, rs, maxResults); werr != nil {
			return werr
		}
		fmt.Fprintf(os.Stderr, "Saved query to %s\n", path)
	}

	switch {
	case errors.Is(err, pipeline.ErrAllBackendsFailed):
		return &exitError{code: 3, err: err}
	case len(rs.Results) == 0:
		return &exitError{code: 2, err: errNoMatches}
	}
	return nil
}

// writeResultSet prints rs in the format the --json and --yaml flags select.
func writeResultSet(cmd *cobra.Command, rs types.ResultSet) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	yamlOutput, _ := cmd.Flags().GetBool("yaml")
	cslOutput, _ := cmd.Flags().GetBool("csl")
	switch {
	case jsonOutput:
		return format.FormatJSON(rs, os.Stdout)
	case yamlOutput:
		return format.FormatYAML(rs, os.Stdout)
	case cslOutput:
		return format.FormatCSL(rs, os.Stdout)
	default:
		format.FormatTable(rs, os.Stdout)
		return nil
	}
}
