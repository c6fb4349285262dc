// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/genoscope/internal/format"
	"github.com/pdiddy/genoscope/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse previously recorded queries",
	Long: `History reads the local query history written by search --save-history
and by the HTTP server.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent queries, newest first",
	RunE:  runHistoryList,
}

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over recorded questions and accessions",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistorySearch,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <query-id>",
	Short: "Print the stored result set of a recorded query",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	for _, c := range []*cobra.Command{historyListCmd, historySearchCmd, historyShowCmd} {
		c.Flags().Bool("json", false, "output as JSON")
	}
	historyListCmd.Flags().Int("limit", 0, "maximum entries (default 20)")
	historySearchCmd.Flags().Int("limit", 0, "maximum entries (default 20)")

	historyCmd.AddCommand(historyListCmd, historySearchCmd, historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return history.Open(cfg.History)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.List(context.Background(), limit)
	if err != nil {
		return err
	}
	return writeEntries(cmd, entries)
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.Search(context.Background(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}
	return writeEntries(cmd, entries)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	rs, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return format.FormatJSON(rs, os.Stdout)
	}
	fmt.Printf("Query %s: %s\n\n", rs.QueryID, rs.Intent.RawText)
	format.FormatTable(rs, os.Stdout)
	return nil
}

func writeEntries(cmd *cobra.Command, entries []history.Entry) error {
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		if entries == nil {
			entries = []history.Entry{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No queries recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-16s  %-44s  %7s  %s\n", "ID", "When", "Question", "Results", "Failed")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 118))
	for _, e := range entries {
		fmt.Fprintf(os.Stdout, "%-36s  %-16s  %-44s  %7d  %d\n",
			e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), format.Truncate(e.Text, 41), e.Results, e.Failures)
	}
	fmt.Fprintf(os.Stdout, "\n%d entries\n", len(entries))
	return nil
}
