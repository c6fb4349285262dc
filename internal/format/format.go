// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package format projects ranked results into response records and writes
// result sets as a table, JSON, or YAML.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/genoscope/pkg/types"
)

// DefaultSummaryLength is the summary cap, in runes, when Options leaves it
// unset.
const DefaultSummaryLength = 200

const ellipsis = "..."

// Options controls record projection.
type Options struct {
	// SummaryLength caps summaries in runes. Zero or negative uses
	// DefaultSummaryLength.
	SummaryLength int
}

// Format maps each ranked result to a record, keeping rank order.
func Format(ranked []types.RankedResult, opts Options) []types.Record {
	n := opts.SummaryLength
	if n <= 0 {
		n = DefaultSummaryLength
	}
	out := make([]types.Record, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, types.Record{
			Rank:        r.Rank,
			Accession:   r.Accession,
			Title:       r.Title,
			Summary:     Truncate(r.Summary, n),
			DatabaseID:  r.DatabaseID,
			Organism:    r.Metadata[types.MetaOrganism],
			Score:       r.Score,
			DownloadURL: DownloadURL(r.DatabaseID, r.Accession),
		})
	}
	return out
}

// DownloadURL returns the NCBI page for a record.
func DownloadURL(db types.DatabaseID, accession string) string {
	switch db {
	case types.DBExpression:
		return "https://www.ncbi.nlm.nih.gov/geo/query/acc.cgi?acc=" + url.QueryEscape(accession)
	case types.DBSequenceRead:
		return "https://www.ncbi.nlm.nih.gov/sra/" + url.PathEscape(accession)
	case types.DBProtein:
		return "https://www.ncbi.nlm.nih.gov/protein/" + url.PathEscape(accession)
	default:
		return "https://www.ncbi.nlm.nih.gov/nuccore/" + url.PathEscape(accession)
	}
}

// Truncate shortens s to at most n runes, appending "..." when it cut.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:n]), " ") + ellipsis
}

// FormatTable writes a result set as a human-readable table to w.
func FormatTable(rs types.ResultSet, w io.Writer) {
	if len(rs.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
	} else {
		fmt.Fprintf(w, "%-4s  %-14s  %-13s  %-50s  %-20s  %s\n",
			"Rank", "Accession", "Database", "Title", "Organism", "Score")
		fmt.Fprintln(w, strings.Repeat("-", 114))

		for _, r := range rs.Results {
			fmt.Fprintf(w, "%-4d  %-14s  %-13s  %-50s  %-20s  %.2f\n",
				r.Rank, Truncate(r.Accession, 14), r.DatabaseID, Truncate(r.Title, 47),
				Truncate(r.Organism, 17), r.Score)
		}

		fmt.Fprintf(w, "\n%d results", len(rs.Results))
		if rs.DupsRemoved > 0 {
			fmt.Fprintf(w, " (%d duplicates removed)", rs.DupsRemoved)
		}
		fmt.Fprintln(w)
	}

	for _, pf := range rs.PartialFailures {
		fmt.Fprintf(w, "warning: %s unavailable: %s\n", pf.DatabaseID, pf.Reason)
	}
	for _, rec := range rs.Recommendations {
		fmt.Fprintf(w, "hint: %s\n", rec)
	}
}

// FormatJSON writes a result set as indented JSON to w.
func FormatJSON(rs types.ResultSet, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(normalize(rs))
}

// FormatYAML writes a result set as YAML to w.
func FormatYAML(rs types.ResultSet, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(normalize(rs)); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return enc.Close()
}

// normalize replaces nil slices so results and partial failures are always
// present in serialized output.
func normalize(rs types.ResultSet) types.ResultSet {
	if rs.Results == nil {
		rs.Results = []types.Record{}
	}
	if rs.PartialFailures == nil {
		rs.PartialFailures = []types.PartialFailure{}
	}
	if rs.Strategies == nil {
		rs.Strategies = []types.SearchStrategy{}
	}
	return rs
}
