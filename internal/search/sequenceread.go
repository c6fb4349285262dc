// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/genoscope/internal/vocab"
	"github.com/pdiddy/genoscope/pkg/types"
)

// SequenceReadConnector queries the Sequence Read Archive (db=sra). SRA
// document summaries bury run accessions in embedded XML, so the connector
// fetches the runinfo CSV instead, one row per sequencing run.
type SequenceReadConnector struct {
	Client *EUtils
	Vocab  *vocab.Index
}

// BackendID returns types.DBSequenceRead.
func (c *SequenceReadConnector) BackendID() types.DatabaseID { return types.DBSequenceRead }

// Execute runs the strategy against SRA.
func (c *SequenceReadConnector) Execute(ctx context.Context, s types.SearchStrategy) ([]types.RawResult, error) {
	ids, err := esearch(ctx, c.Client, types.DBSequenceRead, s)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	body, err := c.Client.Fetch(ctx, types.DBSequenceRead, ids, "runinfo", "text")
	if err != nil {
		return nil, err
	}

	results, err := parseRunInfo(body, c.Vocab)
	if err != nil {
		return nil, err
	}
	// One experiment UID can expand to several runs.
	if s.MaxResults > 0 && len(results) > s.MaxResults {
		results = results[:s.MaxResults]
	}
	return results, nil
}

// parseRunInfo converts runinfo CSV into results. Columns are located by
// header name; repeated header rows between batches are skipped.
func parseRunInfo(data []byte, ix *vocab.Index) ([]types.RawResult, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parsing runinfo header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	if _, ok := col["Run"]; !ok {
		return nil, fmt.Errorf("parsing runinfo: no Run column in header")
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var results []types.RawResult
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing runinfo: %w", err)
		}
		run := field(rec, "Run")
		if run == "" || run == "Run" {
			continue
		}

		strategy := field(rec, "LibraryStrategy")
		dataType := strategy
		if dt, ok := ix.DataTypeForLabel(strategy); ok {
			dataType = dt
		}

		meta := map[string]string{
			types.MetaOrganism: field(rec, "ScientificName"),
			types.MetaDataType: dataType,
			types.MetaPlatform: field(rec, "Platform"),
			"experiment":       field(rec, "Experiment"),
			"study":            field(rec, "SRAStudy"),
			"bioproject":       field(rec, "BioProject"),
		}
		if d := normalizeDate(field(rec, "ReleaseDate")); d != "" {
			meta[types.MetaPublicationDate] = d
		}
		for k, v := range meta {
			if v == "" {
				delete(meta, k)
			}
		}

		results = append(results, types.RawResult{
			Accession:  run,
			Title:      runTitle(field(rec, "SampleName"), strategy, field(rec, "Experiment")),
			Summary:    runSummary(rec, field),
			DatabaseID: types.DBSequenceRead,
			Metadata:   meta,
		})
	}
	return results, nil
}

func runTitle(sample, strategy, experiment string) string {
	if sample == "" {
		sample = experiment
	}
	switch {
	case sample != "" && strategy != "":
		return sample + " - " + strategy
	case sample != "":
		return sample
	default:
		return strategy
	}
}

func runSummary(rec []string, field func([]string, string) string) string {
	var parts []string
	if s := strings.TrimSpace(field(rec, "LibraryStrategy") + " " + field(rec, "LibraryLayout")); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(field(rec, "Platform") + " " + field(rec, "Model")); s != "" {
		parts = append(parts, s)
	}
	if s := field(rec, "ScientificName"); s != "" {
		parts = append(parts, s)
	}
	if s := field(rec, "SRAStudy"); s != "" {
		parts = append(parts, "study "+s)
	}
	return strings.Join(parts, ", ")
}
