// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/pdiddy/genoscope/internal/vocab"
	"github.com/pdiddy/genoscope/pkg/types"
)

// ExpressionConnector queries GEO DataSets (db=gds) with esearch followed
// by esummary.
type ExpressionConnector struct {
	Client *EUtils
	Vocab  *vocab.Index
}

// BackendID returns types.DBExpression.
func (c *ExpressionConnector) BackendID() types.DatabaseID { return types.DBExpression }

// Execute runs the strategy against GEO DataSets.
func (c *ExpressionConnector) Execute(ctx context.Context, s types.SearchStrategy) ([]types.RawResult, error) {
	ids, err := esearch(ctx, c.Client, types.DBExpression, s)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	docs, err := c.Client.Summaries(ctx, types.DBExpression, ids)
	if err != nil {
		return nil, err
	}

	results := make([]types.RawResult, 0, len(docs))
	for _, raw := range docs {
		var doc gdsDocSum
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parsing gds summary: %w", err)
		}
		if doc.Accession == "" {
			continue
		}

		meta := map[string]string{
			types.MetaUID:      doc.UID,
			types.MetaOrganism: doc.Taxon,
			types.MetaDataType: gdsDataType(c.Vocab, doc.GDSType),
		}
		if doc.GPL != "" {
			meta[types.MetaPlatform] = gplAccessions(doc.GPL)
		}
		if d := normalizeDate(doc.PDat); d != "" {
			meta[types.MetaPublicationDate] = d
		}
		if doc.NSamples > 0 {
			meta["samples"] = strconv.Itoa(doc.NSamples)
		}
		if doc.EntryType != "" {
			meta["entry_type"] = doc.EntryType
		}

		results = append(results, types.RawResult{
			Accession:  doc.Accession,
			Title:      doc.Title,
			Summary:    doc.Summary,
			DatabaseID: types.DBExpression,
			Metadata:   meta,
		})
	}
	return results, nil
}

// gdsDataType maps each "; "-separated GEO dataset type to a canonical data
// type. Types with no vocabulary entry are kept verbatim.
func gdsDataType(ix *vocab.Index, gdstype string) string {
	var out []string
	for _, label := range strings.Split(gdstype, ";") {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if dt, ok := ix.DataTypeForLabel(label); ok {
			label = dt
		}
		if !slices.Contains(out, label) {
			out = append(out, label)
		}
	}
	return strings.Join(out, types.MetaListSep)
}

// gplAccessions turns GEO's "570;16791" platform IDs into "GPL570; GPL16791".
func gplAccessions(gpl string) string {
	var out []string
	for _, id := range strings.Split(gpl, ";") {
		id = strings.TrimSpace(id)
		if id != "" {
			out = append(out, "GPL"+id)
		}
	}
	return strings.Join(out, types.MetaListSep)
}

// gdsDocSum is the GEO DataSets esummary document.
type gdsDocSum struct {
	UID       string `json:"uid"`
	Accession string `json:"accession"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Taxon     string `json:"taxon"`
	GDSType   string `json:"gdstype"`
	GPL       string `json:"gpl"`
	PDat      string `json:"pdat"`
	EntryType string `json:"entrytype"`
	NSamples  int    `json:"n_samples"`
}
