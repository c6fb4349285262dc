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

// NucleotideConnector queries NCBI Nucleotide (db=nuccore) with esearch
// followed by esummary.
type NucleotideConnector struct {
	Client *EUtils
	Vocab  *vocab.Index
}

// BackendID returns types.DBNucleotide.
func (c *NucleotideConnector) BackendID() types.DatabaseID { return types.DBNucleotide }

// Execute runs the strategy against nuccore.
func (c *NucleotideConnector) Execute(ctx context.Context, s types.SearchStrategy) ([]types.RawResult, error) {
	return searchSequences(ctx, c.Client, c.Vocab, types.DBNucleotide, s, "bp", vocab.DataNucleotide)
}

// ProteinConnector queries NCBI Protein (db=protein) with esearch followed
// by esummary.
type ProteinConnector struct {
	Client *EUtils
	Vocab  *vocab.Index
}

// BackendID returns types.DBProtein.
func (c *ProteinConnector) BackendID() types.DatabaseID { return types.DBProtein }

// Execute runs the strategy against the protein database.
func (c *ProteinConnector) Execute(ctx context.Context, s types.SearchStrategy) ([]types.RawResult, error) {
	return searchSequences(ctx, c.Client, c.Vocab, types.DBProtein, s, "aa", vocab.DataProtein)
}

// searchSequences is shared by the two sequence databases, whose document
// summaries have the same shape.
func searchSequences(ctx context.Context, client *EUtils, ix *vocab.Index, db types.DatabaseID, s types.SearchStrategy, unit, fallbackType string) ([]types.RawResult, error) {
	ids, err := esearch(ctx, client, db, s)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	docs, err := client.Summaries(ctx, db, ids)
	if err != nil {
		return nil, err
	}

	results := make([]types.RawResult, 0, len(docs))
	for _, raw := range docs {
		var doc sequenceDocSum
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s summary: %w", NCBIDatabase(db), err)
		}
		acc := doc.AccessionVersion
		if acc == "" {
			acc = doc.Caption
		}
		if acc == "" {
			continue
		}

		meta := map[string]string{
			types.MetaUID:      doc.UID,
			types.MetaOrganism: doc.Organism,
			types.MetaDataType: sequenceDataType(ix, doc, fallbackType),
		}
		if d := normalizeDate(doc.CreateDate); d != "" {
			meta[types.MetaPublicationDate] = d
		}
		if doc.Slen > 0 {
			meta["length"] = strconv.Itoa(doc.Slen)
		}

		results = append(results, types.RawResult{
			Accession:  acc,
			Title:      doc.Title,
			Summary:    sequenceSummary(doc, unit),
			DatabaseID: db,
			Metadata:   meta,
		})
	}
	return results, nil
}

// sequenceDataType maps biomol ("genomic", "mrna") and moltype ("dna",
// "aa") to canonical data types. A genomic DNA record is both "DNA-seq" and
// "nucleotide sequence", so every distinct match is kept, joined by "; ".
func sequenceDataType(ix *vocab.Index, doc sequenceDocSum, fallback string) string {
	var found []string
	for _, label := range []string{doc.Biomol, doc.MolType} {
		if label == "" {
			continue
		}
		if dt, ok := ix.DataTypeForLabel(label); ok && !slices.Contains(found, dt) {
			found = append(found, dt)
		}
	}
	if len(found) == 0 {
		return fallback
	}
	return strings.Join(found, types.MetaListSep)
}

func sequenceSummary(doc sequenceDocSum, unit string) string {
	var parts []string
	if doc.Organism != "" {
		parts = append(parts, doc.Organism)
	}
	if doc.Biomol != "" {
		parts = append(parts, doc.Biomol)
	} else if doc.MolType != "" {
		parts = append(parts, doc.MolType)
	}
	if doc.Slen > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", doc.Slen, unit))
	}
	return strings.Join(parts, ", ")
}

// esearch runs the strategy's query and returns the UIDs to summarize.
func esearch(ctx context.Context, client *EUtils, db types.DatabaseID, s types.SearchStrategy) ([]string, error) {
	if strings.TrimSpace(s.QueryString) == "" {
		return nil, fmt.Errorf("empty %s query", db)
	}
	retmax := s.MaxResults
	if retmax <= 0 {
		retmax = 20
	}
	return client.Search(ctx, db, s.QueryString, retmax)
}

// sequenceDocSum is the nuccore/protein esummary document.
type sequenceDocSum struct {
	UID              string `json:"uid"`
	Caption          string `json:"caption"`
	Title            string `json:"title"`
	AccessionVersion string `json:"accessionversion"`
	Organism         string `json:"organism"`
	TaxID            int    `json:"taxid"`
	Slen             int    `json:"slen"`
	MolType          string `json:"moltype"`
	Biomol           string `json:"biomol"`
	CreateDate       string `json:"createdate"`
	UpdateDate       string `json:"updatedate"`
}
