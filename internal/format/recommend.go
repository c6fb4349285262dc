// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package format

import (
	"fmt"

	"github.com/pdiddy/genoscope/pkg/types"
)

// HighRelevance is the score above which a record counts as highly relevant.
const HighRelevance = 0.5

// Recommendations returns short hints about a result set: what kinds of
// data were found and how the query could be refined.
func Recommendations(records []types.Record, in types.QueryIntent, failures []types.PartialFailure) []string {
	var recs []string
	if len(records) == 0 {
		if len(failures) > 0 {
			recs = append(recs, "Some databases were unavailable. Retry later for complete results.")
		}
		recs = append(recs, "No results found. Try broader search terms.")
		if in.Organism != "" || in.DataType != "" {
			recs = append(recs, "Drop the organism or data type to widen the search.")
		}
		return recs
	}

	found := make(map[types.DatabaseID]int)
	high := 0
	for _, r := range records {
		found[r.DatabaseID]++
		if r.Score > HighRelevance {
			high++
		}
	}

	if found[types.DBExpression] > 0 {
		recs = append(recs, "Found GEO expression datasets - suited to comparative analysis.")
	}
	if found[types.DBSequenceRead] > 0 {
		recs = append(recs, "Found SRA sequencing runs - raw FASTQ files can be downloaded with the SRA Toolkit.")
	}
	if found[types.DBNucleotide]+found[types.DBProtein] > 0 {
		recs = append(recs, "Sequence records can be saved as FASTA with `genoscope fetch <accession>`.")
	}
	if high > 0 {
		recs = append(recs, fmt.Sprintf("Found %d highly relevant records.", high))
	}
	if in.Organism == "" {
		recs = append(recs, "Name an organism (e.g. human, mouse) to sharpen ranking.")
	}
	if len(failures) > 0 {
		recs = append(recs, fmt.Sprintf("%d database(s) were unavailable; results may be incomplete.", len(failures)))
	}
	return recs
}
