// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the genoscope query pipeline.
// The pipeline runs Intent Parser -> Strategy Generator -> Connector Federation
// -> Relevance Ranker -> Result Formatter, and each stage hands one of the
// types below to the next.
package types

import "time"

// DatabaseID identifies one of the supported genomics backends.
type DatabaseID string

const (
	// DBNucleotide is NCBI Nucleotide (db=nuccore).
	DBNucleotide DatabaseID = "nucleotide"
	// DBProtein is NCBI Protein (db=protein).
	DBProtein DatabaseID = "protein"
	// DBExpression is NCBI GEO DataSets (db=gds).
	DBExpression DatabaseID = "expression"
	// DBSequenceRead is the NCBI Sequence Read Archive (db=sra).
	DBSequenceRead DatabaseID = "sequence-read"
)

// AllDatabases lists every backend in the fixed order strategies are generated.
var AllDatabases = []DatabaseID{DBNucleotide, DBProtein, DBExpression, DBSequenceRead}

// Valid reports whether id names a supported backend.
func (id DatabaseID) Valid() bool {
	for _, d := range AllDatabases {
		if d == id {
			return true
		}
	}
	return false
}

// Metadata keys populated by connectors and read by the ranker.
const (
	MetaOrganism        = "organism"
	MetaDataType        = "data_type"
	MetaPlatform        = "platform"
	MetaPublicationDate = "publication_date"
	MetaUID             = "uid"
)

// MetaListSep separates multiple values in one metadata field, e.g. a GEO
// series spanning two organisms ("Homo sapiens; Mus musculus").
const MetaListSep = "; "

// QueryIntent is the structured form of a user's research question. It is
// derived once per query and never modified afterwards.
type QueryIntent struct {
	// RawText is the original input string.
	RawText string `json:"raw_text" yaml:"raw_text"`

	// Organism is a canonical organism token (e.g. "mus musculus"), or empty.
	Organism string `json:"organism,omitempty" yaml:"organism,omitempty"`

	// DataType is a canonical data-type token (e.g. "RNA-seq"), or empty.
	DataType string `json:"data_type,omitempty" yaml:"data_type,omitempty"`

	// ConditionTerms holds canonical condition tokens in first-seen order.
	ConditionTerms []string `json:"condition_terms,omitempty" yaml:"condition_terms,omitempty"`

	// FreeKeywords holds tokens not absorbed by any vocabulary table, in
	// original order.
	FreeKeywords []string `json:"free_keywords,omitempty" yaml:"free_keywords,omitempty"`
}

// IsEmpty reports whether the intent carries no searchable terms.
func (q QueryIntent) IsEmpty() bool {
	return q.Organism == "" && q.DataType == "" && len(q.ConditionTerms) == 0 && len(q.FreeKeywords) == 0
}

// SearchStrategy is a backend-specific boolean query derived from an intent.
type SearchStrategy struct {
	DatabaseID  DatabaseID `json:"database_id" yaml:"database_id"`
	QueryString string     `json:"query_string" yaml:"query_string"`
	MaxResults  int        `json:"max_results" yaml:"max_results"`
}

// RawResult is one record returned by a connector.
type RawResult struct {
	// Accession is the backend-assigned identifier, unique only within DatabaseID.
	Accession string `json:"accession" yaml:"accession"`

	Title   string `json:"title" yaml:"title"`
	Summary string `json:"summary" yaml:"summary"`

	// DatabaseID records which backend produced the record.
	DatabaseID DatabaseID `json:"database_id" yaml:"database_id"`

	// Metadata holds backend-specific fields used for scoring (see Meta* keys).
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// RankedResult is a RawResult with its relevance score and 1-based rank.
type RankedResult struct {
	RawResult `yaml:",inline"`

	Score float64 `json:"score" yaml:"score"`
	Rank  int     `json:"rank" yaml:"rank"`
}

// Record is the externally visible shape of one ranked result.
type Record struct {
	Rank        int        `json:"rank" yaml:"rank"`
	Accession   string     `json:"accession" yaml:"accession"`
	Title       string     `json:"title" yaml:"title"`
	Summary     string     `json:"summary" yaml:"summary"`
	DatabaseID  DatabaseID `json:"database_id" yaml:"database_id"`
	Organism    string     `json:"organism,omitempty" yaml:"organism,omitempty"`
	Score       float64    `json:"score" yaml:"score"`
	DownloadURL string     `json:"download_url" yaml:"download_url"`
}

// PartialFailure records a backend that did not contribute results.
type PartialFailure struct {
	DatabaseID DatabaseID `json:"database_id" yaml:"database_id"`
	Reason     string     `json:"reason" yaml:"reason"`
}

// ResultSet is the response of one processed query. Results and
// PartialFailures are always present, possibly empty.
type ResultSet struct {
	QueryID         string           `json:"query_id" yaml:"query_id"`
	Intent          QueryIntent      `json:"intent" yaml:"intent"`
	Strategies      []SearchStrategy `json:"strategies" yaml:"strategies"`
	Results         []Record         `json:"results" yaml:"results"`
	PartialFailures []PartialFailure `json:"partial_failures" yaml:"partial_failures"`
	DupsRemoved     int              `json:"duplicates_removed" yaml:"duplicates_removed"`
	Recommendations []string         `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	Elapsed         time.Duration    `json:"elapsed" yaml:"elapsed"`
}
