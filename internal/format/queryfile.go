// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package format

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/genoscope/pkg/types"
)

// QueryFile is the on-disk representation of a query and its results. A
// saved query can be printed again later without contacting NCBI.
type QueryFile struct {
	Query   QueryParams     `yaml:"query"`
	Config  QueryFileConfig `yaml:"config"`
	Results []types.Record  `yaml:"results"`
	Summary QuerySummary    `yaml:"summary"`
}

// QueryParams stores the question and how it was parsed.
type QueryParams struct {
	Text       string   `yaml:"text"`
	Organism   string   `yaml:"organism,omitempty"`
	DataType   string   `yaml:"data_type,omitempty"`
	Conditions []string `yaml:"conditions,omitempty"`
	Keywords   []string `yaml:"keywords,omitempty"`
}

// QueryFileConfig stores the settings that produced the results.
type QueryFileConfig struct {
	MaxResults int `yaml:"max_results"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	QueryID           string                 `yaml:"query_id"`
	Total             int                    `yaml:"total"`
	DuplicatesRemoved int                    `yaml:"duplicates_removed"`
	BackendErrors     []types.PartialFailure `yaml:"backend_errors,omitempty"`
	Recommendations   []string               `yaml:"recommendations,omitempty"`
	Timestamp         time.Time              `yaml:"timestamp"`
}

// NewQueryFile captures rs for saving.
func NewQueryFile(rs types.ResultSet, maxResults int, now time.Time) QueryFile {
	return QueryFile{
		Query: QueryParams{
			Text:       rs.Intent.RawText,
			Organism:   rs.Intent.Organism,
			DataType:   rs.Intent.DataType,
			Conditions: rs.Intent.ConditionTerms,
			Keywords:   rs.Intent.FreeKeywords,
		},
		Config:  QueryFileConfig{MaxResults: maxResults},
		Results: rs.Results,
		Summary: QuerySummary{
			QueryID:           rs.QueryID,
			Total:             len(rs.Results),
			DuplicatesRemoved: rs.DupsRemoved,
			BackendErrors:     rs.PartialFailures,
			Recommendations:   rs.Recommendations,
			Timestamp:         now,
		},
	}
}

// ResultSet rebuilds the result set a query file was saved from. Strategies
// and elapsed time are not stored.
func (qf QueryFile) ResultSet() types.ResultSet {
	return normalize(types.ResultSet{
		QueryID: qf.Summary.QueryID,
		Intent: types.QueryIntent{
			RawText:        qf.Query.Text,
			Organism:       qf.Query.Organism,
			DataType:       qf.Query.DataType,
			ConditionTerms: qf.Query.Conditions,
			FreeKeywords:   qf.Query.Keywords,
		},
		Results:         qf.Results,
		PartialFailures: qf.Summary.BackendErrors,
		DupsRemoved:     qf.Summary.DuplicatesRemoved,
		Recommendations: qf.Summary.Recommendations,
	})
}

// WriteQueryFile saves rs to a YAML file.
func WriteQueryFile(path string, rs types.ResultSet, maxResults int) error {
	qf := NewQueryFile(rs, maxResults, time.Now())
	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}
