// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank deduplicates raw results and orders them by a weighted
// relevance score against the query intent.
//
// Ranking is deterministic: identical inputs always produce identical
// scores and order.
package rank

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/genoscope/internal/vocab"
	"github.com/pdiddy/genoscope/pkg/types"
)

// Default signal weights. They sum to 1 so a score is always in [0,1].
const (
	DefaultOrganismWeight  = 0.30
	DefaultDataTypeWeight  = 0.30
	DefaultConditionWeight = 0.20
	DefaultKeywordWeight   = 0.15
	DefaultRecencyWeight   = 0.05
)

const weightTolerance = 1e-6

// Weights scales each relevance signal.
type Weights struct {
	Organism  float64
	DataType  float64
	Condition float64
	Keyword   float64
	Recency   float64
}

// DefaultWeights returns the built-in weights.
func DefaultWeights() Weights {
	return Weights{
		Organism:  DefaultOrganismWeight,
		DataType:  DefaultDataTypeWeight,
		Condition: DefaultConditionWeight,
		Keyword:   DefaultKeywordWeight,
		Recency:   DefaultRecencyWeight,
	}
}

// WeightsFromConfig converts the rank configuration section.
func WeightsFromConfig(c types.RankConfig) Weights {
	return Weights(c)
}

// Validate checks that no weight is negative and that they sum to 1.
func (w Weights) Validate() error {
	all := []float64{w.Organism, w.DataType, w.Condition, w.Keyword, w.Recency}
	sum := 0.0
	for _, v := range all {
		if v < 0 || math.IsNaN(v) {
			return &types.ConfigError{Field: "rank", Reason: fmt.Sprintf("weight %v is negative", v)}
		}
		sum += v
	}
	if math.Abs(sum-1) > weightTolerance {
		return &types.ConfigError{Field: "rank", Reason: fmt.Sprintf("weights sum to %.4f, want 1", sum)}
	}
	return nil
}

// Deduplicate drops every result whose (DatabaseID, Accession) pair was
// already seen, keeping the first. It returns the kept results and how
// many were removed.
func Deduplicate(raw []types.RawResult) ([]types.RawResult, int) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]types.RawResult, 0, len(raw))
	for _, r := range raw {
		key := string(r.DatabaseID) + "\x00" + r.Accession
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out, len(raw) - len(out)
}

// Ranker scores results with fixed weights and a vocabulary index.
type Ranker struct {
	weights Weights
	index   *vocab.Index
}

// New returns a Ranker. A nil index uses vocab.Default().
func New(w Weights, ix *vocab.Index) *Ranker {
	if ix == nil {
		ix = vocab.Default()
	}
	return &Ranker{weights: w, index: ix}
}

// Rank ranks with the default weights and vocabulary.
func Rank(in types.QueryIntent, raw []types.RawResult) []types.RankedResult {
	return New(DefaultWeights(), nil).Rank(in, raw)
}

// RankWithWeights ranks with custom weights and the default vocabulary.
func RankWithWeights(in types.QueryIntent, raw []types.RawResult, w Weights) []types.RankedResult {
	return New(w, nil).Rank(in, raw)
}

// Rank deduplicates raw, scores each result, and sorts by score
// descending, then accession ascending, then database ID. Rank is 1-based.
func (r *Ranker) Rank(in types.QueryIntent, raw []types.RawResult) []types.RankedResult {
	kept, _ := Deduplicate(raw)
	recency := recencyScores(kept)
	conditions := r.conditionNeedles(in.ConditionTerms)

	ranked := make([]types.RankedResult, len(kept))
	for i, res := range kept {
		text := normalize(res.Title + " " + res.Summary)
		score := r.weights.Organism*organismSignal(in, res) +
			r.weights.DataType*r.dataTypeSignal(in, res) +
			r.weights.Condition*conditionSignal(conditions, text) +
			r.weights.Keyword*keywordSignal(in.FreeKeywords, text) +
			r.weights.Recency*recency[i]
		ranked[i] = types.RankedResult{RawResult: res, Score: score}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Accession != b.Accession {
			return a.Accession < b.Accession
		}
		return a.DatabaseID < b.DatabaseID
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// splitMeta splits a multi-valued metadata field.
func splitMeta(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ";") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func organismSignal(in types.QueryIntent, res types.RawResult) float64 {
	if in.Organism == "" {
		return 0
	}
	for _, org := range splitMeta(res.Metadata[types.MetaOrganism]) {
		if strings.EqualFold(org, in.Organism) {
			return 1
		}
	}
	return 0
}

func (r *Ranker) dataTypeSignal(in types.QueryIntent, res types.RawResult) float64 {
	if in.DataType == "" {
		return 0
	}
	for _, dt := range splitMeta(res.Metadata[types.MetaDataType]) {
		if strings.EqualFold(dt, in.DataType) {
			return 1
		}
		if mapped, ok := r.index.DataTypeForLabel(dt); ok && mapped == in.DataType {
			return 1
		}
	}
	return 0
}

// conditionNeedles returns, per condition term, the normalized phrases
// that count as a mention: the term, its MeSH heading, and its synonyms.
func (r *Ranker) conditionNeedles(terms []string) [][]string {
	out := make([][]string, 0, len(terms))
	for _, term := range terms {
		phrases := []string{term}
		if c, ok := r.index.Condition(term); ok {
			phrases = append(phrases, c.MeSH)
			phrases = append(phrases, c.Synonyms...)
		}
		var needles []string
		for _, p := range phrases {
			if n := normalize(p); n != "" {
				needles = append(needles, n)
			}
		}
		out = append(out, needles)
	}
	return out
}

func conditionSignal(needles [][]string, text string) float64 {
	if len(needles) == 0 {
		return 0
	}
	found := 0
	for _, alts := range needles {
		for _, n := range alts {
			if strings.Contains(text, n) {
				found++
				break
			}
		}
	}
	return float64(found) / float64(len(needles))
}

func keywordSignal(keywords []string, text string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	found := 0
	for _, kw := range keywords {
		if n := normalize(kw); n != "" && strings.Contains(text, n) {
			found++
		}
	}
	return float64(found) / float64(len(keywords))
}

// recencyScores min-max normalizes publication dates across the set.
// A result without a parseable date scores 0; when every dated result has
// the same date, each of them scores 1.
func recencyScores(results []types.RawResult) []float64 {
	scores := make([]float64, len(results))
	dates := make([]time.Time, len(results))
	var oldest, newest time.Time
	for i, r := range results {
		t, err := time.Parse("2006-01-02", r.Metadata[types.MetaPublicationDate])
		if err != nil {
			continue
		}
		dates[i] = t
		if oldest.IsZero() || t.Before(oldest) {
			oldest = t
		}
		if newest.IsZero() || t.After(newest) {
			newest = t
		}
	}
	span := newest.Sub(oldest)
	for i, t := range dates {
		switch {
		case t.IsZero():
			scores[i] = 0
		case span == 0:
			scores[i] = 1
		default:
			scores[i] = float64(t.Sub(oldest)) / float64(span)
		}
	}
	return scores
}

// normalize lowercases s and collapses it to space-separated vocabulary
// tokens so "Alzheimer's Disease" and "alzheimer disease" compare equal.
func normalize(s string) string {
	return strings.Join(vocab.Tokenize(s), " ")
}
