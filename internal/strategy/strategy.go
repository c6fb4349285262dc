// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package strategy translates a QueryIntent into one backend-specific boolean
// query per applicable database. Generation is pure: it reads the vocabulary
// index and never touches the network.
package strategy

import (
	"fmt"
	"strings"

	"github.com/pdiddy/genoscope/internal/vocab"
	"github.com/pdiddy/genoscope/pkg/types"
)

// DefaultMaxResults is the per-strategy record cap used when the caller
// passes zero or a negative value.
const DefaultMaxResults = 20

// allRecords matches every record in an Entrez database. It stands in for a
// data type that has no query fragment of its own for the target database.
const allRecords = "all[filter]"

// Generator builds strategies from a vocabulary index.
type Generator struct {
	index *vocab.Index
}

// NewGenerator returns a Generator over ix.
func NewGenerator(ix *vocab.Index) *Generator {
	return &Generator{index: ix}
}

// Generate builds strategies with the default vocabulary.
func Generate(in types.QueryIntent, maxResults int) []types.SearchStrategy {
	return NewGenerator(vocab.Default()).Generate(in, maxResults)
}

// Generate returns one strategy per database applicable to the intent's data
// type (all databases when no data type is set), in the fixed database order.
// Only an empty intent gets empty query strings; callers decide whether to
// execute them.
func (g *Generator) Generate(in types.QueryIntent, maxResults int) []types.SearchStrategy {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	dbs := g.index.Databases(in.DataType)
	out := make([]types.SearchStrategy, 0, len(dbs))
	for _, db := range dbs {
		out = append(out, types.SearchStrategy{
			DatabaseID:  db,
			QueryString: g.Query(in, db),
			MaxResults:  maxResults,
		})
	}
	return out
}

// Query builds the boolean query string for one database. Structured
// clauses (organism, data type, conditions) are AND-ed; free keywords form a
// second AND-ed group that is OR-ed with the structured part so records
// matching either are retrieved and left to the ranker to order.
func (g *Generator) Query(in types.QueryIntent, db types.DatabaseID) string {
	syn := g.index.Syntax(db)

	var structured []string
	if in.Organism != "" {
		structured = append(structured, quote(in.Organism)+syn.OrganismTag)
	}
	if in.DataType != "" {
		if d, ok := g.index.DataType(in.DataType); ok {
			if clause := d.Clauses[db]; clause != "" {
				structured = append(structured, clause)
			}
		}
	}
	for _, term := range in.ConditionTerms {
		structured = append(structured, g.conditionClause(term, syn))
	}
	for _, r := range g.index.Refinements(in.FreeKeywords) {
		structured = append(structured, refinementClause(r, syn))
	}

	var free []string
	for _, kw := range in.FreeKeywords {
		free = append(free, kw+syn.TextTag)
	}

	if len(structured) == 0 && len(free) == 0 && in.DataType != "" {
		// The database was chosen for this data type, so all of it applies.
		return allRecords
	}

	switch {
	case len(structured) > 0 && len(free) > 0:
		return fmt.Sprintf("(%s) OR (%s)", join(structured), join(free))
	case len(structured) > 0:
		return join(structured)
	default:
		return join(free)
	}
}

func (g *Generator) conditionClause(term string, syn vocab.Syntax) string {
	text := quote(term) + syn.TextTag
	if syn.MeSHTag == "" {
		return text
	}
	c, ok := g.index.Condition(term)
	if !ok || c.MeSH == "" {
		return text
	}
	return fmt.Sprintf("(%s%s OR %s)", quote(c.MeSH), syn.MeSHTag, text)
}

// refinementClause renders r as "(a OR b) NOT (c OR d)", parenthesized so
// it can be AND-ed with the other structured clauses.
func refinementClause(r vocab.Refinement, syn vocab.Syntax) string {
	clause := "(" + or(r.Include, syn) + ")"
	if len(r.Exclude) > 0 {
		clause += " NOT (" + or(r.Exclude, syn) + ")"
	}
	return "(" + clause + ")"
}

func or(terms []string, syn vocab.Syntax) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = quote(t) + syn.TextTag
	}
	return strings.Join(parts, " OR ")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "") + `"`
}

func join(clauses []string) string {
	return strings.Join(clauses, " AND ")
}
