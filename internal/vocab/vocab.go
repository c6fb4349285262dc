// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vocab holds the static vocabulary used to recognize organisms, data
// types, and conditions in a research question, along with the per-database
// search syntax fragments those tokens translate to.
//
// Tables are compiled once into an immutable Index. The parser, strategy
// generator, and ranker only read from it, so an Index is safe for concurrent
// use without locking.
package vocab

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/pdiddy/genoscope/pkg/types"
)

// Kind classifies what a vocabulary phrase resolves to.
type Kind int

const (
	KindOrganism Kind = iota + 1
	KindDataType
	KindCondition
	KindStopWord
)

func (k Kind) String() string {
	switch k {
	case KindOrganism:
		return "organism"
	case KindDataType:
		return "data_type"
	case KindCondition:
		return "condition"
	case KindStopWord:
		return "stop_word"
	default:
		return "unknown"
	}
}

// Organism maps synonyms to a canonical scientific name.
type Organism struct {
	Name     string   `yaml:"name"`
	Synonyms []string `yaml:"synonyms"`
}

// DataType maps synonyms to a canonical data-type token and records which
// databases hold that kind of data.
type DataType struct {
	Name     string   `yaml:"name"`
	Synonyms []string `yaml:"synonyms"`

	// Databases lists the backends that receive a strategy for this data type.
	Databases []types.DatabaseID `yaml:"databases"`

	// Clauses holds the per-database query fragment that narrows results to
	// this data type. A missing entry means no fragment is added.
	Clauses map[types.DatabaseID]string `yaml:"clauses,omitempty"`

	// Labels are backend-native descriptions (SRA library strategy, GEO
	// dataset type) that denote this data type in result metadata.
	Labels []string `yaml:"labels,omitempty"`
}

// Condition maps synonyms to a canonical disease or condition token.
type Condition struct {
	Name     string   `yaml:"name"`
	Synonyms []string `yaml:"synonyms"`
	MeSH     string   `yaml:"mesh"`
}

// Refinement narrows the structured part of a query when a free keyword
// names one of its triggers. Include terms are OR-ed together and Exclude
// terms are removed with NOT.
type Refinement struct {
	Name     string   `yaml:"name"`
	Triggers []string `yaml:"triggers"`
	Include  []string `yaml:"include"`
	Exclude  []string `yaml:"exclude,omitempty"`
}

// Syntax describes how a database spells field-tagged query clauses.
type Syntax struct {
	OrganismTag string `yaml:"organism_tag"`
	TextTag     string `yaml:"text_tag"`
	MeSHTag     string `yaml:"mesh_tag,omitempty"`
}

// Tables is the raw vocabulary before compilation.
type Tables struct {
	Organisms   []Organism                  `yaml:"organisms"`
	DataTypes   []DataType                  `yaml:"data_types"`
	Conditions  []Condition                 `yaml:"conditions"`
	StopWords   []string                    `yaml:"stop_words"`
	Refinements []Refinement                `yaml:"refinements,omitempty"`
	Syntax      map[types.DatabaseID]Syntax `yaml:"syntax"`
}

// Entry is what a normalized phrase resolves to.
type Entry struct {
	Kind      Kind
	Canonical string
}

// Index is the compiled, read-only form of Tables.
type Index struct {
	tables     Tables
	phrases    map[string]Entry
	maxPhrase  int
	dataTypes  map[string]DataType
	conditions map[string]Condition
	labels     map[string]string
}

// New compiles tables into an Index. It fails when one phrase would resolve
// to two different entries.
func New(t Tables) (*Index, error) {
	ix := &Index{
		tables:     t,
		phrases:    make(map[string]Entry),
		dataTypes:  make(map[string]DataType),
		conditions: make(map[string]Condition),
		labels:     make(map[string]string),
	}

	for _, o := range t.Organisms {
		if err := ix.addAll(Entry{Kind: KindOrganism, Canonical: o.Name}, o.Name, o.Synonyms); err != nil {
			return nil, err
		}
	}
	for _, d := range t.DataTypes {
		if len(d.Databases) == 0 {
			return nil, fmt.Errorf("data type %q lists no databases", d.Name)
		}
		if err := ix.addAll(Entry{Kind: KindDataType, Canonical: d.Name}, d.Name, d.Synonyms); err != nil {
			return nil, err
		}
		ix.dataTypes[d.Name] = d
		for _, l := range append([]string{d.Name}, d.Labels...) {
			ix.labels[normalizeLabel(l)] = d.Name
		}
	}
	for _, c := range t.Conditions {
		if err := ix.addAll(Entry{Kind: KindCondition, Canonical: c.Name}, c.Name, c.Synonyms); err != nil {
			return nil, err
		}
		ix.conditions[c.Name] = c
	}
	for _, w := range t.StopWords {
		if err := ix.add(Entry{Kind: KindStopWord, Canonical: w}, w); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

func (ix *Index) addAll(e Entry, name string, synonyms []string) error {
	if err := ix.add(e, name); err != nil {
		return err
	}
	for _, s := range synonyms {
		if err := ix.add(e, s); err != nil {
			return err
		}
	}
	return nil
}

func (ix *Index) add(e Entry, phrase string) error {
	tokens := Tokenize(phrase)
	if len(tokens) == 0 {
		return fmt.Errorf("%s %q normalizes to an empty phrase", e.Kind, phrase)
	}
	key := strings.Join(tokens, " ")
	if prev, ok := ix.phrases[key]; ok && prev != e {
		return fmt.Errorf("phrase %q maps to both %s %q and %s %q",
			key, prev.Kind, prev.Canonical, e.Kind, e.Canonical)
	}
	ix.phrases[key] = e
	if len(tokens) > ix.maxPhrase {
		ix.maxPhrase = len(tokens)
	}
	return nil
}

var (
	defaultOnce  sync.Once
	defaultIndex *Index
)

// Default returns the process-wide Index built from DefaultTables. It is
// compiled on first use and never modified afterwards.
func Default() *Index {
	defaultOnce.Do(func() {
		ix, err := New(DefaultTables())
		if err != nil {
			panic(fmt.Sprintf("vocab: default tables are inconsistent: %v", err))
		}
		defaultIndex = ix
	})
	return defaultIndex
}

// Lookup resolves a phrase of already-normalized tokens joined by single spaces.
func (ix *Index) Lookup(phrase string) (Entry, bool) {
	e, ok := ix.phrases[phrase]
	return e, ok
}

// MaxPhraseLen returns the token count of the longest phrase in the index.
func (ix *Index) MaxPhraseLen() int { return ix.maxPhrase }

// DataType returns the data-type definition for a canonical name.
func (ix *Index) DataType(name string) (DataType, bool) {
	d, ok := ix.dataTypes[name]
	return d, ok
}

// Condition returns the condition definition for a canonical name.
func (ix *Index) Condition(name string) (Condition, bool) {
	c, ok := ix.conditions[name]
	return c, ok
}

// Syntax returns the field-tag syntax for a database. Databases without an
// explicit entry use NCBI's generic tags.
func (ix *Index) Syntax(db types.DatabaseID) Syntax {
	if s, ok := ix.tables.Syntax[db]; ok {
		return s
	}
	return Syntax{OrganismTag: "[Organism]", TextTag: "[All Fields]"}
}

// Databases returns the backends applicable to a canonical data type. An
// empty data type applies to every backend.
func (ix *Index) Databases(dataType string) []types.DatabaseID {
	if dataType == "" {
		return types.AllDatabases
	}
	d, ok := ix.dataTypes[dataType]
	if !ok {
		return types.AllDatabases
	}
	// Keep the global database order regardless of table order.
	var out []types.DatabaseID
	for _, db := range types.AllDatabases {
		for _, want := range d.Databases {
			if db == want {
				out = append(out, db)
				break
			}
		}
	}
	return out
}

// Refinements returns the refinements whose triggers include one of the
// keywords, in table order.
func (ix *Index) Refinements(keywords []string) []Refinement {
	var out []Refinement
	for _, r := range ix.tables.Refinements {
		if triggered(r, keywords) {
			out = append(out, r)
		}
	}
	return out
}

func triggered(r Refinement, keywords []string) bool {
	for _, kw := range keywords {
		for _, t := range r.Triggers {
			if kw == t {
				return true
			}
		}
	}
	return false
}

// DataTypeForLabel maps a backend-native data-type description to a
// canonical data type.
func (ix *Index) DataTypeForLabel(label string) (string, bool) {
	name, ok := ix.labels[normalizeLabel(label)]
	return name, ok
}

// Tables returns the source tables the index was built from.
func (ix *Index) Tables() Tables { return ix.tables }

// Phrases returns every indexed phrase of the given kind, sorted.
func (ix *Index) Phrases(kind Kind) []string {
	var out []string
	for p, e := range ix.phrases {
		if e.Kind == kind {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Tokenize lowercases text and splits it into tokens. Letters, digits, and
// inner hyphens are kept ("rna-seq", "covid-19"); possessive "'s" and other
// punctuation are dropped.
func Tokenize(text string) []string {
	text = strings.ToLower(strings.ReplaceAll(text, "’", "'"))
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '\''
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSuffix(f, "'s")
		f = strings.ReplaceAll(f, "'", "")
		f = strings.Trim(f, "-")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func normalizeLabel(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
