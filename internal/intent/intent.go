// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package intent turns a free-text research question into a QueryIntent.
//
// Parsing never fails: text with no recognizable organism, data type, or
// condition yields an intent carrying only free keywords.
package intent

import (
	"strings"

	"github.com/pdiddy/genoscope/internal/vocab"
	"github.com/pdiddy/genoscope/pkg/types"
)

// Parser resolves tokens against a vocabulary index.
type Parser struct {
	index *vocab.Index
}

// NewParser returns a Parser over ix.
func NewParser(ix *vocab.Index) *Parser {
	return &Parser{index: ix}
}

// Parse parses text with the default vocabulary.
func Parse(text string) types.QueryIntent {
	return NewParser(vocab.Default()).Parse(text)
}

// Parse tokenizes text and scans it with longest-match-first against the
// vocabulary. Synonyms resolve to canonical tokens here so later stages only
// see canonical values.
func (p *Parser) Parse(text string) types.QueryIntent {
	return p.scan(text).intent
}

type scanResult struct {
	intent types.QueryIntent
	// absorbed holds every token consumed by a vocabulary match, in order.
	absorbed []string
}

func (p *Parser) scan(text string) scanResult {
	res := scanResult{intent: types.QueryIntent{RawText: text}}
	tokens := vocab.Tokenize(text)

	for i := 0; i < len(tokens); {
		n := p.match(&res.intent, tokens[i:])
		if n == 0 {
			res.intent.FreeKeywords = append(res.intent.FreeKeywords, tokens[i])
			i++
			continue
		}
		res.absorbed = append(res.absorbed, tokens[i:i+n]...)
		i += n
	}
	return res
}

// match tries the longest phrase starting at tokens[0] first and returns the
// number of tokens absorbed, or 0 when nothing matched.
func (p *Parser) match(in *types.QueryIntent, tokens []string) int {
	longest := min(p.index.MaxPhraseLen(), len(tokens))
	for n := longest; n >= 1; n-- {
		e, ok := p.index.Lookup(strings.Join(tokens[:n], " "))
		if !ok {
			continue
		}
		if accept(in, e) {
			return n
		}
	}
	return 0
}

// accept records e in the intent. Organism and data type keep the first
// match; a later, different match is rejected so its tokens stay free
// keywords instead of being silently dropped.
func accept(in *types.QueryIntent, e vocab.Entry) bool {
	switch e.Kind {
	case vocab.KindOrganism:
		if in.Organism == "" {
			in.Organism = e.Canonical
		}
		return in.Organism == e.Canonical
	case vocab.KindDataType:
		if in.DataType == "" {
			in.DataType = e.Canonical
		}
		return in.DataType == e.Canonical
	case vocab.KindCondition:
		for _, c := range in.ConditionTerms {
			if c == e.Canonical {
				return true
			}
		}
		in.ConditionTerms = append(in.ConditionTerms, e.Canonical)
		return true
	case vocab.KindStopWord:
		return true
	default:
		return false
	}
}
