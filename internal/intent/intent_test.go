// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package intent

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/genoscope/internal/vocab"
)

func TestParseBreastCancerRNASeq(t *testing.T) {
	got := Parse("Find human breast cancer RNA-seq data")

	assert.Equal(t, "Find human breast cancer RNA-seq data", got.RawText)
	assert.Equal(t, "homo sapiens", got.Organism)
	assert.Equal(t, vocab.DataRNASeq, got.DataType)
	assert.Equal(t, []string{"breast cancer"}, got.ConditionTerms)
	assert.Empty(t, got.FreeKeywords)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		organism   string
		dataType   string
		conditions []string
		free       []string
	}{
		{
			name:       "possessive condition",
			text:       "Show me mouse Alzheimer's disease studies",
			organism:   "mus musculus",
			conditions: []string{"alzheimer disease"},
		},
		{
			name:       "condition without organism",
			text:       "COVID-19 protein sequences",
			dataType:   vocab.DataProtein,
			conditions: []string{"covid-19"},
		},
		{
			name:     "gene symbol stays free",
			text:     "BRCA1 variants in human",
			organism: "homo sapiens",
			free:     []string{"brca1", "variants"},
		},
		{
			name:     "conflicting organism becomes free keyword",
			text:     "human versus mouse",
			organism: "homo sapiens",
			free:     []string{"versus", "mouse"},
		},
		{
			name:     "conflicting data type becomes free keyword",
			text:     "zebrafish microarray rna-seq",
			organism: "danio rerio",
			dataType: vocab.DataExpressionArray,
			free:     []string{"rna-seq"},
		},
		{
			name:     "longest phrase wins",
			text:     "single cell RNA-seq of drosophila",
			organism: "drosophila melanogaster",
			dataType: vocab.DataSingleCell,
		},
		{
			name:       "repeated condition kept once",
			text:       "tumor tumour cancer",
			conditions: []string{"cancer"},
		},
		{
			name:     "same organism twice is absorbed",
			text:     "mice mouse",
			organism: "mus musculus",
		},
		{
			name: "nothing recognized",
			text: "kinase phosphorylation",
			free: []string{"kinase", "phosphorylation"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text)
			assert.Equal(t, tt.organism, got.Organism)
			assert.Equal(t, tt.dataType, got.DataType)
			assert.Equal(t, tt.conditions, got.ConditionTerms)
			assert.Equal(t, tt.free, got.FreeKeywords)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	for _, text := range []string{"", "   ", "?!"} {
		got := Parse(text)
		assert.True(t, got.IsEmpty(), "text %q", text)
		assert.Equal(t, text, got.RawText)
	}
}

func TestParseStopWordsOnly(t *testing.T) {
	got := Parse("find me the data")
	assert.True(t, got.IsEmpty())
}

func TestParseCustomIndex(t *testing.T) {
	ix, err := vocab.New(vocab.Tables{
		Organisms: []vocab.Organism{{Name: "escherichia coli", Synonyms: []string{"e coli"}}},
	})
	require.NoError(t, err)

	got := NewParser(ix).Parse("E. coli human")
	assert.Equal(t, "escherichia coli", got.Organism)
	assert.Equal(t, []string{"human"}, got.FreeKeywords)
}

// Every token ends up either absorbed by a vocabulary match or in the free
// keywords, never both and never dropped.
func TestScanPartitionsTokens(t *testing.T) {
	ix := vocab.Default()
	p := NewParser(ix)

	words := []string{
		"find", "human", "mouse", "mice", "breast", "cancer", "rna-seq", "rna", "seq",
		"single", "cell", "protein", "sequences", "alzheimer's", "disease", "brca1",
		"tp53", "covid-19", "microarray", "expression", "profiling", "by", "array",
		"zebrafish", "yeast", "liver", "data", "the", "of", "c.", "elegans",
	}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(10)
		parts := make([]string, n)
		for j := range parts {
			parts[j] = words[rng.Intn(len(words))]
		}
		text := strings.Join(parts, " ")

		res := p.scan(text)
		got := append(append([]string{}, res.absorbed...), res.intent.FreeKeywords...)
		want := vocab.Tokenize(text)
		sort.Strings(got)
		sort.Strings(want)
		require.Equal(t, want, got, "text %q", text)

		if res.intent.Organism != "" {
			e, ok := ix.Lookup(res.intent.Organism)
			require.True(t, ok)
			assert.Equal(t, vocab.KindOrganism, e.Kind)
		}
		if res.intent.DataType != "" {
			_, ok := ix.DataType(res.intent.DataType)
			assert.True(t, ok, "data type %q", res.intent.DataType)
		}
		for _, c := range res.intent.ConditionTerms {
			_, ok := ix.Condition(c)
			assert.True(t, ok, "condition %q", c)
		}
	}
}
