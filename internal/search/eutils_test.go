// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/pdiddy/genoscope/internal/httputil"
	"github.com/pdiddy/genoscope/internal/metrics"
	"github.com/pdiddy/genoscope/internal/vocab"
	"github.com/pdiddy/genoscope/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

const nuccoreSummary = `{
  "header": {"type": "esummary", "version": "0.3"},
  "result": {
    "uids": ["101", "102"],
    "101": {
      "uid": "101",
      "caption": "NM_007294",
      "title": "Homo sapiens BRCA1 DNA repair associated (BRCA1), transcript variant 1, mRNA",
      "accessionversion": "NM_007294.4",
      "organism": "Homo sapiens",
      "taxid": 9606,
      "slen": 7088,
      "moltype": "rna",
      "biomol": "mrna",
      "createdate": "1999/03/04",
      "updatedate": "2024/01/02"
    },
    "102": {"uid": "102", "error": "cannot get document summary"}
  }
}`

const proteinSummary = `{
  "result": {
    "uids": ["201"],
    "201": {
      "uid": "201",
      "caption": "NP_009225",
      "title": "breast cancer type 1 susceptibility protein isoform 1 [Homo sapiens]",
      "accessionversion": "NP_009225.1",
      "organism": "Homo sapiens",
      "slen": 1863,
      "moltype": "aa",
      "createdate": "1999/03/04"
    }
  }
}`

const gdsSummary = `{
  "result": {
    "uids": ["200012345"],
    "200012345": {
      "uid": "200012345",
      "accession": "GSE12345",
      "title": "RNA-seq of human breast cancer cell lines",
      "summary": "Transcriptome profiling of breast cancer subtypes.",
      "taxon": "Homo sapiens",
      "gdstype": "Expression profiling by high throughput sequencing; Methylation profiling by array",
      "gpl": "16791;11154",
      "pdat": "2020/05/01",
      "entrytype": "GSE",
      "n_samples": 24
    }
  }
}`

const sraRunInfo = `Run,ReleaseDate,LoadDate,spots,bases,Experiment,LibraryName,LibraryStrategy,LibrarySelection,LibrarySource,LibraryLayout,Platform,Model,SRAStudy,BioProject,ScientificName,SampleName
SRR000001,2019-03-21 10:23:45,2019-03-20 09:00:00,1000,200000,SRX000001,lib1,RNA-Seq,cDNA,TRANSCRIPTOMIC,PAIRED,ILLUMINA,Illumina HiSeq 2500,SRP000001,PRJNA1,Homo sapiens,tumor_1
Run,ReleaseDate,LoadDate,spots,bases,Experiment,LibraryName,LibraryStrategy,LibrarySelection,LibrarySource,LibraryLayout,Platform,Model,SRAStudy,BioProject,ScientificName,SampleName
SRR000002,2021-07-01 00:00:00,2021-06-30 00:00:00,500,100000,SRX000002,,WGS,RANDOM,GENOMIC,SINGLE,OXFORD_NANOPORE,MinION,SRP000002,PRJNA2,"Mus musculus",
`

// fakeEUtils serves canned E-utilities responses keyed by endpoint and db.
type fakeEUtils struct {
	mu      sync.Mutex
	queries []url.Values
	paths   []string
	// failFirst makes the first n requests return 503.
	failFirst int32
	calls     int32
}

func (f *fakeEUtils) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := atomic.AddInt32(&f.calls, 1)
	q := r.URL.Query()
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.paths = append(f.paths, r.URL.Path)
	f.mu.Unlock()

	if n <= atomic.LoadInt32(&f.failFirst) {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	db := q.Get("db")
	switch r.URL.Path {
	case "/esearch.fcgi":
		ids := map[string]string{
			"nuccore": `["101","102"]`,
			"protein": `["201"]`,
			"gds":     `["200012345"]`,
			"sra":     `["301","302"]`,
		}[db]
		if q.Get("term") == "nothing[All Fields]" {
			ids = `[]`
		}
		fmt.Fprintf(w, `{"esearchresult":{"count":"2","idlist":%s}}`, ids)
	case "/esummary.fcgi":
		fmt.Fprint(w, map[string]string{
			"nuccore": nuccoreSummary,
			"protein": proteinSummary,
			"gds":     gdsSummary,
		}[db])
	case "/efetch.fcgi":
		fmt.Fprint(w, sraRunInfo)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeEUtils) lastQuery() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func testClient(t *testing.T, h http.Handler, m *metrics.Metrics) *EUtils {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	cfg := types.DefaultConfig().Search
	cfg.BaseURL = ts.URL
	cfg.UserAgent = "genoscope-test/0.1"
	cfg.Email = "lab@example.org"
	cfg.RetryBaseDelay = time.Millisecond
	cfg.RequestTimeout = 2 * time.Second
	return NewEUtils(cfg, rate.NewLimiter(rate.Inf, 1), m, zerolog.Nop())
}

func TestNucleotideConnector(t *testing.T) {
	fake := &fakeEUtils{}
	c := &NucleotideConnector{Client: testClient(t, fake, nil), Vocab: vocab.Default()}

	got, err := c.Execute(context.Background(), types.SearchStrategy{DatabaseID: types.DBNucleotide, QueryString: "brca1[All Fields]", MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, got, 1, "uids with a summary error are skipped")

	r := got[0]
	assert.Equal(t, "NM_007294.4", r.Accession)
	assert.Equal(t, types.DBNucleotide, r.DatabaseID)
	assert.Equal(t, "Homo sapiens, mrna, 7088 bp", r.Summary)
	assert.Equal(t, "Homo sapiens", r.Metadata[types.MetaOrganism])
	assert.Equal(t, vocab.DataNucleotide, r.Metadata[types.MetaDataType])
	assert.Equal(t, "1999-03-04", r.Metadata[types.MetaPublicationDate])
	assert.Equal(t, "7088", r.Metadata["length"])
	assert.Equal(t, "101", r.Metadata[types.MetaUID])

	fake.mu.Lock()
	search := fake.queries[0]
	fake.mu.Unlock()
	assert.Equal(t, "nuccore", search.Get("db"))
	assert.Equal(t, "brca1[All Fields]", search.Get("term"))
	assert.Equal(t, "5", search.Get("retmax"))
	assert.Equal(t, "json", search.Get("retmode"))
	assert.Equal(t, "genoscope", search.Get("tool"))
	assert.Equal(t, "lab@example.org", search.Get("email"))
	assert.Empty(t, search.Get("api_key"))
	assert.Equal(t, "101,102", fake.lastQuery().Get("id"))
}

func TestProteinConnector(t *testing.T) {
	c := &ProteinConnector{Client: testClient(t, &fakeEUtils{}, nil), Vocab: vocab.Default()}

	got, err := c.Execute(context.Background(), types.SearchStrategy{DatabaseID: types.DBProtein, QueryString: "brca1[All Fields]"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "NP_009225.1", got[0].Accession)
	assert.Equal(t, vocab.DataProtein, got[0].Metadata[types.MetaDataType])
	assert.Equal(t, "Homo sapiens, aa, 1863 aa", got[0].Summary)
}

func TestExpressionConnector(t *testing.T) {
	c := &ExpressionConnector{Client: testClient(t, &fakeEUtils{}, nil), Vocab: vocab.Default()}

	got, err := c.Execute(context.Background(), types.SearchStrategy{DatabaseID: types.DBExpression, QueryString: `"breast cancer"[All Fields]`})
	require.NoError(t, err)
	require.Len(t, got, 1)

	r := got[0]
	assert.Equal(t, "GSE12345", r.Accession)
	assert.Equal(t, "Transcriptome profiling of breast cancer subtypes.", r.Summary)
	assert.Equal(t, "RNA-seq; Methylation profiling by array", r.Metadata[types.MetaDataType])
	assert.Equal(t, "GPL16791; GPL11154", r.Metadata[types.MetaPlatform])
	assert.Equal(t, "2020-05-01", r.Metadata[types.MetaPublicationDate])
	assert.Equal(t, "24", r.Metadata["samples"])
	assert.Equal(t, "GSE", r.Metadata["entry_type"])
}

func TestSequenceReadConnector(t *testing.T) {
	fake := &fakeEUtils{}
	c := &SequenceReadConnector{Client: testClient(t, fake, nil), Vocab: vocab.Default()}

	got, err := c.Execute(context.Background(), types.SearchStrategy{DatabaseID: types.DBSequenceRead, QueryString: `"rna seq"[Strategy]`, MaxResults: 10})
	require.NoError(t, err)
	require.Len(t, got, 2, "repeated header rows are skipped")

	first := got[0]
	assert.Equal(t, "SRR000001", first.Accession)
	assert.Equal(t, "tumor_1 - RNA-Seq", first.Title)
	assert.Equal(t, "RNA-Seq PAIRED, ILLUMINA Illumina HiSeq 2500, Homo sapiens, study SRP000001", first.Summary)
	assert.Equal(t, vocab.DataRNASeq, first.Metadata[types.MetaDataType])
	assert.Equal(t, "ILLUMINA", first.Metadata[types.MetaPlatform])
	assert.Equal(t, "2019-03-21", first.Metadata[types.MetaPublicationDate])
	assert.Equal(t, "SRX000001", first.Metadata["experiment"])

	second := got[1]
	assert.Equal(t, "SRX000002 - WGS", second.Title)
	assert.Equal(t, "Mus musculus", second.Metadata[types.MetaOrganism])
	assert.Equal(t, vocab.DataDNASeq, second.Metadata[types.MetaDataType])

	q := fake.lastQuery()
	assert.Equal(t, "runinfo", q.Get("rettype"))
	assert.Equal(t, "301,302", q.Get("id"))
}

func TestSequenceReadConnectorCapsRuns(t *testing.T) {
	c := &SequenceReadConnector{Client: testClient(t, &fakeEUtils{}, nil), Vocab: vocab.Default()}
	got, err := c.Execute(context.Background(), types.SearchStrategy{DatabaseID: types.DBSequenceRead, QueryString: "x[All Fields]", MaxResults: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestConnectorNoHits(t *testing.T) {
	fake := &fakeEUtils{}
	c := &ExpressionConnector{Client: testClient(t, fake, nil), Vocab: vocab.Default()}

	got, err := c.Execute(context.Background(), types.SearchStrategy{DatabaseID: types.DBExpression, QueryString: "nothing[All Fields]"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.calls), "no esummary call without ids")
}

func TestConnectorEmptyQuery(t *testing.T) {
	c := &ProteinConnector{Client: testClient(t, &fakeEUtils{}, nil), Vocab: vocab.Default()}
	_, err := c.Execute(context.Background(), types.SearchStrategy{DatabaseID: types.DBProtein})
	assert.Error(t, err)
}

func TestConnectorRetriesTransientFailures(t *testing.T) {
	m := metrics.New()
	fake := &fakeEUtils{failFirst: 2}
	c := &ProteinConnector{Client: testClient(t, fake, m), Vocab: vocab.Default()}

	got, err := c.Execute(context.Background(), types.SearchStrategy{DatabaseID: types.DBProtein, QueryString: "brca1[All Fields]"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	reg := m.Registry()
	count, err := testutil.GatherAndCount(reg, "genoscope_backend_retries_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestConnectorExhaustsRetries(t *testing.T) {
	fake := &fakeEUtils{failFirst: 1000}
	client := testClient(t, fake, nil)
	client.Policy.MaxRetries = 2
	c := &NucleotideConnector{Client: client, Vocab: vocab.Default()}

	_, err := c.Execute(context.Background(), types.SearchStrategy{DatabaseID: types.DBNucleotide, QueryString: "brca1[All Fields]"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httputil.ErrBackendExhausted))
	assert.Equal(t, int32(3), atomic.LoadInt32(&fake.calls))
}

func TestConnectorNonTransientStatus(t *testing.T) {
	client := testClient(t, http.NotFoundHandler(), nil)
	c := &NucleotideConnector{Client: client, Vocab: vocab.Default()}

	_, err := c.Execute(context.Background(), types.SearchStrategy{DatabaseID: types.DBNucleotide, QueryString: "x"})
	var se *httputil.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.False(t, errors.Is(err, httputil.ErrBackendExhausted))
}

func TestESearchError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"esearchresult":{"ERROR":"Invalid query"}}`)
	}), nil)

	_, err := client.Search(context.Background(), types.DBProtein, "((", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid query")
}

func TestAPIKeySent(t *testing.T) {
	fake := &fakeEUtils{}
	client := testClient(t, fake, nil)
	client.APIKey = "k123"

	_, err := client.Search(context.Background(), types.DBProtein, "x", 1)
	require.NoError(t, err)
	assert.Equal(t, "k123", fake.lastQuery().Get("api_key"))
}

func TestNormalizeDate(t *testing.T) {
	tests := map[string]string{
		"2021/03/04":          "2021-03-04",
		"2021/03/04 00:00":    "2021-03-04",
		"2021-03-04 10:11:12": "2021-03-04",
		"2021":                "",
		"":                    "",
		"March 2021 release":  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeDate(in), "input %q", in)
	}
}

func TestNCBIDatabase(t *testing.T) {
	assert.Equal(t, "nuccore", NCBIDatabase(types.DBNucleotide))
	assert.Equal(t, "protein", NCBIDatabase(types.DBProtein))
	assert.Equal(t, "gds", NCBIDatabase(types.DBExpression))
	assert.Equal(t, "sra", NCBIDatabase(types.DBSequenceRead))
}
