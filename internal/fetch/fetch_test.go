// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/genoscope/internal/search"
	"github.com/pdiddy/genoscope/pkg/types"
)

var _ Client = (*search.EUtils)(nil)

type fetchCall struct {
	db      types.DatabaseID
	ids     []string
	rettype string
	retmode string
}

type fakeClient struct {
	calls []fetchCall
	data  []byte
	err   error
}

func (c *fakeClient) Fetch(_ context.Context, db types.DatabaseID, ids []string, rettype, retmode string) ([]byte, error) {
	c.calls = append(c.calls, fetchCall{db, ids, rettype, retmode})
	return c.data, c.err
}

var records = map[string]types.RawResult{
	"NM_007294.4": {
		Accession:  "NM_007294.4",
		Title:      "Homo sapiens BRCA1 DNA repair associated, mRNA",
		DatabaseID: types.DBNucleotide,
		Metadata:   map[string]string{types.MetaUID: "1732746264", types.MetaOrganism: "Homo sapiens"},
	},
	"NP_009225.1": {
		Accession:  "NP_009225.1",
		Title:      "breast cancer type 1 susceptibility protein",
		DatabaseID: types.DBProtein,
		Metadata:   map[string]string{types.MetaUID: "6552299"},
	},
	"SRR000001": {
		Accession:  "SRR000001",
		Title:      "run",
		DatabaseID: types.DBSequenceRead,
	},
}

func resolve(_ context.Context, acc string) (types.RawResult, error) {
	r, ok := records[acc]
	if !ok {
		return types.RawResult{}, search.ErrAccessionNotFound
	}
	return r, nil
}

func testFetcher(t *testing.T, c *fakeClient) *Fetcher {
	t.Helper()
	f := New(c, resolve, types.FetchConfig{OutDir: filepath.Join(t.TempDir(), "downloads")}, zerolog.Nop())
	f.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	return f
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"", FormatFASTA, false},
		{"fasta", FormatFASTA, false},
		{" GB ", FormatGenBank, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestEfetchParams(t *testing.T) {
	tests := []struct {
		db                    types.DatabaseID
		format                Format
		rettype, retmode, ext string
	}{
		{types.DBNucleotide, FormatFASTA, "fasta", "text", ".fasta"},
		{types.DBNucleotide, FormatGenBank, "gb", "text", ".gb"},
		{types.DBProtein, FormatGenBank, "gp", "text", ".gp"},
		{types.DBSequenceRead, FormatFASTA, "runinfo", "text", ".csv"},
		{types.DBExpression, FormatGenBank, "", "text", ".txt"},
	}
	for _, tt := range tests {
		rettype, retmode, ext := efetchParams(tt.db, tt.format)
		assert.Equal(t, tt.rettype, rettype, "%s/%s", tt.db, tt.format)
		assert.Equal(t, tt.retmode, retmode)
		assert.Equal(t, tt.ext, ext)
	}
}

func TestFetchWritesRecordAndSidecar(t *testing.T) {
	c := &fakeClient{data: []byte(">NM_007294.4 Homo sapiens BRCA1\nACGT\n")}
	f := testFetcher(t, c)

	path, skipped, err := f.Fetch(context.Background(), "NM_007294.4", FormatFASTA)
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Equal(t, filepath.Join(f.Config.OutDir, "NM_007294.4.fasta"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, c.data, data)

	require.Len(t, c.calls, 1)
	assert.Equal(t, fetchCall{types.DBNucleotide, []string{"1732746264"}, "fasta", "text"}, c.calls[0])

	side, err := ReadSidecar(filepath.Join(f.Config.OutDir, "NM_007294.4.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "NM_007294.4", side.Accession)
	assert.Equal(t, types.DBNucleotide, side.Database)
	assert.Equal(t, "Homo sapiens", side.Organism)
	assert.Equal(t, "fasta", side.Format)
	assert.Equal(t, len(c.data), side.Bytes)
	assert.Equal(t, "https://www.ncbi.nlm.nih.gov/nuccore/NM_007294.4", side.SourceURL)
	assert.Equal(t, 2026, side.FetchedAt.Year())

	entries, err := os.ReadDir(f.Config.OutDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestFetchSkipsExisting(t *testing.T) {
	c := &fakeClient{data: []byte("data")}
	f := testFetcher(t, c)

	_, _, err := f.Fetch(context.Background(), "NP_009225.1", FormatFASTA)
	require.NoError(t, err)
	_, skipped, err := f.Fetch(context.Background(), "NP_009225.1", FormatFASTA)
	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Len(t, c.calls, 1)
}

func TestFetchUsesAccessionWithoutUID(t *testing.T) {
	c := &fakeClient{data: []byte("Run,ReleaseDate\nSRR000001,2020-01-01\n")}
	f := testFetcher(t, c)

	path, _, err := f.Fetch(context.Background(), "SRR000001", FormatFASTA)
	require.NoError(t, err)
	assert.Equal(t, ".csv", filepath.Ext(path))
	assert.Equal(t, []string{"SRR000001"}, c.calls[0].ids)
}

func TestFetchErrors(t *testing.T) {
	f := testFetcher(t, &fakeClient{err: errors.New("boom")})
	_, _, err := f.Fetch(context.Background(), "NM_007294.4", FormatFASTA)
	assert.ErrorContains(t, err, "boom")

	f = testFetcher(t, &fakeClient{data: []byte("  \n")})
	_, _, err = f.Fetch(context.Background(), "NM_007294.4", FormatFASTA)
	assert.ErrorContains(t, err, "empty response")
	_, statErr := os.Stat(filepath.Join(f.Config.OutDir, "NM_007294.4.fasta"))
	assert.True(t, os.IsNotExist(statErr))

	_, _, err = f.Fetch(context.Background(), "XX999", FormatFASTA)
	assert.ErrorIs(t, err, search.ErrAccessionNotFound)
}

func TestFetchBatch(t *testing.T) {
	c := &fakeClient{data: []byte(">x\nA\n")}
	f := testFetcher(t, c)
	f.Config.DownloadDelay = time.Second

	var slept []time.Duration
	f.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	var buf bytes.Buffer
	res := f.FetchBatch(context.Background(), []string{"NM_007294.4", "missing", "NP_009225.1", "NM_007294.4"}, FormatFASTA, &buf)

	assert.Equal(t, 2, res.Downloaded)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 4, res.Total())
	assert.True(t, res.HasFailures())
	assert.Len(t, res.Files, 3)
	assert.Len(t, slept, 3)

	out := buf.String()
	assert.Contains(t, out, "failed:  missing")
	assert.Contains(t, out, "skipped: NM_007294.4")
	assert.Contains(t, out, "Batch summary: 2 downloaded, 1 skipped, 1 failed (total: 4)")
}

func TestFetchBatchStopsOnCancel(t *testing.T) {
	f := testFetcher(t, &fakeClient{data: []byte("x")})
	f.Config.DownloadDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	res := f.FetchBatch(ctx, []string{"NM_007294.4", "NP_009225.1", "SRR000001"}, FormatFASTA, &buf)
	assert.Equal(t, 1, res.Downloaded)
	assert.Equal(t, 2, res.Failed)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "NM_007294.4", Slug(" NM_007294.4 "))
	assert.Equal(t, "a-b-c", Slug("a/b:c"))
}
