package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdiddy/genoscope/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.HistoryConfig{Dir: filepath.Join(t.TempDir(), "history"), MaxResults: 20})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	s.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}
	return s
}

func resultSet(id, text string, accessions ...string) types.ResultSet {
	rs := types.ResultSet{
		QueryID: id,
		Intent: types.QueryIntent{
			RawText:        text,
			Organism:       "homo sapiens",
			ConditionTerms: []string{"breast cancer"},
			FreeKeywords:   []string{"brca1"},
		},
		Elapsed: 1500 * time.Millisecond,
	}
	for i, acc := range accessions {
		rs.Results = append(rs.Results, types.Record{Rank: i + 1, Accession: acc, DatabaseID: types.DBExpression})
	}
	return rs
}

func TestOpenCreatesDBFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "history")
	s, err := Open(types.HistoryConfig{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, dbFile)); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
	if s.maxResults != 20 {
		t.Errorf("default maxResults = %d, want 20", s.maxResults)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		s, err := Open(types.HistoryConfig{Dir: dir})
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		s.Close()
	}
}

func TestRecordAndList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, rs := range []types.ResultSet{
		resultSet("q1", "human breast cancer RNA-seq", "GSE1", "SRR1"),
		resultSet("q2", "mouse alzheimer"),
		resultSet("q3", "zebrafish heart development", "GSE9"),
	} {
		if err := s.Record(ctx, rs); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].ID != "q3" || entries[2].ID != "q1" {
		t.Errorf("order = %s, %s, %s; want newest first", entries[0].ID, entries[1].ID, entries[2].ID)
	}

	first := entries[2]
	if first.Text != "human breast cancer RNA-seq" {
		t.Errorf("Text = %q", first.Text)
	}
	if first.Organism != "homo sapiens" {
		t.Errorf("Organism = %q", first.Organism)
	}
	if len(first.Conditions) != 1 || first.Conditions[0] != "breast cancer" {
		t.Errorf("Conditions = %v", first.Conditions)
	}
	if first.Results != 2 {
		t.Errorf("Results = %d, want 2", first.Results)
	}
	if first.Elapsed != "1.5s" {
		t.Errorf("Elapsed = %q, want 1.5s", first.Elapsed)
	}
	if len(first.Accessions) != 2 || first.Accessions[1] != "SRR1" {
		t.Errorf("Accessions = %v", first.Accessions)
	}
	if first.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	limited, err := s.List(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limit 1 returned %d entries", len(limited))
	}
}

func TestRecordReplacesSameID(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Record(ctx, resultSet("q1", "first text")); err != nil {
		t.Fatal(err)
	}
	if err := s.Record(ctx, resultSet("q1", "second text")); err != nil {
		t.Fatal(err)
	}

	entries, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Text != "second text" {
		t.Fatalf("entries = %+v", entries)
	}

	hits, err := s.Search(ctx, "first", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("replaced row still indexed: %+v", hits)
	}
}

func TestRecordEmptyID(t *testing.T) {
	s := testStore(t)
	if err := s.Record(context.Background(), types.ResultSet{}); err == nil {
		t.Fatal("expected error for empty query ID")
	}
}

func TestSearch(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s.Record(ctx, resultSet("q1", "human breast cancer RNA-seq", "GSE12345"))
	s.Record(ctx, resultSet("q2", "mouse alzheimer disease"))
	s.Record(ctx, resultSet("q3", "breast tissue proteomics"))

	hits, err := s.Search(ctx, "breast", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits for breast, want 2", len(hits))
	}

	hits, err = s.Search(ctx, "GSE12345", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "q1" {
		t.Fatalf("accession search = %+v", hits)
	}

	hits, err = s.Search(ctx, "kinase", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}

	if _, err := s.Search(ctx, "  ", 0); err == nil {
		t.Error("expected error for empty search")
	}
}

func TestSearchPunctuatedTerms(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s.Record(ctx, resultSet("q1", "human breast cancer RNA-seq", "GSE1234.1"))
	s.Record(ctx, resultSet("q2", "mouse ChIP-seq", "SRR99"))

	for _, tc := range []struct {
		query string
		want  string
	}{
		{"RNA-seq", "q1"},
		{"rna-seq breast", "q1"},
		{"GSE1234.1", "q1"},
		{"chip-seq", "q2"},
		{`"SRR99"`, "q2"},
	} {
		hits, err := s.Search(ctx, tc.query, 0)
		if err != nil {
			t.Fatalf("Search(%q): %v", tc.query, err)
		}
		if len(hits) != 1 || hits[0].ID != tc.want {
			t.Errorf("Search(%q) = %+v, want %s", tc.query, hits, tc.want)
		}
	}

	hits, err := s.Search(ctx, "seq-rna AND OR", 0)
	if err != nil {
		t.Fatalf("operator words: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("operator words matched %d entries", len(hits))
	}
}

func TestMatchExpr(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"RNA-seq", `"RNA-seq"`},
		{"  GSE1234.1  human ", `"GSE1234.1" "human"`},
		{`say "hi"`, `"say" """hi"""`},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := matchExpr(tt.in); got != tt.want {
			t.Errorf("matchExpr(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	want := resultSet("q1", "human brca1", "NM_007294.4")
	want.PartialFailures = []types.PartialFailure{{DatabaseID: types.DBProtein, Reason: "backend exhausted"}}
	if err := s.Record(ctx, want); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "q1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Intent.RawText != want.Intent.RawText {
		t.Errorf("RawText = %q", got.Intent.RawText)
	}
	if len(got.Results) != 1 || got.Results[0].Accession != "NM_007294.4" {
		t.Errorf("Results = %+v", got.Results)
	}
	if len(got.PartialFailures) != 1 || got.PartialFailures[0].DatabaseID != types.DBProtein {
		t.Errorf("PartialFailures = %+v", got.PartialFailures)
	}

	_, err = s.Get(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}
