// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads NCBI records with efetch and writes a YAML
// metadata sidecar next to each one.
package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/genoscope/internal/format"
	"github.com/pdiddy/genoscope/pkg/types"
)

// Format is a record download format.
type Format string

const (
	FormatFASTA   Format = "fasta"
	FormatGenBank Format = "gb"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatFASTA, nil
	case FormatFASTA, FormatGenBank:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want fasta or gb)", s)
	}
}

// Client runs efetch. *search.EUtils implements it.
type Client interface {
	Fetch(ctx context.Context, db types.DatabaseID, ids []string, rettype, retmode string) ([]byte, error)
}

// Resolver finds the record behind an accession.
type Resolver func(ctx context.Context, accession string) (types.RawResult, error)

// Sidecar is the metadata written next to each download.
type Sidecar struct {
	Accession string            `yaml:"accession"`
	Database  types.DatabaseID  `yaml:"database"`
	Title     string            `yaml:"title"`
	Organism  string            `yaml:"organism,omitempty"`
	Format    string            `yaml:"format"`
	File      string            `yaml:"file"`
	Bytes     int               `yaml:"bytes"`
	SourceURL string            `yaml:"source_url"`
	FetchedAt time.Time         `yaml:"fetched_at"`
	Metadata  map[string]string `yaml:"metadata,omitempty"`
}

// BatchResult holds the outcome of a batch download run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Files      []string
}

// Total returns the total number of accessions processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any download failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Fetcher downloads records into OutDir.
type Fetcher struct {
	Client  Client
	Resolve Resolver
	Config  types.FetchConfig
	Log     zerolog.Logger

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// New returns a Fetcher.
func New(client Client, resolve Resolver, cfg types.FetchConfig, log zerolog.Logger) *Fetcher {
	return &Fetcher{Client: client, Resolve: resolve, Config: cfg, Log: log}
}

// efetchParams returns the rettype, retmode, and file extension for a
// record. Only sequence databases honour the requested format.
func efetchParams(db types.DatabaseID, f Format) (rettype, retmode, ext string) {
	switch db {
	case types.DBSequenceRead:
		return "runinfo", "text", ".csv"
	case types.DBExpression:
		return "", "text", ".txt"
	}
	if f == FormatGenBank {
		if db == types.DBProtein {
			return "gp", "text", ".gp"
		}
		return "gb", "text", ".gb"
	}
	return "fasta", "text", ".fasta"
}

// FetchRecord downloads one resolved record. If the file already exists
// the download is skipped and skipped is true.
func (f *Fetcher) FetchRecord(ctx context.Context, rec types.RawResult, ft Format) (path string, skipped bool, err error) {
	rettype, retmode, ext := efetchParams(rec.DatabaseID, ft)
	slug := Slug(rec.Accession)
	path = filepath.Join(f.Config.OutDir, slug+ext)

	if _, err := os.Stat(path); err == nil {
		return path, true, nil
	}
	if err := os.MkdirAll(f.Config.OutDir, 0o755); err != nil {
		return "", false, fmt.Errorf("creating directory %s: %w", f.Config.OutDir, err)
	}

	id := rec.Metadata[types.MetaUID]
	if id == "" {
		id = rec.Accession
	}
	data, err := f.Client.Fetch(ctx, rec.DatabaseID, []string{id}, rettype, retmode)
	if err != nil {
		return "", false, fmt.Errorf("fetching %s: %w", rec.Accession, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", false, fmt.Errorf("fetching %s: empty response", rec.Accession)
	}

	if err := writeFile(data, path); err != nil {
		return "", false, fmt.Errorf("writing %s: %w", slug, err)
	}

	now := time.Now
	if f.now != nil {
		now = f.now
	}
	side := Sidecar{
		Accession: rec.Accession,
		Database:  rec.DatabaseID,
		Title:     rec.Title,
		Organism:  rec.Metadata[types.MetaOrganism],
		Format:    strings.TrimPrefix(ext, "."),
		File:      filepath.Base(path),
		Bytes:     len(data),
		SourceURL: format.DownloadURL(rec.DatabaseID, rec.Accession),
		FetchedAt: now().UTC(),
		Metadata:  rec.Metadata,
	}
	if err := writeSidecar(side, filepath.Join(f.Config.OutDir, slug+".yaml")); err != nil {
		return "", false, fmt.Errorf("writing metadata for %s: %w", slug, err)
	}
	return path, false, nil
}

// Fetch resolves an accession and downloads its record.
func (f *Fetcher) Fetch(ctx context.Context, accession string, ft Format) (string, bool, error) {
	rec, err := f.Resolve(ctx, accession)
	if err != nil {
		return "", false, err
	}
	return f.FetchRecord(ctx, rec, ft)
}

// FetchBatch downloads several accessions, printing per-item status to w
// and returning a summary. It continues after individual failures and
// pauses DownloadDelay between consecutive downloads.
func (f *Fetcher) FetchBatch(ctx context.Context, accessions []string, ft Format, w io.Writer) BatchResult {
	sleep := f.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var result BatchResult
	for i, acc := range accessions {
		if i > 0 && f.Config.DownloadDelay > 0 {
			if err := sleep(ctx, f.Config.DownloadDelay); err != nil {
				result.Failed += len(accessions) - i
				break
			}
		}
		path, skipped, err := f.Fetch(ctx, acc, ft)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", acc, err)
			f.Log.Warn().Str("accession", acc).Err(err).Msg("fetch failed")
			result.Failed++
			continue
		}
		if skipped {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", acc)
			result.Skipped++
		} else {
			fmt.Fprintf(w, "fetched: %s -> %s\n", acc, path)
			result.Downloaded++
		}
		result.Files = append(result.Files, path)
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// Slug turns an accession into a safe file name stem.
func Slug(accession string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '-'
		}
		return r
	}, strings.TrimSpace(accession))
}

// writeFile writes data to destPath through a temporary file so a failed
// write never leaves a partial record.
func writeFile(data []byte, destPath string) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func writeSidecar(s Sidecar, path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSidecar reads a metadata sidecar.
func ReadSidecar(path string) (*Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Sidecar
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
