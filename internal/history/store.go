// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists processed queries in a SQLite database with a
// full-text index over the question text and returned accessions.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/genoscope/pkg/types"
)

const dbFile = "history.db"

// ErrNotFound is returned by Get for an unknown query ID.
var ErrNotFound = errors.New("query not found")

// Store manages the query history database.
type Store struct {
	db         *sql.DB
	maxResults int
	now        func() time.Time
}

// Entry is one recorded query.
type Entry struct {
	ID         string    `json:"id" yaml:"id"`
	Text       string    `json:"text" yaml:"text"`
	Organism   string    `json:"organism,omitempty" yaml:"organism,omitempty"`
	DataType   string    `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	Conditions []string  `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Keywords   []string  `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Results    int       `json:"results" yaml:"results"`
	Failures   int       `json:"failures" yaml:"failures"`
	Elapsed    string    `json:"elapsed" yaml:"elapsed"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	Accessions []string  `json:"accessions,omitempty" yaml:"accessions,omitempty"`
}

// Open opens or creates the history database at cfg.Dir/history.db and
// creates the schema if it does not exist.
func Open(cfg types.HistoryConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS queries (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			raw_text TEXT NOT NULL,
			organism TEXT,
			data_type TEXT,
			conditions TEXT,
			keywords TEXT,
			results INTEGER NOT NULL,
			failures INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			accessions TEXT,
			result_set TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_queries_created_at ON queries(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='queries_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE queries_fts USING fts5(raw_text, accessions, content=queries, content_rowid=rowid)`,
		`CREATE TRIGGER queries_ai AFTER INSERT ON queries BEGIN
			INSERT INTO queries_fts(rowid, raw_text, accessions) VALUES (new.rowid, new.raw_text, new.accessions);
		END`,
		`CREATE TRIGGER queries_ad AFTER DELETE ON queries BEGIN
			INSERT INTO queries_fts(queries_fts, rowid, raw_text, accessions) VALUES('delete', old.rowid, old.raw_text, old.accessions);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// Record stores a processed result set. Recording the same query ID twice
// replaces the earlier row.
func (s *Store) Record(ctx context.Context, rs types.ResultSet) error {
	if rs.QueryID == "" {
		return fmt.Errorf("recording query: empty query ID")
	}

	full, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("marshaling result set: %w", err)
	}
	conditions, _ := json.Marshal(rs.Intent.ConditionTerms)
	keywords, _ := json.Marshal(rs.Intent.FreeKeywords)

	accessions := make([]string, 0, len(rs.Results))
	for _, r := range rs.Results {
		accessions = append(accessions, r.Accession)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM queries WHERE id = ?`, rs.QueryID); err != nil {
		return fmt.Errorf("replacing query %s: %w", rs.QueryID, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO queries (id, raw_text, organism, data_type, conditions, keywords,
			results, failures, elapsed_ms, created_at, accessions, result_set)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rs.QueryID, rs.Intent.RawText, rs.Intent.Organism, rs.Intent.DataType,
		string(conditions), string(keywords),
		len(rs.Results), len(rs.PartialFailures), rs.Elapsed.Milliseconds(),
		s.now().UTC().Format(time.RFC3339Nano), strings.Join(accessions, " "), string(full),
	)
	if err != nil {
		return fmt.Errorf("inserting query %s: %w", rs.QueryID, err)
	}
	return tx.Commit()
}

const entryColumns = `q.id, q.raw_text, q.organism, q.data_type, q.conditions, q.keywords,
	q.results, q.failures, q.elapsed_ms, q.created_at, q.accessions`

// List returns the most recent queries, newest first. A limit of zero or
// less uses the store default.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM queries q ORDER BY q.rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return scanEntries(rows)
}

// Search runs an FTS5 match over question text and accessions, best match
// first.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	match := matchExpr(query)
	if match == "" {
		return nil, fmt.Errorf("searching history: empty query")
	}
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+`
		FROM queries_fts
		JOIN queries q ON q.rowid = queries_fts.rowid
		WHERE queries_fts MATCH ?
		ORDER BY queries_fts.rank
		LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("searching history: %w", err)
	}
	return scanEntries(rows)
}

// matchExpr turns free text into an FTS5 query: every whitespace-separated
// word becomes a quoted string, and all of them must match. Hyphens and dots
// inside a word ("RNA-seq", "GSE1234.1") are matched as a phrase instead of
// being read as FTS5 operators.
func matchExpr(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		words[i] = `"` + strings.ReplaceAll(w, `"`, `""`) + `"`
	}
	return strings.Join(words, " ")
}

// Get returns the full result set recorded under id.
func (s *Store) Get(ctx context.Context, id string) (types.ResultSet, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT result_set FROM queries WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.ResultSet{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return types.ResultSet{}, fmt.Errorf("looking up query: %w", err)
	}

	var rs types.ResultSet
	if err := json.Unmarshal([]byte(data), &rs); err != nil {
		return types.ResultSet{}, fmt.Errorf("decoding result set %s: %w", id, err)
	}
	return rs, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                    Entry
			organism, dataType   sql.NullString
			conditions, keywords sql.NullString
			accessions           sql.NullString
			elapsedMS            int64
			createdAt            string
		)
		if err := rows.Scan(&e.ID, &e.Text, &organism, &dataType, &conditions, &keywords,
			&e.Results, &e.Failures, &elapsedMS, &createdAt, &accessions); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		e.Organism = organism.String
		e.DataType = dataType.String
		if conditions.Valid {
			json.Unmarshal([]byte(conditions.String), &e.Conditions)
		}
		if keywords.Valid {
			json.Unmarshal([]byte(keywords.String), &e.Keywords)
		}
		if accessions.String != "" {
			e.Accessions = strings.Fields(accessions.String)
		}
		e.Elapsed = (time.Duration(elapsedMS) * time.Millisecond).String()
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

		entries = append(entries, e)
	}
	return entries, rows.Err()
}
