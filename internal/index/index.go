// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index builds a full-text passage index over collected sources and
// retrieves ranked passages for article questions. Sources are split into
// overlapping chunks so retrieval returns focused passages instead of whole
// documents.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-spider/pkg/types"
)

const dbFile = "index.db"

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
	defaultMaxResults   = 5
)

// Index is the SQLite-backed passage index.
type Index struct {
	db  *sql.DB
	cfg types.IndexConfig
}

// New opens or creates the index database at DataDir/index.db.
func New(cfg types.IndexConfig) (*Index, error) {
	if cfg.DataDir == "" {
		cfg.DataDir = "research"
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.ChunkOverlap <= 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = defaultChunkOverlap
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(cfg.DataDir, dbFile)+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	ix := &Index{db: db, cfg: cfg}
	if err := ix.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return ix, nil
}

// Close releases the database connection.
func (ix *Index) Close() error {
	return ix.db.Close()
}

func (ix *Index) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS passages (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			url TEXT NOT NULL,
			source_name TEXT NOT NULL,
			reliability TEXT NOT NULL,
			content TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_passages_run_id ON passages(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := ix.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := ix.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='passages_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE passages_fts USING fts5(content, content=passages, content_rowid=rowid)`,
			`CREATE TRIGGER passages_ai AFTER INSERT ON passages BEGIN
				INSERT INTO passages_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER passages_ad AFTER DELETE ON passages BEGIN
				INSERT INTO passages_fts(passages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := ix.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// IndexRun chunks every source in the run and replaces any passages
// previously indexed for the same run ID. It returns the passage count.
func (ix *Index) IndexRun(ctx context.Context, run *types.ResearchRun) (int, error) {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM passages WHERE run_id = ?`, run.ID); err != nil {
		return 0, fmt.Errorf("deleting old passages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO passages (run_id, url, source_name, reliability, content)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, src := range run.Sources {
		for _, chunk := range Chunk(src.Text, ix.cfg.ChunkSize, ix.cfg.ChunkOverlap) {
			_, err := stmt.ExecContext(ctx, run.ID, src.Metadata.URL,
				src.Metadata.SourceName, string(src.Metadata.Reliability), chunk)
			if err != nil {
				return 0, fmt.Errorf("inserting passage: %w", err)
			}
			count++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing passages: %w", err)
	}
	return count, nil
}

// Passage is one retrieved chunk with provenance.
type Passage struct {
	RunID       string
	URL         string
	SourceName  string
	Reliability types.ReliabilityTier
	Text        string
}

// Retrieve returns the best-matching passages for a free-text query, ranked
// by FTS5 relevance. A maxResults of zero uses the configured default.
// Queries with no indexable words return no passages, not an error.
func (ix *Index) Retrieve(ctx context.Context, query string, maxResults int) ([]Passage, error) {
	if maxResults <= 0 {
		maxResults = ix.cfg.MaxResults
	}

	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := ix.db.QueryContext(ctx,
		`SELECT p.run_id, p.url, p.source_name, p.reliability, p.content
		 FROM passages_fts
		 JOIN passages p ON p.rowid = passages_fts.rowid
		 WHERE passages_fts MATCH ?
		 ORDER BY passages_fts.rank
		 LIMIT ?`,
		match, maxResults,
	)
	if err != nil {
		return nil, fmt.Errorf("querying passages: %w", err)
	}
	defer rows.Close()

	var passages []Passage
	for rows.Next() {
		var (
			p   Passage
			rel string
		)
		if err := rows.Scan(&p.RunID, &p.URL, &p.SourceName, &rel, &p.Text); err != nil {
			return nil, fmt.Errorf("scanning passage: %w", err)
		}
		p.Reliability = types.ReliabilityTier(rel)
		passages = append(passages, p)
	}
	return passages, rows.Err()
}

// RetrieveForRun is Retrieve restricted to one run's passages.
func (ix *Index) RetrieveForRun(ctx context.Context, runID, query string, maxResults int) ([]Passage, error) {
	if maxResults <= 0 {
		maxResults = ix.cfg.MaxResults
	}

	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := ix.db.QueryContext(ctx,
		`SELECT p.run_id, p.url, p.source_name, p.reliability, p.content
		 FROM passages_fts
		 JOIN passages p ON p.rowid = passages_fts.rowid
		 WHERE passages_fts MATCH ? AND p.run_id = ?
		 ORDER BY passages_fts.rank
		 LIMIT ?`,
		match, runID, maxResults,
	)
	if err != nil {
		return nil, fmt.Errorf("querying passages: %w", err)
	}
	defer rows.Close()

	var passages []Passage
	for rows.Next() {
		var (
			p   Passage
			rel string
		)
		if err := rows.Scan(&p.RunID, &p.URL, &p.SourceName, &rel, &p.Text); err != nil {
			return nil, fmt.Errorf("scanning passage: %w", err)
		}
		p.Reliability = types.ReliabilityTier(rel)
		passages = append(passages, p)
	}
	return passages, rows.Err()
}

// Chunk splits text into pieces of roughly size characters with overlap
// characters shared between neighbors. Cuts prefer word boundaries. Text
// shorter than size comes back as a single chunk.
func Chunk(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}

	var chunks []string
	step := size - overlap
	for start := 0; start < len(text); start += step {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, strings.TrimSpace(text[start:]))
			break
		}
		cut := end
		if idx := strings.LastIndexByte(text[start:end], ' '); idx > step {
			cut = start + idx
		}
		chunks = append(chunks, strings.TrimSpace(text[start:cut]))
	}
	return chunks
}

// ftsQuery turns free text into an FTS5 OR-query of its words, stripping
// punctuation that FTS5 would parse as syntax.
func ftsQuery(query string) string {
	words := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(words) == 0 {
		return ""
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = `"` + w + `"`
	}
	return strings.Join(quoted, " OR ")
}
