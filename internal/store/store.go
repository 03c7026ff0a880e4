// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists research runs in a local SQLite cache so repeat
// research on the same term reuses collected sources instead of spending
// search credits again.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-spider/pkg/types"
)

const dbFile = "research.db"

// Store manages the research-run SQLite cache.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the cache database at dataDir/research.db,
// creating the schema if needed.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "research"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
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
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			domain TEXT NOT NULL,
			collected_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_query ON runs(query, domain, collected_at)`,
		`CREATE TABLE IF NOT EXISTS sources (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			text TEXT NOT NULL,
			metadata TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sources_run_id ON sources(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun persists a research run and its sources in one transaction.
// A run with an empty ID is assigned one. Source order is preserved.
func (s *Store) SaveRun(ctx context.Context, run *types.ResearchRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CollectedAt.IsZero() {
		run.CollectedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, query, domain, collected_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Query, run.Domain, run.CollectedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sources (run_id, position, text, metadata) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing source insert: %w", err)
	}
	defer stmt.Close()

	for i, src := range run.Sources {
		metaJSON, err := json.Marshal(src.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata for %s: %w", src.Metadata.URL, err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, src.Text, string(metaJSON)); err != nil {
			return fmt.Errorf("inserting source: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// LatestRun returns the most recent run for a query and domain, or nil when
// no run has been cached. Older runs for the same query are kept but never
// returned here.
func (s *Store) LatestRun(ctx context.Context, query, domain string) (*types.ResearchRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, query, domain, collected_at FROM runs
		 WHERE query = ? AND domain = ?
		 ORDER BY collected_at DESC LIMIT 1`,
		query, domain,
	)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	run.Sources, err = s.loadSources(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetRun returns the run with the given ID, or nil when absent.
func (s *Store) GetRun(ctx context.Context, id string) (*types.ResearchRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, query, domain, collected_at FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	run.Sources, err = s.loadSources(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// RunInfo summarizes a cached run for listings.
type RunInfo struct {
	ID          string    `json:"id" yaml:"id"`
	Query       string    `json:"query" yaml:"query"`
	Domain      string    `json:"domain" yaml:"domain"`
	CollectedAt time.Time `json:"collected_at" yaml:"collected_at"`
	SourceCount int       `json:"source_count" yaml:"source_count"`
}

// ListRuns returns all cached runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.query, r.domain, r.collected_at, count(s.rowid)
		 FROM runs r LEFT JOIN sources s ON s.run_id = r.id
		 GROUP BY r.id ORDER BY r.collected_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var infos []RunInfo
	for rows.Next() {
		var (
			info RunInfo
			ts   string
		)
		if err := rows.Scan(&info.ID, &info.Query, &info.Domain, &ts, &info.SourceCount); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		info.CollectedAt, _ = time.Parse(time.RFC3339Nano, ts)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeleteRun removes one run and its sources.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// Clear removes every cached run.
func (s *Store) Clear(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func scanRun(row *sql.Row) (*types.ResearchRun, error) {
	var (
		run types.ResearchRun
		ts  string
	)
	if err := row.Scan(&run.ID, &run.Query, &run.Domain, &ts); err != nil {
		return nil, err
	}
	collected, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("parsing collected_at: %w", err)
	}
	run.CollectedAt = collected
	return &run, nil
}

func (s *Store) loadSources(ctx context.Context, runID string) ([]types.Source, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT text, metadata FROM sources WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading sources: %w", err)
	}
	defer rows.Close()

	var sources []types.Source
	for rows.Next() {
		var (
			src      types.Source
			metaJSON string
		)
		if err := rows.Scan(&src.Text, &metaJSON); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		if err := json.Unmarshal([]byte(metaJSON), &src.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}
