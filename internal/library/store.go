// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library persists paper metadata and full text in a searchable
// SQLite index.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-scraper/internal/refs"
	"github.com/pdiddy/paper-scraper/pkg/types"
)

const (
	indexDir    = "index"
	metadataDir = "metadata"
	markdownDir = "markdown"
	dbFile      = "library.db"
)

// Store manages the library SQLite database.
type Store struct {
	db         *sql.DB
	libraryDir string
	papersDir  string
	maxResults int
}

// NewStore opens or creates the library SQLite database at
// libraryDir/index/library.db, creating the schema if it does not exist.
func NewStore(cfg types.LibraryConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.LibraryDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		libraryDir: cfg.LibraryDir,
		papersDir:  cfg.PapersDir,
		maxResults: maxResults,
	}

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
		`CREATE TABLE IF NOT EXISTS papers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT,
			authors TEXT,
			date TEXT,
			abstract TEXT,
			source TEXT,
			source_url TEXT,
			pdf_path TEXT,
			text_status TEXT,
			ref_count INTEGER NOT NULL DEFAULT 0,
			fulltext TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_source ON papers(source)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			paper_id TEXT PRIMARY KEY,
			mod_key TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE papers_fts USING fts5(title, abstract, fulltext, content=papers, content_rowid=rowid)`,
			`CREATE TRIGGER papers_ai AFTER INSERT ON papers BEGIN
				INSERT INTO papers_fts(rowid, title, abstract, fulltext)
				VALUES (new.rowid, new.title, new.abstract, new.fulltext);
			END`,
			`CREATE TRIGGER papers_ad AFTER DELETE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, abstract, fulltext)
				VALUES('delete', old.rowid, old.title, old.abstract, old.fulltext);
			END`,
			`CREATE TRIGGER papers_au AFTER UPDATE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, abstract, fulltext)
				VALUES('delete', old.rowid, old.title, old.abstract, old.fulltext);
				INSERT INTO papers_fts(rowid, title, abstract, fulltext)
				VALUES (new.rowid, new.title, new.abstract, new.fulltext);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a library indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of papers processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest scans papers/metadata/*.yaml sidecars, pairs each with its
// extracted Markdown (when present), and populates the database. File
// modification times detect new, changed, and unchanged papers so repeat
// runs are incremental.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	metaDir := filepath.Join(s.papersDir, metadataDir)

	entries, err := os.ReadDir(metaDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading metadata directory %s: %w", metaDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		paperID := strings.TrimSuffix(entry.Name(), ".yaml")
		metaPath := filepath.Join(metaDir, entry.Name())
		mdPath := filepath.Join(s.papersDir, markdownDir, paperID+".md")

		modKey, err := buildModKey(metaPath, mdPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", paperID, err)
			summary.Failed++
			continue
		}

		var storedModKey string
		err = s.db.QueryRowContext(ctx,
			`SELECT mod_key FROM indexing_status WHERE paper_id = ?`, paperID,
		).Scan(&storedModKey)

		if err == nil && storedModKey == modKey {
			fmt.Fprintf(w, "skipped %s\n", paperID)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		paper, err := loadPaperMetadata(metaPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", paperID, err)
			summary.Failed++
			continue
		}

		fulltext := loadFulltext(mdPath)
		if fulltext != "" && paper.TextStatus != types.TextFailed {
			paper.TextStatus = types.TextDone
		}

		refCount := 0
		if fulltext != "" {
			refCount = len(refs.ParseReferences(fulltext))
		}

		if err := s.upsertPaper(ctx, paper, fulltext, modKey, refCount); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", paperID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s\n", paperID)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s\n", paperID)
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) upsertPaper(ctx context.Context, paper *types.Paper, fulltext, modKey string, refCount int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	authorsJSON, _ := json.Marshal(paper.Authors)
	dateStr := ""
	if !paper.Date.IsZero() {
		dateStr = paper.Date.Format(time.RFC3339)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO papers (id, title, authors, date, abstract, source, source_url, pdf_path, text_status, ref_count, fulltext)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, authors=excluded.authors, date=excluded.date,
			abstract=excluded.abstract, source=excluded.source,
			source_url=excluded.source_url, pdf_path=excluded.pdf_path,
			text_status=excluded.text_status, ref_count=excluded.ref_count,
			fulltext=excluded.fulltext`,
		paper.ID, paper.Title, string(authorsJSON), dateStr,
		paper.Abstract, paper.Source, paper.SourceURL, paper.PDFPath,
		string(paper.TextStatus), refCount, fulltext,
	)
	if err != nil {
		return fmt.Errorf("upserting paper: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (paper_id, mod_key) VALUES (?, ?)
		 ON CONFLICT(paper_id) DO UPDATE SET mod_key=excluded.mod_key`,
		paper.ID, modKey,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}

// buildModKey combines the metadata and markdown mod times into one change
// detection key. A missing markdown file contributes an empty component.
func buildModKey(metaPath, mdPath string) (string, error) {
	metaInfo, err := os.Stat(metaPath)
	if err != nil {
		return "", err
	}
	key := metaInfo.ModTime().UTC().Format(time.RFC3339Nano) + "|"
	if mdInfo, err := os.Stat(mdPath); err == nil {
		key += mdInfo.ModTime().UTC().Format(time.RFC3339Nano)
	}
	return key, nil
}

// loadPaperMetadata reads a Paper record from a metadata sidecar.
func loadPaperMetadata(path string) (*types.Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var paper types.Paper
	if err := yaml.Unmarshal(data, &paper); err != nil {
		return nil, fmt.Errorf("parsing metadata: %w", err)
	}
	if paper.ID == "" {
		paper.ID = strings.TrimSuffix(filepath.Base(path), ".yaml")
	}
	return &paper, nil
}

// loadFulltext reads the extracted Markdown for a paper, returning an empty
// string when no extraction exists yet.
func loadFulltext(mdPath string) string {
	data, err := os.ReadFile(mdPath)
	if err != nil {
		return ""
	}
	return string(data)
}
