// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// QueryOptions holds parameters for library queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string, matched against title,
	// abstract, and extracted fulltext.
	Query string

	// Source filters by the backend that produced the paper (e.g. "arxiv").
	Source string

	// Author filters by a substring of any author name.
	Author string

	// Year filters by publication year.
	Year string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Source == "" && q.Author == "" && q.Year == ""
}

// QueryResult is a paper row returned from the library index. Fulltext is
// omitted to keep results small.
type QueryResult struct {
	ID         string    `json:"id" yaml:"id"`
	Title      string    `json:"title" yaml:"title"`
	Authors    []string  `json:"authors" yaml:"authors"`
	Date       time.Time `json:"date,omitempty" yaml:"date,omitempty"`
	Abstract   string    `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Source     string    `json:"source,omitempty" yaml:"source,omitempty"`
	SourceURL  string    `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	PDFPath    string    `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`
	TextStatus string    `json:"text_status,omitempty" yaml:"text_status,omitempty"`
	RefCount   int       `json:"ref_count" yaml:"ref_count"`
}

// Query searches the library with optional full-text search and structured
// filters. Full-text queries are ranked by relevance; structured-only
// queries are sorted by date descending.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT p.id, p.title, p.authors, p.date, p.abstract,
				p.source, p.source_url, p.pdf_path, p.text_status, p.ref_count
			FROM papers_fts
			JOIN papers p ON p.rowid = papers_fts.rowid
			WHERE papers_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT p.id, p.title, p.authors, p.date, p.abstract,
				p.source, p.source_url, p.pdf_path, p.text_status, p.ref_count
			FROM papers p
			WHERE 1=1`)
	}

	if opts.Source != "" {
		qb.WriteString(` AND p.source LIKE ?`)
		args = append(args, "%"+opts.Source+"%")
	}

	if opts.Author != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(p.authors) WHERE value LIKE ?)`)
		args = append(args, "%"+opts.Author+"%")
	}

	if opts.Year != "" {
		qb.WriteString(` AND substr(p.date, 1, 4) = ?`)
		args = append(args, opts.Year)
	}

	if useFTS {
		qb.WriteString(` ORDER BY papers_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.date DESC, p.id`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying library: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr          QueryResult
			authorsJSON sql.NullString
			dateStr     sql.NullString
		)

		if err := rows.Scan(
			&qr.ID, &qr.Title, &authorsJSON, &dateStr, &qr.Abstract,
			&qr.Source, &qr.SourceURL, &qr.PDFPath, &qr.TextStatus, &qr.RefCount,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &qr.Authors)
		}
		if dateStr.Valid && dateStr.String != "" {
			if t, parseErr := time.Parse(time.RFC3339, dateStr.String); parseErr == nil {
				qr.Date = t
			}
		}

		results = append(results, qr)
	}

	return results, rows.Err()
}

// FormatTable writes query results as a human-readable table to w.
func FormatTable(results []QueryResult, w io.Writer) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return
	}

	fmt.Fprintf(w, "%-18s  %-52s  %-4s  %-10s  %-4s  %s\n",
		"ID", "Title", "Year", "Text", "Refs", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 106))

	for _, r := range results {
		title := r.Title
		if len(title) > 52 {
			title = title[:49] + "..."
		}
		id := r.ID
		if len(id) > 18 {
			id = id[:15] + "..."
		}
		year := ""
		if !r.Date.IsZero() {
			year = fmt.Sprintf("%d", r.Date.Year())
		}
		fmt.Fprintf(w, "%-18s  %-52s  %-4s  %-10s  %-4d  %s\n",
			id, title, year, r.TextStatus, r.RefCount, r.Source)
	}

	fmt.Fprintf(w, "\n%d papers\n", len(results))
}
