// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package text implements PDF text extraction with pluggable backends.
package text

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-scraper/pkg/types"
)

const (
	// markdownDir is the subdirectory under the papers base for Markdown output.
	markdownDir = "markdown"
	// rawDir is the subdirectory under the papers base for raw PDFs.
	rawDir = "raw"
	// metadataDir is the subdirectory under the papers base for metadata sidecars.
	metadataDir = "metadata"
)

// Extractor turns a PDF file into Markdown text. Different backends
// (pdftotext, markitdown) implement this interface.
type Extractor interface {
	// Extract reads a PDF at pdfPath and returns the Markdown content.
	Extract(ctx context.Context, pdfPath string) (string, error)
}

// BatchResult holds the outcome of a batch extraction run.
type BatchResult struct {
	Extracted int
	Skipped   int
	Failed    int
}

// Total returns the total number of papers processed.
func (r BatchResult) Total() int {
	return r.Extracted + r.Skipped + r.Failed
}

// HasFailures reports whether any papers failed extraction.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ExtractPaper extracts text from a single PDF, writing the Markdown to the
// output directory, and returns the resulting status. If the Markdown output
// already exists the paper is skipped and TextNone is returned.
func ExtractPaper(ctx context.Context, e Extractor, paper types.Paper, papersDir string, w io.Writer) types.TextStatus {
	outDir := filepath.Join(papersDir, markdownDir)
	base := strings.TrimSuffix(filepath.Base(paper.PDFPath), filepath.Ext(paper.PDFPath))
	mdPath := filepath.Join(outDir, base+".md")

	if _, err := os.Stat(mdPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", base)
		return types.TextNone
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return types.TextFailed
	}

	raw, err := e.Extract(ctx, paper.PDFPath)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return types.TextFailed
	}

	content := addFrontmatter(paper, raw)

	if err := os.WriteFile(mdPath, []byte(content), 0o644); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return types.TextFailed
	}

	fmt.Fprintf(w, "extracted: %s\n", base)
	return types.TextDone
}

// ExtractBatch processes a list of papers through the extractor, printing
// per-file status to w and returning a summary.
func ExtractBatch(ctx context.Context, e Extractor, papers []types.Paper, papersDir string, w io.Writer) BatchResult {
	var result BatchResult
	for _, p := range papers {
		status := ExtractPaper(ctx, e, p, papersDir, w)
		switch status {
		case types.TextDone:
			result.Extracted++
		case types.TextNone:
			result.Skipped++
		case types.TextFailed:
			result.Failed++
		}
		if status != types.TextNone {
			updateSidecar(papersDir, p.ID, status)
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d extracted, %d skipped, %d failed (total: %d)\n",
		result.Extracted, result.Skipped, result.Failed, result.Total())
	return result
}

// ExtractPaths builds Paper records from raw PDF paths and delegates to
// ExtractBatch. Each path becomes a minimal Paper with its ID derived from
// the filename.
func ExtractPaths(ctx context.Context, e Extractor, pdfPaths []string, papersDir string, w io.Writer) BatchResult {
	papers := make([]types.Paper, len(pdfPaths))
	for i, p := range pdfPaths {
		base := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		papers[i] = types.Paper{
			ID:      base,
			PDFPath: p,
		}
	}
	return ExtractBatch(ctx, e, papers, papersDir, w)
}

// ListRawPDFs returns all PDF files under the raw directory, sorted by name.
func ListRawPDFs(papersDir string) ([]string, error) {
	pattern := filepath.Join(papersDir, rawDir, "*.pdf")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("listing PDFs in %s: %w", pattern, err)
	}
	return paths, nil
}

// updateSidecar records the extraction status in the paper's metadata
// sidecar. Papers scraped outside the pipeline have no sidecar; that is
// not an error.
func updateSidecar(papersDir, paperID string, status types.TextStatus) {
	path := filepath.Join(papersDir, metadataDir, paperID+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var paper types.Paper
	if err := yaml.Unmarshal(data, &paper); err != nil {
		return
	}
	paper.TextStatus = status
	if out, err := yaml.Marshal(&paper); err == nil {
		os.WriteFile(path, out, 0o644)
	}
}

// addFrontmatter prepends YAML frontmatter to the extracted Markdown content.
func addFrontmatter(paper types.Paper, body string) string {
	ts := time.Now().UTC().Format(time.RFC3339)
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "paper_id: %q\n", paper.ID)
	fmt.Fprintf(&b, "source_pdf: %q\n", paper.PDFPath)
	fmt.Fprintf(&b, "extracted_at: %q\n", ts)
	b.WriteString("---\n\n")
	b.WriteString(body)
	return b.String()
}
