// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape locates and downloads paper PDFs and creates metadata records.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paper-scraper/internal/ident"
	"github.com/pdiddy/paper-scraper/internal/log"
	"github.com/pdiddy/paper-scraper/internal/pdf"
	"github.com/pdiddy/paper-scraper/pkg/types"
)

const (
	rawDir      = "raw"
	metadataDir = "metadata"
)

// Base URLs for identifier resolution. Declared as vars so tests can
// substitute httptest servers.
var (
	arxivPDFBase    = "https://arxiv.org/pdf/"
	arxivAPIBase    = "https://export.arxiv.org/api/query"
	doiBase         = "https://doi.org/"
	crossrefAPIBase = "https://api.crossref.org/works/"
	openAlexAPIBase = "https://api.openalex.org/works/"
)

// defaultConcurrency bounds parallel downloads in a batch. The shared
// client's rate limiter still bounds the request rate.
const defaultConcurrency = 2

// BatchResult holds the outcome of a batch scrape run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Papers     []*types.Paper
}

// Total returns the total number of identifiers processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any papers failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ScrapePaper resolves a single identifier, downloads and verifies the PDF,
// and writes metadata. If the PDF already exists on disk, it skips the
// download. The skipped return value indicates whether the download was skipped.
func ScrapePaper(ctx context.Context, client *http.Client, identifier string, cfg types.ScrapeConfig, logger zerolog.Logger, w io.Writer) (paper *types.Paper, skipped bool, err error) {
	idType, normalized := ident.Classify(identifier)
	if idType == ident.TypeUnknown {
		return nil, false, fmt.Errorf("unrecognized identifier format: %q", identifier)
	}

	slug := ident.Slug(idType, normalized)
	pdfPath := filepath.Join(cfg.PapersDir, rawDir, slug+".pdf")
	metaPath := filepath.Join(cfg.PapersDir, metadataDir, slug+".yaml")

	if ok, _ := pdf.Check(pdfPath); ok {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", slug)
		p, readErr := readMetadata(metaPath)
		if readErr != nil {
			p = &types.Paper{ID: slug, PDFPath: pdfPath}
		}
		return p, true, nil
	}

	for _, dir := range []string{
		filepath.Join(cfg.PapersDir, rawDir),
		filepath.Join(cfg.PapersDir, metadataDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, false, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	fmt.Fprintf(w, "downloading: %s (%s)\n", slug, idType)

	pdfURL, source, err := locatePDF(ctx, client, idType, normalized, cfg, logger, pdfPath)
	if err != nil {
		return nil, false, fmt.Errorf("downloading %s: %w", slug, err)
	}

	p := &types.Paper{
		ID:         slug,
		SourceURL:  pdfURL,
		PDFPath:    pdfPath,
		Source:     source,
		TextStatus: types.TextNone,
	}

	// Metadata fetch failures are warnings; the PDF is already on disk.
	switch idType {
	case ident.TypeArxiv:
		if err := fetchArxivMetadata(ctx, client, normalized, p, cfg); err != nil {
			fmt.Fprintf(w, "  warning: arXiv metadata fetch failed: %v\n", err)
			logger.Warn().Str("paper", slug).Err(err).Msg("arXiv metadata fetch failed")
		}
	case ident.TypeDOI:
		if err := fetchCrossRefMetadata(ctx, client, normalized, p, cfg); err != nil {
			fmt.Fprintf(w, "  warning: CrossRef metadata fetch failed: %v\n", err)
			logger.Warn().Str("paper", slug).Err(err).Msg("CrossRef metadata fetch failed")
		}
	}

	if err := writeMetadata(p, metaPath); err != nil {
		return nil, false, fmt.Errorf("writing metadata for %s: %w", slug, err)
	}

	return p, false, nil
}

// locatePDF tries the candidate sources for the identifier in order and
// downloads the first one that yields a real PDF. For DOIs the order is
// OpenAlex open-access location, the doi.org redirect, then scraping the
// landing page for a PDF link.
func locatePDF(ctx context.Context, client *http.Client, idType ident.Type, normalized string, cfg types.ScrapeConfig, logger zerolog.Logger, destPath string) (pdfURL, source string, err error) {
	type candidate struct {
		url    string
		source string
	}

	var candidates []candidate
	switch idType {
	case ident.TypeArxiv:
		candidates = append(candidates, candidate{arxivPDFBase + normalized, "arxiv"})
	case ident.TypeURL:
		candidates = append(candidates, candidate{normalized, "url"})
	case ident.TypeDOI:
		if oaURL, oaErr := resolveOpenAlex(ctx, client, normalized, cfg); oaErr == nil && oaURL != "" {
			candidates = append(candidates, candidate{oaURL, "openalex"})
		}
		candidates = append(candidates, candidate{doiBase + normalized, "doi"})
	}

	var lastErr error
	for _, c := range candidates {
		if err := downloadPDF(ctx, client, c.url, destPath, cfg); err != nil {
			logger.Debug().Str("url", c.url).Str("source", c.source).Err(err).Msg("candidate failed")
			lastErr = err
			continue
		}
		return c.url, c.source, nil
	}

	// Last resort for DOIs: scrape the landing page for a PDF link.
	if idType == ident.TypeDOI {
		linkURL, scrapeErr := scrapeLandingPage(ctx, client, doiBase+normalized, cfg)
		if scrapeErr != nil {
			if lastErr != nil {
				return "", "", fmt.Errorf("%w (landing page: %v)", lastErr, scrapeErr)
			}
			return "", "", scrapeErr
		}
		if err := downloadPDF(ctx, client, linkURL, destPath, cfg); err != nil {
			return "", "", err
		}
		return linkURL, "landing_page", nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("cannot resolve PDF URL for %q", normalized)
	}
	return "", "", lastErr
}

// syncWriter serializes status lines from concurrent scrape workers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// ScrapeBatch processes multiple identifiers with bounded concurrency,
// printing per-item status and returning a summary. It continues after
// individual failures; the shared throttled client keeps the request rate
// polite regardless of worker count.
func ScrapeBatch(ctx context.Context, client *http.Client, identifiers []string, cfg types.ScrapeConfig, logger zerolog.Logger, w io.Writer) BatchResult {
	logger = log.WithRun(logger, uuid.NewString())

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	sw := &syncWriter{w: w}

	var (
		mu     sync.Mutex
		result BatchResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, id := range identifiers {
		id := id
		g.Go(func() error {
			paper, wasSkipped, err := ScrapePaper(gctx, client, id, cfg, logger, sw)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fmt.Fprintf(sw, "failed:  %s (%v)\n", id, err)
				logger.Error().Str("identifier", id).Err(err).Msg("scrape failed")
				result.Failed++
				return nil
			}
			if wasSkipped {
				result.Skipped++
			} else {
				result.Downloaded++
			}
			result.Papers = append(result.Papers, paper)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors

	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// downloadPDF fetches url to destPath via a temporary file, verifying that
// the payload really is a PDF before the rename. Responses that turn out to
// be HTML error pages are discarded.
func downloadPDF(ctx context.Context, client *http.Client, url, destPath string, cfg types.ScrapeConfig) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".scrape-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if ok, checkErr := pdf.Check(tmpPath); !ok || checkErr != nil {
		os.Remove(tmpPath)
		if checkErr != nil {
			return fmt.Errorf("verifying download: %w", checkErr)
		}
		return fmt.Errorf("%s did not return a PDF", url)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// writeMetadata writes a Paper record to a YAML sidecar file.
func writeMetadata(paper *types.Paper, path string) error {
	data, err := yaml.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// readMetadata reads a Paper record from a YAML sidecar file.
func readMetadata(path string) (*types.Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var paper types.Paper
	if err := yaml.Unmarshal(data, &paper); err != nil {
		return nil, err
	}
	return &paper, nil
}
