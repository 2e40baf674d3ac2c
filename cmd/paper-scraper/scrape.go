// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-scraper/internal/httpclient"
	"github.com/pdiddy/paper-scraper/internal/log"
	"github.com/pdiddy/paper-scraper/internal/scrape"
	"github.com/pdiddy/paper-scraper/internal/search"
	"github.com/pdiddy/paper-scraper/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultRateLimit = 1.0
	defaultUserAgent = "paper-scraper/0.1"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [identifiers...]",
	Short: "Download papers from URLs, DOIs, or arXiv IDs",
	Long: `Scrape resolves paper identifiers (arXiv IDs, DOIs, direct PDF URLs)
to PDF files, downloads them with rate limiting, fetches metadata from
scholarly APIs, and writes metadata sidecars. Existing papers are skipped.

Identifiers come from the command line or from a saved query file
(--from-query), in which case each result's preferred identifier is used.`,
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	scrapeCmd.Flags().Float64("rate-limit", 0, "maximum requests per second (default 1)")
	scrapeCmd.Flags().Int("retries", 0, "retries on HTTP 429/503 (default 5, negative disables)")
	scrapeCmd.Flags().Int("concurrency", 0, "papers downloaded in parallel (default 2)")
	scrapeCmd.Flags().String("papers-dir", "papers", "base directory for papers")
	scrapeCmd.Flags().String("from-query", "", "read identifiers from a saved query file")
	scrapeCmd.Flags().String("log-level", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	fromQuery, _ := cmd.Flags().GetString("from-query")

	identifiers := args
	if fromQuery != "" {
		fromFile, err := queryFileIdentifiers(fromQuery)
		if err != nil {
			return err
		}
		identifiers = append(identifiers, fromFile...)
	}
	if len(identifiers) == 0 {
		return fmt.Errorf("provide one or more paper identifiers (arXiv IDs, DOIs, or URLs) or --from-query")
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	rateLimit, _ := cmd.Flags().GetFloat64("rate-limit")
	if rateLimit == 0 {
		rateLimit = defaultRateLimit
	}
	retries, _ := cmd.Flags().GetInt("retries")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	papersDir, _ := cmd.Flags().GetString("papers-dir")
	logLevel, _ := cmd.Flags().GetString("log-level")

	cfg := types.ScrapeConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:    timeout,
			UserAgent:  defaultUserAgent,
			RateLimit:  rateLimit,
			RetryCount: retries,
		},
		Concurrency:    concurrency,
		PapersDir:      papersDir,
		CrossRefAPIKey: secretDefault("crossref-api-key", viper.GetString("crossref_api_key")),
		OpenAlexEmail:  secretDefault("openalex-email", viper.GetString("openalex_email")),
	}

	logger := log.New(os.Stderr, logLevel, true)
	client := httpclient.New(cfg.HTTPConfig, logger)

	result := scrape.ScrapeBatch(context.Background(), client, identifiers, cfg, logger, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d paper(s) failed scraping", result.Failed)
	}
	return nil
}

// queryFileIdentifiers extracts scrape identifiers from a saved query file,
// preferring each result's scrape ID over its canonical identifier.
func queryFileIdentifiers(path string) ([]string, error) {
	qf, err := search.ReadQueryFile(path)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(qf.Results))
	for _, r := range qf.Results {
		id := r.PreferredScrapeID
		if id == "" {
			id = r.Identifier
		}
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("query file %s contains no usable identifiers", path)
	}
	return ids, nil
}
