// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-scraper/internal/httpclient"
	"github.com/pdiddy/paper-scraper/internal/log"
	"github.com/pdiddy/paper-scraper/internal/search"
	"github.com/pdiddy/paper-scraper/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search scholarly APIs for candidate papers",
	Long: `Search queries scholarly APIs (arXiv, Semantic Scholar, OpenAlex,
CrossRef) for papers matching a research question or structured query
parameters. Results are deduplicated across sources and ranked by relevance.

Use --save to write the query and its results to a YAML file that the
scrape stage can consume with --from-query.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "free-text research question")
	searchCmd.Flags().String("author", "", "filter by author name")
	searchCmd.Flags().String("keywords", "", "filter by keywords (comma-separated)")
	searchCmd.Flags().String("from", "", "publication date range start (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD)")
	searchCmd.Flags().Int("max-results", 20, "maximum number of results to return")
	searchCmd.Flags().Bool("recency-bias", false, "boost recently published papers")
	searchCmd.Flags().String("backends", "", "comma-separated backends to query (default: all of arxiv, semantic-scholar, openalex, crossref)")
	searchCmd.Flags().String("format", "table", "output format: table, json, or csl")
	searchCmd.Flags().String("save", "", "save the query and results to a YAML file")
	searchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, err := queryFromFlags(cmd, args)
	if err != nil {
		return err
	}

	maxResults, _ := cmd.Flags().GetInt("max-results")
	recencyBias, _ := cmd.Flags().GetBool("recency-bias")
	format, _ := cmd.Flags().GetString("format")
	savePath, _ := cmd.Flags().GetString("save")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	cfg := types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		MaxResults:            maxResults,
		SemanticScholarAPIKey: secretDefault("semantic-scholar-api-key", viper.GetString("semantic_scholar_api_key")),
		CrossRefAPIKey:        secretDefault("crossref-api-key", viper.GetString("crossref_api_key")),
		OpenAlexEmail:         secretDefault("openalex-email", viper.GetString("openalex_email")),
	}
	if err := applyBackendSelection(&cfg, cmd); err != nil {
		return err
	}

	logger := log.New(os.Stderr, "info", true)
	client := httpclient.New(cfg.HTTPConfig, logger)
	backends := search.BackendsFromConfig(client, cfg)

	out, err := search.Search(context.Background(), query, backends, cfg, recencyBias, os.Stderr)
	if err != nil {
		return err
	}

	if savePath != "" {
		if err := search.WriteQueryFile(savePath, query, cfg, recencyBias, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved query to %s\n", savePath)
	}

	switch format {
	case "table", "":
		search.FormatTable(out, os.Stdout)
		return nil
	case "json":
		return search.FormatJSON(out, os.Stdout)
	case "csl":
		return search.FormatCSL(out, os.Stdout)
	default:
		return fmt.Errorf("unsupported format %q: use table, json, or csl", format)
	}
}

// queryFromFlags builds a search query from flags and positional arguments.
// Positional arguments join into the free-text query when --query is unset.
func queryFromFlags(cmd *cobra.Command, args []string) (search.Query, error) {
	freeText, _ := cmd.Flags().GetString("query")
	if freeText == "" && len(args) > 0 {
		freeText = strings.Join(args, " ")
	}

	author, _ := cmd.Flags().GetString("author")
	keywordsRaw, _ := cmd.Flags().GetString("keywords")

	q := search.Query{
		FreeText: freeText,
		Author:   author,
	}
	for _, kw := range strings.Split(keywordsRaw, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			q.Keywords = append(q.Keywords, kw)
		}
	}

	from, _ := cmd.Flags().GetString("from")
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return q, fmt.Errorf("invalid --from date %q: use YYYY-MM-DD", from)
		}
		q.DateFrom = t
	}
	to, _ := cmd.Flags().GetString("to")
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return q, fmt.Errorf("invalid --to date %q: use YYYY-MM-DD", to)
		}
		q.DateTo = t
	}

	return q, nil
}

// applyBackendSelection enables backends from the --backends flag, or all
// backends when the flag is empty.
func applyBackendSelection(cfg *types.SearchConfig, cmd *cobra.Command) error {
	raw, _ := cmd.Flags().GetString("backends")
	if raw == "" {
		cfg.EnableArxiv = true
		cfg.EnableSemanticScholar = true
		cfg.EnableOpenAlex = true
		cfg.EnableCrossRef = true
		return nil
	}

	for _, name := range strings.Split(raw, ",") {
		switch strings.TrimSpace(name) {
		case "arxiv":
			cfg.EnableArxiv = true
		case "semantic-scholar":
			cfg.EnableSemanticScholar = true
		case "openalex":
			cfg.EnableOpenAlex = true
		case "crossref":
			cfg.EnableCrossRef = true
		case "":
		default:
			return fmt.Errorf("unknown backend %q: use arxiv, semantic-scholar, openalex, or crossref", name)
		}
	}
	return nil
}
