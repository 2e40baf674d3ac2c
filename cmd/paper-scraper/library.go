// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-scraper/internal/library"
	"github.com/pdiddy/paper-scraper/pkg/types"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the paper library index (ingest, query, export)",
	Long: `Library maintains a local SQLite index of scraped papers. Use
subcommands to ingest metadata and extracted text, query the index, or
export it.`,
}

// --- ingest subcommand ---

var libraryIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index paper metadata and extracted text into the library",
	Long: `Ingest reads metadata sidecars from papers/metadata/, pairs each with
its extracted Markdown when present, and indexes both into a SQLite
database with FTS5 full-text search. Unchanged papers are skipped on
subsequent runs.`,
	RunE: runLibraryIngest,
}

func runLibraryIngest(cmd *cobra.Command, args []string) error {
	store, err := library.NewStore(libraryConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d paper(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- query subcommand ---

var libraryQueryCmd = &cobra.Command{
	Use:   "query [query]",
	Short: "Query the library with full-text search and filters",
	Long: `Query searches the library using FTS5 full-text search over title,
abstract, and extracted text, structured filters (source, author, year),
or a combination of both. Full-text matches are ranked by relevance.`,
	RunE: runLibraryQuery,
}

func runLibraryQuery(cmd *cobra.Command, args []string) error {
	store, err := library.NewStore(libraryConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := libraryQueryOpts(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --source, --author, or --year")
	}

	results, err := store.Query(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	library.FormatTable(results, os.Stdout)
	return nil
}

// --- export subcommand ---

var libraryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the library to YAML or JSON",
	Long: `Export writes the full library (or a filtered subset) to
library/index/export.yaml or export.json. Supports the same filter flags
as query for partial exports.`,
	RunE: runLibraryExport,
}

func runLibraryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := library.NewStore(libraryConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := libraryQueryOpts(cmd, args)

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to library/index/export.yaml")
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to library/index/export.json")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func libraryConfig(cmd *cobra.Command) types.LibraryConfig {
	libraryDir, _ := cmd.Flags().GetString("library-dir")
	if libraryDir == "" {
		libraryDir = "library"
	}
	papersDir, _ := cmd.Flags().GetString("papers-dir")
	if papersDir == "" {
		papersDir = "papers"
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return types.LibraryConfig{
		LibraryDir: libraryDir,
		PapersDir:  papersDir,
		MaxResults: maxResults,
	}
}

func libraryQueryOpts(cmd *cobra.Command, args []string) library.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	source, _ := cmd.Flags().GetString("source")
	author, _ := cmd.Flags().GetString("author")
	year, _ := cmd.Flags().GetString("year")
	limit, _ := cmd.Flags().GetInt("limit")

	return library.QueryOptions{
		Query:      queryText,
		Source:     source,
		Author:     author,
		Year:       year,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	libraryCmd.PersistentFlags().String("library-dir", "library", "base directory for the library (contains index/)")
	libraryCmd.PersistentFlags().String("papers-dir", "papers", "base directory for papers (contains metadata/, markdown/)")
	libraryCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Query flags.
	libraryQueryCmd.Flags().String("query", "", "full-text search query")
	libraryQueryCmd.Flags().String("source", "", "filter by source backend (e.g. arxiv)")
	libraryQueryCmd.Flags().String("author", "", "filter by author name substring")
	libraryQueryCmd.Flags().String("year", "", "filter by publication year")
	libraryQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	libraryQueryCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	libraryExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	libraryExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	libraryExportCmd.Flags().String("source", "", "filter by source for partial export")
	libraryExportCmd.Flags().String("author", "", "filter by author for partial export")
	libraryExportCmd.Flags().String("year", "", "filter by year for partial export")
	libraryExportCmd.Flags().Int("limit", 0, "maximum papers to export (0 = all)")

	// Wire subcommands.
	libraryCmd.AddCommand(libraryIngestCmd)
	libraryCmd.AddCommand(libraryQueryCmd)
	libraryCmd.AddCommand(libraryExportCmd)

	rootCmd.AddCommand(libraryCmd)
}
