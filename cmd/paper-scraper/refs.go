// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-scraper/internal/refs"
)

var refsCmd = &cobra.Command{
	Use:   "refs [markdown files...]",
	Short: "Parse references and citations from extracted paper text",
	Long: `Refs scans extracted Markdown for a References/Bibliography section and
inline citations, links citations to their reference entries, and writes a
YAML report per paper to papers/refs/.

With no arguments, all Markdown files under papers/markdown/ are processed.`,
	RunE: runRefs,
}

func init() {
	refsCmd.Flags().String("papers-dir", "papers", "base directory for papers")

	rootCmd.AddCommand(refsCmd)
}

func runRefs(cmd *cobra.Command, args []string) error {
	papersDir, _ := cmd.Flags().GetString("papers-dir")

	mdPaths := args
	if len(mdPaths) == 0 {
		var err error
		mdPaths, err = filepath.Glob(filepath.Join(papersDir, "markdown", "*.md"))
		if err != nil {
			return fmt.Errorf("listing markdown files: %w", err)
		}
		if len(mdPaths) == 0 {
			fmt.Fprintln(os.Stdout, "No extracted papers found.")
			return nil
		}
	}

	outDir := filepath.Join(papersDir, "refs")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating refs directory: %w", err)
	}

	failed := 0
	for _, mdPath := range mdPaths {
		paperID := strings.TrimSuffix(filepath.Base(mdPath), filepath.Ext(mdPath))

		report, err := refs.ProcessFile(paperID, mdPath)
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed:  %s (%v)\n", paperID, err)
			failed++
			continue
		}

		outPath := filepath.Join(outDir, paperID+".yaml")
		if err := refs.WriteReport(report, outPath); err != nil {
			fmt.Fprintf(os.Stdout, "failed:  %s (%v)\n", paperID, err)
			failed++
			continue
		}

		fmt.Fprintf(os.Stdout, "parsed:  %s (%d references, %d citations)\n",
			paperID, len(report.References), len(report.Citations))
	}

	if failed > 0 {
		return fmt.Errorf("%d paper(s) failed reference parsing", failed)
	}
	return nil
}
