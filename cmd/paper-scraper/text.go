// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-scraper/internal/container"
	"github.com/pdiddy/paper-scraper/internal/text"
)

var textCmd = &cobra.Command{
	Use:   "text [pdfs...]",
	Short: "Extract Markdown text from downloaded PDFs",
	Long: `Text extracts plain text from PDF files and writes Markdown with YAML
frontmatter to papers/markdown/. Supports the pdftotext binary and the
markitdown container image (docker or podman) as backends.

With no arguments, all PDFs under papers/raw/ are processed. Papers whose
Markdown output already exists are skipped.`,
	RunE: runText,
}

func init() {
	textCmd.Flags().String("backend", "pdftotext", "extraction backend: pdftotext or markitdown")
	textCmd.Flags().String("papers-dir", "papers", "base directory for papers")

	rootCmd.AddCommand(textCmd)
}

func runText(cmd *cobra.Command, args []string) error {
	backend, _ := cmd.Flags().GetString("backend")
	papersDir, _ := cmd.Flags().GetString("papers-dir")

	extractor, err := newExtractor(backend)
	if err != nil {
		return err
	}

	pdfPaths := args
	if len(pdfPaths) == 0 {
		pdfPaths, err = text.ListRawPDFs(papersDir)
		if err != nil {
			return err
		}
		if len(pdfPaths) == 0 {
			fmt.Fprintln(os.Stdout, "No PDFs found.")
			return nil
		}
	}

	result := text.ExtractPaths(context.Background(), extractor, pdfPaths, papersDir, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d paper(s) failed extraction", result.Failed)
	}
	return nil
}

func newExtractor(backend string) (text.Extractor, error) {
	switch backend {
	case "pdftotext", "":
		e, err := text.NewPdftotextExtractor()
		if err != nil {
			return nil, err
		}
		return e, nil
	case "markitdown":
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		e, err := text.NewMarkitdownExtractor(rt)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unsupported backend %q: use pdftotext or markitdown", backend)
	}
}
