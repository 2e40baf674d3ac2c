// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-scraper/internal/pdf"
	"github.com/pdiddy/paper-scraper/internal/text"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [pdfs...]",
	Short: "Check that downloaded PDFs are valid",
	Long: `Verify checks each PDF's header and trailer markers to catch truncated
downloads and HTML error pages saved with a .pdf extension. With no
arguments, all PDFs under papers/raw/ are checked.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().String("papers-dir", "papers", "base directory for papers")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	papersDir, _ := cmd.Flags().GetString("papers-dir")

	pdfPaths := args
	if len(pdfPaths) == 0 {
		var err error
		pdfPaths, err = text.ListRawPDFs(papersDir)
		if err != nil {
			return err
		}
		if len(pdfPaths) == 0 {
			fmt.Fprintln(os.Stdout, "No PDFs found.")
			return nil
		}
	}

	invalid := 0
	for _, path := range pdfPaths {
		ok, err := pdf.Check(path)
		name := filepath.Base(path)
		switch {
		case err != nil:
			fmt.Fprintf(os.Stdout, "error:   %s (%v)\n", name, err)
			invalid++
		case !ok:
			fmt.Fprintf(os.Stdout, "invalid: %s\n", name)
			invalid++
		default:
			fmt.Fprintf(os.Stdout, "ok:      %s\n", name)
		}
	}

	fmt.Fprintf(os.Stdout, "\n%d checked, %d invalid\n", len(pdfPaths), invalid)
	if invalid > 0 {
		return fmt.Errorf("%d invalid PDF(s)", invalid)
	}
	return nil
}
