// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package text

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

const binPdftotext = "pdftotext"

// PdftotextExtractor extracts text by running the poppler pdftotext binary.
// Output is plain text rather than structured Markdown, which is good
// enough for full-text indexing.
type PdftotextExtractor struct {
	// bin allows tests to substitute a fake binary.
	bin string
}

// NewPdftotextExtractor creates an extractor backed by the pdftotext binary.
// It verifies the binary is on PATH before returning.
func NewPdftotextExtractor() (*PdftotextExtractor, error) {
	if _, err := exec.LookPath(binPdftotext); err != nil {
		return nil, fmt.Errorf("%s not found on PATH: %w", binPdftotext, err)
	}
	return &PdftotextExtractor{bin: binPdftotext}, nil
}

// Extract runs pdftotext over the PDF and returns its text output.
func (p *PdftotextExtractor) Extract(ctx context.Context, pdfPath string) (string, error) {
	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.bin, "-layout", pdfPath, "-")
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running %s on %s: %w (%s)", p.bin, pdfPath, err, bytes.TrimSpace(stderr.Bytes()))
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("%s produced empty output for %s", p.bin, pdfPath)
	}
	return out.String(), nil
}
