// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdf validates that downloaded files are plausibly readable PDFs.
// Publishers behind paywalls often answer a PDF request with an HTML error
// page; this check keeps those out of the paper store.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// header is the PDF magic number. The version digits follow it.
var header = []byte("%PDF-")

// trailer marks the end of a well-formed PDF body.
var trailer = []byte("%%EOF")

// tailWindow is how far from the end of the file we look for the trailer.
// Some producers append whitespace or linearization data after %%EOF.
const tailWindow = 1024

// Check reports whether the file at path looks like a readable PDF: it
// exists, starts with the %PDF- magic, and carries an %%EOF marker near the
// end. A missing file is reported as invalid, not as an error; err is
// non-nil only for I/O failures on an existing file.
func Check(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, len(header))
	if _, err := io.ReadFull(f, head); err != nil {
		// Too short to be a PDF.
		return false, nil
	}
	if !bytes.Equal(head, header) {
		return false, nil
	}

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	offset := info.Size() - tailWindow
	if offset < 0 {
		offset = 0
	}
	tail := make([]byte, info.Size()-offset)
	if _, err := f.ReadAt(tail, offset); err != nil && err != io.EOF {
		return false, fmt.Errorf("reading tail of %s: %w", path, err)
	}

	return bytes.Contains(tail, trailer), nil
}
