// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// TextStatus indicates the state of PDF text extraction for a paper.
type TextStatus string

const (
	TextNone   TextStatus = "none"
	TextDone   TextStatus = "extracted"
	TextFailed TextStatus = "failed"
)

// Paper holds metadata and file paths for a scraped paper.
type Paper struct {
	// ID is a slug derived from the paper identifier (e.g. "2301.07041").
	ID string `json:"id" yaml:"id"`

	// SourceURL is the URL from which the PDF was downloaded.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// PDFPath is the local filesystem path to the downloaded PDF.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Date is the publication or preprint date.
	Date time.Time `json:"date" yaml:"date"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Source identifies how the PDF was located
	// (e.g. "arxiv", "doi", "openalex", "landing_page", "url").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// TextStatus tracks whether the PDF text has been extracted to Markdown.
	TextStatus TextStatus `json:"text_status" yaml:"text_status"`
}
