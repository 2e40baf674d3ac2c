// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-scraper pipeline.
package types

import "time"

// SearchResult represents a candidate paper returned by an academic API query.
type SearchResult struct {
	// Identifier is the canonical ID from the source (arXiv ID, DOI, or URL).
	Identifier string `json:"identifier" yaml:"identifier"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Date is the publication or preprint date.
	Date time.Time `json:"date" yaml:"date"`

	// Source identifies which backend found this result
	// (e.g. "arxiv", "semantic_scholar", "openalex", "crossref").
	Source string `json:"source" yaml:"source"`

	// RelevanceScore is a value between 0.0 and 1.0 indicating relevance to the query.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// PreferredScrapeID is the identifier the scrape stage should use to
	// download this paper: arXiv ID if available, then DOI, then URL.
	PreferredScrapeID string `json:"preferred_scrape_id" yaml:"preferred_scrape_id"`
}
