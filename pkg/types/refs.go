// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Reference represents a parsed entry from a paper's reference section.
type Reference struct {
	// Key is the reference label as it appears in the paper (e.g. "1", "Smith2020").
	Key string `json:"key" yaml:"key"`

	// Authors lists the cited work's authors.
	Authors []string `json:"authors" yaml:"authors"`

	// Title is the cited work's title.
	Title string `json:"title" yaml:"title"`

	// Year is the publication year.
	Year string `json:"year" yaml:"year"`

	// Venue is the journal, conference, or publisher.
	Venue string `json:"venue" yaml:"venue"`

	// DOI is the cited work's DOI when one appears in the entry text.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`
}

// Citation represents an inline reference within extracted paper text,
// linking it to a Reference entry.
type Citation struct {
	// Key is the inline reference identifier as it appears in the text
	// (e.g. "1" for "[1]", "Smith et al., 2020").
	Key string `json:"key" yaml:"key"`

	// RefIndex is the zero-based index into the parsed reference list for
	// the matching entry. A value of -1 indicates no match was found.
	RefIndex int `json:"ref_index" yaml:"ref_index"`

	// Context is the surrounding text where the citation appears.
	Context string `json:"context" yaml:"context"`
}
