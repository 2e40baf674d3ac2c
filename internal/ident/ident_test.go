// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ident

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType Type
		wantNorm string
	}{
		{"arxiv bare", "2301.07041", TypeArxiv, "2301.07041"},
		{"arxiv prefixed", "arXiv:2301.07041", TypeArxiv, "2301.07041"},
		{"arxiv versioned", "2301.07041v2", TypeArxiv, "2301.07041v2"},
		{"arxiv five digit", "2301.12345", TypeArxiv, "2301.12345"},
		{"doi simple", "10.1145/1234567.1234568", TypeDOI, "10.1145/1234567.1234568"},
		{"doi nature", "10.1038/s41586-024-07487-w", TypeDOI, "10.1038/s41586-024-07487-w"},
		{"url https", "https://example.com/paper.pdf", TypeURL, "https://example.com/paper.pdf"},
		{"url http", "http://example.com/paper.pdf", TypeURL, "http://example.com/paper.pdf"},
		{"unknown bare word", "not-an-id", TypeUnknown, "not-an-id"},
		{"unknown empty", "", TypeUnknown, ""},
		{"whitespace trimmed", "  2301.07041  ", TypeArxiv, "2301.07041"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotNorm := Classify(tt.input)
			if gotType != tt.wantType {
				t.Errorf("Classify(%q) type = %v, want %v", tt.input, gotType, tt.wantType)
			}
			if gotNorm != tt.wantNorm {
				t.Errorf("Classify(%q) norm = %q, want %q", tt.input, gotNorm, tt.wantNorm)
			}
		})
	}
}

func TestFindDOI(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"doi.org url", "https://doi.org/10.1038/s41586-024-07487-w", "10.1038/s41586-024-07487-w", true},
		{"publisher url", "https://journals.example.com/article/10.1145/3292500.3330701", "10.1145/3292500.3330701", true},
		{"percent encoded", "https://doi.org/10.1002%2Fadma.202000000", "10.1002/adma.202000000", true},
		{"no doi", "https://example.com/paper.pdf", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindDOI(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("FindDOI(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("FindDOI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEncodeID(t *testing.T) {
	id := EncodeID("10.1038/s41586-024-07487-w")
	if len(id) != 16 {
		t.Errorf("EncodeID length = %d, want 16", len(id))
	}
	// Case-insensitive: uppercase input hashes the same.
	if got := EncodeID("10.1038/S41586-024-07487-W"); got != id {
		t.Errorf("EncodeID not case-insensitive: %q != %q", got, id)
	}
	if other := EncodeID("10.1038/different"); other == id {
		t.Error("EncodeID collision for distinct inputs")
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name     string
		idType   Type
		norm     string
		wantSlug string
	}{
		{"arxiv", TypeArxiv, "2301.07041", "2301.07041"},
		{"doi", TypeDOI, "10.1145/1234567.1234568", "10.1145-1234567.1234568"},
		{"url with filename", TypeURL, "https://example.com/my-paper.pdf", "my-paper"},
		{"url no filename", TypeURL, "https://example.com/", "url-" + EncodeID("https://example.com/")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slug(tt.idType, tt.norm)
			if got != tt.wantSlug {
				t.Errorf("Slug(%v, %q) = %q, want %q", tt.idType, tt.norm, got, tt.wantSlug)
			}
		})
	}
}

func TestSchemeHostname(t *testing.T) {
	got, err := SchemeHostname("https://www.nature.com/articles/s41586-024-07487-w?foo=bar#sec1")
	if err != nil {
		t.Fatalf("SchemeHostname: %v", err)
	}
	if got != "https://www.nature.com" {
		t.Errorf("SchemeHostname = %q, want %q", got, "https://www.nature.com")
	}
}
