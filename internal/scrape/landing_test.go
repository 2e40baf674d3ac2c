// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"errors"
	"testing"
)

func TestSearchPDFLink(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		want    string
		wantErr bool
	}{
		{
			"plain pdf href",
			`<a href="/content/paper.pdf">PDF</a>`,
			"/content/paper.pdf",
			false,
		},
		{
			"absolute pdf href",
			`<a href="https://cdn.example.com/p/123.pdf">Download</a>`,
			"https://cdn.example.com/p/123.pdf",
			false,
		},
		{
			"epdf rewritten to pdf",
			`<a href="https://www.nature.com/articles/s41586.epdf">view</a>`,
			"https://www.nature.com/articles/s41586.pdf",
			false,
		},
		{
			"epdf in path and extension both rewritten",
			`<a href="https://onlinelibrary.example.com/doi/epdf/10.1002/paper.epdf">view</a>`,
			"https://onlinelibrary.example.com/doi/pdf/10.1002/paper.pdf",
			false,
		},
		{
			"pdf preferred over epdf",
			`<a href="/a.epdf">x</a> <a href="/b.pdf">y</a>`,
			"/b.pdf",
			false,
		},
		{
			"no link",
			`<html><body>subscribe to read</body></html>`,
			"",
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := searchPDFLink(tt.html)
			if tt.wantErr {
				if !errors.Is(err, ErrNoPDFLink) {
					t.Fatalf("err = %v, want ErrNoPDFLink", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("searchPDFLink: %v", err)
			}
			if got != tt.want {
				t.Errorf("searchPDFLink = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolvePDFLink(t *testing.T) {
	tests := []struct {
		name    string
		pageURL string
		link    string
		want    string
	}{
		{
			"absolute link unchanged",
			"https://www.nature.com/articles/abc",
			"https://cdn.nature.com/p.pdf",
			"https://cdn.nature.com/p.pdf",
		},
		{
			"rooted relative link",
			"https://www.nature.com/articles/abc",
			"/articles/p.pdf",
			"https://www.nature.com/articles/p.pdf",
		},
		{
			"bare relative link",
			"https://www.nature.com/articles/abc",
			"p.pdf",
			"https://www.nature.com/p.pdf",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolvePDFLink(tt.pageURL, tt.link)
			if err != nil {
				t.Fatalf("resolvePDFLink: %v", err)
			}
			if got != tt.want {
				t.Errorf("resolvePDFLink = %q, want %q", got, tt.want)
			}
		})
	}
}
