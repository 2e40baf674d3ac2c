// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ident classifies paper identifiers and derives stable slugs and
// short IDs from them.
package ident

import (
	"crypto/md5" //nolint:gosec // non-cryptographic: stable short IDs only
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// Type classifies an input identifier.
type Type int

const (
	TypeUnknown Type = iota
	TypeArxiv
	TypeDOI
	TypeURL
)

func (t Type) String() string {
	switch t {
	case TypeArxiv:
		return "arxiv"
	case TypeDOI:
		return "doi"
	case TypeURL:
		return "url"
	default:
		return "unknown"
	}
}

// arxivPattern matches arXiv IDs: "2301.07041", "arXiv:2301.07041", "2301.07041v2".
var arxivPattern = regexp.MustCompile(`^(?:arXiv:)?(\d{4}\.\d{4,5}(?:v\d+)?)$`)

// doiPattern matches bare DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/[^\s]+$`)

// doiInTextPattern matches a DOI embedded in a URL path or free text.
// SEE: https://www.crossref.org/blog/dois-and-matching-regular-expressions/
var doiInTextPattern = regexp.MustCompile(
	`(?i)/(10\.\d{4,9}(?:[/.][a-z().-]*(?:[-<>()/;:\w]*\d+[-<>();:\w]*)+)+)`)

// Classify determines the identifier type and returns the normalized form.
// For arXiv, it strips the optional "arXiv:" prefix. Unknown inputs are
// returned unchanged.
func Classify(identifier string) (Type, string) {
	identifier = strings.TrimSpace(identifier)

	if m := arxivPattern.FindStringSubmatch(identifier); m != nil {
		return TypeArxiv, m[1]
	}

	if doiPattern.MatchString(identifier) {
		return TypeDOI, identifier
	}

	if u, err := url.Parse(identifier); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return TypeURL, identifier
	}

	return TypeUnknown, identifier
}

// FindDOI extracts a DOI from arbitrary text, typically a resolver URL or a
// bibliography entry. The text is URL-unquoted before matching. The second
// return value reports whether a DOI was found.
func FindDOI(text string) (string, bool) {
	if unquoted, err := url.PathUnescape(text); err == nil {
		text = unquoted
	}
	m := doiInTextPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// EncodeID returns a 16-character hex digest of the lowercased value,
// suitable as a stable short ID for a DOI or URL.
func EncodeID(value string) string {
	sum := md5.Sum([]byte(strings.ToLower(value))) //nolint:gosec
	return fmt.Sprintf("%x", sum)[:16]
}

// Slug returns a filesystem-safe filename stem for the identifier.
func Slug(idType Type, normalized string) string {
	switch idType {
	case TypeArxiv:
		return normalized
	case TypeDOI:
		return strings.NewReplacer("/", "-", ":", "-").Replace(normalized)
	case TypeURL:
		u, err := url.Parse(normalized)
		if err != nil {
			return "url-" + EncodeID(normalized)
		}
		base := strings.TrimSuffix(filepath.Base(u.Path), filepath.Ext(u.Path))
		if base == "" || base == "." || base == "/" {
			return "url-" + EncodeID(normalized)
		}
		return base
	default:
		return "unknown"
	}
}

// SchemeHostname strips a URL down to scheme://host, dropping path, query,
// and fragment. Used to resolve relative PDF links found on landing pages.
func SchemeHostname(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing URL %q: %w", rawURL, err)
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host}).String(), nil
}
