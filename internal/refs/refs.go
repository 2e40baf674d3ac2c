// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package refs parses bibliographic references and inline citations out of
// extracted paper text.
package refs

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-scraper/internal/ident"
	"github.com/pdiddy/paper-scraper/pkg/types"
)

var (
	// numericCiteRe matches numeric citations like [1], [2], [12].
	numericCiteRe = regexp.MustCompile(`\[(\d+)\]`)

	// authorYearCiteRe matches author-year citations like
	// [Smith et al., 2020] or [Smith and Jones, 2019].
	authorYearCiteRe = regexp.MustCompile(`\[([A-Z][a-z]+(?:\s+(?:et\s+al\.|and\s+[A-Z][a-z]+))?(?:,\s*\d{4}))\]`)

	// refEntryRe matches numbered reference entries like:
	// [1] Authors. Title. Venue, Year.
	refEntryRe = regexp.MustCompile(`(?m)^\[(\d+)\]\s+(.+)$`)
)

// Report holds everything parsed from one paper's text.
type Report struct {
	PaperID    string            `yaml:"paper_id"`
	References []types.Reference `yaml:"references"`
	Citations  []types.Citation  `yaml:"citations"`
}

// ParseCitations scans text for inline citation references and returns
// Citation objects with RefIndex set to -1 (unlinked). Handles numeric
// [N] and author-year [Author, Year] formats.
func ParseCitations(text string) []types.Citation {
	seen := make(map[string]bool)
	var citations []types.Citation

	for _, match := range numericCiteRe.FindAllStringSubmatchIndex(text, -1) {
		key := text[match[2]:match[3]] // capture group 1 (the number)
		fullMatch := text[match[0]:match[1]]
		if seen[fullMatch] {
			continue
		}
		seen[fullMatch] = true
		citations = append(citations, types.Citation{
			Key:      key,
			RefIndex: -1,
			Context:  extractContext(text, match[0], match[1]),
		})
	}

	for _, match := range authorYearCiteRe.FindAllStringSubmatchIndex(text, -1) {
		key := text[match[2]:match[3]]
		fullMatch := text[match[0]:match[1]]
		if seen[fullMatch] {
			continue
		}
		seen[fullMatch] = true
		citations = append(citations, types.Citation{
			Key:      key,
			RefIndex: -1,
			Context:  extractContext(text, match[0], match[1]),
		})
	}

	return citations
}

// extractContext returns a snippet of surrounding text around a citation.
// It takes up to 40 characters before and after the match boundaries.
func extractContext(text string, start, end int) string {
	const window = 40
	ctxStart := start - window
	if ctxStart < 0 {
		ctxStart = 0
	}
	ctxEnd := end + window
	if ctxEnd > len(text) {
		ctxEnd = len(text)
	}
	snippet := text[ctxStart:ctxEnd]
	// Trim to word boundaries.
	if ctxStart > 0 {
		if i := strings.IndexByte(snippet, ' '); i >= 0 && i < window {
			snippet = snippet[i+1:]
		}
	}
	if ctxEnd < len(text) {
		if i := strings.LastIndexByte(snippet, ' '); i >= 0 && i > len(snippet)-window {
			snippet = snippet[:i]
		}
	}
	return strings.TrimSpace(snippet)
}

// ParseReferences extracts reference entries from the references section of
// Markdown content. It looks for a heading containing "references" or
// "bibliography" and parses numbered entries like "[1] Authors. Title.".
// Each entry is also scanned for a DOI.
func ParseReferences(content string) []types.Reference {
	refSection := findReferencesSection(content)
	if refSection == "" {
		return nil
	}

	matches := refEntryRe.FindAllStringSubmatch(refSection, -1)
	if len(matches) == 0 {
		return nil
	}

	var refs []types.Reference
	for _, m := range matches {
		key := m[1]
		raw := strings.TrimSpace(m[2])
		ref := parseRefEntry(key, raw)
		if doi, ok := ident.FindDOI(raw); ok {
			ref.DOI = doi
		}
		refs = append(refs, ref)
	}
	return refs
}

// findReferencesSection returns the text under a "References" or
// "Bibliography" heading in the Markdown content. Returns empty string when
// no such section exists.
func findReferencesSection(content string) string {
	lines := strings.Split(content, "\n")
	var collecting bool
	var sectionLines []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if isHeading(trimmed) {
			heading := strings.ToLower(stripHeadingPrefix(trimmed))
			if strings.Contains(heading, "references") || strings.Contains(heading, "bibliography") {
				collecting = true
				continue
			}
			if collecting {
				break
			}
		}

		if collecting {
			sectionLines = append(sectionLines, line)
		}
	}

	return strings.Join(sectionLines, "\n")
}

// isHeading reports whether a line is a Markdown heading.
func isHeading(line string) bool {
	return strings.HasPrefix(line, "#")
}

// stripHeadingPrefix removes leading # characters and whitespace.
func stripHeadingPrefix(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, "#"))
}

// authorBlockRe matches an author section like "Smith, A. and Jones, B." or
// "Brown, T. et al." at the start of a reference entry. It captures the
// author block so we can separate it from the title that follows.
var authorBlockRe = regexp.MustCompile(
	`^((?:[A-Z][a-z]+(?:,\s+[A-Z]\.?)?(?:,?\s+(?:and|&)\s+)?)+(?:\s*et\s+al\.)?)\s*[.]?\s+(.+)$`,
)

// parseRefEntry extracts metadata from a raw reference entry string. It uses
// the author block regex to separate authors from the remainder, then splits
// the remainder into title and venue.
func parseRefEntry(key, raw string) types.Reference {
	ref := types.Reference{Key: key}
	ref.Year = extractYear(raw)

	m := authorBlockRe.FindStringSubmatch(raw)
	if m != nil {
		ref.Authors = parseAuthors(strings.TrimRight(m[1], ". "))
		remainder := m[2]
		parts := splitOnPeriods(remainder)
		if len(parts) >= 1 {
			ref.Title = strings.TrimSpace(parts[0])
		}
		if len(parts) >= 2 {
			ref.Venue = cleanVenue(parts[1])
		}
	} else {
		// Fallback: treat first sentence as title.
		parts := splitOnPeriods(raw)
		if len(parts) >= 1 {
			ref.Title = strings.TrimSpace(parts[0])
		}
		if len(parts) >= 2 {
			ref.Venue = cleanVenue(parts[1])
		}
	}

	return ref
}

// yearRe matches a 4-digit year.
var yearRe = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)

// extractYear finds the first 4-digit year (19xx or 20xx) in the text.
func extractYear(text string) string {
	m := yearRe.FindStringSubmatch(text)
	if len(m) >= 2 {
		return m[1]
	}
	return ""
}

// initialRe matches single-letter author initials like "A." or "B." so we
// can protect them from period-based splitting.
var initialRe = regexp.MustCompile(`\b([A-Z])\.`)

// splitOnPeriods splits a reference entry into segments at period
// boundaries, but avoids splitting on common abbreviations (et al., e.g.,
// i.e.) and single-letter initials (A., B., J.).
func splitOnPeriods(text string) []string {
	// Replace common abbreviations with placeholders to avoid false splits.
	safe := strings.ReplaceAll(text, "et al.", "et al\x00")
	safe = strings.ReplaceAll(safe, "e.g.", "e\x00g\x00")
	safe = strings.ReplaceAll(safe, "i.e.", "i\x00e\x00")

	// Protect single-letter initials: "A." becomes "A\x00".
	safe = initialRe.ReplaceAllString(safe, "${1}\x00")

	parts := strings.Split(safe, ". ")

	var result []string
	for _, p := range parts {
		p = strings.ReplaceAll(p, "et al\x00", "et al.")
		p = strings.ReplaceAll(p, "e\x00g\x00", "e.g.")
		p = strings.ReplaceAll(p, "i\x00e\x00", "i.e.")
		p = initialRe.ReplaceAllString(p, "${1}.")
		p = strings.ReplaceAll(p, "\x00", ".")
		p = strings.TrimRight(p, ".")
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// parseAuthors splits an author string like "Smith, A. and Jones, B." into
// individual author names.
func parseAuthors(authorStr string) []string {
	authorStr = strings.TrimSpace(authorStr)
	if authorStr == "" {
		return nil
	}

	var authors []string
	halves := strings.SplitN(authorStr, " and ", 2)
	for _, half := range halves {
		half = strings.TrimSpace(half)
		if half == "" {
			continue
		}
		authors = append(authors, half)
	}

	return authors
}

// cleanVenue extracts the venue from a reference segment, removing year and
// trailing punctuation.
func cleanVenue(text string) string {
	text = strings.TrimSpace(text)
	text = yearRe.ReplaceAllString(text, "")
	text = strings.TrimRight(text, "., ")
	return strings.TrimSpace(text)
}

// LinkCitations matches Citation objects to Reference entries by comparing
// citation keys to reference keys. Numeric citations link to numbered
// reference entries; unmatched citations keep RefIndex -1.
func LinkCitations(citations []types.Citation, references []types.Reference) []types.Citation {
	if len(references) == 0 {
		return citations
	}

	keyIndex := make(map[string]int, len(references))
	for i, ref := range references {
		keyIndex[ref.Key] = i
	}

	linked := make([]types.Citation, len(citations))
	copy(linked, citations)

	for i := range linked {
		if idx, ok := keyIndex[linked[i].Key]; ok {
			linked[i].RefIndex = idx
		}
	}

	return linked
}

// ProcessFile reads an extracted Markdown file, parses its references and
// inline citations, links them, and returns a Report.
func ProcessFile(paperID, mdPath string) (*Report, error) {
	data, err := os.ReadFile(mdPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", mdPath, err)
	}

	content := stripFrontmatter(string(data))
	references := ParseReferences(content)
	citations := LinkCitations(ParseCitations(content), references)

	return &Report{
		PaperID:    paperID,
		References: references,
		Citations:  citations,
	}, nil
}

// WriteReport saves a Report as YAML.
func WriteReport(report *Report, path string) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling refs report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// stripFrontmatter removes a leading YAML frontmatter block, if present.
func stripFrontmatter(content string) string {
	if !strings.HasPrefix(content, "---\n") {
		return content
	}
	rest := content[4:]
	end := strings.Index(rest, "\n---\n")
	if end < 0 {
		return content
	}
	return rest[end+5:]
}
