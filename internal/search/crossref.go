// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/paper-scraper/pkg/types"
)

// crossrefSearchBase is the CrossRef Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var crossrefSearchBase = "https://api.crossref.org/works"

// CrossRefBackend queries the CrossRef REST API. An optional Plus API token
// routes requests through CrossRef's premium pool.
type CrossRefBackend struct {
	Client *http.Client
	APIKey string
}

// Name returns the backend identifier.
func (b *CrossRefBackend) Name() string { return "crossref" }

// Search queries the CrossRef works endpoint and returns ranked results.
func (b *CrossRefBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.SearchResult, error) {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	params := url.Values{
		"rows": {fmt.Sprintf("%d", maxResults)},
	}

	bibliographic := buildCrossRefQuery(query)
	if bibliographic == "" && query.Author == "" {
		return nil, fmt.Errorf("empty CrossRef query")
	}
	if bibliographic != "" {
		params.Set("query.bibliographic", bibliographic)
	}
	if query.Author != "" {
		params.Set("query.author", query.Author)
	}

	var filters []string
	if !query.DateFrom.IsZero() {
		filters = append(filters, "from-pub-date:"+query.DateFrom.Format("2006-01-02"))
	}
	if !query.DateTo.IsZero() {
		filters = append(filters, "until-pub-date:"+query.DateTo.Format("2006-01-02"))
	}
	if len(filters) > 0 {
		params.Set("filter", strings.Join(filters, ","))
	}

	reqURL := crossrefSearchBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if b.APIKey != "" {
		req.Header.Set("Crossref-Plus-API-Token", "Bearer "+b.APIKey)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("CrossRef API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CrossRef API returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing CrossRef response: %w", err)
	}

	total := len(cr.Message.Items)
	var results []types.SearchResult
	for i, item := range cr.Message.Items {
		if item.DOI == "" {
			continue
		}

		r := types.SearchResult{
			Identifier:        item.DOI,
			Source:            "crossref",
			PreferredScrapeID: item.DOI,
			Abstract:          stripJATSMarkup(item.Abstract),
			RelevanceScore:    positionScore(i, total),
		}

		if len(item.Title) > 0 {
			r.Title = strings.TrimSpace(item.Title[0])
		}

		for _, a := range item.Author {
			name := strings.TrimSpace(a.Given + " " + a.Family)
			if name != "" {
				r.Authors = append(r.Authors, name)
			}
		}

		r.Date = crossrefDate(item.Issued)

		results = append(results, r)
	}
	return results, nil
}

// buildCrossRefQuery combines free text and keywords into the bibliographic
// query string. Author goes into its own query.author parameter.
func buildCrossRefQuery(q Query) string {
	var parts []string
	if q.FreeText != "" {
		parts = append(parts, q.FreeText)
	}
	parts = append(parts, q.Keywords...)
	return strings.Join(parts, " ")
}

// jatsTagPattern matches JATS XML tags CrossRef embeds in abstracts.
var jatsTagPattern = regexp.MustCompile(`</?jats:[^>]+>`)

// stripJATSMarkup removes JATS tags from a CrossRef abstract.
func stripJATSMarkup(abstract string) string {
	return strings.TrimSpace(jatsTagPattern.ReplaceAllString(abstract, ""))
}

// crossrefDate converts a CrossRef date-parts value into a time.Time.
// Missing month or day default to January 1.
func crossrefDate(d crossrefDateParts) time.Time {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return time.Time{}
	}
	parts := d.DateParts[0]
	year := parts[0]
	month, day := 1, 1
	if len(parts) > 1 {
		month = parts[1]
	}
	if len(parts) > 2 {
		day = parts[2]
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// CrossRef API JSON structures.
type crossrefSearchResponse struct {
	Message crossrefMessage `json:"message"`
}

type crossrefMessage struct {
	TotalResults int                  `json:"total-results"`
	Items        []crossrefSearchItem `json:"items"`
}

type crossrefSearchItem struct {
	DOI      string            `json:"DOI"`
	Title    []string          `json:"title"`
	Abstract string            `json:"abstract"`
	Author   []crossrefName    `json:"author"`
	Issued   crossrefDateParts `json:"issued"`
}

type crossrefName struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDateParts struct {
	DateParts [][]int `json:"date-parts"`
}
