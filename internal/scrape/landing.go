// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/pdiddy/paper-scraper/internal/ident"
	"github.com/pdiddy/paper-scraper/pkg/types"
)

// ErrNoPDFLink indicates a landing page carried no scrapeable PDF link.
var ErrNoPDFLink = errors.New("no PDF link found")

// landingPageLimit caps how much landing-page HTML we read looking for a link.
const landingPageLimit = 2 << 20 // 2 MiB

var (
	pdfLinkPattern  = regexp.MustCompile(`href="(\S+\.pdf)"`)
	epdfLinkPattern = regexp.MustCompile(`href="(\S+\.epdf)"`)
)

// searchPDFLink scans landing-page HTML for a direct PDF link. Plain .pdf
// hrefs win; .epdf viewer links are rewritten to their .pdf form.
func searchPDFLink(html string) (string, error) {
	if m := pdfLinkPattern.FindStringSubmatch(html); m != nil {
		return m[1], nil
	}
	if m := epdfLinkPattern.FindStringSubmatch(html); m != nil {
		return strings.ReplaceAll(m[1], "epdf", "pdf"), nil
	}
	return "", ErrNoPDFLink
}

// resolvePDFLink makes a scraped href absolute. Relative links are resolved
// against the landing page's scheme://host.
func resolvePDFLink(pageURL, link string) (string, error) {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link, nil
	}
	base, err := ident.SchemeHostname(pageURL)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	return base + link, nil
}

// scrapeLandingPage fetches the page a DOI resolves to and extracts a
// downloadable PDF URL from its HTML.
func scrapeLandingPage(ctx context.Context, client *http.Client, pageURL string, cfg types.ScrapeConfig) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching landing page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("landing page returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, landingPageLimit))
	if err != nil {
		return "", fmt.Errorf("reading landing page: %w", err)
	}

	link, err := searchPDFLink(string(body))
	if err != nil {
		return "", err
	}

	// The redirected URL, not the request URL, is the right base for
	// relative links.
	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return resolvePDFLink(finalURL, link)
}
