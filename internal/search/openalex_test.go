package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sampleOpenAlexJSON = `{
  "meta": {"count": 2, "per_page": 20, "page": 1},
  "results": [
    {
      "id": "https://openalex.org/W2741809807",
      "title": "Attention Is All You Need",
      "doi": "https://doi.org/10.5555/3295222.3295349",
      "publication_date": "2017-06-12",
      "publication_year": 2017,
      "authorships": [
        {"author": {"id": "https://openalex.org/A1", "display_name": "Ashish Vaswani"}},
        {"author": {"id": "https://openalex.org/A2", "display_name": "Noam Shazeer"}}
      ],
      "abstract_inverted_index": {"We": [0], "propose": [1], "attention": [2]}
    },
    {
      "id": "https://openalex.org/W99",
      "title": "No DOI Paper",
      "publication_year": 2020,
      "authorships": []
    }
  ]
}`

func TestOpenAlexBackendSearch(t *testing.T) {
	var gotMailto string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMailto = r.URL.Query().Get("mailto")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, sampleOpenAlexJSON)
	}))
	defer ts.Close()

	old := openAlexSearchBase
	openAlexSearchBase = ts.URL
	defer func() { openAlexSearchBase = old }()

	b := &OpenAlexBackend{Client: ts.Client(), Email: "alex@example.com"}
	results, err := b.Search(context.Background(), Query{FreeText: "attention"}, testCfg())
	if err != nil {
		t.Fatalf("OpenAlexBackend.Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if gotMailto != "alex@example.com" {
		t.Errorf("mailto = %q, want polite pool email", gotMailto)
	}

	r0 := results[0]
	if r0.Identifier != "10.5555/3295222.3295349" {
		t.Errorf("Identifier = %q, want bare DOI", r0.Identifier)
	}
	if r0.PreferredScrapeID != "10.5555/3295222.3295349" {
		t.Errorf("PreferredScrapeID = %q", r0.PreferredScrapeID)
	}
	if r0.Abstract != "We propose attention" {
		t.Errorf("Abstract = %q, want reconstructed text", r0.Abstract)
	}
	if len(r0.Authors) != 2 {
		t.Errorf("len(Authors) = %d, want 2", len(r0.Authors))
	}
	if !r0.Date.Equal(time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", r0.Date)
	}

	// Falls back to the OpenAlex work ID when no DOI is present, and to
	// January 1 of publication_year when no date is present.
	r1 := results[1]
	if r1.Identifier != "https://openalex.org/W99" {
		t.Errorf("Identifier = %q, want OpenAlex ID", r1.Identifier)
	}
	if r1.Date.Year() != 2020 {
		t.Errorf("Date.Year() = %d, want 2020", r1.Date.Year())
	}
}

func TestOpenAlexDateFilter(t *testing.T) {
	var gotFilter string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("filter")
		fmt.Fprint(w, `{"meta": {}, "results": []}`)
	}))
	defer ts.Close()

	old := openAlexSearchBase
	openAlexSearchBase = ts.URL
	defer func() { openAlexSearchBase = old }()

	b := &OpenAlexBackend{Client: ts.Client()}
	q := Query{
		FreeText: "test",
		DateFrom: time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	if _, err := b.Search(context.Background(), q, testCfg()); err != nil {
		t.Fatalf("Search: %v", err)
	}

	want := "from_publication_date:2020-01-15,to_publication_date:2023-12-31"
	if gotFilter != want {
		t.Errorf("filter = %q, want %q", gotFilter, want)
	}
}

func TestOpenAlexHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server error", http.StatusInternalServerError)
	}))
	defer ts.Close()

	old := openAlexSearchBase
	openAlexSearchBase = ts.URL
	defer func() { openAlexSearchBase = old }()

	b := &OpenAlexBackend{Client: ts.Client()}
	if _, err := b.Search(context.Background(), Query{FreeText: "test"}, testCfg()); err == nil {
		t.Error("expected error on HTTP 500")
	}
}

func TestReconstructAbstract(t *testing.T) {
	tests := []struct {
		name  string
		index map[string][]int
		want  string
	}{
		{
			"simple",
			map[string][]int{"We": {0}, "propose": {1}, "attention": {2}},
			"We propose attention",
		},
		{
			"repeated word",
			map[string][]int{"the": {0, 2}, "cat": {1}, "sat": {3}},
			"the cat the sat",
		},
		{"empty", map[string][]int{}, ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reconstructAbstract(tt.index)
			if got != tt.want {
				t.Errorf("reconstructAbstract = %q, want %q", got, tt.want)
			}
		})
	}
}
