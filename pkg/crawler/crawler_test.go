package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/berryware/berryrag/pkg/common"
)

// sitePage builds an HTML page with readable body text and a nav list
// of links.
func sitePage(title string, links ...string) string {
	var b strings.Builder
	b.WriteString("<html><head><title>" + title + "</title></head><body>")
	for i, link := range links {
		fmt.Fprintf(&b, `<a href=%q>Linked page number %d</a>`, link, i)
	}
	b.WriteString("<article>")
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&b, "<p>Readable paragraph %d of %s, carrying enough running prose that the readable-content extraction keeps the page and the minimum length check passes without any doubt at all.</p>", i, title)
	}
	b.WriteString("</article></body></html>")
	return b.String()
}

func newSite(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestCrawler() *Crawler {
	return NewCrawler(NewCrawlerParams{HostDelay: time.Millisecond})
}

func TestCrawlBudgetAndDepth(t *testing.T) {
	pages := map[string]string{
		"/": sitePage("Root", "/a", "/b", "/c", "/d", "/e", "/f", "/g"),
	}
	for _, p := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		// Every depth-1 page links onward so the depth bound matters.
		pages["/"+p] = sitePage("Page "+p, "/"+p+"/deep")
		pages["/"+p+"/deep"] = sitePage("Deep "+p, "/"+p+"/deeper")
		pages["/"+p+"/deeper"] = sitePage("Deeper "+p)
	}
	server := newSite(t, pages)

	result, err := newTestCrawler().Crawl(context.Background(), CrawlParams{
		URL:      server.URL + "/",
		Subpages: 5,
		MaxDepth: 2,
	})
	if err != nil {
		t.Fatalf("expected crawl to succeed, got %v", err)
	}
	if result.Metadata.SuccessfulCrawls != 5 || result.Metadata.FailedCrawls != 0 {
		t.Fatalf("expected exactly 5 successes, got %+v", result.Metadata)
	}
	if len(result.Pages()) != 5 {
		t.Fatalf("expected 5 extracted pages, got %d", len(result.Pages()))
	}
	for _, node := range result.Nodes {
		if node.Depth > 2 {
			t.Fatalf("node %q exceeds max depth: %d", node.URL, node.Depth)
		}
		if node.Depth < 1 {
			t.Fatalf("node %q below depth 1: %d", node.URL, node.Depth)
		}
	}
}

func TestCrawlNeverRevisits(t *testing.T) {
	pages := map[string]string{
		"/":  sitePage("Root", "/a", "/b"),
		"/a": sitePage("Page a", "/b", "/a"),
		"/b": sitePage("Page b", "/a"),
	}
	server := newSite(t, pages)

	result, err := newTestCrawler().Crawl(context.Background(), CrawlParams{
		URL:      server.URL + "/",
		Subpages: 10,
		MaxDepth: 3,
	})
	if err != nil {
		t.Fatalf("expected crawl to succeed, got %v", err)
	}
	seen := make(map[string]int)
	for _, node := range result.Nodes {
		seen[NormalizeURL(node.URL)]++
	}
	for u, count := range seen {
		if count > 1 {
			t.Fatalf("url %q visited %d times", u, count)
		}
	}
	if len(result.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(result.Nodes))
	}
}

func TestCrawlPartialFailure(t *testing.T) {
	links := []string{"/a", "/b", "/missing-1", "/c", "/missing-2", "/d", "/e"}
	pages := map[string]string{"/": sitePage("Root", links...)}
	for _, p := range []string{"a", "b", "c", "d", "e"} {
		pages["/"+p] = sitePage("Page " + p)
	}
	server := newSite(t, pages)

	result, err := newTestCrawler().Crawl(context.Background(), CrawlParams{
		URL:      server.URL + "/",
		Subpages: 7,
		MaxDepth: 1,
	})
	if err != nil {
		t.Fatalf("expected partial success, got error %v", err)
	}
	if result.Metadata.SuccessfulCrawls != 5 || result.Metadata.FailedCrawls != 2 {
		t.Fatalf("expected 5 successes and 2 failures, got %+v", result.Metadata)
	}
	failed := 0
	for _, node := range result.Nodes {
		if node.State == NodeFailed {
			failed++
			if node.Error == "" {
				t.Fatalf("expected failure reason on node %q", node.URL)
			}
		}
	}
	if failed != 2 {
		t.Fatalf("expected 2 failed nodes, got %d", failed)
	}
}

func TestCrawlKeywordSelection(t *testing.T) {
	pages := map[string]string{
		"/":         sitePage("Root", "/news", "/tutorial", "/about"),
		"/news":     sitePage("News"),
		"/tutorial": sitePage("Tutorial"),
		"/about":    sitePage("About"),
	}
	server := newSite(t, pages)

	result, err := newTestCrawler().Crawl(context.Background(), CrawlParams{
		URL:      server.URL + "/",
		Subpages: 1,
		MaxDepth: 1,
		Keywords: []string{"tutorial"},
	})
	if err != nil {
		t.Fatalf("expected crawl to succeed, got %v", err)
	}
	if len(result.Nodes) != 1 || !strings.HasSuffix(result.Nodes[0].URL, "/tutorial") {
		t.Fatalf("expected the tutorial page to be selected, got %+v", result.Nodes)
	}
}

func TestCrawlRecordsPath(t *testing.T) {
	pages := map[string]string{
		"/":         sitePage("Root", "/mid"),
		"/mid":      sitePage("Mid", "/mid/leaf"),
		"/mid/leaf": sitePage("Leaf"),
	}
	server := newSite(t, pages)

	result, err := newTestCrawler().Crawl(context.Background(), CrawlParams{
		URL:      server.URL + "/",
		Subpages: 2,
		MaxDepth: 2,
	})
	if err != nil {
		t.Fatalf("expected crawl to succeed, got %v", err)
	}
	if len(result.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(result.Nodes))
	}
	leaf := result.Nodes[1]
	if leaf.Depth != 2 || len(leaf.Path) != 3 {
		t.Fatalf("expected depth-2 node with 3-step path, got %+v", leaf)
	}
	if !strings.HasSuffix(leaf.ParentURL, "/mid") {
		t.Fatalf("expected parent /mid, got %q", leaf.ParentURL)
	}
}

// cancellingFetcher cancels the run's context after a fixed number of
// fetches.
type cancellingFetcher struct {
	inner   Fetcher
	cancel  context.CancelFunc
	after   int32
	fetched atomic.Int32
}

func (f *cancellingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, err := f.inner.Fetch(ctx, url)
	if f.fetched.Add(1) >= f.after {
		f.cancel()
	}
	return body, err
}

func TestCrawlCancellationReturnsPartialResult(t *testing.T) {
	pages := map[string]string{"/": sitePage("Root", "/a", "/b", "/c", "/d")}
	for _, p := range []string{"a", "b", "c", "d"} {
		pages["/"+p] = sitePage("Page " + p)
	}
	server := newSite(t, pages)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fetcher := &cancellingFetcher{
		inner:  NewHTTPFetcher(NewHTTPFetcherParams{}),
		cancel: cancel,
		after:  3, // root plus two subpages
	}
	crawler := NewCrawler(NewCrawlerParams{Fetcher: fetcher, HostDelay: time.Millisecond})

	result, err := crawler.Crawl(ctx, CrawlParams{
		URL:      server.URL + "/",
		Subpages: 4,
		MaxDepth: 1,
	})
	if err != nil {
		t.Fatalf("expected partial result on cancellation, got error %v", err)
	}
	if !result.Metadata.Cancelled {
		t.Fatal("expected run to be marked cancelled")
	}
	if result.Metadata.SuccessfulCrawls != 2 {
		t.Fatalf("expected 2 subpages before cancellation, got %d", result.Metadata.SuccessfulCrawls)
	}
}

func TestCrawlValidation(t *testing.T) {
	crawler := newTestCrawler()
	tests := []struct {
		name   string
		params CrawlParams
	}{
		{"empty url", CrawlParams{}},
		{"subpages over limit", CrawlParams{URL: "https://example.com", Subpages: 21}},
		{"negative subpages", CrawlParams{URL: "https://example.com", Subpages: -1}},
		{"depth over limit", CrawlParams{URL: "https://example.com", MaxDepth: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := crawler.Crawl(context.Background(), tt.params)
			var ve *common.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestCrawlRootFetchErrorPropagates(t *testing.T) {
	server := newSite(t, map[string]string{})

	_, err := newTestCrawler().Crawl(context.Background(), CrawlParams{
		URL:      server.URL + "/nope",
		Subpages: 2,
	})
	var fe *common.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError for root, got %v", err)
	}
	if fe.Status != http.StatusNotFound {
		t.Fatalf("expected 404 on the error, got %d", fe.Status)
	}
}

func TestPreviewURL(t *testing.T) {
	server := newSite(t, map[string]string{"/": sitePage("Preview Target")})

	preview, err := newTestCrawler().PreviewURL(context.Background(), server.URL+"/", 120)
	if err != nil {
		t.Fatalf("expected preview to succeed, got %v", err)
	}
	if len(preview.Text) > 120 {
		t.Fatalf("expected at most 120 chars, got %d", len(preview.Text))
	}
	if strings.HasSuffix(preview.Text, " ") {
		t.Fatal("expected trimmed preview text")
	}
	if !preview.Truncated {
		t.Fatal("expected preview to be marked truncated")
	}
	if preview.Title != "Preview Target" {
		t.Fatalf("expected title, got %q", preview.Title)
	}
}

func TestExtractLinksFromURL(t *testing.T) {
	server := newSite(t, map[string]string{
		"/": sitePage("Root", "/tutorial", "/about", "/news"),
	})
	crawler := newTestCrawler()

	links, err := crawler.ExtractLinksFromURL(context.Background(), server.URL+"/", []string{"tutorial"}, 10)
	if err != nil {
		t.Fatalf("expected extraction to succeed, got %v", err)
	}
	if len(links) != 3 {
		t.Fatalf("expected 3 scored links, got %d", len(links))
	}
	if !strings.HasSuffix(links[0].URL, "/tutorial") {
		t.Fatalf("expected keyword match ranked first, got %q", links[0].URL)
	}

	if _, err := crawler.ExtractLinksFromURL(context.Background(), server.URL+"/", nil, 51); err == nil {
		t.Fatal("expected validation error for max_links over limit")
	}
}

func TestExtractPageTooShort(t *testing.T) {
	_, err := ExtractPage([]byte("<html><body><p>tiny</p></body></html>"), "https://example.com/x", 0)
	var xe *common.ExtractionError
	if !errors.As(err, &xe) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}

func TestExtractPageMetadata(t *testing.T) {
	page := `<html lang="en"><head>
		<title>Fallback Title</title>
		<meta property="og:title" content="OG Title">
		<meta name="description" content="A descriptive excerpt.">
		<meta name="author" content="Jane Writer">
		<script type="application/ld+json">{"headline": "LD Headline", "datePublished": "2024-03-01",}</script>
	</head><body><article>` +
		strings.Repeat("<p>Body prose long enough that the readable-content extraction keeps this page and the minimum length check passes without any doubt at all.</p>", 8) +
		`</article></body></html>`

	extracted, err := ExtractPage([]byte(page), "https://example.com/article", 0)
	if err != nil {
		t.Fatalf("expected extraction to succeed, got %v", err)
	}
	if extracted.Title != "OG Title" {
		t.Fatalf("expected og:title to win, got %q", extracted.Title)
	}
	if extracted.Excerpt != "A descriptive excerpt." {
		t.Fatalf("expected meta description excerpt, got %q", extracted.Excerpt)
	}
	if extracted.Author != "Jane Writer" {
		t.Fatalf("expected author, got %q", extracted.Author)
	}
	// The JSON-LD block has a trailing comma and only parses after
	// repair.
	if extracted.PublishedTime != "2024-03-01" {
		t.Fatalf("expected repaired JSON-LD date, got %q", extracted.PublishedTime)
	}
	if extracted.Language != "en" {
		t.Fatalf("expected language, got %q", extracted.Language)
	}
}
