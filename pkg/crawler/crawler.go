// Package crawler implements guided subpage discovery: link scoring,
// depth-bounded score-first crawling with a global subpage budget,
// per-host rate limiting and readable-content extraction.
package crawler

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/berryware/berryrag/internal/timing"
	"github.com/berryware/berryrag/internal/util"
	"github.com/berryware/berryrag/pkg/common"
	"github.com/berryware/berryrag/pkg/logger"
)

const (
	DefaultMaxDepth  = 2
	MaxDepthLimit    = 3
	MaxSubpages      = 20
	DefaultHostDelay = time.Second
)

// NodeState is the lifecycle of one crawl node. A node is created
// Pending when selected, moves through Fetching and ends Extracted or
// Failed; either way it is terminal and never revisited.
type NodeState string

const (
	NodePending   NodeState = "pending"
	NodeFetching  NodeState = "fetching"
	NodeExtracted NodeState = "extracted"
	NodeFailed    NodeState = "failed"
)

// CrawlNode is one selected subpage in a crawl run.
type CrawlNode struct {
	URL       string    `json:"url"`
	Depth     int       `json:"depth"`
	ParentURL string    `json:"parent_url"`
	Path      []string  `json:"path"`
	Score     float64   `json:"score"`
	State     NodeState `json:"state"`
	Error     string    `json:"error,omitempty"`
	Page      *Page     `json:"page,omitempty"`
}

// CrawlParams describes one crawl run.
type CrawlParams struct {
	// URL is the root to crawl from.
	URL string
	// Subpages is the total budget N of subpages selected across the
	// whole run, 0..20. Zero means root only.
	Subpages int
	// Keywords bias link selection toward matching candidates.
	Keywords []string
	// MaxDepth bounds link-hops from the root, 1..3. Zero picks the
	// default.
	MaxDepth int
}

// CrawlMetadata is the run summary reported alongside the results.
type CrawlMetadata struct {
	RequestID         string         `json:"request_id"`
	RequestedSubpages int            `json:"requested_subpages"`
	SuccessfulCrawls  int            `json:"successful_crawls"`
	FailedCrawls      int            `json:"failed_crawls"`
	MaxDepth          int            `json:"max_depth"`
	DurationMs        int64          `json:"duration_ms"`
	Stages            []timing.Stage `json:"stages,omitempty"`
	Cancelled         bool           `json:"cancelled,omitempty"`
}

// CrawlResult is the outcome of one run: the root page, every selected
// node in visit order (extracted and failed), and the run summary.
// Subpage failures never fail the run; they are tallied in Metadata.
type CrawlResult struct {
	Root     *Page         `json:"root"`
	Nodes    []*CrawlNode  `json:"nodes"`
	Metadata CrawlMetadata `json:"metadata"`
}

// Pages returns the successfully extracted subpages in visit order.
func (r *CrawlResult) Pages() []*Page {
	out := make([]*Page, 0, len(r.Nodes))
	for _, node := range r.Nodes {
		if node.State == NodeExtracted && node.Page != nil {
			out = append(out, node.Page)
		}
	}
	return out
}

// Crawler discovers and extracts subpages. Fetching is rate limited per
// host; one Crawler may serve many runs concurrently.
type Crawler struct {
	fetcher   Fetcher
	hostDelay time.Duration
	maxLinks  int

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
}

// NewCrawlerParams configures NewCrawler. A nil Fetcher gets a default
// HTTP fetcher; zero values pick the defaults.
type NewCrawlerParams struct {
	Fetcher Fetcher
	// HostDelay is the minimum spacing between consecutive fetches to
	// the same host.
	HostDelay       time.Duration
	MaxLinksPerPage int
}

// NewCrawler creates a Crawler.
func NewCrawler(params NewCrawlerParams) *Crawler {
	fetcher := params.Fetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher(NewHTTPFetcherParams{})
	}
	hostDelay := params.HostDelay
	if hostDelay <= 0 {
		hostDelay = DefaultHostDelay
	}
	maxLinks := params.MaxLinksPerPage
	if maxLinks <= 0 {
		maxLinks = DefaultMaxLinks
	}
	return &Crawler{
		fetcher:   fetcher,
		hostDelay: hostDelay,
		maxLinks:  maxLinks,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// crawlRun is the shared mutable state of one run: the visited set and
// the remaining subpage budget, both only touched under the mutex. No
// lock is held across a fetch.
type crawlRun struct {
	mu        sync.Mutex
	visited   map[string]struct{}
	remaining int
	nodes     []*CrawlNode
	cancelled bool
}

// reserve claims a budget slot for a not-yet-visited URL. It returns
// false when the URL was already visited or the budget is spent.
func (r *crawlRun) reserve(normalizedURL string) (ok, budgetLeft bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.remaining <= 0 {
		return false, false
	}
	if _, seen := r.visited[normalizedURL]; seen {
		return false, true
	}
	r.visited[normalizedURL] = struct{}{}
	r.remaining--
	return true, true
}

func (r *crawlRun) record(node *CrawlNode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = append(r.nodes, node)
}

// Crawl fetches the root, then selects and crawls subpages score-first
// within the depth bound and the global budget. Per-node fetch and
// extraction failures are recorded and tallied, never raised; a root
// failure fails the run. Cancellation via ctx stops new fetches and
// returns the partial result.
func (c *Crawler) Crawl(ctx context.Context, params CrawlParams) (*CrawlResult, error) {
	if params.URL == "" {
		return nil, common.Validationf("url", "must not be empty")
	}
	if params.Subpages < 0 || params.Subpages > MaxSubpages {
		return nil, common.Validationf("subpages", "must be in [0,%d], got %d", MaxSubpages, params.Subpages)
	}
	maxDepth := params.MaxDepth
	if maxDepth == 0 {
		maxDepth = DefaultMaxDepth
	}
	if maxDepth < 1 || maxDepth > MaxDepthLimit {
		return nil, common.Validationf("max_depth", "must be in [1,%d], got %d", MaxDepthLimit, params.MaxDepth)
	}

	requestID := util.NewRequestID()
	tracker := timing.NewTracker()
	logger.Info("[Crawler] Starting crawl run", "request_id", requestID,
		"url", params.URL, "subpages", params.Subpages, "max_depth", maxDepth)

	root, err := c.fetchAndExtract(ctx, params.URL)
	if err != nil {
		return nil, err
	}
	tracker.Mark("fetch_root")

	run := &crawlRun{
		visited:   map[string]struct{}{NormalizeURL(params.URL): {}},
		remaining: params.Subpages,
	}
	if params.Subpages > 0 {
		c.crawlFrom(ctx, run, root, 0, []string{params.URL}, params.Keywords, maxDepth)
	}
	tracker.Mark("crawl_subpages")

	succeeded, failed := 0, 0
	for _, node := range run.nodes {
		if node.State == NodeExtracted {
			succeeded++
		} else {
			failed++
		}
	}

	logger.Info("[Crawler] Crawl run finished", "request_id", requestID,
		"successful", succeeded, "failed", failed, "cancelled", run.cancelled)

	return &CrawlResult{
		Root:  root,
		Nodes: run.nodes,
		Metadata: CrawlMetadata{
			RequestID:         requestID,
			RequestedSubpages: params.Subpages,
			SuccessfulCrawls:  succeeded,
			FailedCrawls:      failed,
			MaxDepth:          maxDepth,
			DurationMs:        tracker.Elapsed().Milliseconds(),
			Stages:            tracker.Stages(),
			Cancelled:         run.cancelled,
		},
	}, nil
}

// crawlFrom selects links from page in descending score order and
// crawls each within the shared budget. Nodes sit at depth+1; when
// that is still below maxDepth their own links are expanded in turn.
func (c *Crawler) crawlFrom(ctx context.Context, run *crawlRun, page *Page, depth int, path []string, keywords []string, maxDepth int) {
	scored := ScoreLinks(page.Links, keywords, len(page.Links))

	for _, link := range scored {
		if ctx.Err() != nil {
			run.mu.Lock()
			run.cancelled = true
			run.mu.Unlock()
			return
		}

		ok, budgetLeft := run.reserve(NormalizeURL(link.URL))
		if !budgetLeft {
			return
		}
		if !ok {
			continue
		}

		node := &CrawlNode{
			URL:       link.URL,
			Depth:     depth + 1,
			ParentURL: page.URL,
			Path:      append(append([]string(nil), path...), link.URL),
			Score:     link.Score,
			State:     NodeFetching,
		}

		child, err := c.fetchAndExtract(ctx, link.URL)
		if err != nil {
			node.State = NodeFailed
			node.Error = err.Error()
			run.record(node)
			logger.Debug("[Crawler] Subpage failed", "url", link.URL, "err", err)
			continue
		}
		node.State = NodeExtracted
		node.Page = child
		run.record(node)

		if node.Depth < maxDepth {
			c.crawlFrom(ctx, run, child, node.Depth, node.Path, keywords, maxDepth)
		}
	}
}

// fetchAndExtract rate-limits the host, fetches the URL and extracts
// its readable content.
func (c *Crawler) fetchAndExtract(ctx context.Context, pageURL string) (*Page, error) {
	if err := c.waitHost(ctx, pageURL); err != nil {
		return nil, &common.FetchError{URL: pageURL, Err: err}
	}
	rawHTML, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return ExtractPage(rawHTML, pageURL, c.maxLinks)
}

// waitHost blocks until the host's minimum fetch spacing allows the
// next request, or ctx is done.
func (c *Crawler) waitHost(ctx context.Context, pageURL string) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return err
	}

	c.limitersMu.Lock()
	limiter, ok := c.limiters[u.Host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(c.hostDelay), 1)
		c.limiters[u.Host] = limiter
	}
	c.limitersMu.Unlock()

	return limiter.Wait(ctx)
}

// ExtractLinksFromURL fetches one page and returns its scored link
// candidates, most relevant first.
func (c *Crawler) ExtractLinksFromURL(ctx context.Context, pageURL string, keywords []string, maxLinks int) ([]ScoredLink, error) {
	if pageURL == "" {
		return nil, common.Validationf("url", "must not be empty")
	}
	if maxLinks <= 0 {
		maxLinks = DefaultMaxLinks
	}
	if maxLinks > MaxLinkLimit {
		return nil, common.Validationf("max_links", "must be in [1,%d], got %d", MaxLinkLimit, maxLinks)
	}

	if err := c.waitHost(ctx, pageURL); err != nil {
		return nil, &common.FetchError{URL: pageURL, Err: err}
	}
	rawHTML, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, common.Validationf("url", "unparseable: %v", err)
	}

	links := ExtractLinks(rawHTML, base, maxLinks)
	return ScoreLinks(links, keywords, len(links)), nil
}

// Preview is the leading slice of a page's readable content.
type Preview struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Text       string `json:"text"`
	TotalChars int    `json:"total_chars"`
	Truncated  bool   `json:"truncated"`
}

// PreviewURL fetches and extracts one page and returns at most maxChars
// of its text, cut at a word boundary.
func (c *Crawler) PreviewURL(ctx context.Context, pageURL string, maxChars int) (*Preview, error) {
	if pageURL == "" {
		return nil, common.Validationf("url", "must not be empty")
	}
	if maxChars <= 0 {
		return nil, common.Validationf("max_chars", "must be positive, got %d", maxChars)
	}

	page, err := c.fetchAndExtract(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	text := util.TruncateAtWord(page.Text, maxChars)
	return &Preview{
		URL:        pageURL,
		Title:      page.Title,
		Text:       text,
		TotalChars: len(page.Text),
		Truncated:  len(text) < len(page.Text),
	}, nil
}
