package crawler

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/berryware/berryrag/pkg/common"
)

const (
	DefaultFetchTimeout = 30 * time.Second
	userAgent           = "BerryExa/1.0 (Web Content Extractor)"

	// maxBodyBytes guards against unbounded pages; anything past the
	// cap is discarded.
	maxBodyBytes = 10 << 20
)

// Fetcher retrieves the raw HTML of a URL. Implementations return a
// common.FetchError for network and HTTP failures so crawl nodes can
// record them without aborting the run.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches pages with net/http. Responses are cached per URL
// for the fetcher's lifetime; concurrent fetches of the same URL
// collapse into one request.
type HTTPFetcher struct {
	client *http.Client

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewHTTPFetcherParams configures NewHTTPFetcher. A zero Timeout picks
// the default.
type NewHTTPFetcherParams struct {
	Timeout time.Duration
}

// NewHTTPFetcher creates an HTTP fetcher with a per-request timeout.
func NewHTTPFetcher(params NewHTTPFetcherParams) *HTTPFetcher {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		cache:  make(map[string][]byte),
	}
}

// Fetch retrieves the body of url, or a FetchError scoped to it.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.cacheMu.RLock()
	if cached, ok := f.cache[url]; ok {
		f.cacheMu.RUnlock()
		return cached, nil
	}
	f.cacheMu.RUnlock()

	result, err, _ := f.group.Do(url, func() (any, error) {
		f.cacheMu.RLock()
		if cached, ok := f.cache[url]; ok {
			f.cacheMu.RUnlock()
			return cached, nil
		}
		f.cacheMu.RUnlock()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, &common.FetchError{URL: url, Err: err}
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, &common.FetchError{URL: url, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &common.FetchError{URL: url, Status: resp.StatusCode}
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, &common.FetchError{URL: url, Err: err}
		}

		f.cacheMu.Lock()
		f.cache[url] = body
		f.cacheMu.Unlock()
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
