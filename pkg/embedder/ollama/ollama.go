// Package ollama implements the local-model embedding provider on top
// of a locally hosted Ollama daemon.
package ollama

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"

	"github.com/berryware/berryrag/pkg/embedder"
)

const (
	DefaultModel     = "all-minilm"
	DefaultDimension = 384
)

// OllamaProvider embeds text with a fixed sentence-embedding model
// served by an Ollama daemon. The model is resolved once per process;
// identical input yields identical vectors.
type OllamaProvider struct {
	model     string
	dimension int

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     embedder.ModelMetrics

	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client

	Client *api.Client
}

// NewOllamaProviderParams contains configuration options for creating a
// new OllamaProvider. Zero values pick the defaults.
type NewOllamaProviderParams struct {
	Model     string
	Dimension int

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewOllamaProvider creates an Ollama-backed provider talking to the
// daemon at BaseURL (or the Ollama default if empty).
func NewOllamaProvider(params NewOllamaProviderParams) (*OllamaProvider, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := http.DefaultClient
	if params.ApiKey != "" {
		httpClient = &http.Client{
			Transport: &headerTransport{
				headers: map[string]string{
					"Authorization": "Bearer " + params.ApiKey,
				},
				rt: http.DefaultTransport,
			},
		}
	}

	cli := api.NewClient(u, httpClient)

	model := params.Model
	if model == "" {
		model = DefaultModel
	}
	dimension := params.Dimension
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	return &OllamaProvider{
		model:     model,
		dimension: dimension,

		reqLock: semaphore.NewWeighted(maxConcurrent),

		baseURL:    u,
		apiKey:     params.ApiKey,
		httpClient: httpClient,

		Client: cli,
	}, nil
}

func (p *OllamaProvider) Name() string { return "ollama/" + p.model }

func (p *OllamaProvider) Dimension() int { return p.dimension }

// Heartbeat reports whether the daemon is reachable. Resolve uses it as
// the cheap availability probe before committing to this provider.
func (p *OllamaProvider) Heartbeat(ctx context.Context) error {
	return p.Client.Heartbeat(ctx)
}
