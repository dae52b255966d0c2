// Package openai implements the remote-API embedding provider against
// an OpenAI-compatible embeddings endpoint.
package openai

import (
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"

	"github.com/berryware/berryrag/pkg/embedder"
)

const (
	DefaultModel     = "text-embedding-3-small"
	DefaultDimension = 1536
)

// OpenAIProvider embeds text through a remote embeddings API. Transient
// failures are retried with backoff a bounded number of times before
// the call fails as provider-unavailable.
type OpenAIProvider struct {
	model     string
	dimension int
	maxTries  int

	baseURL string
	apiKey  string

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     embedder.ModelMetrics

	Client *openai.Client
}

// NewOpenAIProviderParams contains configuration options for creating a
// new OpenAIProvider. Zero values pick the defaults; ApiKey is
// required.
type NewOpenAIProviderParams struct {
	Model     string
	Dimension int
	MaxTries  int

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
}

// NewOpenAIProvider creates a remote embedding provider. It returns nil
// when no API key is configured; Resolve treats that as "variant not
// available".
func NewOpenAIProvider(params NewOpenAIProviderParams) *OpenAIProvider {
	if params.ApiKey == "" {
		return nil
	}

	options := []option.RequestOption{
		option.WithAPIKey(params.ApiKey),
		// Backoff is handled by our own retry loop so attempt counts
		// stay bounded and observable.
		option.WithMaxRetries(0),
	}
	if params.BaseURL != "" {
		options = append(options, option.WithBaseURL(params.BaseURL))
	}
	client := openai.NewClient(options...)

	model := params.Model
	if model == "" {
		model = DefaultModel
	}
	dimension := params.Dimension
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	maxTries := params.MaxTries
	if maxTries <= 0 {
		maxTries = 3
	}
	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	return &OpenAIProvider{
		model:     model,
		dimension: dimension,
		maxTries:  maxTries,

		baseURL: params.BaseURL,
		apiKey:  params.ApiKey,

		reqLock: semaphore.NewWeighted(maxConcurrent),

		Client: &client,
	}
}

func (p *OpenAIProvider) Name() string { return "openai/" + p.model }

func (p *OpenAIProvider) Dimension() int { return p.dimension }

// GetMetrics returns the accumulated usage metrics.
func (p *OpenAIProvider) GetMetrics() embedder.ModelMetrics {
	p.metricsLock.Lock()
	defer p.metricsLock.Unlock()
	return p.metrics
}

func (p *OpenAIProvider) modifyMetrics(m embedder.ModelMetrics) {
	p.metricsLock.Lock()
	defer p.metricsLock.Unlock()
	p.metrics.Requests += m.Requests
	p.metrics.Inputs += m.Inputs
	p.metrics.InputTokens += m.InputTokens
	p.metrics.DurationMs += m.DurationMs
	p.metrics.Failures += m.Failures
}
