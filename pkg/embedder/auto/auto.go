// Package auto resolves the concrete embedding provider once at
// startup. The fallback chain is local model, then remote API, then the
// deterministic hash fallback; the resolved handle is immutable for the
// process lifetime.
package auto

import (
	"context"
	"time"

	"github.com/berryware/berryrag/internal/util"
	"github.com/berryware/berryrag/pkg/common"
	"github.com/berryware/berryrag/pkg/embedder"
	"github.com/berryware/berryrag/pkg/embedder/hash"
	"github.com/berryware/berryrag/pkg/embedder/ollama"
	"github.com/berryware/berryrag/pkg/embedder/openai"
	"github.com/berryware/berryrag/pkg/logger"
)

// Adapter names accepted by Resolve and the EMBED_ADAPTER variable.
const (
	AdapterAuto   = "auto"
	AdapterOllama = "ollama"
	AdapterOpenAI = "openai"
	AdapterHash   = "hash"
)

const probeTimeout = 3 * time.Second

// ResolveParams selects and configures the provider. Zero values are
// filled from the environment.
type ResolveParams struct {
	// Adapter is auto, ollama, openai or hash. Empty means auto.
	Adapter string

	OllamaModel   string
	OllamaBaseURL string
	OllamaApiKey  string

	OpenAIModel   string
	OpenAIBaseURL string
	OpenAIApiKey  string

	Dimension             int
	MaxConcurrentRequests int64
}

// FromEnv builds ResolveParams from the process environment.
func FromEnv() ResolveParams {
	return ResolveParams{
		Adapter: util.GetEnvString("EMBED_ADAPTER", AdapterAuto),

		OllamaModel:   util.GetEnv("EMBED_MODEL"),
		OllamaBaseURL: util.GetEnv("OLLAMA_BASE_URL"),
		OllamaApiKey:  util.GetEnv("OLLAMA_API_KEY"),

		OpenAIModel:   util.GetEnv("OPENAI_EMBED_MODEL"),
		OpenAIBaseURL: util.GetEnv("OPENAI_BASE_URL"),
		OpenAIApiKey:  util.GetEnv("OPENAI_API_KEY"),

		Dimension:             util.GetEnvInt("EMBED_DIM", 0),
		MaxConcurrentRequests: int64(util.GetEnvInt("EMBED_MAX_CONCURRENT", 4)),
	}
}

// Resolve picks the embedding provider per the configured adapter. In
// auto mode an unreachable Ollama daemon falls through to the remote
// API when a key is configured, and finally to the hash fallback with a
// warning; ingestion is never blocked on a missing model. An explicit
// adapter that cannot be initialized is an error instead.
func Resolve(ctx context.Context, params ResolveParams) (embedder.Provider, error) {
	switch params.Adapter {
	case "", AdapterAuto:
		if p, err := resolveOllama(ctx, params); err == nil {
			logger.Info("Embedding provider resolved", "provider", p.Name(), "dimension", p.Dimension())
			return p, nil
		} else {
			logger.Debug("Local embedding model unavailable", "err", err)
		}
		if p := resolveOpenAI(params); p != nil {
			logger.Info("Embedding provider resolved", "provider", p.Name(), "dimension", p.Dimension())
			return p, nil
		}
		p := hash.New()
		logger.Warn("No embedding backend available, using deterministic hash fallback; retrieval quality will be degraded",
			"provider", p.Name(), "dimension", p.Dimension())
		return p, nil
	case AdapterOllama:
		p, err := resolveOllama(ctx, params)
		if err != nil {
			return nil, common.Wrapf(common.ErrProviderUnavailable, "ollama adapter: %v", err)
		}
		return p, nil
	case AdapterOpenAI:
		p := resolveOpenAI(params)
		if p == nil {
			return nil, common.Wrapf(common.ErrProviderUnavailable, "openai adapter: no API key configured")
		}
		return p, nil
	case AdapterHash:
		return hash.New(), nil
	default:
		return nil, common.Validationf("embed_adapter", "unknown adapter %q", params.Adapter)
	}
}

func resolveOllama(ctx context.Context, params ResolveParams) (*ollama.OllamaProvider, error) {
	p, err := ollama.NewOllamaProvider(ollama.NewOllamaProviderParams{
		Model:                 params.OllamaModel,
		Dimension:             params.Dimension,
		BaseURL:               params.OllamaBaseURL,
		ApiKey:                params.OllamaApiKey,
		MaxConcurrentRequests: params.MaxConcurrentRequests,
	})
	if err != nil {
		return nil, err
	}
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := p.Heartbeat(probeCtx); err != nil {
		return nil, err
	}
	return p, nil
}

func resolveOpenAI(params ResolveParams) *openai.OpenAIProvider {
	return openai.NewOpenAIProvider(openai.NewOpenAIProviderParams{
		Model:                 params.OpenAIModel,
		Dimension:             params.Dimension,
		BaseURL:               params.OpenAIBaseURL,
		ApiKey:                params.OpenAIApiKey,
		MaxConcurrentRequests: params.MaxConcurrentRequests,
	})
}
