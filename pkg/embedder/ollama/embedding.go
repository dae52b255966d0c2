package ollama

import (
	"context"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/berryware/berryrag/pkg/common"
	"github.com/berryware/berryrag/pkg/embedder"
)

const requestTimeout = 2 * time.Minute

// Embed creates vector embeddings for the given inputs using the
// configured model. Whitespace-only inputs become zero vectors without
// a daemon round trip; every returned vector is padded or truncated to
// the provider dimension.
func (p *OllamaProvider) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	idxMap := make([]int, 0, len(inputs))
	live := make([]string, 0, len(inputs))
	out := make([][]float32, len(inputs))
	for i, input := range inputs {
		if strings.TrimSpace(input) == "" {
			out[i] = make([]float32, p.dimension)
			continue
		}
		idxMap = append(idxMap, i)
		live = append(live, input)
	}
	if len(live) == 0 {
		return out, nil
	}

	rCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	if err := p.reqLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer p.reqLock.Release(1)

	req := &api.EmbedRequest{
		Model: p.model,
		Input: live,
	}

	res, err := p.Client.Embed(rCtx, req)
	if err != nil {
		p.modifyMetrics(embedder.ModelMetrics{Requests: 1, Failures: 1})
		return nil, common.Wrapf(common.ErrProviderUnavailable, "ollama embed: %v", err)
	}
	if len(res.Embeddings) != len(live) {
		p.modifyMetrics(embedder.ModelMetrics{Requests: 1, Failures: 1})
		return nil, common.Wrapf(common.ErrProviderUnavailable, "ollama embed: got %d vectors want %d", len(res.Embeddings), len(live))
	}

	p.modifyMetrics(embedder.ModelMetrics{
		Requests:    1,
		Inputs:      int64(len(live)),
		InputTokens: res.PromptEvalCount,
		DurationMs:  res.TotalDuration.Milliseconds(),
	})

	for i, vec := range res.Embeddings {
		out[idxMap[i]] = embedder.Pad(vec, p.dimension)
	}
	return out, nil
}

// GetMetrics returns the accumulated usage metrics.
func (p *OllamaProvider) GetMetrics() embedder.ModelMetrics {
	p.metricsLock.Lock()
	defer p.metricsLock.Unlock()
	return p.metrics
}

func (p *OllamaProvider) modifyMetrics(m embedder.ModelMetrics) {
	p.metricsLock.Lock()
	defer p.metricsLock.Unlock()
	p.metrics.Requests += m.Requests
	p.metrics.Inputs += m.Inputs
	p.metrics.InputTokens += m.InputTokens
	p.metrics.DurationMs += m.DurationMs
	p.metrics.Failures += m.Failures
}
