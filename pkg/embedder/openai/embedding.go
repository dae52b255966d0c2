package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/pkoukk/tiktoken-go"

	"github.com/berryware/berryrag/internal/util"
	"github.com/berryware/berryrag/pkg/common"
	"github.com/berryware/berryrag/pkg/embedder"
)

const (
	requestTimeout = 2 * time.Minute
	retryBaseDelay = 500 * time.Millisecond

	// tokenLimit is the per-input cap for the embedding models; inputs
	// over it are truncated by token count before the request.
	tokenLimit = 8192
	encoding   = "cl100k_base"
)

// Embed creates vector embeddings for the given inputs in one batched
// request. Whitespace-only inputs become zero vectors without an API
// call; over-long inputs are truncated to the model's token limit; the
// request is retried with backoff on transient failure until the
// bounded attempt count is exhausted.
func (p *OpenAIProvider) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	idxMap, live, out := normalizeInputs(inputs, p.dimension)
	if len(live) == 0 {
		return out, nil
	}

	liveOut, err := p.embedStrings(ctx, live)
	if err != nil {
		return nil, err
	}
	for i := range liveOut {
		out[idxMap[i]] = liveOut[i]
	}
	return out, nil
}

func normalizeInputs(inputs []string, dim int) (idxMap []int, live []string, out [][]float32) {
	idxMap = make([]int, 0, len(inputs))
	live = make([]string, 0, len(inputs))
	out = make([][]float32, len(inputs))
	for i, input := range inputs {
		if strings.TrimSpace(input) == "" {
			out[i] = make([]float32, dim)
			continue
		}
		idxMap = append(idxMap, i)
		live = append(live, truncateTokens(input))
	}
	return idxMap, live, out
}

// truncateTokens cuts input to the model token limit. If the tokenizer
// itself fails the input passes through untouched and the API is left
// to reject it.
func truncateTokens(input string) string {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return input
	}
	tokens := enc.Encode(input, nil, nil)
	if len(tokens) <= tokenLimit {
		return input
	}
	return enc.Decode(tokens[:tokenLimit])
}

func (p *OpenAIProvider) embedStrings(ctx context.Context, inputs []string) ([][]float32, error) {
	rCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	if err := p.reqLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer p.reqLock.Release(1)

	body := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
		Model: p.model,
	}

	start := time.Now()
	response, err := util.RetryBackoffWithContext(rCtx, p.maxTries, retryBaseDelay,
		func(ctx context.Context) (*openai.CreateEmbeddingResponse, error) {
			return p.Client.Embeddings.New(ctx, body)
		})
	if err != nil {
		p.modifyMetrics(embedder.ModelMetrics{Requests: 1, Failures: 1})
		return nil, common.Wrapf(common.ErrProviderUnavailable, "openai embed after %d tries: %v", p.maxTries, err)
	}

	p.modifyMetrics(embedder.ModelMetrics{
		Requests:    1,
		Inputs:      int64(len(inputs)),
		InputTokens: int(response.Usage.PromptTokens),
		DurationMs:  time.Since(start).Milliseconds(),
	})

	if len(response.Data) != len(inputs) {
		return nil, fmt.Errorf("embedding response size mismatch: got %d want %d", len(response.Data), len(inputs))
	}

	out := make([][]float32, len(inputs))
	for _, data := range response.Data {
		idx := int(data.Index)
		if idx < 0 || idx >= len(inputs) {
			return nil, fmt.Errorf("embedding index out of range: %d", data.Index)
		}
		vec := make([]float32, 0, p.dimension)
		for _, v := range data.Embedding {
			vec = append(vec, float32(v))
		}
		out[idx] = embedder.Pad(vec, p.dimension)
	}
	for i := range out {
		if out[i] == nil {
			return nil, fmt.Errorf("missing embedding for index %d", i)
		}
	}
	return out, nil
}
