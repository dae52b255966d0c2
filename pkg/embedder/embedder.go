package embedder

import (
	"context"
	"fmt"
)

// Provider turns text into fixed-length vectors. A provider commits to
// one dimensionality for its lifetime; every vector it returns has
// exactly Dimension() entries. Empty or whitespace-only inputs embed
// to zero vectors without a model call.
//
// Implementations wrap terminal failures in
// common.ErrProviderUnavailable so callers can distinguish an
// exhausted provider from bad input.
type Provider interface {
	// Embed returns one vector per input, in input order.
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	// Dimension is the fixed vector length.
	Dimension() int
	// Name identifies the provider for stats and store bookkeeping.
	Name() string
}

// MetricsReporter is implemented by providers that track usage.
type MetricsReporter interface {
	GetMetrics() ModelMetrics
}

// ModelMetrics accumulates usage across a provider's lifetime.
type ModelMetrics struct {
	Requests    int64 `json:"requests"`
	Inputs      int64 `json:"inputs"`
	InputTokens int   `json:"input_tokens"`
	DurationMs  int64 `json:"duration_ms"`
	Failures    int64 `json:"failures"`
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, p Provider, text string) ([]float32, error) {
	vectors, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("unexpected embedding result size: got %d want 1", len(vectors))
	}
	return vectors[0], nil
}

// IsFallback reports whether p is the deterministic lexical fallback
// rather than a semantic model. Callers use it to surface degraded
// retrieval quality.
func IsFallback(p Provider) bool {
	f, ok := p.(interface{ Fallback() bool })
	return ok && f.Fallback()
}

// Pad truncates or zero-pads vec to dim entries. Providers use it to
// hold their dimensionality contract against whatever the backing
// model returns.
func Pad(vec []float32, dim int) []float32 {
	if len(vec) == dim {
		return vec
	}
	if len(vec) > dim {
		return vec[:dim]
	}
	padded := make([]float32, dim)
	copy(padded, vec)
	return padded
}
