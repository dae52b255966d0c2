// Package hash provides the deterministic lexical fallback embedding
// provider. Its vectors carry no semantic signal; they only make
// ingestion and exact-duplicate retrieval work when no real embedding
// backend is reachable.
package hash

import (
	"context"
	"crypto/sha256"
	"strings"
	"sync"
	"time"

	"github.com/berryware/berryrag/pkg/embedder"
)

// Dimension is fixed: the digest is cycled over 128 entries.
const Dimension = 128

// HashProvider derives a vector from the SHA-256 digest of the text.
// Identical input always yields the identical vector.
type HashProvider struct {
	metricsLock sync.Mutex
	metrics     embedder.ModelMetrics
}

// New creates a HashProvider.
func New() *HashProvider {
	return &HashProvider{}
}

func (p *HashProvider) Name() string { return "hash-fallback" }

func (p *HashProvider) Dimension() int { return Dimension }

// Fallback marks this provider as the low-quality last resort so
// callers can surface degraded retrieval.
func (p *HashProvider) Fallback() bool { return true }

// Embed maps each digest byte to (b-128)/128, cycling the digest until
// the vector is filled. Whitespace-only input embeds to a zero vector.
func (p *HashProvider) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	out := make([][]float32, len(inputs))
	for i, input := range inputs {
		out[i] = embedText(input)
	}
	p.modifyMetrics(len(inputs), time.Since(start))
	return out, nil
}

func embedText(input string) []float32 {
	vec := make([]float32, Dimension)
	if strings.TrimSpace(input) == "" {
		return vec
	}
	digest := sha256.Sum256([]byte(input))
	for i := range vec {
		b := digest[i%len(digest)]
		vec[i] = (float32(b) - 128) / 128
	}
	return vec
}

func (p *HashProvider) GetMetrics() embedder.ModelMetrics {
	p.metricsLock.Lock()
	defer p.metricsLock.Unlock()
	return p.metrics
}

func (p *HashProvider) modifyMetrics(inputs int, duration time.Duration) {
	p.metricsLock.Lock()
	defer p.metricsLock.Unlock()
	p.metrics.Requests++
	p.metrics.Inputs += int64(inputs)
	p.metrics.DurationMs += duration.Milliseconds()
}
