// Package rag orchestrates the retrieval pipeline: chunking and
// embedding on ingest, similarity ranking and context assembly on
// query. It owns no persistence and no model; both are injected.
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/berryware/berryrag/internal/util"
	"github.com/berryware/berryrag/pkg/chunker"
	"github.com/berryware/berryrag/pkg/common"
	"github.com/berryware/berryrag/pkg/embedder"
	"github.com/berryware/berryrag/pkg/logger"
	"github.com/berryware/berryrag/pkg/store"
)

const (
	DefaultTopK            = 5
	DefaultThreshold       = 0.1
	DefaultContextMaxChars = 4000

	// contextTopK is the generous candidate count BuildContext searches
	// with before fitting chunks into the character budget.
	contextTopK = 10
)

// Engine wires chunker, embedding provider and document storage into
// the ingest and query paths.
type Engine struct {
	storage  store.DocumentStorage
	provider embedder.Provider
	chunker  chunker.Chunker
	policy   store.ContentPolicy

	embedBatch   int
	embedWorkers int

	// ingests of the same content hash serialize here so dedup stays
	// race-free: one caller wins, the rest observe its result.
	ingests singleflight.Group
}

// NewEngineParams configures NewEngine. Storage and Provider are
// required; zero values elsewhere pick the defaults.
type NewEngineParams struct {
	Storage  store.DocumentStorage
	Provider embedder.Provider
	Chunker  chunker.Chunker
	Policy   store.ContentPolicy

	// EmbedBatch is how many chunk texts go into one provider call.
	EmbedBatch int
	// EmbedWorkers bounds concurrent provider calls during ingest.
	EmbedWorkers int
}

// NewEngine creates an Engine and binds the provider's embedding space
// to the storage. A dimensionality conflict with existing stored
// vectors surfaces here, before any operation runs.
func NewEngine(ctx context.Context, params NewEngineParams) (*Engine, error) {
	if params.Storage == nil {
		return nil, common.Validationf("storage", "is required")
	}
	if params.Provider == nil {
		return nil, common.Validationf("provider", "is required")
	}
	if err := params.Storage.BindProvider(ctx, params.Provider.Name(), params.Provider.Dimension()); err != nil {
		return nil, err
	}

	c := params.Chunker
	if c.Size == 0 {
		c = chunker.Default()
	}
	policy := params.Policy
	if policy == (store.ContentPolicy{}) {
		policy = store.DefaultContentPolicy()
	}
	embedBatch := params.EmbedBatch
	if embedBatch <= 0 {
		embedBatch = 32
	}
	embedWorkers := params.EmbedWorkers
	if embedWorkers <= 0 {
		embedWorkers = 4
	}

	if embedder.IsFallback(params.Provider) {
		logger.Warn("[RAG] Hash fallback embeddings active, retrieval is lexical only")
	}

	return &Engine{
		storage:      params.Storage,
		provider:     params.Provider,
		chunker:      c,
		policy:       policy,
		embedBatch:   embedBatch,
		embedWorkers: embedWorkers,
	}, nil
}

// Provider exposes the resolved embedding provider handle.
func (e *Engine) Provider() embedder.Provider { return e.provider }

// Storage exposes the underlying document storage.
func (e *Engine) Storage() store.DocumentStorage { return e.storage }

// AddResult reports the outcome of one ingest.
type AddResult struct {
	DocumentID string `json:"document_id"`
	// Chunks is how many chunks were stored; 0 when the document was
	// deduplicated or filtered.
	Chunks int `json:"chunks"`
	// Deduplicated is set when an identical document was already
	// stored; DocumentID then names the existing document.
	Deduplicated bool `json:"deduplicated"`
	// Filtered is set when the quality gate rejected the content; the
	// document was not stored and DocumentID is empty.
	Filtered     bool   `json:"filtered,omitempty"`
	FilterReason string `json:"filter_reason,omitempty"`
}

// AddDocument normalizes, chunks, embeds and stores one document.
// Byte-identical content resolves to the already-stored document
// without re-chunking or re-embedding; content failing the quality gate
// is reported as filtered, not as an error.
func (e *Engine) AddDocument(ctx context.Context, url, title, text string, metadata map[string]any) (AddResult, error) {
	if strings.TrimSpace(text) == "" {
		return AddResult{}, common.Validationf("content", "must not be empty")
	}

	normalized := util.NormalizeDocumentText(text)
	contentHash := store.ContentHash(normalized)

	result, err, _ := e.ingests.Do(contentHash, func() (any, error) {
		return e.ingest(ctx, url, title, normalized, contentHash, metadata)
	})
	if err != nil {
		return AddResult{}, err
	}
	return result.(AddResult), nil
}

func (e *Engine) ingest(ctx context.Context, url, title, normalized, contentHash string, metadata map[string]any) (AddResult, error) {
	existing, err := e.storage.FindByHash(ctx, contentHash)
	if err != nil {
		return AddResult{}, err
	}
	if existing != nil {
		logger.Debug("[RAG][AddDocument] Document already stored", "id", existing.ID, "hash", contentHash)
		return AddResult{DocumentID: existing.ID, Deduplicated: true}, nil
	}

	if err := e.policy.Check(normalized); err != nil {
		logger.Debug("[RAG][AddDocument] Content rejected by quality gate", "url", url, "reason", err)
		return AddResult{Filtered: true, FilterReason: err.Error()}, nil
	}

	docID, err := util.NewID()
	if err != nil {
		return AddResult{}, fmt.Errorf("generate document id: %w", err)
	}

	chunks := e.chunker.Chunk(normalized)
	vectors, err := e.embedChunks(ctx, chunks)
	if err != nil {
		return AddResult{}, err
	}
	for i := range chunks {
		chunks[i].ID = fmt.Sprintf("%s_%d", docID, chunks[i].Index)
		chunks[i].DocumentID = docID
		chunks[i].Embedding = vectors[i]
	}

	doc := &common.Document{
		ID:          docID,
		ContentHash: contentHash,
		SourceURL:   url,
		Title:       title,
		Text:        normalized,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}
	if err := e.storage.SaveDocument(ctx, doc, chunks); err != nil {
		return AddResult{}, err
	}

	logger.Info("[RAG][AddDocument] Document stored", "id", docID, "title", title, "chunks", len(chunks))
	return AddResult{DocumentID: docID, Chunks: len(chunks)}, nil
}

// embedChunks embeds chunk texts in batches, fanned out over a bounded
// worker group. Output order matches chunk order.
func (e *Engine) embedChunks(ctx context.Context, chunks []common.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	out := make([][]float32, len(texts))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(e.embedWorkers)
	_ = store.ChunkRange(len(texts), e.embedBatch, func(start, end int) error {
		eg.Go(func() error {
			vectors, err := e.provider.Embed(ectx, texts[start:end])
			if err != nil {
				return err
			}
			copy(out[start:end], vectors)
			return nil
		})
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Search embeds the query and returns ranked chunks with parent
// document provenance. topK <= 0 picks the default.
func (e *Engine) Search(ctx context.Context, query string, topK int) ([]common.SearchResult, error) {
	return e.SearchThreshold(ctx, query, topK, DefaultThreshold)
}

// SearchThreshold is Search with an explicit similarity floor.
func (e *Engine) SearchThreshold(ctx context.Context, query string, topK int, threshold float32) ([]common.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, common.Validationf("query", "must not be empty")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := embedder.EmbedOne(ctx, e.provider, query)
	if err != nil {
		return nil, err
	}
	return e.storage.Search(ctx, vector, topK, threshold)
}

// BuildContext assembles ranked chunk texts into one block for a
// language model, separated by headers naming the source. Chunks are
// taken highest similarity first; one whose block would push the output
// past maxChars is skipped whole, never cut.
func (e *Engine) BuildContext(ctx context.Context, query string, maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = DefaultContextMaxChars
	}

	results, err := e.SearchThreshold(ctx, query, contextTopK, DefaultThreshold)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("No relevant context found for query: %s", query), nil
	}

	var b strings.Builder
	for i, result := range results {
		block := fmt.Sprintf("[Source %d: %s (%s) similarity %.3f]\n%s\n\n",
			i+1, result.Title, result.SourceURL, result.Similarity, result.Text)
		if b.Len()+len(block) > maxChars {
			continue
		}
		b.WriteString(block)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// EngineStats extends the storage snapshot with provider state.
type EngineStats struct {
	common.StoreStats
	// FallbackActive is set when the hash fallback provider is in use
	// and retrieval quality is degraded.
	FallbackActive bool                   `json:"fallback_active"`
	Metrics        *embedder.ModelMetrics `json:"metrics,omitempty"`
}

// Stats reports store counts plus the active provider and its usage
// metrics.
func (e *Engine) Stats(ctx context.Context) (EngineStats, error) {
	storeStats, err := e.storage.Stats(ctx)
	if err != nil {
		return EngineStats{}, err
	}
	stats := EngineStats{
		StoreStats:     storeStats,
		FallbackActive: embedder.IsFallback(e.provider),
	}
	if reporter, ok := e.provider.(embedder.MetricsReporter); ok {
		metrics := reporter.GetMetrics()
		stats.Metrics = &metrics
	}
	return stats, nil
}
