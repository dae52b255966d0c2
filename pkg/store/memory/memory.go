// Package memory provides an in-process DocumentStorage backend. It
// backs the no-database MCP mode and the test suites; ordering and
// dimensionality guarantees match the Postgres backend exactly.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/berryware/berryrag/pkg/common"
	"github.com/berryware/berryrag/pkg/store"
)

// MemoryStorage keeps documents, chunks and vectors in process memory
// behind one RWMutex. Similarity search is a linear cosine scan, which
// is fine at the corpus sizes this backend is meant for.
type MemoryStorage struct {
	mu sync.RWMutex

	provider  string
	dimension int

	docs   map[string]*common.Document
	byHash map[string]string
	chunks map[string][]common.Chunk
	// order holds document IDs in ingestion order for stable tie
	// breaking.
	order []string
}

// NewMemoryStorage creates an empty in-process store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		docs:   make(map[string]*common.Document),
		byHash: make(map[string]string),
		chunks: make(map[string][]common.Chunk),
	}
}

func (s *MemoryStorage) BindProvider(_ context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return common.Validationf("dimension", "must be positive, got %d", dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != 0 && s.dimension != dimension && len(s.docs) > 0 {
		return common.Validationf("provider",
			"store holds %d-dimensional vectors from %q, cannot rebind to %q with dimension %d; rebuild the store",
			s.dimension, s.provider, name, dimension)
	}
	s.provider = name
	s.dimension = dimension
	return nil
}

func (s *MemoryStorage) SaveDocument(_ context.Context, doc *common.Document, chunks []common.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		return common.Validationf("provider", "no embedding provider bound")
	}
	for _, chunk := range chunks {
		if len(chunk.Embedding) != s.dimension {
			return common.Validationf("embedding",
				"chunk %d has dimension %d, store is bound to %d", chunk.Index, len(chunk.Embedding), s.dimension)
		}
	}
	if existing, ok := s.byHash[doc.ContentHash]; ok && existing != doc.ID {
		// Ingest already validated the hash; a concurrent writer won.
		return nil
	}

	stored := *doc
	s.docs[doc.ID] = &stored
	s.byHash[doc.ContentHash] = doc.ID
	s.chunks[doc.ID] = append([]common.Chunk(nil), chunks...)
	s.order = append(s.order, doc.ID)
	return nil
}

func (s *MemoryStorage) FindByHash(_ context.Context, contentHash string) (*common.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHash[contentHash]
	if !ok {
		return nil, nil
	}
	doc := *s.docs[id]
	return &doc, nil
}

func (s *MemoryStorage) Search(_ context.Context, vector []float32, topK int, threshold float32) ([]common.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		return nil, common.Validationf("top_k", "must be positive, got %d", topK)
	}
	if s.dimension != 0 && len(vector) != s.dimension {
		return nil, common.Validationf("query",
			"vector has dimension %d, store is bound to %d", len(vector), s.dimension)
	}

	type scored struct {
		result   common.SearchResult
		orderIdx int
	}
	matches := make([]scored, 0)
	for orderIdx, docID := range s.order {
		doc := s.docs[docID]
		for _, chunk := range s.chunks[docID] {
			similarity := store.CosineSimilarity(vector, chunk.Embedding)
			if similarity < threshold {
				continue
			}
			matches = append(matches, scored{
				result: common.SearchResult{
					ChunkID:    chunk.ID,
					DocumentID: doc.ID,
					SourceURL:  doc.SourceURL,
					Title:      doc.Title,
					ChunkIndex: chunk.Index,
					Text:       chunk.Text,
					Similarity: similarity,
					IngestedAt: doc.CreatedAt,
				},
				orderIdx: orderIdx,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].result.Similarity != matches[j].result.Similarity {
			return matches[i].result.Similarity > matches[j].result.Similarity
		}
		if !matches[i].result.IngestedAt.Equal(matches[j].result.IngestedAt) {
			return matches[i].result.IngestedAt.Before(matches[j].result.IngestedAt)
		}
		if matches[i].orderIdx != matches[j].orderIdx {
			return matches[i].orderIdx < matches[j].orderIdx
		}
		return matches[i].result.ChunkIndex < matches[j].result.ChunkIndex
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	out := make([]common.SearchResult, len(matches))
	for i, m := range matches {
		out[i] = m.result
	}
	return out, nil
}

func (s *MemoryStorage) ListDocuments(_ context.Context) ([]common.DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]common.DocumentInfo, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		doc := s.docs[s.order[i]]
		out = append(out, common.DocumentInfo{
			ID:          doc.ID,
			ContentHash: doc.ContentHash,
			SourceURL:   doc.SourceURL,
			Title:       doc.Title,
			Chunks:      len(s.chunks[doc.ID]),
			Metadata:    doc.Metadata,
			CreatedAt:   doc.CreatedAt,
		})
	}
	return out, nil
}

func (s *MemoryStorage) GetDocument(_ context.Context, id string) (*common.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	out := *doc
	return &out, nil
}

func (s *MemoryStorage) UpdateMetadata(_ context.Context, id string, metadata map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return common.Validationf("document_id", "no document %q", id)
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any, len(metadata))
	}
	for k, v := range metadata {
		doc.Metadata[k] = v
	}
	return nil
}

func (s *MemoryStorage) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil
	}
	delete(s.byHash, doc.ContentHash)
	delete(s.docs, id)
	delete(s.chunks, id)
	for i, orderID := range s.order {
		if orderID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStorage) Stats(_ context.Context) (common.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := common.StoreStats{
		Documents: len(s.docs),
		Provider:  s.provider,
		Dimension: s.dimension,
	}
	for _, doc := range s.docs {
		stats.StorageBytes += int64(len(doc.Text))
	}
	for _, chunks := range s.chunks {
		stats.Chunks += len(chunks)
		for _, chunk := range chunks {
			stats.StorageBytes += int64(len(chunk.Text))
			if len(chunk.Embedding) > 0 {
				stats.Vectors++
				stats.StorageBytes += int64(4 * len(chunk.Embedding))
			}
		}
	}
	return stats, nil
}
