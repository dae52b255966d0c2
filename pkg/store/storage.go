package store

import (
	"context"

	"github.com/berryware/berryrag/pkg/common"
)

// DocumentStorage defines the persistence interface for documents,
// chunks and their embedding vectors. It provides transactional ingest,
// cosine similarity search over stored vectors, and read-only
// introspection.
//
// A storage instance is committed to one embedding space: the first
// BindProvider call fixes the provider name and vector dimensionality,
// and every later vector entering or querying the store must match.
// Backend failures are wrapped in common.ErrStorageUnavailable so
// callers can tell an unreachable store from an empty result.
type DocumentStorage interface {
	// BindProvider records the active embedding provider. Rebinding a
	// non-empty store to a different dimensionality is a configuration
	// error; the store has to be rebuilt instead.
	BindProvider(ctx context.Context, name string, dimension int) error

	// SaveDocument persists the document and all its chunks with
	// vectors in one transaction. Partial writes are never visible.
	SaveDocument(ctx context.Context, doc *common.Document, chunks []common.Chunk) error

	// FindByHash returns the stored document with the given content
	// hash, or nil when none exists.
	FindByHash(ctx context.Context, contentHash string) (*common.Document, error)

	// Search returns up to topK results with similarity >= threshold,
	// descending, ties broken by earlier document ingestion then chunk
	// index. The query vector must match the bound dimensionality.
	Search(ctx context.Context, vector []float32, topK int, threshold float32) ([]common.SearchResult, error)

	// ListDocuments returns all stored documents, newest first, without
	// their full text.
	ListDocuments(ctx context.Context) ([]common.DocumentInfo, error)

	// GetDocument returns one document with its full text, or nil when
	// it does not exist.
	GetDocument(ctx context.Context, id string) (*common.Document, error)

	// UpdateMetadata merges the given keys into a stored document's
	// metadata, the only mutation a stored document permits.
	UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error

	// DeleteDocument removes a document and all its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// Stats reports corpus counts, the bound embedding space and an
	// approximate storage footprint.
	Stats(ctx context.Context) (common.StoreStats, error)
}
