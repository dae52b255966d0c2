package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/berryware/berryrag/pkg/common"
	"github.com/berryware/berryrag/pkg/store"
)

func newBoundStore(t *testing.T, dim int) *MemoryStorage {
	t.Helper()
	s := NewMemoryStorage()
	if err := s.BindProvider(context.Background(), "test", dim); err != nil {
		t.Fatalf("expected bind to succeed, got %v", err)
	}
	return s
}

func saveDoc(t *testing.T, s *MemoryStorage, id, text string, createdAt time.Time, vectors ...[]float32) {
	t.Helper()
	doc := &common.Document{
		ID:          id,
		ContentHash: store.ContentHash(text),
		SourceURL:   "https://example.com/" + id,
		Title:       "Doc " + id,
		Text:        text,
		CreatedAt:   createdAt,
	}
	chunks := make([]common.Chunk, len(vectors))
	for i, vec := range vectors {
		chunks[i] = common.Chunk{
			ID:         id + "-c" + string(rune('0'+i)),
			DocumentID: id,
			Index:      i,
			Text:       text,
			Embedding:  vec,
		}
	}
	if err := s.SaveDocument(context.Background(), doc, chunks); err != nil {
		t.Fatalf("expected save to succeed, got %v", err)
	}
}

func TestSearchRanksExactMatchFirst(t *testing.T) {
	s := newBoundStore(t, 3)
	base := time.Now()
	saveDoc(t, s, "a", "first document text", base, []float32{1, 0, 0})
	saveDoc(t, s, "b", "second document text", base.Add(time.Second), []float32{0.5, 0.5, 0})

	results, err := s.Search(context.Background(), []float32{1, 0, 0}, 5, -1)
	if err != nil {
		t.Fatalf("expected search to succeed, got %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].DocumentID != "a" {
		t.Fatalf("expected exact match first, got %q", results[0].DocumentID)
	}
	if results[0].Similarity < 0.999 {
		t.Fatalf("expected similarity 1.0 for exact match, got %v", results[0].Similarity)
	}
}

func TestSearchTieBreaksByEarlierIngestion(t *testing.T) {
	s := newBoundStore(t, 2)
	base := time.Now()
	saveDoc(t, s, "later", "text of the later document", base.Add(time.Minute), []float32{1, 0})
	saveDoc(t, s, "earlier", "text of the earlier document", base, []float32{1, 0})

	results, err := s.Search(context.Background(), []float32{1, 0}, 5, 0)
	if err != nil {
		t.Fatalf("expected search to succeed, got %v", err)
	}
	if results[0].DocumentID != "earlier" {
		t.Fatalf("expected earlier-ingested document to win the tie, got %q", results[0].DocumentID)
	}
}

func TestSearchThresholdFiltersAll(t *testing.T) {
	s := newBoundStore(t, 2)
	saveDoc(t, s, "a", "low similarity document", time.Now(), []float32{0, 1})

	results, err := s.Search(context.Background(), []float32{1, 0}, 5, 0.9)
	if err != nil {
		t.Fatalf("expected empty success, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results above threshold, got %d", len(results))
	}
}

func TestSearchDimensionMismatch(t *testing.T) {
	s := newBoundStore(t, 3)
	_, err := s.Search(context.Background(), []float32{1, 0}, 5, 0)
	var ve *common.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestSaveDocumentDimensionMismatch(t *testing.T) {
	s := newBoundStore(t, 3)
	doc := &common.Document{ID: "x", ContentHash: "h", Text: "text"}
	err := s.SaveDocument(context.Background(), doc, []common.Chunk{{ID: "x-0", Embedding: []float32{1, 2}}})
	var ve *common.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestRebindNonEmptyStore(t *testing.T) {
	s := newBoundStore(t, 2)
	saveDoc(t, s, "a", "some stored document text", time.Now(), []float32{1, 0})
	err := s.BindProvider(context.Background(), "other", 4)
	var ve *common.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError on rebind, got %v", err)
	}
	// Same dimensionality is allowed, e.g. a renamed provider.
	if err := s.BindProvider(context.Background(), "renamed", 2); err != nil {
		t.Fatalf("expected same-dimension rebind to succeed, got %v", err)
	}
}

func TestFindByHash(t *testing.T) {
	s := newBoundStore(t, 2)
	saveDoc(t, s, "a", "hashed document text here", time.Now(), []float32{1, 0})

	found, err := s.FindByHash(context.Background(), store.ContentHash("hashed document text here"))
	if err != nil {
		t.Fatalf("expected lookup to succeed, got %v", err)
	}
	if found == nil || found.ID != "a" {
		t.Fatalf("expected document a, got %+v", found)
	}

	missing, err := s.FindByHash(context.Background(), "no-such-hash")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown hash, got %+v, %v", missing, err)
	}
}

func TestDeleteDocumentRemovesChunks(t *testing.T) {
	s := newBoundStore(t, 2)
	saveDoc(t, s, "a", "document to be deleted soon", time.Now(), []float32{1, 0}, []float32{0, 1})

	if err := s.DeleteDocument(context.Background(), "a"); err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}
	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("expected stats to succeed, got %v", err)
	}
	if stats.Documents != 0 || stats.Chunks != 0 {
		t.Fatalf("expected empty store, got %d documents, %d chunks", stats.Documents, stats.Chunks)
	}
}

func TestUpdateMetadataMerges(t *testing.T) {
	s := newBoundStore(t, 2)
	saveDoc(t, s, "a", "document receiving extra metadata", time.Now(), []float32{1, 0})

	if err := s.UpdateMetadata(context.Background(), "a", map[string]any{"summary": "short"}); err != nil {
		t.Fatalf("expected update to succeed, got %v", err)
	}
	doc, err := s.GetDocument(context.Background(), "a")
	if err != nil {
		t.Fatalf("expected get to succeed, got %v", err)
	}
	if doc.Metadata["summary"] != "short" {
		t.Fatalf("expected merged metadata, got %+v", doc.Metadata)
	}
}

func TestStats(t *testing.T) {
	s := newBoundStore(t, 2)
	saveDoc(t, s, "a", "first document for the stats check", time.Now(), []float32{1, 0}, []float32{0, 1})
	saveDoc(t, s, "b", "second document for the stats check", time.Now(), []float32{1, 1})

	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("expected stats to succeed, got %v", err)
	}
	if stats.Documents != 2 || stats.Chunks != 3 || stats.Vectors != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Provider != "test" || stats.Dimension != 2 {
		t.Fatalf("expected provider binding in stats, got %+v", stats)
	}
	if stats.StorageBytes <= 0 {
		t.Fatalf("expected positive storage estimate, got %d", stats.StorageBytes)
	}
}
