package common

import "time"

// Document represents one ingested piece of content, usually a scraped
// web page. Identity is assigned at ingest time; the content hash of the
// normalized text is the dedup key, so two ingests of identical text
// resolve to the same stored document.
//
// A document owns its chunks: deleting a document deletes them. Apart
// from metadata enrichment a stored document is immutable.
type Document struct {
	ID          string         `json:"id"`
	ContentHash string         `json:"content_hash"`
	SourceURL   string         `json:"source_url"`
	Title       string         `json:"title"`
	Text        string         `json:"text"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Chunk is a bounded contiguous slice of a document's text, the unit of
// embedding and retrieval. Start and End are byte offsets into the
// normalized parent text. Consecutive chunks of one document overlap by
// the configured overlap except at document boundaries.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Index      int       `json:"index"`
	Start      int       `json:"start"`
	End        int       `json:"end"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding,omitempty"`
}

// SearchResult pairs a chunk with its parent document's provenance and
// the cosine similarity against the query vector. Results are ordered
// descending by similarity; ties rank the earlier-ingested document
// first, then the lower chunk index.
type SearchResult struct {
	ChunkID    string    `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	SourceURL  string    `json:"source_url"`
	Title      string    `json:"title"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	Similarity float32   `json:"similarity"`
	IngestedAt time.Time `json:"ingested_at"`
}

// DocumentInfo is the listing view of a stored document: provenance
// and chunk tally without the full text.
type DocumentInfo struct {
	ID          string         `json:"id"`
	ContentHash string         `json:"content_hash"`
	SourceURL   string         `json:"source_url"`
	Title       string         `json:"title"`
	Chunks      int            `json:"chunks"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// StoreStats is the read-only introspection snapshot of a document
// store: corpus size, the embedding space it is committed to, and an
// approximate storage footprint in bytes.
type StoreStats struct {
	Documents    int    `json:"documents"`
	Chunks       int    `json:"chunks"`
	Vectors      int    `json:"vectors"`
	Dimension    int    `json:"dimension"`
	Provider     string `json:"provider"`
	StorageBytes int64  `json:"storage_bytes"`
}
