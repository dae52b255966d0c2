package pgx

import (
	"context"
	"encoding/json"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/berryware/berryrag/internal/util"
	"github.com/berryware/berryrag/pkg/common"
	"github.com/berryware/berryrag/pkg/logger"
	"github.com/berryware/berryrag/pkg/store"
)

const chunkInsertBatch = 500

// SaveDocument persists the document and its chunks with vectors inside
// one transaction; a failure anywhere rolls everything back.
func (s *DocumentDBStorage) SaveDocument(ctx context.Context, doc *common.Document, chunks []common.Chunk) error {
	if s.dimension == 0 {
		return common.Validationf("provider", "no embedding provider bound")
	}
	for _, chunk := range chunks {
		if len(chunk.Embedding) != s.dimension {
			return common.Validationf("embedding",
				"chunk %d has dimension %d, store is bound to %d", chunk.Index, len(chunk.Embedding), s.dimension)
		}
	}

	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return common.Validationf("metadata", "not serializable: %v", err)
	}

	logger.Debug("[Store][SaveDocument] Persisting document", "id", doc.ID, "chunks", len(chunks))

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return common.Wrapf(common.ErrStorageUnavailable, "begin: %v", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO documents (id, content_hash, source_url, title, text_content, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (content_hash) DO NOTHING`,
		doc.ID, doc.ContentHash, doc.SourceURL, doc.Title,
		util.SanitizePostgresText(doc.Text), metadata, doc.CreatedAt)
	if err != nil {
		return common.Wrapf(common.ErrStorageUnavailable, "insert document: %v", err)
	}

	// A concurrent ingest of the same hash may have won the conflict;
	// its chunks are already in place, so this write becomes a no-op.
	var ownerID string
	err = tx.QueryRow(ctx, `SELECT id FROM documents WHERE content_hash = $1`, doc.ContentHash).Scan(&ownerID)
	if err != nil {
		return common.Wrapf(common.ErrStorageUnavailable, "resolve document owner: %v", err)
	}
	if ownerID != doc.ID {
		return tx.Commit(ctx)
	}

	err = store.ChunkRange(len(chunks), chunkInsertBatch, func(start, end int) error {
		batch := &pgxv5.Batch{}
		for _, chunk := range chunks[start:end] {
			batch.Queue(`
				INSERT INTO chunks (id, document_id, chunk_index, start_pos, end_pos, text_content, embedding)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				chunk.ID, doc.ID, chunk.Index, chunk.Start, chunk.End,
				util.SanitizePostgresText(chunk.Text), pgvector.NewVector(chunk.Embedding))
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return common.Wrapf(common.ErrStorageUnavailable, "insert chunks: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return common.Wrapf(common.ErrStorageUnavailable, "commit: %v", err)
	}
	return nil
}

// FindByHash returns the stored document with the given content hash,
// or nil when none exists.
func (s *DocumentDBStorage) FindByHash(ctx context.Context, contentHash string) (*common.Document, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT id, content_hash, source_url, title, text_content, metadata, created_at
		FROM documents WHERE content_hash = $1`, contentHash)
	return scanDocument(row)
}

// GetDocument returns one document with its full text, or nil when it
// does not exist.
func (s *DocumentDBStorage) GetDocument(ctx context.Context, id string) (*common.Document, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT id, content_hash, source_url, title, text_content, metadata, created_at
		FROM documents WHERE id = $1`, id)
	return scanDocument(row)
}

func scanDocument(row pgxv5.Row) (*common.Document, error) {
	var doc common.Document
	var metadata []byte
	err := row.Scan(&doc.ID, &doc.ContentHash, &doc.SourceURL, &doc.Title, &doc.Text, &metadata, &doc.CreatedAt)
	if err == pgxv5.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, common.Wrapf(common.ErrStorageUnavailable, "select document: %v", err)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
			return nil, common.Wrapf(common.ErrStorageUnavailable, "decode metadata: %v", err)
		}
	}
	return &doc, nil
}

// ListDocuments returns all stored documents, newest first, without
// their full text.
func (s *DocumentDBStorage) ListDocuments(ctx context.Context) ([]common.DocumentInfo, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT d.id, d.content_hash, d.source_url, d.title, d.metadata, d.created_at,
		       (SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id)
		FROM documents d
		ORDER BY d.created_at DESC, d.id`)
	if err != nil {
		return nil, common.Wrapf(common.ErrStorageUnavailable, "list documents: %v", err)
	}
	defer rows.Close()

	out := make([]common.DocumentInfo, 0)
	for rows.Next() {
		var info common.DocumentInfo
		var metadata []byte
		err := rows.Scan(&info.ID, &info.ContentHash, &info.SourceURL, &info.Title, &metadata, &info.CreatedAt, &info.Chunks)
		if err != nil {
			return nil, common.Wrapf(common.ErrStorageUnavailable, "scan document: %v", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &info.Metadata); err != nil {
				return nil, common.Wrapf(common.ErrStorageUnavailable, "decode metadata: %v", err)
			}
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, common.Wrapf(common.ErrStorageUnavailable, "list documents: %v", err)
	}
	return out, nil
}

// UpdateMetadata merges the given keys into a stored document's
// metadata.
func (s *DocumentDBStorage) UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error {
	patch, err := json.Marshal(metadata)
	if err != nil {
		return common.Validationf("metadata", "not serializable: %v", err)
	}
	tag, err := s.conn.Exec(ctx, `
		UPDATE documents SET metadata = COALESCE(metadata, '{}'::jsonb) || $2::jsonb
		WHERE id = $1`, id, patch)
	if err != nil {
		return common.Wrapf(common.ErrStorageUnavailable, "update metadata: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return common.Validationf("document_id", "no document %q", id)
	}
	return nil
}

// DeleteDocument removes a document; its chunks go with it through the
// foreign key cascade.
func (s *DocumentDBStorage) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.conn.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return common.Wrapf(common.ErrStorageUnavailable, "delete document: %v", err)
	}
	return nil
}

// Stats reports corpus counts, the bound embedding space and the
// relation sizes on disk.
func (s *DocumentDBStorage) Stats(ctx context.Context) (common.StoreStats, error) {
	stats := common.StoreStats{Provider: s.provider, Dimension: s.dimension}
	err := s.conn.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM documents),
		       (SELECT COUNT(*) FROM chunks),
		       (SELECT COUNT(*) FROM chunks WHERE embedding IS NOT NULL),
		       pg_total_relation_size('documents') + pg_total_relation_size('chunks')`).
		Scan(&stats.Documents, &stats.Chunks, &stats.Vectors, &stats.StorageBytes)
	if err != nil {
		return common.StoreStats{}, common.Wrapf(common.ErrStorageUnavailable, "stats: %v", err)
	}
	return stats, nil
}
