package pgx

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/berryware/berryrag/pkg/common"
)

// Search delegates nearest-neighbor ranking to the pgvector cosine
// distance operator. Similarity is 1 - distance; ties rank the earlier
// ingested document first, then the lower chunk index.
func (s *DocumentDBStorage) Search(ctx context.Context, vector []float32, topK int, threshold float32) ([]common.SearchResult, error) {
	if topK <= 0 {
		return nil, common.Validationf("top_k", "must be positive, got %d", topK)
	}
	if s.dimension != 0 && len(vector) != s.dimension {
		return nil, common.Validationf("query",
			"vector has dimension %d, store is bound to %d", len(vector), s.dimension)
	}

	rows, err := s.conn.Query(ctx, `
		SELECT c.id, c.document_id, d.source_url, d.title, c.chunk_index, c.text_content,
		       1 - (c.embedding <=> $1) AS similarity, d.created_at
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE 1 - (c.embedding <=> $1) >= $2
		ORDER BY similarity DESC, d.created_at ASC, c.chunk_index ASC
		LIMIT $3`,
		pgvector.NewVector(vector), threshold, topK)
	if err != nil {
		return nil, common.Wrapf(common.ErrStorageUnavailable, "similarity search: %v", err)
	}
	defer rows.Close()

	out := make([]common.SearchResult, 0, topK)
	for rows.Next() {
		var result common.SearchResult
		err := rows.Scan(&result.ChunkID, &result.DocumentID, &result.SourceURL, &result.Title,
			&result.ChunkIndex, &result.Text, &result.Similarity, &result.IngestedAt)
		if err != nil {
			return nil, common.Wrapf(common.ErrStorageUnavailable, "scan result: %v", err)
		}
		out = append(out, result)
	}
	if err := rows.Err(); err != nil {
		return nil, common.Wrapf(common.ErrStorageUnavailable, "similarity search: %v", err)
	}
	return out, nil
}
