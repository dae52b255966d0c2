package store

import (
	"crypto/md5"
	"encoding/hex"
	"math"
)

// ContentHash is the dedup key for a document: the MD5 hex digest of
// its normalized text. Callers must normalize first so byte-identical
// content hashes identically regardless of source.
func ContentHash(normalizedText string) string {
	sum := md5.Sum([]byte(normalizedText))
	return hex.EncodeToString(sum[:])
}

// CosineSimilarity computes the cosine of the angle between two vectors
// of equal length, in [-1, 1]. A zero vector has no direction; any
// comparison against one scores 0.
func CosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// ChunkRange calls fn over [start, end) windows covering total items.
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}
