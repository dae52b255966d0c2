package chunker

import (
	"strings"

	"github.com/berryware/berryrag/pkg/common"
)

const (
	DefaultSize    = 500
	DefaultOverlap = 50
)

// sentenceEnders are tried in order when looking for a chunk break.
// The first ender found past the half-window threshold wins.
var sentenceEnders = []string{". ", ".\n", "? ", "! "}

// Chunker splits normalized document text into overlapping, boundary
// aware segments. Splitting is purely positional and deterministic:
// the same text with the same settings always yields the same chunks.
type Chunker struct {
	// Size is the target chunk length in bytes of normalized text.
	Size int
	// Overlap is how many trailing bytes of one chunk reappear at the
	// start of the next.
	Overlap int
}

// ChunkerParams configures New. Zero values pick the defaults.
type ChunkerParams struct {
	Size    int
	Overlap int
}

// New creates a Chunker. Overlap must be smaller than Size and both
// must be positive.
func New(params ChunkerParams) (Chunker, error) {
	size := params.Size
	if size == 0 {
		size = DefaultSize
	}
	overlap := params.Overlap
	if overlap == 0 && params.Size == 0 {
		overlap = DefaultOverlap
	}
	if size <= 0 {
		return Chunker{}, common.Validationf("chunk_size", "must be positive, got %d", size)
	}
	if overlap < 0 {
		return Chunker{}, common.Validationf("chunk_overlap", "must not be negative, got %d", overlap)
	}
	if overlap >= size {
		return Chunker{}, common.Validationf("chunk_overlap", "must be smaller than chunk size %d, got %d", size, overlap)
	}
	return Chunker{Size: size, Overlap: overlap}, nil
}

// Default returns a Chunker with the stock settings.
func Default() Chunker {
	return Chunker{Size: DefaultSize, Overlap: DefaultOverlap}
}

// Chunk splits text into ordered chunks. Each chunk records its byte
// span in the input and carries the exact slice as text, so removing
// the overlapping regions and concatenating reconstructs the input.
// Empty input yields no chunks; input no longer than Size yields one.
func (c Chunker) Chunk(text string) []common.Chunk {
	if text == "" {
		return nil
	}
	if len(text) <= c.Size {
		return []common.Chunk{{Index: 0, Start: 0, End: len(text), Text: text}}
	}

	var chunks []common.Chunk
	start := 0
	for start < len(text) {
		end := start + c.Size
		if end >= len(text) {
			end = len(text)
		} else {
			end = c.breakAt(text, start, end)
			// A trailing remainder shorter than the overlap would only
			// repeat text already covered; fold it into this chunk.
			if rest := len(text) - end; rest > 0 && rest < c.Overlap {
				end = len(text)
			}
		}

		chunks = append(chunks, common.Chunk{
			Index: len(chunks),
			Start: start,
			End:   end,
			Text:  text[start:end],
		})

		if end >= len(text) {
			break
		}
		next := end - c.Overlap
		if next <= start {
			// Boundary landed inside the overlap window; give up the
			// overlap for this pair so the scan always advances.
			next = end
		}
		start = next
	}
	return chunks
}

// breakAt picks the end of the window starting at start, preferring a
// sentence ender past half the window, then a paragraph break past a
// third, then a line break past half. Without any it cuts at the exact
// window size. It never moves the end forward.
func (c Chunker) breakAt(text string, start, end int) int {
	window := text[start:end]

	for _, ender := range sentenceEnders {
		pos := strings.LastIndex(window, ender)
		if pos > c.Size/2 {
			return start + pos + len(ender)
		}
	}

	if pos := strings.LastIndex(window, "\n\n"); pos > c.Size/3 {
		return start + pos + 2
	}

	if pos := strings.LastIndex(window, "\n"); pos > c.Size/2 {
		return start + pos + 1
	}

	return end
}
