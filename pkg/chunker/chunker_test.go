package chunker

import (
	"reflect"
	"strings"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	c, err := New(ChunkerParams{})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if c.Size != DefaultSize || c.Overlap != DefaultOverlap {
		t.Fatalf("expected defaults %d/%d, got %d/%d", DefaultSize, DefaultOverlap, c.Size, c.Overlap)
	}
}

func TestNewRejectsBadSettings(t *testing.T) {
	if _, err := New(ChunkerParams{Size: 100, Overlap: 100}); err == nil {
		t.Fatal("expected error for overlap == size, got nil")
	}
	if _, err := New(ChunkerParams{Size: 100, Overlap: 150}); err == nil {
		t.Fatal("expected error for overlap > size, got nil")
	}
	if _, err := New(ChunkerParams{Size: -5}); err == nil {
		t.Fatal("expected error for negative size, got nil")
	}
}

func TestChunkEmptyInput(t *testing.T) {
	if got := Default().Chunk(""); got != nil {
		t.Fatalf("expected nil for empty input, got %d chunks", len(got))
	}
}

func TestChunkShortInputSingleChunk(t *testing.T) {
	text := "A short document that fits in one chunk."
	chunks := Default().Chunk(text)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Start != 0 || chunks[0].End != len(text) || chunks[0].Text != text {
		t.Fatalf("expected full-span chunk, got [%d,%d) %q", chunks[0].Start, chunks[0].End, chunks[0].Text)
	}
}

func TestChunkDeterministicBoundaries(t *testing.T) {
	// 1200 characters without any break opportunity: hard cuts only.
	text := strings.Repeat("a", 1200)
	c := Default()

	first := c.Chunk(text)
	second := c.Chunk(text)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical chunks across runs")
	}

	wantSpans := [][2]int{{0, 500}, {450, 950}, {900, 1200}}
	if len(first) != len(wantSpans) {
		t.Fatalf("expected %d chunks, got %d", len(wantSpans), len(first))
	}
	for i, span := range wantSpans {
		if first[i].Start != span[0] || first[i].End != span[1] {
			t.Fatalf("chunk %d: expected span [%d,%d), got [%d,%d)", i, span[0], span[1], first[i].Start, first[i].End)
		}
		if first[i].Index != i {
			t.Fatalf("chunk %d: expected index %d, got %d", i, i, first[i].Index)
		}
	}
}

func TestChunkPrefersSentenceBoundary(t *testing.T) {
	c := Chunker{Size: 100, Overlap: 10}
	text := strings.Repeat("x", 70) + ". " + strings.Repeat("y", 60)

	chunks := c.Chunk(text)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].End != 72 {
		t.Fatalf("expected first chunk to end after the sentence at 72, got %d", chunks[0].End)
	}
	if !strings.HasSuffix(chunks[0].Text, ". ") {
		t.Fatalf("expected first chunk to end with the sentence ender, got %q", chunks[0].Text)
	}
	if chunks[1].Start != 62 {
		t.Fatalf("expected second chunk to start at end-overlap 62, got %d", chunks[1].Start)
	}
}

func TestChunkIgnoresEarlySentenceBoundary(t *testing.T) {
	// The only sentence ender sits before half the window, so the
	// chunker falls through to a hard cut.
	c := Chunker{Size: 100, Overlap: 10}
	text := strings.Repeat("x", 20) + ". " + strings.Repeat("y", 120)

	chunks := c.Chunk(text)
	if chunks[0].End != 100 {
		t.Fatalf("expected hard cut at 100, got %d", chunks[0].End)
	}
}

func TestChunkFallsBackToParagraphBreak(t *testing.T) {
	c := Chunker{Size: 100, Overlap: 10}
	text := strings.Repeat("x", 40) + "\n\n" + strings.Repeat("z", 80)

	chunks := c.Chunk(text)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].End != 42 {
		t.Fatalf("expected first chunk to end after the paragraph break at 42, got %d", chunks[0].End)
	}
}

func TestChunkFallsBackToLineBreak(t *testing.T) {
	c := Chunker{Size: 100, Overlap: 10}
	text := strings.Repeat("x", 60) + "\n" + strings.Repeat("y", 70)

	chunks := c.Chunk(text)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].End != 61 {
		t.Fatalf("expected first chunk to end after the line break at 61, got %d", chunks[0].End)
	}
}

func TestChunkLineBreakBeforeHalfWindowIgnored(t *testing.T) {
	c := Chunker{Size: 100, Overlap: 10}
	text := strings.Repeat("x", 30) + "\n" + strings.Repeat("y", 100)

	chunks := c.Chunk(text)
	if chunks[0].End != 100 {
		t.Fatalf("expected hard cut at 100, got %d", chunks[0].End)
	}
}

func TestChunkMergesTinyTail(t *testing.T) {
	// 525 characters: the 25-character remainder is below the overlap
	// and folds into the first chunk instead of becoming its own.
	c := Default()
	text := strings.Repeat("a", 525)

	chunks := c.Chunk(text)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].End != 525 {
		t.Fatalf("expected merged chunk to cover 525, got %d", chunks[0].End)
	}
}

func TestChunkCoverageReconstructsInput(t *testing.T) {
	texts := []string{
		strings.Repeat("a", 1200),
		"First sentence here. Second sentence follows. " + strings.Repeat("padding words ", 60) + "\n\nA new paragraph.\nWith lines.\n" + strings.Repeat("tail content ", 40),
		strings.Repeat("word ", 300),
		"a" + strings.Repeat(" ", 120) + "b" + strings.Repeat("c", 400),
	}
	configs := []Chunker{
		{Size: 500, Overlap: 50},
		{Size: 100, Overlap: 10},
		{Size: 90, Overlap: 80},
		{Size: 10, Overlap: 3},
	}

	for _, text := range texts {
		for _, c := range configs {
			chunks := c.Chunk(text)
			if len(chunks) == 0 {
				t.Fatalf("size=%d overlap=%d: expected chunks, got none", c.Size, c.Overlap)
			}

			for i, ch := range chunks {
				if ch.Text == "" {
					t.Fatalf("size=%d overlap=%d: chunk %d is empty", c.Size, c.Overlap, i)
				}
				if ch.Text != text[ch.Start:ch.End] {
					t.Fatalf("size=%d overlap=%d: chunk %d text does not match its span", c.Size, c.Overlap, i)
				}
			}

			var rebuilt strings.Builder
			rebuilt.WriteString(chunks[0].Text)
			for i := 1; i < len(chunks); i++ {
				shared := chunks[i-1].End - chunks[i].Start
				if shared < 0 {
					t.Fatalf("size=%d overlap=%d: gap between chunk %d and %d", c.Size, c.Overlap, i-1, i)
				}
				rebuilt.WriteString(chunks[i].Text[shared:])
			}
			if rebuilt.String() != text {
				t.Fatalf("size=%d overlap=%d: reconstruction does not match input", c.Size, c.Overlap)
			}
		}
	}
}
