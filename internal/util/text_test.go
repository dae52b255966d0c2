package util

import "testing"

func TestSanitizePostgresText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain utf8",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "contains null byte",
			input: "hel\x00lo",
			want:  "hello",
		},
		{
			name:  "contains invalid utf8",
			input: string([]byte{'a', 0xff, 'b'}),
			want:  "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizePostgresText(tt.input)
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNormalizeDocumentText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trims surrounding whitespace",
			input: "  a document  \n",
			want:  "a document",
		},
		{
			name:  "windows line endings",
			input: "line one\r\nline two\rline three",
			want:  "line one\nline two\nline three",
		},
		{
			name:  "null bytes removed",
			input: "a\x00b",
			want:  "ab",
		},
		{
			name:  "empty stays empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDocumentText(tt.input)
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNormalizeDocumentTextDeterministic(t *testing.T) {
	input := "Title\r\n\r\nBody text with trailing space \n"
	first := NormalizeDocumentText(input)
	second := NormalizeDocumentText(first)
	if first != second {
		t.Fatalf("expected normalization to be idempotent, got %q then %q", first, second)
	}
}

func TestTruncateAtWord(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{
			name:  "short input untouched",
			input: "short",
			max:   100,
			want:  "short",
		},
		{
			name:  "cuts at word boundary",
			input: "the quick brown fox jumps",
			max:   13,
			want:  "the quick",
		},
		{
			name:  "single long word hard cut",
			input: "supercalifragilistic",
			max:   5,
			want:  "super",
		},
		{
			name:  "zero max untouched",
			input: "anything",
			max:   0,
			want:  "anything",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateAtWord(tt.input, tt.max)
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
			if tt.max > 0 && len(got) > tt.max {
				t.Fatalf("expected at most %d bytes, got %d", tt.max, len(got))
			}
		})
	}
}
