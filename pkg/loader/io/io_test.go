package io

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/berryware/berryrag/pkg/loader"
)

func TestGetFileTextReadsAndCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(path, []byte("hello from disk"), 0o600); err != nil {
		t.Fatalf("expected write, got %v", err)
	}

	l := NewIOSourceLoader()
	file := loader.NewSourceFile(loader.NewSourceFileParams{ID: "1", FilePath: path, Loader: l})

	text, err := file.GetText(context.Background())
	if err != nil {
		t.Fatalf("expected read, got %v", err)
	}
	if string(text) != "hello from disk" {
		t.Fatalf("expected file content, got %q", string(text))
	}

	// The cached copy survives removal of the underlying file.
	if err := os.Remove(path); err != nil {
		t.Fatalf("expected remove, got %v", err)
	}
	cached, err := file.GetText(context.Background())
	if err != nil {
		t.Fatalf("expected cached read, got %v", err)
	}
	if string(cached) != "hello from disk" {
		t.Fatalf("expected cached content, got %q", string(cached))
	}
}

func TestTypeForPath(t *testing.T) {
	tests := []struct {
		path string
		want loader.FileType
	}{
		{"docs/report.pdf", loader.FileTypePDF},
		{"data/rows.csv", loader.FileTypeCSV},
		{"letters/cover.docx", loader.FileTypeDoc},
		{"notes/plain.txt", loader.FileTypeText},
		{"no-extension", loader.FileTypeText},
	}
	for _, tt := range tests {
		if got := loader.TypeForPath(tt.path); got != tt.want {
			t.Fatalf("TypeForPath(%q): expected %q, got %q", tt.path, tt.want, got)
		}
	}
}
