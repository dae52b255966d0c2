package doc

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func docxBytes(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("expected zip entry, got %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("expected write, got %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("expected close, got %v", err)
	}
	return buf.Bytes()
}

func TestParseDocxParagraphs(t *testing.T) {
	content := docxBytes(t, `<?xml version="1.0"?>
		<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
			<w:body>
				<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
				<w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
			</w:body>
		</w:document>`)

	out, err := parseDocx(content)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	text := string(out)
	if !strings.Contains(text, "First paragraph.") || !strings.Contains(text, "Second paragraph.") {
		t.Fatalf("expected both paragraphs, got %q", text)
	}
	if !strings.Contains(text, "First paragraph.\nSecond paragraph.") {
		t.Fatalf("expected newline between paragraphs, got %q", text)
	}
}

func TestParseDocxSkipsDeletions(t *testing.T) {
	content := docxBytes(t, `<?xml version="1.0"?>
		<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
			<w:body>
				<w:p><w:r><w:t>Kept text.</w:t></w:r></w:p>
				<w:p><w:del><w:r><w:t>Removed text.</w:t></w:r></w:del></w:p>
			</w:body>
		</w:document>`)

	out, err := parseDocx(content)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	if strings.Contains(string(out), "Removed text.") {
		t.Fatalf("expected deleted run skipped, got %q", string(out))
	}
}

func TestParseDocxNotAZip(t *testing.T) {
	if _, err := parseDocx([]byte("plain text")); err == nil {
		t.Fatal("expected error for non-docx input")
	}
}
