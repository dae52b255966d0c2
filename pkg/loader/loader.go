// Package loader retrieves raw source content for ingestion. A
// SourceFile names a stored object; the SourceLoader behind it knows
// how to fetch the bytes and, for structured formats, how to turn them
// into readable text.
package loader

import (
	"context"
	"path/filepath"
	"strings"
)

type FileType string

const (
	FileTypeText FileType = "text"
	FileTypeCSV  FileType = "csv"
	FileTypePDF  FileType = "pdf"
	FileTypeDoc  FileType = "doc"
)

// EncodedFile carries base64 content with its data-URL MIME prefix.
type EncodedFile struct {
	Base64   string `json:"base64"`
	FileType string `json:"file_type"`
}

// SourceFile is one ingestable object: an ID for caching, the path or
// object key, and the loader that retrieves it.
type SourceFile struct {
	ID       string
	FilePath string
	FileType FileType
	Loader   SourceLoader
}

// NewSourceFileParams defines the inputs for NewSourceFile.
type NewSourceFileParams struct {
	ID       string
	FilePath string
	Loader   SourceLoader
}

// NewSourceFile creates a SourceFile, picking the file type from the
// path extension.
func NewSourceFile(params NewSourceFileParams) SourceFile {
	return SourceFile{
		ID:       params.ID,
		FilePath: params.FilePath,
		FileType: TypeForPath(params.FilePath),
		Loader:   params.Loader,
	}
}

// TypeForPath maps a file extension onto the loader type that handles
// it. Unknown extensions are treated as plain text.
func TypeForPath(path string) FileType {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "csv":
		return FileTypeCSV
	case "pdf":
		return FileTypePDF
	case "doc", "docx", "odt":
		return FileTypeDoc
	default:
		return FileTypeText
	}
}

// GetText retrieves the readable text content of the file via its
// loader.
func (f *SourceFile) GetText(ctx context.Context) ([]byte, error) {
	return f.Loader.GetFileText(ctx, *f)
}

// GetBase64 retrieves the base64-encoded raw content of the file.
func (f *SourceFile) GetBase64(ctx context.Context) (EncodedFile, error) {
	return f.Loader.GetBase64(ctx, *f)
}

// SourceLoader loads the contents of a SourceFile. Implementations may
// read from disk, object storage, or wrap another loader to parse a
// structured format.
type SourceLoader interface {
	GetFileText(ctx context.Context, file SourceFile) ([]byte, error)
	GetBase64(ctx context.Context, file SourceFile) (EncodedFile, error)
}

// CacheKey is the per-file cache key used by loader implementations.
func CacheKey(file SourceFile) string {
	return file.ID + ":" + file.FilePath
}
