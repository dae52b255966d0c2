package pdf

import (
	"context"
	"encoding/base64"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/berryware/berryrag/pkg/loader"
)

// PDFLoader wraps a base loader and extracts text from PDF content via
// the pdftotext subprocess.
type PDFLoader struct {
	loader loader.SourceLoader

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewPDFLoader creates a PDFLoader on top of the given base loader.
func NewPDFLoader(base loader.SourceLoader) *PDFLoader {
	return &PDFLoader{
		loader: base,
		cache:  make(map[string][]byte),
	}
}

// GetFileText extracts the text content of a PDF file.
func (l *PDFLoader) GetFileText(ctx context.Context, file loader.SourceFile) ([]byte, error) {
	key := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[key]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		content, err := l.loader.GetFileText(ctx, file)
		if err != nil {
			return nil, err
		}

		text, err := parsePDF(content)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = text
		l.cacheMu.Unlock()

		return text, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// GetBase64 returns the raw PDF base64-encoded.
func (l *PDFLoader) GetBase64(ctx context.Context, file loader.SourceFile) (loader.EncodedFile, error) {
	content, err := l.loader.GetFileText(ctx, file)
	if err != nil {
		return loader.EncodedFile{}, err
	}

	return loader.EncodedFile{
		Base64:   base64.StdEncoding.EncodeToString(content),
		FileType: "data:application/pdf;base64,",
	}, nil
}
