package doc

import (
	"context"
	"encoding/base64"
	"io"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/berryware/berryrag/pkg/loader"
)

const docXMLMax = 50 << 20

// DocLoader wraps a base loader and extracts text from Word documents
// (.docx) by walking the document XML.
type DocLoader struct {
	loader loader.SourceLoader

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewDocLoader creates a DocLoader on top of the given base loader.
func NewDocLoader(base loader.SourceLoader) *DocLoader {
	return &DocLoader{
		loader: base,
		cache:  make(map[string][]byte),
	}
}

// GetFileText extracts the text content of a Word document.
func (l *DocLoader) GetFileText(ctx context.Context, file loader.SourceFile) ([]byte, error) {
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

		text, err := parseDocx(content)
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

// GetFileTextFromIO extracts text from a Word document provided as an
// io.Reader, bypassing the loader cache.
func GetFileTextFromIO(ctx context.Context, input io.Reader) ([]byte, error) {
	content, err := io.ReadAll(input)
	if err != nil {
		return nil, err
	}
	return parseDocx(content)
}

// GetBase64 returns the raw document base64-encoded.
func (l *DocLoader) GetBase64(ctx context.Context, file loader.SourceFile) (loader.EncodedFile, error) {
	content, err := l.loader.GetFileText(ctx, file)
	if err != nil {
		return loader.EncodedFile{}, err
	}

	return loader.EncodedFile{
		Base64:   base64.StdEncoding.EncodeToString(content),
		FileType: "data:application/vnd.openxmlformats-officedocument.wordprocessingml.document;base64,",
	}, nil
}
