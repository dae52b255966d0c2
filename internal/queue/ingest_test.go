package queue

import (
	"testing"

	csvloader "github.com/berryware/berryrag/pkg/loader/csv"
	docloader "github.com/berryware/berryrag/pkg/loader/doc"
	pdfloader "github.com/berryware/berryrag/pkg/loader/pdf"
	s3loader "github.com/berryware/berryrag/pkg/loader/s3"
)

func TestLoaderForKeyDispatch(t *testing.T) {
	base := s3loader.NewS3SourceLoaderWithClient("bucket", nil)

	if _, ok := loaderForKey(base, "documents/abc/source.csv").(*csvloader.CSVLoader); !ok {
		t.Fatalf("expected CSV loader for .csv key")
	}
	if _, ok := loaderForKey(base, "documents/abc/source.pdf").(*pdfloader.PDFLoader); !ok {
		t.Fatalf("expected PDF loader for .pdf key")
	}
	if _, ok := loaderForKey(base, "documents/abc/source.docx").(*docloader.DocLoader); !ok {
		t.Fatalf("expected Doc loader for .docx key")
	}
	if got := loaderForKey(base, "documents/abc/source.txt"); got != base {
		t.Fatalf("expected base loader for .txt key, got %T", got)
	}
}
