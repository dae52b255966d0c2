package queue

// IngestJob asks the worker to load an archived source file, extract
// its text and store it in the retrieval engine.
type IngestJob struct {
	RequestID string `json:"request_id"`
	// SourceKey is the archive object key of the uploaded original.
	SourceKey string         `json:"source_key"`
	SourceURL string         `json:"source_url,omitempty"`
	Title     string         `json:"title,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// CrawlJob asks the worker to crawl a URL and, when Ingest is set,
// store the extracted pages. A zero-subpage job ingests the root page
// only, which is how plain URL ingestion travels.
type CrawlJob struct {
	RequestID string   `json:"request_id"`
	URL       string   `json:"url"`
	Subpages  int      `json:"subpages"`
	Keywords  []string `json:"keywords,omitempty"`
	MaxDepth  int      `json:"max_depth,omitempty"`
	Ingest    bool     `json:"ingest"`
}

// DeleteJob asks the worker to remove a document, its chunks and its
// archived sources.
type DeleteJob struct {
	RequestID  string `json:"request_id"`
	DocumentID string `json:"document_id"`
}

// CompletedEvent is published on the pubsub exchange when a job
// finishes, for listeners tracking ingest progress.
type CompletedEvent struct {
	RequestID  string `json:"request_id"`
	DocumentID string `json:"document_id,omitempty"`
	Chunks     int    `json:"chunks,omitempty"`
	Stored     int    `json:"stored,omitempty"`
	Failed     int    `json:"failed,omitempty"`
	Error      string `json:"error,omitempty"`
}
