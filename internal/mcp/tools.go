// Package mcp exposes the retrieval engine and the crawler as MCP tools
// over stdio. Handlers are stateless between calls; everything durable
// lives in the engine's storage.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/berryware/berryrag/pkg/crawler"
	"github.com/berryware/berryrag/pkg/rag"
)

const (
	ServerName    = "berryrag"
	ServerVersion = "1.0.0"
)

type addDocumentArgs struct {
	URL      string         `json:"url" jsonschema:"description=Source URL of the document"`
	Title    string         `json:"title,omitempty" jsonschema:"description=Document title"`
	Content  string         `json:"content" jsonschema:"description=Document text to ingest"`
	Metadata map[string]any `json:"metadata,omitempty" jsonschema:"description=Arbitrary metadata stored with the document"`
}

type searchArgs struct {
	Query string `json:"query" jsonschema:"description=Search query"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"description=Number of results (1-20, default 5)"`
}

type getContextArgs struct {
	Query    string `json:"query" jsonschema:"description=Query to assemble context for"`
	MaxChars int    `json:"max_chars,omitempty" jsonschema:"description=Character budget for the context block (100-20000, default 4000)"`
}

type crawlContentArgs struct {
	URL           string   `json:"url" jsonschema:"description=Root URL to crawl"`
	Subpages      int      `json:"subpages,omitempty" jsonschema:"description=Total subpages to crawl across all depths (0-20, default 0)"`
	SubpageTarget []string `json:"subpage_target,omitempty" jsonschema:"description=Keywords biasing which links are followed"`
	MaxDepth      int      `json:"max_depth,omitempty" jsonschema:"description=Maximum link hops from the root (1-3, default 2)"`
	Ingest        bool     `json:"ingest,omitempty" jsonschema:"description=Store extracted pages in the retrieval engine"`
}

type extractLinksArgs struct {
	URL            string   `json:"url" jsonschema:"description=Page to extract links from"`
	FilterKeywords []string `json:"filter_keywords,omitempty" jsonschema:"description=Keywords used to score link relevance"`
	MaxLinks       int      `json:"max_links,omitempty" jsonschema:"description=Maximum candidates returned (1-50, default 20)"`
}

type contentPreviewArgs struct {
	URL      string `json:"url" jsonschema:"description=Page to preview"`
	MaxChars int    `json:"max_chars,omitempty" jsonschema:"description=Preview length (100-2000, default 500)"`
}

// NewServer builds the MCP server with every tool registered.
func NewServer(engine *rag.Engine, crawl *crawler.Crawler) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(ServerName, ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	RegisterTools(s, engine, crawl)
	return s
}

// RegisterTools wires all tools onto the server.
func RegisterTools(s *mcpserver.MCPServer, engine *rag.Engine, crawl *crawler.Crawler) *Handlers {
	handlers := &Handlers{engine: engine, crawler: crawl}

	s.AddTool(mcp.NewToolWithRawSchema(
		"add_document",
		"Ingest a document into the retrieval engine: normalized, quality-checked, chunked, embedded and stored. Identical content deduplicates to the existing document.",
		inputSchema(addDocumentArgs{}),
	), handlers.AddDocument)

	s.AddTool(mcp.NewToolWithRawSchema(
		"search",
		"Semantic search over stored chunks, ranked by cosine similarity with source provenance.",
		inputSchema(searchArgs{}),
	), handlers.Search)

	s.AddTool(mcp.NewToolWithRawSchema(
		"get_context",
		"Assemble the most relevant stored chunks into one context block under a character budget, each prefixed with a source header.",
		inputSchema(getContextArgs{}),
	), handlers.GetContext)

	s.AddTool(mcp.NewToolWithRawSchema(
		"list_documents",
		"List stored documents with title, source URL, chunk count and ingest time.",
		inputSchema(struct{}{}),
	), handlers.ListDocuments)

	s.AddTool(mcp.NewToolWithRawSchema(
		"get_stats",
		"Report corpus counts, the bound embedding provider and dimension, and the approximate storage footprint.",
		inputSchema(struct{}{}),
	), handlers.GetStats)

	s.AddTool(mcp.NewToolWithRawSchema(
		"crawl_content",
		"Extract readable content from a URL and optionally crawl its most relevant subpages, score-first within a depth bound and a global budget. Subpage failures are tallied, never fatal.",
		inputSchema(crawlContentArgs{}),
	), handlers.CrawlContent)

	s.AddTool(mcp.NewToolWithRawSchema(
		"extract_links",
		"Extract same-host links from a page and rank them by keyword relevance and page position.",
		inputSchema(extractLinksArgs{}),
	), handlers.ExtractLinks)

	s.AddTool(mcp.NewToolWithRawSchema(
		"get_content_preview",
		"Fetch a page and return its title plus the leading slice of its readable text, cut at a word boundary.",
		inputSchema(contentPreviewArgs{}),
	), handlers.GetContentPreview)

	return handlers
}
