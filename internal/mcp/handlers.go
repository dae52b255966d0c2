package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/berryware/berryrag/pkg/common"
	"github.com/berryware/berryrag/pkg/crawler"
	"github.com/berryware/berryrag/pkg/logger"
	"github.com/berryware/berryrag/pkg/rag"
)

const (
	defaultPreviewChars = 500
	maxPreviewChars     = 2000
	minBudgetChars      = 100
	maxContextChars     = 20000
	maxTopK             = 20
)

// Handlers holds the tool implementations. One instance serves every
// call; the engine and crawler are safe for concurrent use.
type Handlers struct {
	engine  *rag.Engine
	crawler *crawler.Crawler
}

// toolError maps an error onto the taxonomy-prefixed tool result. The
// protocol call itself succeeds; the failure travels in the payload.
func toolError(err error) *mcp.CallToolResult {
	kind := common.ErrorKind(err)
	msg := strings.TrimPrefix(err.Error(), kind+": ")
	return mcp.NewToolResultError(kind + ": " + msg)
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("internal: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

// AddDocument handles the add_document tool.
func (h *Handlers) AddDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("validation: url is required"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("validation: content is required"), nil
	}
	title := request.GetString("title", "")

	var metadata map[string]any
	if raw, ok := request.GetArguments()["metadata"].(map[string]any); ok {
		metadata = raw
	}

	result, err := h.engine.AddDocument(ctx, url, title, content, metadata)
	if err != nil {
		return toolError(err), nil
	}

	return jsonResult(map[string]any{
		"document_id":   result.DocumentID,
		"chunks":        result.Chunks,
		"deduplicated":  result.Deduplicated,
		"filtered":      result.Filtered,
		"filter_reason": result.FilterReason,
		"provider":      h.engine.Provider().Name(),
	})
}

// Search handles the search tool.
func (h *Handlers) Search(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("validation: query is required"), nil
	}
	topK := request.GetInt("top_k", rag.DefaultTopK)
	if topK < 1 || topK > maxTopK {
		return mcp.NewToolResultError(fmt.Sprintf("validation: top_k: must be in [1,%d], got %d", maxTopK, topK)), nil
	}

	results, err := h.engine.Search(ctx, query, topK)
	if err != nil {
		return toolError(err), nil
	}

	return jsonResult(map[string]any{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}

// GetContext handles the get_context tool.
func (h *Handlers) GetContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("validation: query is required"), nil
	}
	maxChars := request.GetInt("max_chars", rag.DefaultContextMaxChars)
	if maxChars < minBudgetChars || maxChars > maxContextChars {
		return mcp.NewToolResultError(fmt.Sprintf("validation: max_chars: must be in [%d,%d], got %d", minBudgetChars, maxContextChars, maxChars)), nil
	}

	block, err := h.engine.BuildContext(ctx, query, maxChars)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(block), nil
}

// ListDocuments handles the list_documents tool.
func (h *Handlers) ListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := h.engine.Storage().ListDocuments(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{
		"documents": docs,
		"count":     len(docs),
	})
}

// GetStats handles the get_stats tool.
func (h *Handlers) GetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.engine.Stats(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(stats)
}

// CrawlContent handles the crawl_content tool. Partial subpage failure
// is a success payload with a failure tally, never a tool error.
func (h *Handlers) CrawlContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("validation: url is required"), nil
	}

	result, err := h.crawler.Crawl(ctx, crawler.CrawlParams{
		URL:      url,
		Subpages: request.GetInt("subpages", 0),
		Keywords: request.GetStringSlice("subpage_target", nil),
		MaxDepth: request.GetInt("max_depth", 0),
	})
	if err != nil {
		return toolError(err), nil
	}

	payload := map[string]any{
		"root":           result.Root,
		"nodes":          result.Nodes,
		"crawl_metadata": result.Metadata,
	}
	if request.GetBool("ingest", false) {
		payload["ingest"] = h.ingestCrawl(ctx, result)
	}
	return jsonResult(payload)
}

// ingestCrawl stores the root and every extracted subpage, tallying
// outcomes. Per-page ingest failures degrade to tally entries.
func (h *Handlers) ingestCrawl(ctx context.Context, result *crawler.CrawlResult) map[string]any {
	pages := append([]*crawler.Page{result.Root}, result.Pages()...)

	stored, deduplicated, filtered, failed := 0, 0, 0, 0
	ids := make([]string, 0, len(pages))
	for _, page := range pages {
		added, err := h.engine.AddDocument(ctx, page.URL, page.Title, page.Text, map[string]any{
			"source":     "crawl",
			"request_id": result.Metadata.RequestID,
		})
		switch {
		case err != nil:
			failed++
			logger.Warn("[MCP][crawl_content] Page ingest failed", "url", page.URL, "err", err)
		case added.Deduplicated:
			deduplicated++
			ids = append(ids, added.DocumentID)
		case added.Filtered:
			filtered++
		default:
			stored++
			ids = append(ids, added.DocumentID)
		}
	}

	return map[string]any{
		"stored":       stored,
		"deduplicated": deduplicated,
		"filtered":     filtered,
		"failed":       failed,
		"document_ids": ids,
	}
}

// ExtractLinks handles the extract_links tool.
func (h *Handlers) ExtractLinks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("validation: url is required"), nil
	}

	links, err := h.crawler.ExtractLinksFromURL(ctx, url,
		request.GetStringSlice("filter_keywords", nil),
		request.GetInt("max_links", crawler.DefaultMaxLinks),
	)
	if err != nil {
		return toolError(err), nil
	}

	return jsonResult(map[string]any{
		"url":   url,
		"links": links,
		"count": len(links),
	})
}

// GetContentPreview handles the get_content_preview tool.
func (h *Handlers) GetContentPreview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("validation: url is required"), nil
	}
	maxChars := request.GetInt("max_chars", defaultPreviewChars)
	if maxChars < minBudgetChars || maxChars > maxPreviewChars {
		return mcp.NewToolResultError(fmt.Sprintf("validation: max_chars: must be in [%d,%d], got %d", minBudgetChars, maxPreviewChars, maxChars)), nil
	}

	preview, err := h.crawler.PreviewURL(ctx, url, maxChars)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(preview)
}
