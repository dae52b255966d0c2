package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/berryware/berryrag/internal/queue"
	"github.com/berryware/berryrag/internal/server/middleware"
	"github.com/berryware/berryrag/internal/util"
)

// CreateDocumentHandler ingests raw content synchronously, or enqueues
// a fetch-and-ingest job when only a URL is given.
func CreateDocumentHandler(c echo.Context) error {
	type createDocumentParams struct {
		URL      string         `json:"url" validate:"omitempty,url"`
		Title    string         `json:"title"`
		Content  string         `json:"content"`
		Metadata map[string]any `json:"metadata"`
	}

	params := new(createDocumentParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	if params.Content != "" {
		result, err := app.Engine.AddDocument(ctx, params.URL, params.Title, params.Content, params.Metadata)
		if err != nil {
			return jsonError(c, err)
		}
		status := http.StatusCreated
		if result.Deduplicated || result.Filtered {
			status = http.StatusOK
		}
		return c.JSON(status, result)
	}

	if params.URL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Either url or content is required"})
	}

	requestID := util.NewRequestID()
	job := queue.CrawlJob{
		RequestID: requestID,
		URL:       params.URL,
		Subpages:  0,
		Ingest:    true,
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return jsonError(c, err)
	}
	if err := queue.PublishFIFO(app.Queue, queue.CrawlQueue, raw); err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusAccepted, map[string]string{"request_id": requestID})
}
