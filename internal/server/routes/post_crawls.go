package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/berryware/berryrag/internal/queue"
	"github.com/berryware/berryrag/internal/server/middleware"
	"github.com/berryware/berryrag/internal/util"
)

// CreateCrawlHandler enqueues a crawl run. The response carries the
// request id; the worker publishes a completion event under it.
func CreateCrawlHandler(c echo.Context) error {
	type createCrawlParams struct {
		URL      string   `json:"url" validate:"required,url"`
		Subpages int      `json:"subpages" validate:"omitempty,min=0,max=20"`
		Keywords []string `json:"keywords"`
		MaxDepth int      `json:"max_depth" validate:"omitempty,min=1,max=3"`
		Ingest   bool     `json:"ingest"`
	}

	params := new(createCrawlParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App

	requestID := util.NewRequestID()
	job := queue.CrawlJob{
		RequestID: requestID,
		URL:       params.URL,
		Subpages:  params.Subpages,
		Keywords:  params.Keywords,
		MaxDepth:  params.MaxDepth,
		Ingest:    params.Ingest,
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
