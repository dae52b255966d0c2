package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/berryware/berryrag/internal/queue"
	"github.com/berryware/berryrag/internal/server/middleware"
	"github.com/berryware/berryrag/internal/util"
)

// DeleteDocumentHandler enqueues removal of a document, its chunks and
// its archived sources.
func DeleteDocumentHandler(c echo.Context) error {
	type deleteDocumentParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(deleteDocumentParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	doc, err := app.Engine.Storage().GetDocument(ctx, params.ID)
	if err != nil {
		return jsonError(c, err)
	}
	if doc == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Document not found"})
	}

	requestID := util.NewRequestID()
	job := queue.DeleteJob{
		RequestID:  requestID,
		DocumentID: params.ID,
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return jsonError(c, err)
	}
	if err := queue.PublishFIFO(app.Queue, queue.DeleteQueue, raw); err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusAccepted, map[string]string{"request_id": requestID})
}
