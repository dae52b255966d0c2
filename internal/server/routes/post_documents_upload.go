package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/berryware/berryrag/internal/queue"
	"github.com/berryware/berryrag/internal/server/middleware"
	"github.com/berryware/berryrag/internal/storage"
	"github.com/berryware/berryrag/internal/util"
)

// UploadDocumentHandler archives an uploaded source file and enqueues
// its ingestion. The original stays in the archive so ingestion can be
// replayed.
func UploadDocumentHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	if app.S3 == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Document archive is not configured"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing file"})
	}
	title := c.FormValue("title")
	if title == "" {
		title = fileHeader.Filename
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Failed to read file"})
	}
	defer src.Close()

	ctx := c.Request().Context()

	uploadID, err := util.NewID()
	if err != nil {
		return jsonError(c, err)
	}
	key, err := storage.PutFile(ctx, app.S3, uploadID, fileHeader.Filename, src)
	if err != nil {
		return jsonError(c, err)
	}

	requestID := util.NewRequestID()
	job := queue.IngestJob{
		RequestID: requestID,
		SourceKey: key,
		Title:     title,
		Metadata: map[string]any{
			"source":            "upload",
			"original_filename": fileHeader.Filename,
		},
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return jsonError(c, err)
	}
	if err := queue.PublishFIFO(app.Queue, queue.IngestQueue, raw); err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"request_id": requestID,
		"source_key": key,
	})
}
