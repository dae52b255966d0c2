package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/berryware/berryrag/internal/server/middleware"
	"github.com/berryware/berryrag/internal/storage"
)

// GetDocumentsHandler lists every stored document without its text.
func GetDocumentsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	docs, err := app.Engine.Storage().ListDocuments(ctx)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, docs)
}

// GetDocumentHandler returns one document with its full text.
func GetDocumentHandler(c echo.Context) error {
	type getDocumentParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(getDocumentParams)
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
	return c.JSON(http.StatusOK, doc)
}

// GetDocumentSourceHandler presigns a download link for a document's
// archived original. Uploads record their archive key in metadata;
// crawled pages keep their snapshot under the document's prefix.
func GetDocumentSourceHandler(c echo.Context) error {
	type getDocumentSourceParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(getDocumentSourceParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	if app.S3 == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Document archive is not configured"})
	}
	ctx := c.Request().Context()

	doc, err := app.Engine.Storage().GetDocument(ctx, params.ID)
	if err != nil {
		return jsonError(c, err)
	}
	if doc == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Document not found"})
	}

	key, _ := doc.Metadata["source_key"].(string)
	if key == "" {
		keys, err := storage.ListFilesWithPrefix(ctx, app.S3, storage.ArchiveKey(doc.ID, ""))
		if err != nil || len(keys) == 0 {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "No archived source for document"})
		}
		key = keys[0]
	}

	url, err := storage.GenerateDownloadLink(ctx, app.S3, key)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
