package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/berryware/berryrag/internal/server/middleware"
)

// PreviewHandler fetches a page and returns a truncated text preview.
func PreviewHandler(c echo.Context) error {
	type previewParams struct {
		URL      string `json:"url" validate:"required,url"`
		MaxChars int    `json:"max_chars" validate:"omitempty,min=1,max=2000"`
	}

	params := new(previewParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	maxChars := params.MaxChars
	if maxChars == 0 {
		maxChars = 500
	}
	preview, err := app.Crawler.PreviewURL(ctx, params.URL, maxChars)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, preview)
}
