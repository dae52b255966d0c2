package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/berryware/berryrag/internal/server/middleware"
)

// ExtractLinksHandler fetches a page and returns its links ranked by
// keyword and position score.
func ExtractLinksHandler(c echo.Context) error {
	type extractLinksParams struct {
		URL      string   `json:"url" validate:"required,url"`
		Keywords []string `json:"keywords"`
		MaxLinks int      `json:"max_links" validate:"omitempty,min=1,max=50"`
	}

	params := new(extractLinksParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	links, err := app.Crawler.ExtractLinksFromURL(ctx, params.URL, params.Keywords, params.MaxLinks)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"links": links})
}
