package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/berryware/berryrag/internal/server/middleware"
)

// SearchHandler ranks stored chunks against a query.
func SearchHandler(c echo.Context) error {
	type searchParams struct {
		Query     string   `json:"query" validate:"required"`
		TopK      int      `json:"top_k" validate:"omitempty,min=1,max=50"`
		Threshold *float32 `json:"threshold" validate:"omitempty,min=0,max=1"`
	}

	params := new(searchParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	var err error
	var results any
	if params.Threshold != nil {
		results, err = app.Engine.SearchThreshold(ctx, params.Query, params.TopK, *params.Threshold)
	} else {
		results, err = app.Engine.Search(ctx, params.Query, params.TopK)
	}
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"results": results})
}
