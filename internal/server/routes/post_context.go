package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/berryware/berryrag/internal/server/middleware"
)

// ContextHandler assembles a model-ready context block for a query.
func ContextHandler(c echo.Context) error {
	type contextParams struct {
		Query    string `json:"query" validate:"required"`
		MaxChars int    `json:"max_chars" validate:"omitempty,min=100,max=20000"`
	}

	params := new(contextParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	block, err := app.Engine.BuildContext(ctx, params.Query, params.MaxChars)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"context": block})
}
