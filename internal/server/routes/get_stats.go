package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/berryware/berryrag/internal/server/middleware"
)

// GetStatsHandler reports corpus counts and embedding provider state.
func GetStatsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	stats, err := app.Engine.Stats(ctx)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
