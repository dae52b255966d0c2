package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/berryware/berryrag/pkg/common"
)

// errorStatus maps the error taxonomy onto HTTP status codes.
func errorStatus(err error) int {
	switch common.ErrorKind(err) {
	case "validation":
		return http.StatusBadRequest
	case "provider_unavailable", "storage_unavailable":
		return http.StatusServiceUnavailable
	case "fetch_error", "extraction_error":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func jsonError(c echo.Context, err error) error {
	return c.JSON(errorStatus(err), map[string]string{"error": err.Error()})
}
