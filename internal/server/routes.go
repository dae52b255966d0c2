package server

import (
	"github.com/labstack/echo/v4"

	"github.com/berryware/berryrag/internal/server/middleware"
	"github.com/berryware/berryrag/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Document routes
	apiRoutes.GET("/documents", routes.GetDocumentsHandler, middleware.RequirePermission("document.view"))
	apiRoutes.GET("/documents/:id", routes.GetDocumentHandler, middleware.RequirePermission("document.view"))
	apiRoutes.GET("/documents/:id/source", routes.GetDocumentSourceHandler, middleware.RequirePermission("document.view"))
	apiRoutes.POST("/documents", routes.CreateDocumentHandler, middleware.RequirePermission("document.create"))
	apiRoutes.POST("/documents/upload", routes.UploadDocumentHandler, middleware.RequirePermission("document.create"))
	apiRoutes.DELETE("/documents/:id", routes.DeleteDocumentHandler, middleware.RequirePermission("document.delete"))

	// Retrieval routes
	apiRoutes.POST("/search", routes.SearchHandler, middleware.RequirePermission("search.run"))
	apiRoutes.POST("/context", routes.ContextHandler, middleware.RequirePermission("search.run"))
	apiRoutes.GET("/stats", routes.GetStatsHandler, middleware.RequirePermission("document.view"))

	// Crawl routes
	apiRoutes.POST("/crawls", routes.CreateCrawlHandler, middleware.RequirePermission("crawl.run"))
	apiRoutes.POST("/links", routes.ExtractLinksHandler, middleware.RequirePermission("crawl.run"))
	apiRoutes.POST("/previews", routes.PreviewHandler, middleware.RequirePermission("crawl.run"))
}
