package server

import (
	"github.com/kinbook/lineage/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Person routes
	apiRoutes.GET("/persons", routes.SearchPersonsHandler)
	apiRoutes.GET("/persons/founding-ancestors", routes.GetFoundingAncestorsHandler)
	apiRoutes.GET("/persons/:id", routes.GetPersonHandler)

	// Tree traversal routes
	apiRoutes.GET("/persons/:id/ancestors", routes.GetAncestorsHandler)
	apiRoutes.GET("/persons/:id/descendants", routes.GetDescendantsHandler)
	apiRoutes.GET("/persons/:id/tree", routes.GetTreeHandler)

	// Ingestion routes
	apiRoutes.POST("/ingestions", routes.CreateIngestionHandler)
	apiRoutes.GET("/ingestions/:id", routes.GetIngestionHandler)
	apiRoutes.GET("/ingestions/:id/anomalies", routes.GetIngestionAnomaliesHandler)
}
