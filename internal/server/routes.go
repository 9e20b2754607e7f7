package server

import (
	"github.com/SizeMattersAI/eliza-agent/internal/server/middleware"
	"github.com/SizeMattersAI/eliza-agent/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	// The manifest is public so agent hosts can discover the plugin's
	// actions before authenticating.
	e.GET("/api/manifest", routes.GetManifestHandler)

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Describe routes
	apiRoutes.POST("/describe", routes.DescribeHandler, middleware.RequirePermission("describe.run"))
	apiRoutes.POST("/describe-jobs", routes.CreateDescribeJobHandler, middleware.RequirePermission("describe.job:create"))
	apiRoutes.GET("/descriptions/:id", routes.GetDescriptionHandler, middleware.RequirePermission("describe.job:view"))
	apiRoutes.GET("/descriptions/similar", routes.GetSimilarDescriptionsHandler, middleware.RequirePermission("describe.job:view"))

	// Measurement routes
	apiRoutes.POST("/measure", routes.MeasureHandler, middleware.RequirePermission("measure.run"))
	apiRoutes.GET("/leaderboard", routes.GetLeaderboardHandler, middleware.RequirePermission("leaderboard.view"))
}
