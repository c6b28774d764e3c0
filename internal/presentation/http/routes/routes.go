// Package routes registers the dashboard API routes.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/xolodev/xolo-go/internal/application/container"
	"github.com/xolodev/xolo-go/internal/presentation/http/handlers"
	"github.com/xolodev/xolo-go/internal/presentation/http/middleware"
)

// SetupRoutes builds the dashboard router.
func SetupRoutes(c *container.Container) *gin.Engine {
	router := gin.Default()
	router.Use(middleware.CORSMiddleware())

	dashboard := handlers.NewDashboardHandlers(c)

	auth := router.Group("/api/auth")
	{
		auth.GET("/check", dashboard.AuthCheck)
		auth.POST("/login", dashboard.Login)
	}

	api := router.Group("/api")
	api.Use(middleware.DashboardAuthMiddleware(c.DashboardSecret))
	{
		api.GET("/state", dashboard.GetSummary)
		api.GET("/state/ledger", dashboard.GetLedger)
		api.GET("/state/caches", dashboard.GetCaches)
		api.POST("/state/save", dashboard.ForceSave)
		api.POST("/state/reset", dashboard.Reset)
		api.GET("/feed", dashboard.LiveFeed)
		api.GET("/logs/levels", dashboard.GetLogLevels)
		api.POST("/logs/levels", dashboard.SetLogLevel)
	}

	return router
}
