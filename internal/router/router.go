package router

import (
	"time"

	"github.com/beacon-dev/beacon/internal/handlers"
	"github.com/beacon-dev/beacon/internal/middleware"
	"github.com/beacon-dev/beacon/internal/types"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With", "X-Organization-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		// Public status surface
		api.GET("/status", handlers.GetStatus)
		api.GET("/ws", handlers.WebSocket)
		api.GET("/services/:service_id/history", handlers.GetServiceHistory)
		api.POST("/notifications/subscribe", handlers.SubscribeNotifications)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.CreateUser)
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", handlers.LogoutUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		services := api.Group("/services", middleware.AuthMiddleware())
		{
			services.POST("", handlers.CreateService)
			services.GET("", handlers.ListServices)
			services.GET("/:service_id", handlers.GetService)
			services.PUT("/:service_id", handlers.UpdateService)
			services.DELETE("/:service_id", handlers.DeleteService)
		}

		incidents := api.Group("/incidents", middleware.AuthMiddleware())
		{
			incidents.POST("", handlers.CreateIncident)
			incidents.GET("", handlers.ListIncidents)
			incidents.GET("/:incident_id", handlers.GetIncident)
			incidents.PUT("/:incident_id", handlers.UpdateIncident)
			incidents.DELETE("/:incident_id", handlers.DeleteIncident)
		}
	}

	return r
}
