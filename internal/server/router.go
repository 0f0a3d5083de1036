package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cartographai/discovery-backend/internal/handlers"
	"github.com/cartographai/discovery-backend/internal/middleware"
	"github.com/cartographai/discovery-backend/internal/observability"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log              *logger.Logger
	AllowOrigins     []string
	DiscoveryHandler *handlers.DiscoveryHandler
	MappingHandler   *handlers.MappingHandler
	ActivityHandler  *handlers.ActivityHandler
	AnalysisHandler  *handlers.AnalysisHandler
	RoadmapHandler   *handlers.RoadmapHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log))

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	if observability.Enabled() {
		router.GET("/metrics", func(c *gin.Context) {
			observability.Current().WriteHTTP(c.Writer, c.Request)
		})
	}

	api := router.Group("/api/discovery")
	{
		api.POST("/sessions", cfg.DiscoveryHandler.CreateSession)
		api.GET("/sessions", cfg.DiscoveryHandler.ListSessions)
		api.GET("/sessions/:id", cfg.DiscoveryHandler.GetSession)
		api.POST("/sessions/:id/roster", cfg.DiscoveryHandler.RegisterRoster)
		api.POST("/sessions/:id/messages", cfg.DiscoveryHandler.PostMessage)
		api.POST("/sessions/:id/step", cfg.DiscoveryHandler.OverrideStep)
		api.GET("/sessions/:id/messages", cfg.DiscoveryHandler.GetTranscript)

		api.GET("/sessions/:id/mappings", cfg.MappingHandler.List)
		api.POST("/sessions/:id/mappings/run", cfg.MappingHandler.Run)
		api.POST("/sessions/:id/mappings/bulk-confirm", cfg.MappingHandler.BulkConfirm)
		api.POST("/mappings/:mappingId/confirm", cfg.MappingHandler.Confirm)
		api.PUT("/mappings/:mappingId/occupation", cfg.MappingHandler.SetOccupation)

		api.POST("/sessions/:id/activities/load", cfg.ActivityHandler.Load)
		api.GET("/sessions/:id/activities", cfg.ActivityHandler.List)
		api.POST("/sessions/:id/activities/bulk-select", cfg.ActivityHandler.BulkSelect)
		api.PUT("/activities/:selectionId", cfg.ActivityHandler.Toggle)

		api.POST("/sessions/:id/analysis", cfg.AnalysisHandler.Run)
		api.GET("/sessions/:id/analysis", cfg.AnalysisHandler.List)

		api.POST("/sessions/:id/roadmap/generate", cfg.RoadmapHandler.Generate)
		api.GET("/sessions/:id/roadmap", cfg.RoadmapHandler.List)
		api.POST("/sessions/:id/roadmap/bulk-select", cfg.RoadmapHandler.BulkSetSelected)
		api.PUT("/roadmap/:candidateId", cfg.RoadmapHandler.Update)
		api.POST("/roadmap/:candidateId/intake", cfg.RoadmapHandler.LinkIntake)
	}

	return router
}
