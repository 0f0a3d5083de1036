package app

import (
	"github.com/gin-gonic/gin"

	"github.com/cartographai/discovery-backend/internal/platform/logger"
	"github.com/cartographai/discovery-backend/internal/server"
)

func wireRouter(log *logger.Logger, cfg Config, h Handlers) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	return server.NewRouter(server.RouterConfig{
		Log:              log,
		AllowOrigins:     cfg.AllowOrigins,
		DiscoveryHandler: h.Discovery,
		MappingHandler:   h.Mapping,
		ActivityHandler:  h.Activity,
		AnalysisHandler:  h.Analysis,
		RoadmapHandler:   h.Roadmap,
	})
}
