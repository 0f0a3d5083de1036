package app

import (
	"github.com/cartographai/discovery-backend/internal/handlers"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

type Handlers struct {
	Discovery *handlers.DiscoveryHandler
	Mapping   *handlers.MappingHandler
	Activity  *handlers.ActivityHandler
	Analysis  *handlers.AnalysisHandler
	Roadmap   *handlers.RoadmapHandler
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	return Handlers{
		Discovery: handlers.NewDiscoveryHandler(log, s.Discovery),
		Mapping:   handlers.NewMappingHandler(log, s.Mapping),
		Activity:  handlers.NewActivityHandler(log, s.Activity),
		Analysis:  handlers.NewAnalysisHandler(log, s.Analysis),
		Roadmap:   handlers.NewRoadmapHandler(log, s.Roadmap),
	}
}
