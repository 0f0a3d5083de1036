package app

import (
	"gorm.io/gorm"

	"github.com/cartographai/discovery-backend/internal/engine/mapping"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
	"github.com/cartographai/discovery-backend/internal/services"
)

type Services struct {
	Mapping   services.MappingService
	Activity  services.ActivityService
	Analysis  services.AnalysisService
	Roadmap   services.RoadmapService
	Discovery services.DiscoveryService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) Services {
	mapper := mapping.NewAgent(log, c.Catalog, c.Gateway, cfg.Mapping)

	mappingSvc := services.NewMappingService(db, log, r.Mapping, r.Occupation, mapper)
	activitySvc := services.NewActivityService(db, log, r.Mapping, r.Selection, r.Activity, c.Catalog)
	analysisSvc := services.NewAnalysisService(db, log, r.Session, r.Mapping, r.Selection, r.Result, cfg.ScoringWeights)
	roadmapSvc := services.NewRoadmapService(db, log, r.Result, r.Candidate)
	discoverySvc := services.NewDiscoveryService(db, log, r.Session, r.Message, r.Mapping,
		mappingSvc, activitySvc, analysisSvc, roadmapSvc)

	return Services{
		Mapping:   mappingSvc,
		Activity:  activitySvc,
		Analysis:  analysisSvc,
		Roadmap:   roadmapSvc,
		Discovery: discoverySvc,
	}
}
