package wizard

import (
	types "github.com/cartographai/discovery-backend/internal/domain"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

// NewSubagents wires the standard step→subagent table over one store.
func NewSubagents(log *logger.Logger, store Store) map[string]Subagent {
	return map[string]Subagent{
		types.StepUpload:           NewUploadAgent(log, store),
		types.StepMapRoles:         NewMappingAgent(log, store),
		types.StepSelectActivities: NewActivityAgent(log, store),
		types.StepAnalyze:          NewAnalysisAgent(log, store),
		types.StepRoadmap:          NewRoadmapAgent(log, store),
	}
}
