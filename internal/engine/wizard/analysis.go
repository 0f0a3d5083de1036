package wizard

import (
	"context"
	"fmt"

	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

// AnalysisAgent owns the analyze step: trigger the scoring run across every
// dimension and complete once results exist and the user moves on.
type AnalysisAgent struct {
	log   *logger.Logger
	store Store
}

func NewAnalysisAgent(log *logger.Logger, store Store) *AnalysisAgent {
	return &AnalysisAgent{
		log:   log.With("subagent", "analysis"),
		store: store,
	}
}

func (a *AnalysisAgent) Process(ctx context.Context, message string) (Response, error) {
	switch {
	case hasIntent(message, "analyze", "run", "start"):
		n, err := a.store.RunAnalysis(ctx)
		if err != nil {
			return Response{}, err
		}
		return Response{
			Message: fmt.Sprintf("Analysis complete: %d scored results across role, task, line-of-business, geography, and department dimensions.", n),
			Choices: []string{"Continue"},
		}, nil

	case hasIntent(message, "continue", "next", "done", "roadmap"):
		results, topRole, topPriority, err := a.store.AnalysisSummary(ctx)
		if err != nil {
			return Response{}, err
		}
		if results == 0 {
			return Response{
				Message: "No analysis has run yet. Say \"analyze\" and I'll score every role.",
				Choices: []string{"Run analysis"},
			}, nil
		}
		return Response{
			Message:      fmt.Sprintf("Analysis is in: %d results, led by %s at priority %.2f. Let's build the roadmap.", results, topRole, topPriority),
			StepComplete: true,
		}, nil
	}

	results, topRole, topPriority, err := a.store.AnalysisSummary(ctx)
	if err != nil {
		return Response{}, err
	}
	if results == 0 {
		return Response{
			Message: "Ready to score your roles for automation opportunity. Say \"analyze\" to run the full analysis.",
			Choices: []string{"Run analysis"},
		}, nil
	}
	return Response{
		Message: fmt.Sprintf("%d analysis results on file (top: %s at %.2f). Re-run or continue to the roadmap.", results, topRole, topPriority),
		Choices: []string{"Run analysis", "Continue"},
	}, nil
}
