package wizard

import (
	"context"
	"fmt"

	"github.com/cartographai/discovery-backend/internal/engine/brainstorm"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

const (
	finalizeRoadmapID = "finalize-roadmap"
	choiceYesFinalize = "Yes, finalize"
	choiceKeepEditing = "Keep editing"
)

// RoadmapAgent owns the terminal step: generate candidates from the
// analysis, pick which agents to build, and finalize. The step completes
// only once at least one candidate is selected for build.
type RoadmapAgent struct {
	log     *logger.Logger
	store   Store
	pending *brainstorm.Handler
}

func NewRoadmapAgent(log *logger.Logger, store Store) *RoadmapAgent {
	return &RoadmapAgent{
		log:     log.With("subagent", "roadmap"),
		store:   store,
		pending: brainstorm.New(),
	}
}

func (a *RoadmapAgent) Process(ctx context.Context, message string) (Response, error) {
	if a.pending.Pending() > 0 {
		if res := a.pending.ParseResponse(message); res.Outcome == brainstorm.MatchedChoice {
			a.pending.MarkAnswered(res.Choice)
			if res.Choice == choiceYesFinalize {
				_, selected, err := a.store.RoadmapSummary(ctx)
				if err != nil {
					return Response{}, err
				}
				return Response{
					Message:      fmt.Sprintf("Roadmap finalized with %d agents selected for build. Discovery is complete.", selected),
					StepComplete: true,
				}, nil
			}
			return Response{
				Message: "Sure — keep adjusting the roadmap and tell me when you're done.",
				Choices: []string{"Generate roadmap", "Select top candidate", "Finish"},
			}, nil
		}
	}

	switch {
	case hasIntent(message, "generate", "build roadmap", "create roadmap"):
		n, err := a.store.GenerateRoadmap(ctx)
		if err != nil {
			return Response{}, err
		}
		return Response{
			Message: fmt.Sprintf("Generated %d roadmap candidates from the analysis. Pick the ones worth building.", n),
			Choices: []string{"Select top candidate", "Finish"},
		}, nil

	case hasIntent(message, "select", "build"):
		name, err := a.store.SelectTopCandidate(ctx)
		if err != nil {
			return Response{}, err
		}
		return Response{
			Message: fmt.Sprintf("Marked %q for build.", name),
			Choices: []string{"Select top candidate", "Finish"},
		}, nil

	case hasIntent(message, "finish", "finalize", "done", "complete"):
		total, selected, err := a.store.RoadmapSummary(ctx)
		if err != nil {
			return Response{}, err
		}
		if total == 0 {
			return Response{
				Message: "No roadmap yet — generate it first.",
				Choices: []string{"Generate roadmap"},
			}, nil
		}
		if selected == 0 {
			return Response{
				Message: "Select at least one candidate for build before finalizing.",
				Choices: []string{"Select top candidate"},
			}, nil
		}
		a.pending.Enqueue(brainstorm.Question{
			ID:      finalizeRoadmapID,
			Prompt:  fmt.Sprintf("Finalize the roadmap with %d of %d candidates selected for build?", selected, total),
			Choices: []string{choiceYesFinalize, choiceKeepEditing},
		})
		q, _ := a.pending.GetNextQuestion()
		return Response{Message: q.Prompt, Choices: q.Choices}, nil
	}

	total, selected, err := a.store.RoadmapSummary(ctx)
	if err != nil {
		return Response{}, err
	}
	if total == 0 {
		return Response{
			Message: "Final step: turn the analysis into a prioritized roadmap of automation agents.",
			Choices: []string{"Generate roadmap"},
		}, nil
	}
	return Response{
		Message: fmt.Sprintf("Roadmap has %d candidates, %d selected for build.", total, selected),
		Choices: []string{"Select top candidate", "Finish"},
	}, nil
}
