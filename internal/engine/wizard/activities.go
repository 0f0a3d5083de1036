package wizard

import (
	"context"
	"fmt"

	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

// ActivityAgent owns the activity-selection step: load detailed work
// activities for the mapped occupations, then curate which apply.
type ActivityAgent struct {
	log   *logger.Logger
	store Store
}

func NewActivityAgent(log *logger.Logger, store Store) *ActivityAgent {
	return &ActivityAgent{
		log:   log.With("subagent", "activities"),
		store: store,
	}
}

func (a *ActivityAgent) Process(ctx context.Context, message string) (Response, error) {
	// "deselect all" contains "select all"; check it first.
	switch {
	case hasIntent(message, "deselect all", "clear all"):
		n, err := a.store.SetAllActivities(ctx, false)
		if err != nil {
			return Response{}, err
		}
		return Response{
			Message: fmt.Sprintf("Deselected %d activities.", n),
			Choices: []string{"Select all", "Continue"},
		}, nil

	case hasIntent(message, "select all"):
		n, err := a.store.SetAllActivities(ctx, true)
		if err != nil {
			return Response{}, err
		}
		return Response{
			Message: fmt.Sprintf("Selected all %d activities.", n),
			Choices: []string{"Continue"},
		}, nil

	case hasIntent(message, "load"):
		n, err := a.store.LoadActivities(ctx)
		if err != nil {
			return Response{}, err
		}
		return Response{
			Message: fmt.Sprintf("Loaded %d detailed work activities for your mapped occupations.", n),
			Choices: []string{"Select all", "Continue"},
		}, nil

	case hasIntent(message, "continue", "next", "done"):
		total, selected, err := a.store.ActivitySummary(ctx)
		if err != nil {
			return Response{}, err
		}
		if selected == 0 {
			return Response{
				Message: fmt.Sprintf("No activities are selected yet (%d loaded). Select at least one before continuing.", total),
				Choices: []string{"Select all"},
			}, nil
		}
		return Response{
			Message:      fmt.Sprintf("Activity curation done: %d of %d selected. On to analysis.", selected, total),
			StepComplete: true,
		}, nil
	}

	total, selected, err := a.store.ActivitySummary(ctx)
	if err != nil {
		return Response{}, err
	}
	if total == 0 {
		return Response{
			Message: "Let's load the detailed work activities for your mapped occupations.",
			Choices: []string{"Load activities"},
		}, nil
	}
	return Response{
		Message: fmt.Sprintf("%d of %d activities selected. Adjust the selection or continue.", selected, total),
		Choices: []string{"Select all", "Deselect all", "Continue"},
	}, nil
}
