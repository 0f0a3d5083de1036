package wizard

import (
	"context"
	"fmt"

	"github.com/cartographai/discovery-backend/internal/engine/brainstorm"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

const (
	confirmColumnsID = "confirm-columns"
	choiceLooksGood  = "Looks good"
	choiceNotYet     = "Not yet"
	choiceCheckAgain = "Check again"
)

// UploadAgent owns the roster-upload step. The upload itself happens out of
// band; this agent summarizes what arrived and completes the step once the
// user confirms the parsed columns.
type UploadAgent struct {
	log     *logger.Logger
	store   Store
	pending *brainstorm.Handler
}

func NewUploadAgent(log *logger.Logger, store Store) *UploadAgent {
	return &UploadAgent{
		log:     log.With("subagent", "upload"),
		store:   store,
		pending: brainstorm.New(),
	}
}

func (a *UploadAgent) Process(ctx context.Context, message string) (Response, error) {
	roles, rows, err := a.store.RosterSummary(ctx)
	if err != nil {
		return Response{}, err
	}
	if roles == 0 {
		return Response{
			Message: "I don't see a roster yet. Upload your workforce file and I'll take it from there.",
			Choices: []string{choiceCheckAgain},
		}, nil
	}

	if a.pending.Pending() > 0 {
		switch res := a.pending.ParseResponse(message); res.Outcome {
		case brainstorm.MatchedChoice:
			a.pending.MarkAnswered(res.Choice)
			if res.Choice == choiceLooksGood {
				return Response{
					Message:      fmt.Sprintf("Great — %d distinct roles across %d rows are locked in. Moving on to role mapping.", roles, rows),
					StepComplete: true,
				}, nil
			}
			return Response{
				Message: "No problem. Re-upload the roster whenever you're ready and tell me to check again.",
				Choices: []string{choiceCheckAgain},
			}, nil
		case brainstorm.NoMatch:
			if hasIntent(message, "confirm", "continue") {
				a.pending.MarkAnswered(message)
				return Response{
					Message:      fmt.Sprintf("Confirmed: %d distinct roles across %d rows. Moving on to role mapping.", roles, rows),
					StepComplete: true,
				}, nil
			}
		}
	}

	if hasIntent(message, "confirm", "continue", "looks good") {
		return Response{
			Message:      fmt.Sprintf("Confirmed: %d distinct roles across %d rows. Moving on to role mapping.", roles, rows),
			StepComplete: true,
		}, nil
	}

	if a.pending.Pending() == 0 {
		a.pending.Enqueue(brainstorm.Question{
			ID:      confirmColumnsID,
			Prompt:  "Do the parsed columns look right?",
			Choices: []string{choiceLooksGood, choiceNotYet},
		})
	}
	q, _ := a.pending.GetNextQuestion()
	return Response{
		Message: fmt.Sprintf("I parsed %d distinct roles across %d roster rows. %s", roles, rows, q.Prompt),
		Choices: q.Choices,
	}, nil
}
