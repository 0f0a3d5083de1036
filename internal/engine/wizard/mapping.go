package wizard

import (
	"context"
	"fmt"

	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

const defaultConfirmThreshold = 0.85

// MappingAgent owns the role-mapping step: kick off the mapping run,
// bulk-confirm high-confidence matches, and complete once the user moves on.
type MappingAgent struct {
	log       *logger.Logger
	store     Store
	threshold float64
}

func NewMappingAgent(log *logger.Logger, store Store) *MappingAgent {
	return &MappingAgent{
		log:       log.With("subagent", "mapping"),
		store:     store,
		threshold: defaultConfirmThreshold,
	}
}

func (a *MappingAgent) Process(ctx context.Context, message string) (Response, error) {
	total, unmapped, confirmed, err := a.store.MappingSummary(ctx)
	if err != nil {
		return Response{}, err
	}

	switch {
	case hasIntent(message, "continue", "next", "done"):
		if total == 0 {
			return Response{
				Message: "There are no role mappings yet — run the mapping first.",
				Choices: []string{"Run mapping"},
			}, nil
		}
		if unmapped > 0 && !hasIntent(message, "anyway") {
			return Response{
				Message: fmt.Sprintf("%d of %d roles are still unmapped. Continue anyway, or let me retry them?", unmapped, total),
				Choices: []string{"Run mapping", "Continue anyway"},
			}, nil
		}
		return Response{
			Message:      fmt.Sprintf("Role mapping wrapped up: %d roles mapped, %d confirmed. On to activity selection.", total, confirmed),
			StepComplete: true,
		}, nil

	case hasIntent(message, "confirm"):
		n, err := a.store.ConfirmMappings(ctx, a.threshold)
		if err != nil {
			return Response{}, err
		}
		return Response{
			Message: fmt.Sprintf("Confirmed %d mappings at or above %.0f%% confidence.", n, a.threshold*100),
			Choices: []string{"Continue"},
		}, nil

	case hasIntent(message, "map", "run", "start"):
		n, err := a.store.RunMapping(ctx)
		if err != nil {
			return Response{}, err
		}
		return Response{
			Message: fmt.Sprintf("Mapped %d roles to occupations. Review them, confirm the good ones, or continue.", n),
			Choices: []string{"Confirm all high-confidence", "Continue"},
		}, nil
	}

	if total == 0 {
		return Response{
			Message: "Next up: mapping your roles to standardized occupations. Say \"run mapping\" when ready.",
			Choices: []string{"Run mapping"},
		}, nil
	}
	return Response{
		Message: fmt.Sprintf("%d roles mapped (%d unmapped, %d confirmed). What next?", total, unmapped, confirmed),
		Choices: []string{"Run mapping", "Confirm all high-confidence", "Continue"},
	}, nil
}
