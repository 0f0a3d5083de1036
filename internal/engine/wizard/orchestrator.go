package wizard

import (
	"context"
	"fmt"

	types "github.com/cartographai/discovery-backend/internal/domain"
	pkgerrors "github.com/cartographai/discovery-backend/internal/pkg/errors"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

// Orchestrator routes each turn to the subagent for the current step and
// owns the step-advance decision. One instance serves one session; it is
// not safe for concurrent use.
type Orchestrator struct {
	log    *logger.Logger
	agents map[string]Subagent
	step   string
	sink   TranscriptSink
	onStep func(ctx context.Context, newStep string) error
}

// NewOrchestrator builds a session-scoped orchestrator. sink and onStep may
// be nil (transcript / persistence hooks optional in tests). initialStep
// must be one of the fixed steps.
func NewOrchestrator(log *logger.Logger, initialStep string, agents map[string]Subagent, sink TranscriptSink, onStep func(ctx context.Context, newStep string) error) (*Orchestrator, error) {
	if stepIndex(initialStep) == -1 {
		return nil, fmt.Errorf("unknown step %q: %w", initialStep, pkgerrors.ErrInvalidArgument)
	}
	return &Orchestrator{
		log:    log.With("service", "DiscoveryOrchestrator"),
		agents: agents,
		step:   initialStep,
		sink:   sink,
		onStep: onStep,
	}, nil
}

func (o *Orchestrator) CurrentStep() string { return o.step }

// OverrideStep is the only way to skip or rewind; the orchestrator itself
// never moves backwards or jumps.
func (o *Orchestrator) OverrideStep(ctx context.Context, step string) error {
	if stepIndex(step) == -1 {
		return fmt.Errorf("unknown step %q: %w", step, pkgerrors.ErrInvalidArgument)
	}
	if step == o.step {
		return nil
	}
	o.step = step
	if o.onStep != nil {
		return o.onStep(ctx, step)
	}
	return nil
}

// Process handles one user turn. On StepComplete the step advances exactly
// once; the terminal step absorbs further completions. A step with no
// registered subagent yields a terminal "invalid step" reply without
// mutating anything.
func (o *Orchestrator) Process(ctx context.Context, message string) (Response, error) {
	agent, ok := o.agents[o.step]
	if !ok {
		resp := Response{Message: fmt.Sprintf("This session is on an invalid step (%s). Use the step override to recover.", o.step)}
		o.appendTranscript(ctx, message, resp)
		return resp, nil
	}

	resp, err := agent.Process(ctx, message)
	if err != nil {
		return Response{}, fmt.Errorf("step %s: %w", o.step, err)
	}

	if resp.StepComplete {
		if idx := stepIndex(o.step); idx >= 0 && idx < len(types.StepOrder)-1 {
			next := types.StepOrder[idx+1]
			o.log.Info("Step complete, advancing", "from", o.step, "to", next)
			o.step = next
			if o.onStep != nil {
				if err := o.onStep(ctx, next); err != nil {
					return Response{}, fmt.Errorf("persist step advance: %w", err)
				}
			}
		}
	}

	o.appendTranscript(ctx, message, resp)
	return resp, nil
}

func (o *Orchestrator) appendTranscript(ctx context.Context, userMessage string, resp Response) {
	if o.sink == nil {
		return
	}
	if err := o.sink.Append(ctx, types.MessageRoleUser, userMessage, nil); err != nil {
		o.log.Warn("Failed to append user turn", "error", err)
		return
	}
	if err := o.sink.Append(ctx, types.MessageRoleAssistant, resp.Message, resp.Choices); err != nil {
		o.log.Warn("Failed to append assistant turn", "error", err)
	}
}

func stepIndex(step string) int {
	for i, s := range types.StepOrder {
		if s == step {
			return i
		}
	}
	return -1
}
