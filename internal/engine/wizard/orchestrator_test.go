package wizard

import (
	"context"
	"errors"
	"testing"

	types "github.com/cartographai/discovery-backend/internal/domain"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

type stubAgent struct {
	resp  Response
	err   error
	calls int
}

func (s *stubAgent) Process(context.Context, string) (Response, error) {
	s.calls++
	return s.resp, s.err
}

type memSink struct {
	turns []string
	roles []string
}

func (m *memSink) Append(_ context.Context, role, content string, _ []string) error {
	m.roles = append(m.roles, role)
	m.turns = append(m.turns, content)
	return nil
}

func testLog(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func allSteps(agent Subagent) map[string]Subagent {
	out := map[string]Subagent{}
	for _, s := range types.StepOrder {
		out[s] = agent
	}
	return out
}

func TestStepCompleteAdvancesExactlyOnce(t *testing.T) {
	agent := &stubAgent{resp: Response{Message: "ok", StepComplete: true}}
	var persisted []string
	o, err := NewOrchestrator(testLog(t), types.StepUpload, allSteps(agent), nil,
		func(_ context.Context, s string) error {
			persisted = append(persisted, s)
			return nil
		})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, err := o.Process(context.Background(), "go"); err != nil {
		t.Fatalf("process: %v", err)
	}
	if o.CurrentStep() != types.StepMapRoles {
		t.Fatalf("current step: %s", o.CurrentStep())
	}
	if len(persisted) != 1 || persisted[0] != types.StepMapRoles {
		t.Fatalf("persisted: %v", persisted)
	}
}

func TestStepNotCompleteLeavesStateUnchanged(t *testing.T) {
	agent := &stubAgent{resp: Response{Message: "more to do"}}
	o, err := NewOrchestrator(testLog(t), types.StepAnalyze, allSteps(agent), nil, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := o.Process(context.Background(), "hm"); err != nil {
		t.Fatalf("process: %v", err)
	}
	if o.CurrentStep() != types.StepAnalyze {
		t.Fatalf("step moved: %s", o.CurrentStep())
	}
}

func TestTerminalStepAbsorbsCompletion(t *testing.T) {
	agent := &stubAgent{resp: Response{Message: "done", StepComplete: true}}
	o, err := NewOrchestrator(testLog(t), types.StepRoadmap, allSteps(agent), nil, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := o.Process(context.Background(), "finish"); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if o.CurrentStep() != types.StepRoadmap {
		t.Fatalf("terminal step moved: %s", o.CurrentStep())
	}
}

func TestFullWalkThroughAllSteps(t *testing.T) {
	agent := &stubAgent{resp: Response{StepComplete: true}}
	o, err := NewOrchestrator(testLog(t), types.StepUpload, allSteps(agent), nil, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for range types.StepOrder {
		if _, err := o.Process(context.Background(), "next"); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if o.CurrentStep() != types.StepRoadmap {
		t.Fatalf("expected terminal step, got %s", o.CurrentStep())
	}
}

func TestMissingSubagentIsTerminalReply(t *testing.T) {
	o, err := NewOrchestrator(testLog(t), types.StepUpload, map[string]Subagent{}, nil, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	resp, err := o.Process(context.Background(), "hello")
	if err != nil {
		t.Fatalf("process should not error: %v", err)
	}
	if resp.StepComplete {
		t.Fatal("invalid step must not complete")
	}
	if o.CurrentStep() != types.StepUpload {
		t.Fatalf("invalid step mutated state: %s", o.CurrentStep())
	}
}

func TestTranscriptOrderUserThenAssistant(t *testing.T) {
	agent := &stubAgent{resp: Response{Message: "reply"}}
	sink := &memSink{}
	o, err := NewOrchestrator(testLog(t), types.StepUpload, allSteps(agent), sink, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := o.Process(context.Background(), "question"); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(sink.roles) != 2 || sink.roles[0] != types.MessageRoleUser || sink.roles[1] != types.MessageRoleAssistant {
		t.Fatalf("transcript roles: %v", sink.roles)
	}
	if sink.turns[0] != "question" || sink.turns[1] != "reply" {
		t.Fatalf("transcript turns: %v", sink.turns)
	}
}

func TestSubagentErrorDoesNotAdvance(t *testing.T) {
	agent := &stubAgent{err: errors.New("boom")}
	o, err := NewOrchestrator(testLog(t), types.StepMapRoles, allSteps(agent), nil, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := o.Process(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
	if o.CurrentStep() != types.StepMapRoles {
		t.Fatalf("step moved on error: %s", o.CurrentStep())
	}
}

func TestOverrideStepValidation(t *testing.T) {
	o, err := NewOrchestrator(testLog(t), types.StepUpload, map[string]Subagent{}, nil, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := o.OverrideStep(context.Background(), "bogus"); err == nil {
		t.Fatal("expected error for unknown step")
	}
	if err := o.OverrideStep(context.Background(), types.StepRoadmap); err != nil {
		t.Fatalf("override: %v", err)
	}
	if o.CurrentStep() != types.StepRoadmap {
		t.Fatalf("override ignored: %s", o.CurrentStep())
	}
}

func TestNewOrchestratorRejectsUnknownStep(t *testing.T) {
	if _, err := NewOrchestrator(testLog(t), "nope", map[string]Subagent{}, nil, nil); err == nil {
		t.Fatal("expected error")
	}
}
