package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/cartographai/discovery-backend/internal/data/repos/testutil"
	types "github.com/cartographai/discovery-backend/internal/domain"
	"github.com/cartographai/discovery-backend/internal/engine/mapping"
	"github.com/cartographai/discovery-backend/internal/pkg/dbctx"
	pkgerrors "github.com/cartographai/discovery-backend/internal/pkg/errors"
	"github.com/cartographai/discovery-backend/internal/platform/onet"
)

func TestCreateSessionDefaults(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	sess, err := e.discovery.CreateSession(ctx, nil, uuid.New(), nil, "  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.Status != types.StatusDraft || sess.CurrentStep != types.StepUpload {
		t.Fatalf("defaults: %+v", sess)
	}
	if sess.Name == "" {
		t.Fatal("blank name must get a default")
	}
}

func TestRegisterRosterAggregatesRoles(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sess := e.session(t, ctx)

	rows, err := e.discovery.RegisterRoster(ctx, nil, sess.ID, []RosterEntry{
		{Role: "Engineer", Headcount: 2, Department: "Eng"},
		{Role: "  engineer ", Headcount: 3, Department: "Platform"},
		{Role: "Analyst"},
		{Role: "   "},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("distinct roles = %d, want 2", len(rows))
	}

	byRole := map[string]*types.RoleMapping{}
	for _, m := range rows {
		byRole[m.SourceRole] = m
	}
	eng := byRole["Engineer"]
	if eng == nil || eng.RowCount != 5 {
		t.Fatalf("engineer aggregation: %+v", eng)
	}
	// First-seen attributes win for a merged role.
	if eng.Department != "Eng" {
		t.Fatalf("department = %q", eng.Department)
	}
	if byRole["Analyst"].RowCount != 1 {
		t.Fatalf("zero headcount must count as 1: %+v", byRole["Analyst"])
	}

	got, _ := e.sessionRepo.GetByID(dbctx.Context{Ctx: ctx}, sess.ID)
	if got.Status != types.StatusInProgress {
		t.Fatalf("status = %s", got.Status)
	}
}

func TestRegisterRosterReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sess := e.session(t, ctx)

	if _, err := e.discovery.RegisterRoster(ctx, nil, sess.ID, []RosterEntry{{Role: "Old Role"}}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	rows, err := e.discovery.RegisterRoster(ctx, nil, sess.ID, []RosterEntry{{Role: "New Role"}})
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if len(rows) != 1 || rows[0].SourceRole != "New Role" {
		t.Fatalf("replacement rows: %+v", rows)
	}
	all, _ := e.mappingRepo.ListBySession(dbctx.Context{Ctx: ctx}, sess.ID)
	if len(all) != 1 {
		t.Fatalf("stored mappings = %d, want 1", len(all))
	}
}

func TestRegisterRosterRejectsEmpty(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sess := e.session(t, ctx)

	if _, err := e.discovery.RegisterRoster(ctx, nil, sess.ID, []RosterEntry{{Role: "  "}}); err == nil {
		t.Fatal("expected error for an empty roster")
	}
}

func TestRegisterRosterRejectsFinalizedSession(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sess := e.session(t, ctx)

	if err := e.sessionRepo.UpdateFields(dbctx.Context{Ctx: ctx}, sess.ID, map[string]interface{}{
		"status": types.StatusFinalized,
	}); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	_, err := e.discovery.RegisterRoster(ctx, nil, sess.ID, []RosterEntry{{Role: "Engineer"}})
	if !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestProcessMessagePersistsTranscriptAndStep(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sess := e.session(t, ctx)

	if _, err := e.discovery.RegisterRoster(ctx, nil, sess.ID, []RosterEntry{{Role: "Engineer", Headcount: 10}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, err := e.discovery.ProcessMessage(ctx, sess.ID, "looks good, continue")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !resp.StepComplete {
		t.Fatalf("confirming the roster should complete upload: %+v", resp)
	}

	got, _ := e.sessionRepo.GetByID(dbctx.Context{Ctx: ctx}, sess.ID)
	if got.CurrentStep != types.StepMapRoles {
		t.Fatalf("current_step = %s", got.CurrentStep)
	}

	transcript, err := e.discovery.Transcript(ctx, nil, sess.ID, 10)
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if len(transcript) != 2 {
		t.Fatalf("transcript turns = %d, want 2", len(transcript))
	}
	if transcript[0].Role != types.MessageRoleUser || transcript[1].Role != types.MessageRoleAssistant {
		t.Fatalf("transcript roles: %s, %s", transcript[0].Role, transcript[1].Role)
	}
	if transcript[0].Seq >= transcript[1].Seq {
		t.Fatalf("seq order: %d, %d", transcript[0].Seq, transcript[1].Seq)
	}
}

func TestProcessMessageRejectsEmpty(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sess := e.session(t, ctx)

	if _, err := e.discovery.ProcessMessage(ctx, sess.ID, "   "); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestOverrideStepPersists(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sess := e.session(t, ctx)

	if _, err := e.discovery.OverrideStep(ctx, sess.ID, "bogus"); err == nil {
		t.Fatal("expected error for unknown step")
	}
	got, err := e.discovery.OverrideStep(ctx, sess.ID, types.StepAnalyze)
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if got.CurrentStep != types.StepAnalyze {
		t.Fatalf("current_step = %s", got.CurrentStep)
	}
}

// TestAnalyzeCompletionLeavesSessionOpen walks a session through the analyze
// step and checks the lifecycle at the boundary: completing analysis moves
// the step to roadmap, but only the roadmap step itself may finalize.
func TestAnalyzeCompletionLeavesSessionOpen(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	code := "15-1252.00"
	e.mapper.results["Software Engineer"] = mapping.Result{
		Code: &code, Title: testutil.Str("Software Developers"),
		Tier: types.TierHigh, Confidence: 0.95, Reasoning: "direct match",
	}
	e.catalog.activities[code] = []onet.DetailedActivity{
		{ID: "dwa-1", Name: "Write computer programs", ExposureScore: testutil.Float(0.9)},
	}

	sess, err := e.discovery.CreateSession(ctx, nil, uuid.New(), nil, "Acme discovery")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.discovery.RegisterRoster(ctx, nil, sess.ID, []RosterEntry{
		{Role: "Software Engineer", Headcount: 120},
	}); err != nil {
		t.Fatalf("roster: %v", err)
	}

	for _, msg := range []string{
		"continue",
		"run the mapping", "confirm the high-confidence ones", "continue",
		"load the activities", "continue",
		"analyze", "continue",
	} {
		if _, err := e.discovery.ProcessMessage(ctx, sess.ID, msg); err != nil {
			t.Fatalf("message %q: %v", msg, err)
		}
	}

	got, err := e.sessionRepo.GetByID(dbctx.Context{Ctx: ctx}, sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.CurrentStep != types.StepRoadmap {
		t.Fatalf("current_step = %s, want %s", got.CurrentStep, types.StepRoadmap)
	}
	if got.Status != types.StatusAnalysisComplete {
		t.Fatalf("status = %s, want %s", got.Status, types.StatusAnalysisComplete)
	}
}

// TestDiscoveryWizardEndToEnd walks one session through every step of the
// conversation, down to a finalized roadmap.
func TestDiscoveryWizardEndToEnd(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	code := "15-1252.00"
	e.mapper.results["Software Engineer"] = mapping.Result{
		Code: &code, Title: testutil.Str("Software Developers"),
		Tier: types.TierHigh, Confidence: 0.95, Reasoning: "direct match",
	}
	e.catalog.activities[code] = []onet.DetailedActivity{
		{ID: "dwa-1", Name: "Write computer programs", ExposureScore: testutil.Float(0.9)},
		{ID: "dwa-2", Name: "Coordinate with stakeholders", ExposureScore: testutil.Float(0.4)},
	}

	sess, err := e.discovery.CreateSession(ctx, nil, uuid.New(), nil, "Acme discovery")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.discovery.RegisterRoster(ctx, nil, sess.ID, []RosterEntry{
		{Role: "Software Engineer", Headcount: 120, Department: "Engineering", Geography: "US"},
	}); err != nil {
		t.Fatalf("roster: %v", err)
	}

	say := func(msg string) *types.DiscoverySession {
		t.Helper()
		if _, err := e.discovery.ProcessMessage(ctx, sess.ID, msg); err != nil {
			t.Fatalf("message %q: %v", msg, err)
		}
		got, err := e.sessionRepo.GetByID(dbctx.Context{Ctx: ctx}, sess.ID)
		if err != nil {
			t.Fatalf("get session: %v", err)
		}
		return got
	}

	if got := say("continue"); got.CurrentStep != types.StepMapRoles {
		t.Fatalf("after upload confirm: %s", got.CurrentStep)
	}
	say("run the mapping")
	say("confirm the high-confidence ones")
	if got := say("continue"); got.CurrentStep != types.StepSelectActivities {
		t.Fatalf("after mapping: %s", got.CurrentStep)
	}
	say("load the activities")
	if got := say("continue"); got.CurrentStep != types.StepAnalyze {
		t.Fatalf("after activity curation: %s", got.CurrentStep)
	}
	say("analyze")
	if got := say("continue"); got.CurrentStep != types.StepRoadmap {
		t.Fatalf("after analysis: %s", got.CurrentStep)
	}
	say("generate the roadmap")
	say("build the top candidate")
	say("finish")
	final := say("Yes, finalize")
	if final.CurrentStep != types.StepRoadmap {
		t.Fatalf("terminal step moved: %s", final.CurrentStep)
	}
	if final.Status != types.StatusFinalized {
		t.Fatalf("status = %s, want %s", final.Status, types.StatusFinalized)
	}

	candidates, err := e.roadmapSvc.ListBySession(ctx, nil, sess.ID, "")
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(candidates) != 1 || !candidates[0].SelectedForBuild {
		t.Fatalf("final roadmap: %+v", candidates)
	}
	if candidates[0].Name != "Software Engineer Automation Agent" {
		t.Fatalf("candidate name = %q", candidates[0].Name)
	}
}
