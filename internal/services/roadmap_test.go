package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	types "github.com/cartographai/discovery-backend/internal/domain"
	"github.com/cartographai/discovery-backend/internal/pkg/dbctx"
)

func seedResult(t *testing.T, ctx context.Context, e *env, sessionID uuid.UUID, role string, exposure, impact, complexity, priority float64) *types.AnalysisResult {
	t.Helper()
	rows, err := e.resultRepo.CreateBulk(dbctx.Context{Ctx: ctx}, []*types.AnalysisResult{{
		SessionID:       sessionID,
		RoleMappingID:   uuid.New(),
		Dimension:       types.DimensionRole,
		DimensionValue:  role,
		ExposureScore:   exposure,
		ImpactScore:     impact,
		ComplexityScore: complexity,
		PriorityScore:   priority,
		PriorityTier:    types.TierMedium,
		RunID:           uuid.New(),
	}})
	if err != nil {
		t.Fatalf("seed result: %v", err)
	}
	return rows[0]
}

func TestGenerateDerivesCandidatesFromRoleResults(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sess := e.session(t, ctx)

	seedResult(t, ctx, e, sess.ID, "Software Engineer", 0.9, 0.8, 0.1, 0.8)
	seedResult(t, ctx, e, sess.ID, "Data Analyst", 0.7, 0.5, 0.3, 0.65)
	seedResult(t, ctx, e, sess.ID, "Paralegal", 0.3, 0.1, 0.7, 0.2)

	candidates, err := e.roadmapSvc.Generate(ctx, nil, sess.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("candidates = %d, want 3", len(candidates))
	}

	byName := map[string]*types.RoadmapCandidate{}
	for _, c := range candidates {
		byName[c.Name] = c
	}
	se := byName["Software Engineer Automation Agent"]
	if se == nil {
		t.Fatalf("missing engineer candidate: %v", byName)
	}
	if se.PriorityTier != types.BuildTierNow {
		t.Fatalf("engineer tier = %s", se.PriorityTier)
	}
	if !strings.Contains(se.Description, "90%") {
		t.Fatalf("description = %q", se.Description)
	}
	if byName["Data Analyst Automation Agent"].PriorityTier != types.BuildTierNextQuarter {
		t.Fatalf("analyst tier = %s", byName["Data Analyst Automation Agent"].PriorityTier)
	}
	if byName["Paralegal Automation Agent"].PriorityTier != types.BuildTierFuture {
		t.Fatalf("paralegal tier = %s", byName["Paralegal Automation Agent"].PriorityTier)
	}
}

func TestGenerateSupersedesPreviousRoadmap(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sess := e.session(t, ctx)

	seedResult(t, ctx, e, sess.ID, "Engineer", 0.8, 0.6, 0.2, 0.7)
	if _, err := e.roadmapSvc.Generate(ctx, nil, sess.ID); err != nil {
		t.Fatalf("first generate: %v", err)
	}
	if _, err := e.roadmapSvc.Generate(ctx, nil, sess.ID); err != nil {
		t.Fatalf("second generate: %v", err)
	}
	candidates, err := e.roadmapSvc.ListBySession(ctx, nil, sess.ID, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d after regenerate, want 1", len(candidates))
	}
}

func TestListBySessionRejectsUnknownTier(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sess := e.session(t, ctx)

	if _, err := e.roadmapSvc.ListBySession(ctx, nil, sess.ID, "HIGH"); err == nil {
		t.Fatal("presentation tiers are not build tiers; expected error")
	}
}

func TestSelectTopPicksHighestImpactUnselected(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sess := e.session(t, ctx)

	seedResult(t, ctx, e, sess.ID, "Engineer", 0.9, 0.9, 0.1, 0.85)
	seedResult(t, ctx, e, sess.ID, "Analyst", 0.7, 0.4, 0.3, 0.6)
	if _, err := e.roadmapSvc.Generate(ctx, nil, sess.ID); err != nil {
		t.Fatalf("generate: %v", err)
	}

	first, err := e.roadmapSvc.SelectTop(ctx, nil, sess.ID)
	if err != nil {
		t.Fatalf("select top: %v", err)
	}
	if first.Name != "Engineer Automation Agent" || !first.SelectedForBuild {
		t.Fatalf("first pick: %+v", first)
	}

	second, err := e.roadmapSvc.SelectTop(ctx, nil, sess.ID)
	if err != nil {
		t.Fatalf("select next: %v", err)
	}
	if second.Name != "Analyst Automation Agent" {
		t.Fatalf("second pick: %+v", second)
	}

	if _, err := e.roadmapSvc.SelectTop(ctx, nil, sess.ID); err == nil {
		t.Fatal("expected error once everything is selected")
	}
}

func TestUpdateAndLinkIntake(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sess := e.session(t, ctx)

	seedResult(t, ctx, e, sess.ID, "Engineer", 0.8, 0.6, 0.2, 0.7)
	candidates, err := e.roadmapSvc.Generate(ctx, nil, sess.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	c := candidates[0]

	intakeID := uuid.New()
	if _, err := e.roadmapSvc.LinkIntake(ctx, nil, c.ID, intakeID); err == nil {
		t.Fatal("linking an unselected candidate must fail")
	}

	tier := types.BuildTierNow
	selected := true
	updated, err := e.roadmapSvc.Update(ctx, nil, c.ID, CandidateUpdate{PriorityTier: &tier, SelectedForBuild: &selected})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.PriorityTier != types.BuildTierNow || !updated.SelectedForBuild {
		t.Fatalf("updated: %+v", updated)
	}

	bad := "soon"
	if _, err := e.roadmapSvc.Update(ctx, nil, c.ID, CandidateUpdate{PriorityTier: &bad}); err == nil {
		t.Fatal("unknown tier must fail")
	}

	linked, err := e.roadmapSvc.LinkIntake(ctx, nil, c.ID, intakeID)
	if err != nil {
		t.Fatalf("link intake: %v", err)
	}
	if linked.IntakeRequestID == nil || *linked.IntakeRequestID != intakeID {
		t.Fatalf("intake link: %+v", linked)
	}
}

func TestBulkSetSelectedByTier(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sess := e.session(t, ctx)

	seedResult(t, ctx, e, sess.ID, "Engineer", 0.9, 0.9, 0.1, 0.85) // now
	seedResult(t, ctx, e, sess.ID, "Analyst", 0.7, 0.4, 0.3, 0.65)  // next_quarter
	if _, err := e.roadmapSvc.Generate(ctx, nil, sess.ID); err != nil {
		t.Fatalf("generate: %v", err)
	}

	report, err := e.roadmapSvc.BulkSetSelected(ctx, nil, sess.ID, types.BuildTierNow, true)
	if err != nil {
		t.Fatalf("bulk set: %v", err)
	}
	if !report.Success || report.Processed != 1 {
		t.Fatalf("report = %+v", report)
	}

	n, err := e.roadmapSvc.CountSelectedForBuild(ctx, nil, sess.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("selected = %d, want 1", n)
	}
}
