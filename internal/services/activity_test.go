package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/cartographai/discovery-backend/internal/data/repos/testutil"
	types "github.com/cartographai/discovery-backend/internal/domain"
	"github.com/cartographai/discovery-backend/internal/pkg/dbctx"
	"github.com/cartographai/discovery-backend/internal/platform/apierr"
	"github.com/cartographai/discovery-backend/internal/platform/onet"
)

func TestLoadForSessionUsesLocalTaxonomy(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sess := e.session(t, ctx)

	code := "15-1252.00"
	testutil.SeedTaxonomy(t, ctx, e.db, code, "dwa-1", 0.8, nil)
	testutil.SeedTaxonomy(t, ctx, e.db, code, "dwa-2", 0.9, testutil.Float(0.3))
	testutil.SeedMapping(t, ctx, e.db, sess.ID, "Software Engineer", 100, &code, 0.95, types.TierHigh)

	created, err := e.activitySvc.LoadForSession(ctx, nil, sess.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}
	if e.catalog.calls != 0 {
		t.Fatalf("catalog called %d times for a locally known occupation", e.catalog.calls)
	}

	selections, err := e.activitySvc.ListBySession(ctx, nil, sess.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	byActivity := map[string]*types.ActivitySelection{}
	for _, s := range selections {
		byActivity[s.DetailedActivityID] = s
	}
	inherit := byActivity["dwa-1"]
	if inherit.ExposureScore == nil || *inherit.ExposureScore != 0.8 || !inherit.Selected {
		t.Fatalf("inherited exposure row wrong: %+v", inherit)
	}
	// The override beats the ancestor base score and falls under the
	// preselect threshold.
	override := byActivity["dwa-2"]
	if override.ExposureScore == nil || *override.ExposureScore != 0.3 || override.Selected {
		t.Fatalf("override row wrong: %+v", override)
	}
}

func TestLoadForSessionFallsBackToCatalog(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sess := e.session(t, ctx)

	code := "43-4051.00"
	testutil.SeedMapping(t, ctx, e.db, sess.ID, "Support Rep", 20, &code, 0.75, types.TierMedium)
	e.catalog.activities[code] = []onet.DetailedActivity{
		{ID: "dwa-x", Name: "Respond to customer inquiries", ExposureScore: testutil.Float(0.7)},
		{ID: "dwa-y", Name: "Escalate unusual cases", ExposureScore: nil},
	}

	created, err := e.activitySvc.LoadForSession(ctx, nil, sess.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if created != 2 || e.catalog.calls != 1 {
		t.Fatalf("created = %d, catalog calls = %d", created, e.catalog.calls)
	}

	// The fetch is cached into the taxonomy tables.
	rows, err := e.activityRepo.ListDetailedForOccupation(dbctx.Context{Ctx: ctx}, code)
	if err != nil {
		t.Fatalf("taxonomy list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("taxonomy rows = %d, want 2", len(rows))
	}

	// Loading again creates nothing new and stays off the network.
	created, err = e.activitySvc.LoadForSession(ctx, nil, sess.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if created != 0 || e.catalog.calls != 1 {
		t.Fatalf("reload created = %d, catalog calls = %d", created, e.catalog.calls)
	}

	selections, _ := e.activitySvc.ListBySession(ctx, nil, sess.ID)
	for _, s := range selections {
		if s.DetailedActivityID == "dwa-y" {
			if s.ExposureScore != nil || s.Selected {
				t.Fatalf("unknown exposure must load deselected: %+v", s)
			}
		}
	}
}

func TestLoadForSessionSurfacesCatalogOutage(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sess := e.session(t, ctx)

	code := "43-4051.00"
	testutil.SeedMapping(t, ctx, e.db, sess.ID, "Support Rep", 20, &code, 0.75, types.TierMedium)
	e.catalog.err = fmt.Errorf("onet: connection refused")

	_, err := e.activitySvc.LoadForSession(ctx, nil, sess.ID)
	if err == nil {
		t.Fatal("expected error when the catalog is down")
	}
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("error %v does not carry a status", err)
	}
	if ae.Status != http.StatusBadGateway || ae.Code != "occupation_catalog_unavailable" {
		t.Fatalf("status = %d, code = %q", ae.Status, ae.Code)
	}
}

func TestLoadForSessionSkipsUnmappedRoles(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sess := e.session(t, ctx)

	testutil.SeedMapping(t, ctx, e.db, sess.ID, "Mystery", 5, nil, 0, types.TierLow)

	created, err := e.activitySvc.LoadForSession(ctx, nil, sess.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if created != 0 || e.catalog.calls != 0 {
		t.Fatalf("created = %d, catalog calls = %d", created, e.catalog.calls)
	}
}

func TestToggleMarksUserModified(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sess := e.session(t, ctx)
	m := testutil.SeedMapping(t, ctx, e.db, sess.ID, "Engineer", 10, testutil.Str("15-1252.00"), 0.95, types.TierHigh)
	sel := testutil.SeedSelection(t, ctx, e.db, sess.ID, m.ID, "dwa-1", testutil.Float(0.8), true)

	out, err := e.activitySvc.Toggle(ctx, nil, sel.ID, false)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if out.Selected || !out.UserModified {
		t.Fatalf("toggle result: %+v", out)
	}

	// A later threshold pass leaves the hand-toggled row alone.
	if _, err := e.activitySvc.SelectByThreshold(ctx, nil, sess.ID, 0.5); err != nil {
		t.Fatalf("threshold: %v", err)
	}
	after, err := e.selectionRepo.GetByID(dbctx.Context{Ctx: ctx}, sel.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if after.Selected {
		t.Fatal("threshold pass overrode a user-modified row")
	}
}

func TestSelectByThresholdValidatesRange(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sess := e.session(t, ctx)

	if _, err := e.activitySvc.SelectByThreshold(ctx, nil, sess.ID, 1.5); err == nil {
		t.Fatal("expected range error")
	}
}
