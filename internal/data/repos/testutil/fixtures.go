package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/cartographai/discovery-backend/internal/domain"
)

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) *types.DiscoverySession {
	tb.Helper()
	now := time.Now().UTC()
	s := &types.DiscoverySession{
		ID:          uuid.New(),
		OwnerUserID: ownerID,
		Name:        "discovery",
		Status:      types.StatusDraft,
		CurrentStep: types.StepUpload,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}

func SeedMapping(tb testing.TB, ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, sourceRole string, rowCount int, code *string, score float64, tier string) *types.RoleMapping {
	tb.Helper()
	now := time.Now().UTC()
	m := &types.RoleMapping{
		ID:              uuid.New(),
		SessionID:       sessionID,
		SourceRole:      sourceRole,
		OccupationCode:  code,
		ConfidenceScore: score,
		ConfidenceTier:  tier,
		RowCount:        rowCount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed mapping: %v", err)
	}
	return m
}

func SeedSelection(tb testing.TB, ctx context.Context, tx *gorm.DB, sessionID, mappingID uuid.UUID, activityID string, exposure *float64, selected bool) *types.ActivitySelection {
	tb.Helper()
	now := time.Now().UTC()
	s := &types.ActivitySelection{
		ID:                 uuid.New(),
		SessionID:          sessionID,
		RoleMappingID:      mappingID,
		DetailedActivityID: activityID,
		ActivityName:       "activity " + activityID,
		ExposureScore:      exposure,
		Selected:           selected,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed selection: %v", err)
	}
	return s
}

// SeedTaxonomy creates one occupation with a GWA → IWA → DWA chain and the
// occupation↔DWA link. The detailed activity carries the given override
// (nil means it inherits baseExposure).
func SeedTaxonomy(tb testing.TB, ctx context.Context, tx *gorm.DB, code, dwaID string, baseExposure float64, override *float64) {
	tb.Helper()
	now := time.Now().UTC()

	occ := &types.Occupation{Code: code, Title: "occupation " + code, CreatedAt: now, UpdatedAt: now}
	gwa := &types.GeneralizedActivity{ID: "gwa-" + dwaID, Name: "gwa", ExposureScore: baseExposure, CreatedAt: now, UpdatedAt: now}
	iwa := &types.IntermediateActivity{ID: "iwa-" + dwaID, GeneralizedActivityID: gwa.ID, Name: "iwa", CreatedAt: now, UpdatedAt: now}
	dwa := &types.DetailedActivity{ID: dwaID, IntermediateActivityID: iwa.ID, Name: "dwa " + dwaID, ExposureOverride: override, CreatedAt: now, UpdatedAt: now}
	link := &types.OccupationActivity{OccupationCode: code, DetailedActivityID: dwaID, CreatedAt: now}

	if err := tx.WithContext(ctx).Where(&types.Occupation{Code: code}).FirstOrCreate(occ).Error; err != nil {
		tb.Fatalf("seed taxonomy: %v", err)
	}
	for _, row := range []interface{}{gwa, iwa, dwa, link} {
		if err := tx.WithContext(ctx).Create(row).Error; err != nil {
			tb.Fatalf("seed taxonomy: %v", err)
		}
	}
}

func Float(v float64) *float64 { return &v }

func Str(v string) *string { return &v }
