package taxonomy

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/cartographai/discovery-backend/internal/domain"
	"github.com/cartographai/discovery-backend/internal/pkg/dbctx"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

// DetailedActivityRow is a detailed activity joined up the hierarchy so the
// caller can resolve the effective exposure score (override, else base).
type DetailedActivityRow struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	ExposureOverride *float64 `json:"exposure_override"`
	BaseExposure     *float64 `json:"base_exposure"`
}

type ActivityRepo interface {
	UpsertGeneralized(dbc dbctx.Context, rows []*types.GeneralizedActivity) error
	UpsertIntermediate(dbc dbctx.Context, rows []*types.IntermediateActivity) error
	UpsertDetailed(dbc dbctx.Context, rows []*types.DetailedActivity) error
	LinkOccupation(dbc dbctx.Context, code string, detailedIDs []string) error
	// ListDetailedForOccupation walks detailed → intermediate → generalized
	// to surface both the override and the ancestor base exposure.
	ListDetailedForOccupation(dbc dbctx.Context, code string) ([]DetailedActivityRow, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, log *logger.Logger) ActivityRepo {
	return &activityRepo{db: db, log: log.With("repo", "ActivityRepo")}
}

func (r *activityRepo) UpsertGeneralized(dbc dbctx.Context, rows []*types.GeneralizedActivity) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.UpdatedAt = now
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "exposure_score", "updated_at"}),
		}).
		Create(&rows).Error
}

func (r *activityRepo) UpsertIntermediate(dbc dbctx.Context, rows []*types.IntermediateActivity) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.UpdatedAt = now
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "generalized_activity_id", "updated_at"}),
		}).
		Create(&rows).Error
}

func (r *activityRepo) UpsertDetailed(dbc dbctx.Context, rows []*types.DetailedActivity) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.UpdatedAt = now
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "intermediate_activity_id", "exposure_override", "updated_at"}),
		}).
		Create(&rows).Error
}

func (r *activityRepo) LinkOccupation(dbc dbctx.Context, code string, detailedIDs []string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("missing occupation code")
	}
	if len(detailedIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]*types.OccupationActivity, 0, len(detailedIDs))
	for _, id := range detailedIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		rows = append(rows, &types.OccupationActivity{
			OccupationCode:     code,
			DetailedActivityID: id,
			CreatedAt:          now,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (r *activityRepo) ListDetailedForOccupation(dbc dbctx.Context, code string) ([]DetailedActivityRow, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("missing occupation code")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []DetailedActivityRow
	if err := txx.WithContext(dbc.Ctx).
		Table("detailed_activity AS da").
		Select("da.id AS id, da.name AS name, da.exposure_override AS exposure_override, ga.exposure_score AS base_exposure").
		Joins("JOIN occupation_activity oa ON oa.detailed_activity_id = da.id").
		Joins("LEFT JOIN intermediate_activity ia ON ia.id = da.intermediate_activity_id").
		Joins("LEFT JOIN generalized_activity ga ON ga.id = ia.generalized_activity_id").
		Where("oa.occupation_code = ?", code).
		Order("da.name ASC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
