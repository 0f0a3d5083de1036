package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cartographai/discovery-backend/internal/data/repos"
	types "github.com/cartographai/discovery-backend/internal/domain"
	"github.com/cartographai/discovery-backend/internal/engine/scoring"
	"github.com/cartographai/discovery-backend/internal/pkg/dbctx"
	pkgerrors "github.com/cartographai/discovery-backend/internal/pkg/errors"
	"github.com/cartographai/discovery-backend/internal/platform/apierr"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
	"github.com/cartographai/discovery-backend/internal/platform/onet"
)

// defaultSelectThreshold pre-selects activities whose effective exposure is
// at or above this value when they are first loaded.
const defaultSelectThreshold = 0.5

// ActivityCatalog is the slice of the occupation catalog this service needs.
type ActivityCatalog interface {
	ActivitiesForOccupation(ctx context.Context, code string) ([]onet.DetailedActivity, error)
}

type ActivityService interface {
	// LoadForSession fetches detailed work activities for every mapped
	// occupation and creates selection rows for mappings that have none yet.
	LoadForSession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int, error)
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.ActivitySelection, error)
	ListByMapping(ctx context.Context, tx *gorm.DB, mappingID uuid.UUID) ([]*types.ActivitySelection, error)
	// Toggle flips one selection and marks it user-modified so bulk threshold
	// passes leave it alone.
	Toggle(ctx context.Context, tx *gorm.DB, selectionID uuid.UUID, selected bool) (*types.ActivitySelection, error)
	// SetAll selects or deselects everything in the session, including
	// user-modified rows.
	SetAll(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, selected bool) (int64, error)
	// SelectByThreshold selects rows at or above the exposure threshold and
	// deselects the rest, skipping user-modified rows.
	SelectByThreshold(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, threshold float64) (int64, error)
}

type activityService struct {
	db            *gorm.DB
	log           *logger.Logger
	mappingRepo   repos.RoleMappingRepo
	selectionRepo repos.ActivitySelectionRepo
	activityRepo  repos.ActivityRepo
	catalog       ActivityCatalog
}

func NewActivityService(
	db *gorm.DB,
	baseLog *logger.Logger,
	mappingRepo repos.RoleMappingRepo,
	selectionRepo repos.ActivitySelectionRepo,
	activityRepo repos.ActivityRepo,
	catalog ActivityCatalog,
) ActivityService {
	return &activityService{
		db:            db,
		log:           baseLog.With("service", "ActivityService"),
		mappingRepo:   mappingRepo,
		selectionRepo: selectionRepo,
		activityRepo:  activityRepo,
		catalog:       catalog,
	}
}

func (s *activityService) LoadForSession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int, error) {
	if sessionID == uuid.Nil {
		return 0, fmt.Errorf("missing session_id: %w", pkgerrors.ErrInvalidArgument)
	}
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	mappings, err := s.mappingRepo.ListBySession(dbc, sessionID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, m := range mappings {
		if m.OccupationCode == nil {
			continue
		}
		existing, err := s.selectionRepo.ListByMapping(dbc, m.ID)
		if err != nil {
			return created, err
		}
		if len(existing) > 0 {
			continue
		}

		rows, err := s.activitiesForCode(ctx, dbc, *m.OccupationCode)
		if err != nil {
			s.log.Warn("LoadForSession: activity lookup failed", "error", err,
				"mapping_id", m.ID, "occupation_code", *m.OccupationCode)
			return created, err
		}

		selections := make([]*types.ActivitySelection, 0, len(rows))
		for _, row := range rows {
			exposure := scoring.EffectiveExposure(row.ExposureOverride, row.BaseExposure)
			selections = append(selections, &types.ActivitySelection{
				SessionID:          sessionID,
				RoleMappingID:      m.ID,
				DetailedActivityID: row.ID,
				ActivityName:       row.Name,
				ExposureScore:      exposure,
				Selected:           exposure != nil && *exposure >= defaultSelectThreshold,
			})
		}
		if _, err := s.selectionRepo.CreateBulk(dbc, selections); err != nil {
			return created, err
		}
		created += len(selections)
	}
	s.log.Info("Activities loaded", "session_id", sessionID, "created", created)
	return created, nil
}

// activitiesForCode serves from the local taxonomy when possible and falls
// back to the live catalog, caching what it fetched.
func (s *activityService) activitiesForCode(ctx context.Context, dbc dbctx.Context, code string) ([]repos.DetailedActivityRow, error) {
	rows, err := s.activityRepo.ListDetailedForOccupation(dbc, code)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows, nil
	}

	acts, err := s.catalog.ActivitiesForOccupation(ctx, code)
	if err != nil {
		// A live catalog failure is an upstream problem, not ours.
		return nil, apierr.New(http.StatusBadGateway, "occupation_catalog_unavailable", err)
	}
	detailed := make([]*types.DetailedActivity, 0, len(acts))
	ids := make([]string, 0, len(acts))
	out := make([]repos.DetailedActivityRow, 0, len(acts))
	for _, a := range acts {
		detailed = append(detailed, &types.DetailedActivity{
			ID:               a.ID,
			Name:             a.Name,
			ExposureOverride: a.ExposureScore,
		})
		ids = append(ids, a.ID)
		out = append(out, repos.DetailedActivityRow{
			ID:               a.ID,
			Name:             a.Name,
			ExposureOverride: a.ExposureScore,
		})
	}
	if err := s.activityRepo.UpsertDetailed(dbc, detailed); err != nil {
		return nil, err
	}
	if err := s.activityRepo.LinkOccupation(dbc, code, ids); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *activityService) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.ActivitySelection, error) {
	return s.selectionRepo.ListBySession(dbctx.Context{Ctx: ctx, Tx: tx}, sessionID)
}

func (s *activityService) ListByMapping(ctx context.Context, tx *gorm.DB, mappingID uuid.UUID) ([]*types.ActivitySelection, error) {
	return s.selectionRepo.ListByMapping(dbctx.Context{Ctx: ctx, Tx: tx}, mappingID)
}

func (s *activityService) Toggle(ctx context.Context, tx *gorm.DB, selectionID uuid.UUID, selected bool) (*types.ActivitySelection, error) {
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	if err := s.selectionRepo.SetSelected(dbc, selectionID, selected, true); err != nil {
		return nil, err
	}
	return s.selectionRepo.GetByID(dbc, selectionID)
}

func (s *activityService) SetAll(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, selected bool) (int64, error) {
	n, err := s.selectionRepo.BulkSetSelected(dbctx.Context{Ctx: ctx, Tx: tx}, sessionID, selected)
	if err != nil {
		return 0, err
	}
	s.log.Info("Bulk selection applied", "session_id", sessionID, "selected", selected, "rows", n)
	return n, nil
}

func (s *activityService) SelectByThreshold(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, threshold float64) (int64, error) {
	if threshold < 0 || threshold > 1 {
		return 0, fmt.Errorf("threshold must be within [0,1]: %w", pkgerrors.ErrInvalidArgument)
	}
	return s.selectionRepo.SelectByExposureThreshold(dbctx.Context{Ctx: ctx, Tx: tx}, sessionID, threshold)
}
