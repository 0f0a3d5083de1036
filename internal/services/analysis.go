package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cartographai/discovery-backend/internal/data/repos"
	types "github.com/cartographai/discovery-backend/internal/domain"
	"github.com/cartographai/discovery-backend/internal/engine/scoring"
	"github.com/cartographai/discovery-backend/internal/pkg/dbctx"
	pkgerrors "github.com/cartographai/discovery-backend/internal/pkg/errors"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

type AnalysisService interface {
	// Run scores every mapped role across all dimensions. A re-run deletes
	// the previous results first; partial runs never mix with old ones.
	Run(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.AnalysisResult, error)
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, dimension string) ([]*types.AnalysisResult, error)
}

type analysisService struct {
	db            *gorm.DB
	log           *logger.Logger
	sessionRepo   repos.SessionRepo
	mappingRepo   repos.RoleMappingRepo
	selectionRepo repos.ActivitySelectionRepo
	resultRepo    repos.AnalysisResultRepo
	weights       scoring.Weights
}

func NewAnalysisService(
	db *gorm.DB,
	baseLog *logger.Logger,
	sessionRepo repos.SessionRepo,
	mappingRepo repos.RoleMappingRepo,
	selectionRepo repos.ActivitySelectionRepo,
	resultRepo repos.AnalysisResultRepo,
	weights scoring.Weights,
) AnalysisService {
	if weights == (scoring.Weights{}) {
		weights = scoring.DefaultWeights()
	}
	return &analysisService{
		db:            db,
		log:           baseLog.With("service", "AnalysisService"),
		sessionRepo:   sessionRepo,
		mappingRepo:   mappingRepo,
		selectionRepo: selectionRepo,
		resultRepo:    resultRepo,
		weights:       weights,
	}
}

// breakdown is the per-result audit payload stored alongside the scores.
type breakdown struct {
	SourceRole         string          `json:"source_role"`
	SelectedActivities int             `json:"selected_activities"`
	RowCount           int             `json:"row_count"`
	MaxHeadcount       int             `json:"max_headcount"`
	Weights            scoring.Weights `json:"weights"`
}

func (s *analysisService) Run(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.AnalysisResult, error) {
	if sessionID == uuid.Nil {
		return nil, fmt.Errorf("missing session_id: %w", pkgerrors.ErrInvalidArgument)
	}
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	mappings, err := s.mappingRepo.ListBySession(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	mapped := make([]*types.RoleMapping, 0, len(mappings))
	for _, m := range mappings {
		if m.OccupationCode != nil {
			mapped = append(mapped, m)
		}
	}
	if len(mapped) == 0 {
		return nil, fmt.Errorf("no mapped roles to analyze: %w", pkgerrors.ErrInvalidArgument)
	}

	maxHeadcount, err := s.mappingRepo.MaxRowCount(dbc, sessionID)
	if err != nil {
		return nil, err
	}

	runID := uuid.New()
	rows := make([]*types.AnalysisResult, 0, len(mapped)*len(types.Dimensions))
	for _, m := range mapped {
		selections, err := s.selectionRepo.ListSelectedByMapping(dbc, m.ID)
		if err != nil {
			return nil, err
		}

		scores := make([]float64, 0, len(selections))
		topActivity := ""
		topExposure := -1.0
		for _, sel := range selections {
			if sel.ExposureScore == nil {
				continue
			}
			scores = append(scores, *sel.ExposureScore)
			if *sel.ExposureScore > topExposure {
				topExposure = *sel.ExposureScore
				topActivity = sel.ActivityName
			}
		}

		exposure := scoring.Exposure(scores)
		complexity := scoring.Complexity(exposure)
		impact := scoring.Impact(m.RowCount, exposure, maxHeadcount)
		priority := scoring.Priority(exposure, impact, complexity, s.weights)
		tier := scoring.PresentationTier(scoring.BuildTier(priority, complexity))

		bd, err := json.Marshal(breakdown{
			SourceRole:         m.SourceRole,
			SelectedActivities: len(selections),
			RowCount:           m.RowCount,
			MaxHeadcount:       maxHeadcount,
			Weights:            s.weights,
		})
		if err != nil {
			return nil, err
		}

		for _, dim := range types.Dimensions {
			value := dimensionValue(m, dim, topActivity)
			if value == "" {
				continue
			}
			rows = append(rows, &types.AnalysisResult{
				SessionID:       sessionID,
				RoleMappingID:   m.ID,
				Dimension:       dim,
				DimensionValue:  value,
				ExposureScore:   exposure,
				ImpactScore:     impact,
				ComplexityScore: complexity,
				PriorityScore:   priority,
				PriorityTier:    tier,
				Breakdown:       datatypes.JSON(bd),
				RunID:           runID,
			})
		}
	}

	if _, err := s.resultRepo.DeleteBySession(dbc, sessionID); err != nil {
		return nil, err
	}
	out, err := s.resultRepo.CreateBulk(dbc, rows)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.UpdateFields(dbc, sessionID, map[string]interface{}{
		"status": types.StatusAnalysisComplete,
	}); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].PriorityScore > out[j].PriorityScore })
	s.log.Info("Analysis run complete", "session_id", sessionID, "run_id", runID,
		"roles", len(mapped), "results", len(out))
	return out, nil
}

// dimensionValue picks what a result row is "about" for each dimension.
// Missing roster attributes drop that dimension for the role rather than
// producing empty rows.
func dimensionValue(m *types.RoleMapping, dim, topActivity string) string {
	switch dim {
	case types.DimensionRole:
		return m.SourceRole
	case types.DimensionTask:
		return topActivity
	case types.DimensionLineOfBusiness:
		return m.LineOfBusiness
	case types.DimensionGeography:
		return m.Geography
	case types.DimensionDepartment:
		return m.Department
	}
	return ""
}

func (s *analysisService) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, dimension string) ([]*types.AnalysisResult, error) {
	return s.resultRepo.ListBySession(dbctx.Context{Ctx: ctx, Tx: tx}, sessionID, dimension)
}
