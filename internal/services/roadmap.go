package services

import (
	"context"
	"encoding/json"
	"fmt"

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

// CandidateUpdate carries the mutable candidate fields; nil means unchanged.
type CandidateUpdate struct {
	PriorityTier     *string `json:"priority_tier,omitempty"`
	SelectedForBuild *bool   `json:"selected_for_build,omitempty"`
}

type RoadmapService interface {
	// Generate derives one candidate per role-dimension analysis result.
	// A re-run replaces the previous roadmap.
	Generate(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.RoadmapCandidate, error)
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, tier string) ([]*types.RoadmapCandidate, error)
	Update(ctx context.Context, tx *gorm.DB, candidateID uuid.UUID, upd CandidateUpdate) (*types.RoadmapCandidate, error)
	// BulkSetSelected marks every candidate in the given tier for build (or
	// clears them). Failures skip and continue.
	BulkSetSelected(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, tier string, selected bool) (SyncReport, error)
	// SelectTop marks the highest-impact not-yet-selected candidate for
	// build and returns it.
	SelectTop(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.RoadmapCandidate, error)
	// LinkIntake attaches the downstream intake request created for a
	// build-selected candidate.
	LinkIntake(ctx context.Context, tx *gorm.DB, candidateID, intakeRequestID uuid.UUID) (*types.RoadmapCandidate, error)
	CountSelectedForBuild(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int64, error)
}

type roadmapService struct {
	db            *gorm.DB
	log           *logger.Logger
	resultRepo    repos.AnalysisResultRepo
	candidateRepo repos.RoadmapCandidateRepo
}

func NewRoadmapService(
	db *gorm.DB,
	baseLog *logger.Logger,
	resultRepo repos.AnalysisResultRepo,
	candidateRepo repos.RoadmapCandidateRepo,
) RoadmapService {
	return &roadmapService{
		db:            db,
		log:           baseLog.With("service", "RoadmapService"),
		resultRepo:    resultRepo,
		candidateRepo: candidateRepo,
	}
}

// candidateMetadata preserves the scores the tier was derived from.
type candidateMetadata struct {
	PriorityScore   float64   `json:"priority_score"`
	ComplexityScore float64   `json:"complexity_score"`
	ExposureScore   float64   `json:"exposure_score"`
	RunID           uuid.UUID `json:"run_id"`
}

func (s *roadmapService) Generate(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.RoadmapCandidate, error) {
	if sessionID == uuid.Nil {
		return nil, fmt.Errorf("missing session_id: %w", pkgerrors.ErrInvalidArgument)
	}
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	results, err := s.resultRepo.ListBySession(dbc, sessionID, types.DimensionRole)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no analysis results to build a roadmap from: %w", pkgerrors.ErrInvalidArgument)
	}

	rows := make([]*types.RoadmapCandidate, 0, len(results))
	for _, res := range results {
		meta, err := json.Marshal(candidateMetadata{
			PriorityScore:   res.PriorityScore,
			ComplexityScore: res.ComplexityScore,
			ExposureScore:   res.ExposureScore,
			RunID:           res.RunID,
		})
		if err != nil {
			return nil, err
		}
		rows = append(rows, &types.RoadmapCandidate{
			SessionID:        sessionID,
			AnalysisResultID: res.ID,
			RoleMappingID:    res.RoleMappingID,
			Name:             scoring.CandidateName(res.DimensionValue),
			Description:      scoring.CandidateDescription(res.DimensionValue, res.ExposureScore),
			PriorityTier:     scoring.BuildTier(res.PriorityScore, res.ComplexityScore),
			EstimatedImpact:  res.ImpactScore,
			Metadata:         datatypes.JSON(meta),
		})
	}

	if _, err := s.candidateRepo.DeleteBySession(dbc, sessionID); err != nil {
		return nil, err
	}
	out, err := s.candidateRepo.CreateBulk(dbc, rows)
	if err != nil {
		return nil, err
	}
	s.log.Info("Roadmap generated", "session_id", sessionID, "candidates", len(out))
	return out, nil
}

func (s *roadmapService) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, tier string) ([]*types.RoadmapCandidate, error) {
	if tier != "" && tier != types.BuildTierNow && tier != types.BuildTierNextQuarter && tier != types.BuildTierFuture {
		return nil, fmt.Errorf("unknown tier %q: %w", tier, pkgerrors.ErrInvalidArgument)
	}
	return s.candidateRepo.ListBySession(dbctx.Context{Ctx: ctx, Tx: tx}, sessionID, tier)
}

func (s *roadmapService) Update(ctx context.Context, tx *gorm.DB, candidateID uuid.UUID, upd CandidateUpdate) (*types.RoadmapCandidate, error) {
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	updates := map[string]interface{}{}
	if upd.PriorityTier != nil {
		t := *upd.PriorityTier
		if t != types.BuildTierNow && t != types.BuildTierNextQuarter && t != types.BuildTierFuture {
			return nil, fmt.Errorf("unknown tier %q: %w", t, pkgerrors.ErrInvalidArgument)
		}
		updates["priority_tier"] = t
	}
	if upd.SelectedForBuild != nil {
		updates["selected_for_build"] = *upd.SelectedForBuild
	}
	if len(updates) == 0 {
		return s.candidateRepo.GetByID(dbc, candidateID)
	}
	if err := s.candidateRepo.UpdateFields(dbc, candidateID, updates); err != nil {
		return nil, err
	}
	return s.candidateRepo.GetByID(dbc, candidateID)
}

func (s *roadmapService) BulkSetSelected(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, tier string, selected bool) (SyncReport, error) {
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	candidates, err := s.ListBySession(ctx, tx, sessionID, tier)
	if err != nil {
		return SyncReport{}, err
	}

	report := SyncReport{Success: true}
	for _, c := range candidates {
		if c.SelectedForBuild == selected {
			report.Skipped++
			continue
		}
		if err := s.candidateRepo.UpdateFields(dbc, c.ID, map[string]interface{}{
			"selected_for_build": selected,
		}); err != nil {
			s.log.Warn("BulkSetSelected: update failed", "error", err, "candidate_id", c.ID)
			report.Success = false
			if report.FirstError == "" {
				report.FirstError = err.Error()
			}
			continue
		}
		report.Processed++
	}
	return report, nil
}

func (s *roadmapService) SelectTop(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.RoadmapCandidate, error) {
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	candidates, err := s.candidateRepo.ListBySession(dbc, sessionID, "")
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		if c.SelectedForBuild {
			continue
		}
		if err := s.candidateRepo.UpdateFields(dbc, c.ID, map[string]interface{}{
			"selected_for_build": true,
		}); err != nil {
			return nil, err
		}
		return s.candidateRepo.GetByID(dbc, c.ID)
	}
	return nil, fmt.Errorf("every candidate is already selected: %w", pkgerrors.ErrNotFound)
}

func (s *roadmapService) LinkIntake(ctx context.Context, tx *gorm.DB, candidateID, intakeRequestID uuid.UUID) (*types.RoadmapCandidate, error) {
	if intakeRequestID == uuid.Nil {
		return nil, fmt.Errorf("missing intake_request_id: %w", pkgerrors.ErrInvalidArgument)
	}
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	c, err := s.candidateRepo.GetByID(dbc, candidateID)
	if err != nil {
		return nil, err
	}
	if !c.SelectedForBuild {
		return nil, fmt.Errorf("candidate is not selected for build: %w", pkgerrors.ErrInvalidArgument)
	}
	if err := s.candidateRepo.UpdateFields(dbc, candidateID, map[string]interface{}{
		"intake_request_id": intakeRequestID,
	}); err != nil {
		return nil, err
	}
	return s.candidateRepo.GetByID(dbc, candidateID)
}

func (s *roadmapService) CountSelectedForBuild(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int64, error) {
	return s.candidateRepo.CountSelectedForBuild(dbctx.Context{Ctx: ctx, Tx: tx}, sessionID)
}
