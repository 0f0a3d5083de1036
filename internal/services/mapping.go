package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cartographai/discovery-backend/internal/data/repos"
	types "github.com/cartographai/discovery-backend/internal/domain"
	"github.com/cartographai/discovery-backend/internal/engine/mapping"
	"github.com/cartographai/discovery-backend/internal/pkg/dbctx"
	pkgerrors "github.com/cartographai/discovery-backend/internal/pkg/errors"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

// SyncReport summarizes a bulk operation that keeps partial progress.
// Success is false when any item failed, but Processed still counts what
// went through.
type SyncReport struct {
	Success    bool   `json:"success"`
	Processed  int    `json:"processed"`
	Skipped    int    `json:"skipped"`
	FirstError string `json:"first_error,omitempty"`
}

// RoleMapper is the piece of the mapping engine this service needs; the
// concrete agent satisfies it.
type RoleMapper interface {
	MapRoles(ctx context.Context, roles []string) []mapping.Result
}

type MappingService interface {
	// RunForSession maps every unconfirmed role in the session and persists
	// the results. Returns how many roles ended up with an occupation match.
	RunForSession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int, error)
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.RoleMapping, error)
	Confirm(ctx context.Context, tx *gorm.DB, mappingID uuid.UUID) (*types.RoleMapping, error)
	// SetOccupation is the manual override: it pins the mapping to the given
	// occupation at HIGH confidence and marks it confirmed.
	SetOccupation(ctx context.Context, tx *gorm.DB, mappingID uuid.UUID, code, title string) (*types.RoleMapping, error)
	// BulkConfirm confirms every mapping at or above the confidence
	// threshold. Failures skip the row and keep going.
	BulkConfirm(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, threshold float64) (SyncReport, error)
}

type mappingService struct {
	db             *gorm.DB
	log            *logger.Logger
	mappingRepo    repos.RoleMappingRepo
	occupationRepo repos.OccupationRepo
	mapper         RoleMapper
}

func NewMappingService(
	db *gorm.DB,
	baseLog *logger.Logger,
	mappingRepo repos.RoleMappingRepo,
	occupationRepo repos.OccupationRepo,
	mapper RoleMapper,
) MappingService {
	return &mappingService{
		db:             db,
		log:            baseLog.With("service", "MappingService"),
		mappingRepo:    mappingRepo,
		occupationRepo: occupationRepo,
		mapper:         mapper,
	}
}

func (s *mappingService) RunForSession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int, error) {
	if sessionID == uuid.Nil {
		return 0, fmt.Errorf("missing session_id: %w", pkgerrors.ErrInvalidArgument)
	}
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	all, err := s.mappingRepo.ListBySession(dbc, sessionID)
	if err != nil {
		s.log.Warn("RunForSession: list mappings failed", "error", err, "session_id", sessionID)
		return 0, err
	}

	// Confirmed rows are settled; only the rest go back through the mapper.
	pending := make([]*types.RoleMapping, 0, len(all))
	for _, m := range all {
		if !m.UserConfirmed {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		return s.countMapped(all), nil
	}

	roles := make([]string, len(pending))
	for i, m := range pending {
		roles[i] = m.SourceRole
	}

	results := s.mapper.MapRoles(ctx, roles)
	if len(results) != len(pending) {
		return 0, fmt.Errorf("mapper returned %d results for %d roles", len(results), len(pending))
	}

	occs := make([]*types.Occupation, 0, len(results))
	for i, res := range results {
		updates := map[string]interface{}{
			"occupation_code":  res.Code,
			"occupation_title": res.Title,
			"confidence_score": res.Confidence,
			"confidence_tier":  res.Tier,
			"reasoning":        res.Reasoning,
		}
		if err := s.mappingRepo.UpdateFields(dbc, pending[i].ID, updates); err != nil {
			s.log.Warn("RunForSession: persist mapping failed", "error", err, "mapping_id", pending[i].ID)
			return 0, err
		}
		if res.Code != nil {
			title := ""
			if res.Title != nil {
				title = *res.Title
			}
			occs = append(occs, &types.Occupation{Code: *res.Code, Title: title})
		}
	}
	if err := s.occupationRepo.UpsertBulk(dbc, occs); err != nil {
		s.log.Warn("RunForSession: occupation upsert failed", "error", err, "session_id", sessionID)
		return 0, err
	}

	mapped := 0
	for _, res := range results {
		if res.Code != nil {
			mapped++
		}
	}
	for _, m := range all {
		if m.UserConfirmed && m.OccupationCode != nil {
			mapped++
		}
	}
	s.log.Info("Role mapping run complete", "session_id", sessionID, "roles", len(pending), "mapped", mapped)
	return mapped, nil
}

func (s *mappingService) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.RoleMapping, error) {
	return s.mappingRepo.ListBySession(dbctx.Context{Ctx: ctx, Tx: tx}, sessionID)
}

func (s *mappingService) Confirm(ctx context.Context, tx *gorm.DB, mappingID uuid.UUID) (*types.RoleMapping, error) {
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	m, err := s.mappingRepo.GetByID(dbc, mappingID)
	if err != nil {
		return nil, err
	}
	if m.OccupationCode == nil {
		return nil, fmt.Errorf("mapping has no occupation to confirm: %w", pkgerrors.ErrInvalidArgument)
	}
	if err := s.mappingRepo.Confirm(dbc, mappingID); err != nil {
		return nil, err
	}
	return s.mappingRepo.GetByID(dbc, mappingID)
}

func (s *mappingService) SetOccupation(ctx context.Context, tx *gorm.DB, mappingID uuid.UUID, code, title string) (*types.RoleMapping, error) {
	if code == "" {
		return nil, fmt.Errorf("missing occupation code: %w", pkgerrors.ErrInvalidArgument)
	}
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"occupation_code":  code,
		"occupation_title": title,
		"confidence_score": mapping.TierScore(types.TierHigh),
		"confidence_tier":  types.TierHigh,
		"user_confirmed":   true,
		"confirmed_at":     &now,
		"reasoning":        "Manually assigned by user.",
	}
	if err := s.mappingRepo.UpdateFields(dbc, mappingID, updates); err != nil {
		return nil, err
	}
	if err := s.occupationRepo.UpsertBulk(dbc, []*types.Occupation{{Code: code, Title: title}}); err != nil {
		return nil, err
	}
	return s.mappingRepo.GetByID(dbc, mappingID)
}

func (s *mappingService) BulkConfirm(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, threshold float64) (SyncReport, error) {
	if sessionID == uuid.Nil {
		return SyncReport{}, fmt.Errorf("missing session_id: %w", pkgerrors.ErrInvalidArgument)
	}
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	all, err := s.mappingRepo.ListBySession(dbc, sessionID)
	if err != nil {
		return SyncReport{}, err
	}

	report := SyncReport{Success: true}
	for _, m := range all {
		if m.OccupationCode == nil || m.ConfidenceScore < threshold {
			report.Skipped++
			continue
		}
		if m.UserConfirmed {
			report.Processed++
			continue
		}
		if err := s.mappingRepo.Confirm(dbc, m.ID); err != nil {
			s.log.Warn("BulkConfirm: confirm failed", "error", err, "mapping_id", m.ID)
			report.Success = false
			if report.FirstError == "" {
				report.FirstError = err.Error()
			}
			continue
		}
		report.Processed++
	}
	s.log.Info("Bulk confirm complete", "session_id", sessionID, "threshold", threshold,
		"processed", report.Processed, "skipped", report.Skipped, "success", report.Success)
	return report, nil
}

func (s *mappingService) countMapped(all []*types.RoleMapping) int {
	n := 0
	for _, m := range all {
		if m.OccupationCode != nil {
			n++
		}
	}
	return n
}
