package discovery

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/cartographai/discovery-backend/internal/domain"
	"github.com/cartographai/discovery-backend/internal/pkg/dbctx"
	pkgerrors "github.com/cartographai/discovery-backend/internal/pkg/errors"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

type RoadmapCandidateRepo interface {
	CreateBulk(dbc dbctx.Context, rows []*types.RoadmapCandidate) ([]*types.RoadmapCandidate, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.RoadmapCandidate, error)
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID, tier string) ([]*types.RoadmapCandidate, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteBySession(dbc dbctx.Context, sessionID uuid.UUID) (int64, error)
	CountSelectedForBuild(dbc dbctx.Context, sessionID uuid.UUID) (int64, error)
}

type roadmapCandidateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRoadmapCandidateRepo(db *gorm.DB, log *logger.Logger) RoadmapCandidateRepo {
	return &roadmapCandidateRepo{db: db, log: log.With("repo", "RoadmapCandidateRepo")}
}

func (r *roadmapCandidateRepo) CreateBulk(dbc dbctx.Context, rows []*types.RoadmapCandidate) ([]*types.RoadmapCandidate, error) {
	if len(rows) == 0 {
		return []*types.RoadmapCandidate{}, nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.UpdatedAt = now
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *roadmapCandidateRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.RoadmapCandidate, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing candidate_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.RoadmapCandidate
	if err := txx.WithContext(dbc.Ctx).First(&out, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *roadmapCandidateRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID, tier string) ([]*types.RoadmapCandidate, error) {
	if sessionID == uuid.Nil {
		return nil, fmt.Errorf("missing session_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).Where("session_id = ?", sessionID)
	if tier != "" {
		q = q.Where("priority_tier = ?", tier)
	}
	var out []*types.RoadmapCandidate
	if err := q.Order("estimated_impact DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *roadmapCandidateRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing candidate_id")
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Model(&types.RoadmapCandidate{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

func (r *roadmapCandidateRepo) DeleteBySession(dbc dbctx.Context, sessionID uuid.UUID) (int64, error) {
	if sessionID == uuid.Nil {
		return 0, fmt.Errorf("missing session_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		Delete(&types.RoadmapCandidate{})
	return res.RowsAffected, res.Error
}

func (r *roadmapCandidateRepo) CountSelectedForBuild(dbc dbctx.Context, sessionID uuid.UUID) (int64, error) {
	if sessionID == uuid.Nil {
		return 0, fmt.Errorf("missing session_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var n int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.RoadmapCandidate{}).
		Where("session_id = ? AND selected_for_build = ?", sessionID, true).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
