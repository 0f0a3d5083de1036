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

type AnalysisResultRepo interface {
	CreateBulk(dbc dbctx.Context, rows []*types.AnalysisResult) ([]*types.AnalysisResult, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AnalysisResult, error)
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID, dimension string) ([]*types.AnalysisResult, error)
	// DeleteBySession removes a previous run's rows; a re-run supersedes
	// rather than merges.
	DeleteBySession(dbc dbctx.Context, sessionID uuid.UUID) (int64, error)
}

type analysisResultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnalysisResultRepo(db *gorm.DB, log *logger.Logger) AnalysisResultRepo {
	return &analysisResultRepo{db: db, log: log.With("repo", "AnalysisResultRepo")}
}

func (r *analysisResultRepo) CreateBulk(dbc dbctx.Context, rows []*types.AnalysisResult) ([]*types.AnalysisResult, error) {
	if len(rows) == 0 {
		return []*types.AnalysisResult{}, nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
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

func (r *analysisResultRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AnalysisResult, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing result_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.AnalysisResult
	if err := txx.WithContext(dbc.Ctx).First(&out, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *analysisResultRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID, dimension string) ([]*types.AnalysisResult, error) {
	if sessionID == uuid.Nil {
		return nil, fmt.Errorf("missing session_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).Where("session_id = ?", sessionID)
	if dimension != "" {
		q = q.Where("dimension = ?", dimension)
	}
	var out []*types.AnalysisResult
	if err := q.Order("priority_score DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *analysisResultRepo) DeleteBySession(dbc dbctx.Context, sessionID uuid.UUID) (int64, error) {
	if sessionID == uuid.Nil {
		return 0, fmt.Errorf("missing session_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		Delete(&types.AnalysisResult{})
	return res.RowsAffected, res.Error
}
