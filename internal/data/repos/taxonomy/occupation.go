package taxonomy

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/cartographai/discovery-backend/internal/domain"
	"github.com/cartographai/discovery-backend/internal/pkg/dbctx"
	pkgerrors "github.com/cartographai/discovery-backend/internal/pkg/errors"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

type OccupationRepo interface {
	UpsertBulk(dbc dbctx.Context, rows []*types.Occupation) error
	GetByCode(dbc dbctx.Context, code string) (*types.Occupation, error)
	SearchByTitle(dbc dbctx.Context, q string, limit int) ([]*types.Occupation, error)
}

type occupationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOccupationRepo(db *gorm.DB, log *logger.Logger) OccupationRepo {
	return &occupationRepo{db: db, log: log.With("repo", "OccupationRepo")}
}

func (r *occupationRepo) UpsertBulk(dbc dbctx.Context, rows []*types.Occupation) error {
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
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description", "updated_at"}),
		}).
		Create(&rows).Error
}

func (r *occupationRepo) GetByCode(dbc dbctx.Context, code string) (*types.Occupation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("missing occupation code")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Occupation
	if err := txx.WithContext(dbc.Ctx).First(&out, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *occupationRepo) SearchByTitle(dbc dbctx.Context, q string, limit int) ([]*types.Occupation, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []*types.Occupation{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Occupation
	if err := txx.WithContext(dbc.Ctx).
		Where("LOWER(title) LIKE ?", "%"+strings.ToLower(q)+"%").
		Order("title ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
