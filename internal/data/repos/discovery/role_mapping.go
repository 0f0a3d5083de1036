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

type RoleMappingRepo interface {
	CreateBulk(dbc dbctx.Context, rows []*types.RoleMapping) ([]*types.RoleMapping, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.RoleMapping, error)
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.RoleMapping, error)
	ListUnmapped(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.RoleMapping, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Confirm(dbc dbctx.Context, id uuid.UUID) error
	MaxRowCount(dbc dbctx.Context, sessionID uuid.UUID) (int, error)
	// DeleteBySession clears the session's mappings; a roster re-upload
	// replaces rather than merges.
	DeleteBySession(dbc dbctx.Context, sessionID uuid.UUID) (int64, error)
}

type roleMappingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRoleMappingRepo(db *gorm.DB, log *logger.Logger) RoleMappingRepo {
	return &roleMappingRepo{db: db, log: log.With("repo", "RoleMappingRepo")}
}

func (r *roleMappingRepo) CreateBulk(dbc dbctx.Context, rows []*types.RoleMapping) ([]*types.RoleMapping, error) {
	if len(rows) == 0 {
		return []*types.RoleMapping{}, nil
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

func (r *roleMappingRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.RoleMapping, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing mapping_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.RoleMapping
	if err := txx.WithContext(dbc.Ctx).First(&out, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *roleMappingRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.RoleMapping, error) {
	if sessionID == uuid.Nil {
		return nil, fmt.Errorf("missing session_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.RoleMapping
	if err := txx.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		Order("source_role ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *roleMappingRepo) ListUnmapped(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.RoleMapping, error) {
	if sessionID == uuid.Nil {
		return nil, fmt.Errorf("missing session_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.RoleMapping
	if err := txx.WithContext(dbc.Ctx).
		Where("session_id = ? AND occupation_code IS NULL", sessionID).
		Order("source_role ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *roleMappingRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing mapping_id")
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
		Model(&types.RoleMapping{}).
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

func (r *roleMappingRepo) Confirm(dbc dbctx.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	return r.UpdateFields(dbc, id, map[string]interface{}{
		"user_confirmed": true,
		"confirmed_at":   &now,
	})
}

func (r *roleMappingRepo) DeleteBySession(dbc dbctx.Context, sessionID uuid.UUID) (int64, error) {
	if sessionID == uuid.Nil {
		return 0, fmt.Errorf("missing session_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		Delete(&types.RoleMapping{})
	return res.RowsAffected, res.Error
}

func (r *roleMappingRepo) MaxRowCount(dbc dbctx.Context, sessionID uuid.UUID) (int, error) {
	if sessionID == uuid.Nil {
		return 0, fmt.Errorf("missing session_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var max int
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.RoleMapping{}).
		Select("COALESCE(MAX(row_count), 0)").
		Where("session_id = ?", sessionID).
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max, nil
}
