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

type ActivitySelectionRepo interface {
	CreateBulk(dbc dbctx.Context, rows []*types.ActivitySelection) ([]*types.ActivitySelection, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ActivitySelection, error)
	ListByMapping(dbc dbctx.Context, mappingID uuid.UUID) ([]*types.ActivitySelection, error)
	ListSelectedByMapping(dbc dbctx.Context, mappingID uuid.UUID) ([]*types.ActivitySelection, error)
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.ActivitySelection, error)
	SetSelected(dbc dbctx.Context, id uuid.UUID, selected bool, userModified bool) error
	// BulkSetSelected flips every selection in the session, including rows the
	// user toggled by hand ("select all" / "deselect all" semantics).
	BulkSetSelected(dbc dbctx.Context, sessionID uuid.UUID, selected bool) (int64, error)
	// SelectByExposureThreshold selects rows at or above the threshold and
	// deselects the rest, skipping user-modified rows in both directions.
	SelectByExposureThreshold(dbc dbctx.Context, sessionID uuid.UUID, threshold float64) (int64, error)
}

type activitySelectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivitySelectionRepo(db *gorm.DB, log *logger.Logger) ActivitySelectionRepo {
	return &activitySelectionRepo{db: db, log: log.With("repo", "ActivitySelectionRepo")}
}

func (r *activitySelectionRepo) CreateBulk(dbc dbctx.Context, rows []*types.ActivitySelection) ([]*types.ActivitySelection, error) {
	if len(rows) == 0 {
		return []*types.ActivitySelection{}, nil
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

func (r *activitySelectionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ActivitySelection, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing selection_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.ActivitySelection
	if err := txx.WithContext(dbc.Ctx).First(&out, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *activitySelectionRepo) ListByMapping(dbc dbctx.Context, mappingID uuid.UUID) ([]*types.ActivitySelection, error) {
	return r.list(dbc, "role_mapping_id = ?", mappingID)
}

func (r *activitySelectionRepo) ListSelectedByMapping(dbc dbctx.Context, mappingID uuid.UUID) ([]*types.ActivitySelection, error) {
	return r.list(dbc, "role_mapping_id = ? AND selected = ?", mappingID, true)
}

func (r *activitySelectionRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.ActivitySelection, error) {
	return r.list(dbc, "session_id = ?", sessionID)
}

func (r *activitySelectionRepo) list(dbc dbctx.Context, query string, args ...interface{}) ([]*types.ActivitySelection, error) {
	for _, a := range args {
		if id, ok := a.(uuid.UUID); ok && id == uuid.Nil {
			return nil, fmt.Errorf("missing id")
		}
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.ActivitySelection
	if err := txx.WithContext(dbc.Ctx).
		Where(query, args...).
		Order("activity_name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *activitySelectionRepo) SetSelected(dbc dbctx.Context, id uuid.UUID, selected bool, userModified bool) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing selection_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Model(&types.ActivitySelection{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"selected":      selected,
			"user_modified": userModified,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

func (r *activitySelectionRepo) BulkSetSelected(dbc dbctx.Context, sessionID uuid.UUID, selected bool) (int64, error) {
	if sessionID == uuid.Nil {
		return 0, fmt.Errorf("missing session_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Model(&types.ActivitySelection{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"selected":   selected,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *activitySelectionRepo) SelectByExposureThreshold(dbc dbctx.Context, sessionID uuid.UUID, threshold float64) (int64, error) {
	if sessionID == uuid.Nil {
		return 0, fmt.Errorf("missing session_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	now := time.Now().UTC()
	sel := txx.WithContext(dbc.Ctx).
		Model(&types.ActivitySelection{}).
		Where("session_id = ? AND user_modified = ? AND exposure_score >= ?", sessionID, false, threshold).
		Updates(map[string]interface{}{"selected": true, "updated_at": now})
	if sel.Error != nil {
		return 0, sel.Error
	}
	desel := txx.WithContext(dbc.Ctx).
		Model(&types.ActivitySelection{}).
		Where("session_id = ? AND user_modified = ? AND (exposure_score < ? OR exposure_score IS NULL)", sessionID, false, threshold).
		Updates(map[string]interface{}{"selected": false, "updated_at": now})
	if desel.Error != nil {
		return sel.RowsAffected, desel.Error
	}
	return sel.RowsAffected + desel.RowsAffected, nil
}
