package discovery

import (
	"time"

	"github.com/google/uuid"
)

// ActivitySelection joins a role mapping to one detailed work activity.
// UserModified marks selections the user toggled by hand so threshold-based
// bulk selection can leave them alone.
type ActivitySelection struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID          uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	RoleMappingID      uuid.UUID `gorm:"type:uuid;not null;index" json:"role_mapping_id"`
	DetailedActivityID string    `gorm:"column:detailed_activity_id;not null;index" json:"detailed_activity_id"`
	ActivityName       string    `gorm:"column:activity_name;not null" json:"activity_name"`
	ExposureScore      *float64  `gorm:"column:exposure_score" json:"exposure_score,omitempty"`
	Selected           bool      `gorm:"column:selected;not null" json:"selected"`
	UserModified       bool      `gorm:"column:user_modified;not null" json:"user_modified"`
	CreatedAt          time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null" json:"updated_at"`
}

func (ActivitySelection) TableName() string { return "activity_selection" }
