package taxonomy

import "time"

// The work-activity hierarchy is three levels deep: generalized (GWA) →
// intermediate (IWA) → detailed (DWA). Only the generalized level is
// guaranteed an exposure score; detailed activities may override it.

type GeneralizedActivity struct {
	ID            string    `gorm:"column:id;primaryKey" json:"id"`
	Name          string    `gorm:"column:name;not null" json:"name"`
	ExposureScore float64   `gorm:"column:exposure_score;not null" json:"exposure_score"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

func (GeneralizedActivity) TableName() string { return "generalized_activity" }

type IntermediateActivity struct {
	ID                    string    `gorm:"column:id;primaryKey" json:"id"`
	GeneralizedActivityID string    `gorm:"column:generalized_activity_id;not null;index" json:"generalized_activity_id"`
	Name                  string    `gorm:"column:name;not null" json:"name"`
	CreatedAt             time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time `gorm:"not null" json:"updated_at"`
}

func (IntermediateActivity) TableName() string { return "intermediate_activity" }

// DetailedActivity.ExposureOverride, when non-nil, replaces the ancestor
// generalized activity's base exposure score.
type DetailedActivity struct {
	ID                     string    `gorm:"column:id;primaryKey" json:"id"`
	IntermediateActivityID string    `gorm:"column:intermediate_activity_id;not null;index" json:"intermediate_activity_id"`
	Name                   string    `gorm:"column:name;not null" json:"name"`
	ExposureOverride       *float64  `gorm:"column:exposure_override" json:"exposure_override,omitempty"`
	CreatedAt              time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt              time.Time `gorm:"not null" json:"updated_at"`
}

func (DetailedActivity) TableName() string { return "detailed_activity" }

// OccupationActivity joins an occupation to one of its detailed activities.
type OccupationActivity struct {
	ID                 uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OccupationCode     string    `gorm:"column:occupation_code;not null;index" json:"occupation_code"`
	DetailedActivityID string    `gorm:"column:detailed_activity_id;not null;index" json:"detailed_activity_id"`
	CreatedAt          time.Time `gorm:"not null" json:"created_at"`
}

func (OccupationActivity) TableName() string { return "occupation_activity" }
