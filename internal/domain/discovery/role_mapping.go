package discovery

import (
	"time"

	"github.com/google/uuid"
)

// Confidence tiers for a role-to-occupation match.
const (
	TierHigh   = "HIGH"
	TierMedium = "MEDIUM"
	TierLow    = "LOW"
)

// RoleMapping is one distinct free-text role from a roster with its proposed
// occupation match. ConfidenceTier and ConfidenceScore stay consistent by
// construction (HIGH=0.95, MEDIUM=0.75, LOW=0.50).
type RoleMapping struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"session_id"`
	SourceRole      string     `gorm:"column:source_role;not null" json:"source_role"`
	OccupationCode  *string    `gorm:"column:occupation_code;index" json:"occupation_code,omitempty"`
	OccupationTitle *string    `gorm:"column:occupation_title" json:"occupation_title,omitempty"`
	ConfidenceScore float64    `gorm:"column:confidence_score;not null" json:"confidence_score"`
	ConfidenceTier  string     `gorm:"column:confidence_tier;not null;index" json:"confidence_tier"`
	UserConfirmed   bool       `gorm:"column:user_confirmed;not null" json:"user_confirmed"`
	RowCount        int        `gorm:"column:row_count;not null" json:"row_count"`
	Department      string     `gorm:"column:department;index" json:"department,omitempty"`
	Geography       string     `gorm:"column:geography;index" json:"geography,omitempty"`
	LineOfBusiness  string     `gorm:"column:line_of_business;index" json:"line_of_business,omitempty"`
	Reasoning       string     `gorm:"column:reasoning" json:"reasoning,omitempty"`
	ConfirmedAt     *time.Time `gorm:"column:confirmed_at" json:"confirmed_at,omitempty"`
	CreatedAt       time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null" json:"updated_at"`
}

func (RoleMapping) TableName() string { return "role_mapping" }
