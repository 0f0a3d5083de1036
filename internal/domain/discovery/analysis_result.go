package discovery

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Analysis dimensions.
const (
	DimensionRole           = "role"
	DimensionTask           = "task"
	DimensionLineOfBusiness = "line_of_business"
	DimensionGeography      = "geography"
	DimensionDepartment     = "department"
)

// Dimensions lists every analysis dimension a full run produces.
var Dimensions = []string{
	DimensionRole,
	DimensionTask,
	DimensionLineOfBusiness,
	DimensionGeography,
	DimensionDepartment,
}

// AnalysisResult is one (session, mapping, dimension) scoring row. A re-run
// supersedes the previous run's rows rather than merging into them.
type AnalysisResult struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"session_id"`
	RoleMappingID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"role_mapping_id"`
	Dimension       string         `gorm:"column:dimension;not null;index" json:"dimension"`
	DimensionValue  string         `gorm:"column:dimension_value" json:"dimension_value,omitempty"`
	ExposureScore   float64        `gorm:"column:exposure_score;not null" json:"exposure_score"`
	ImpactScore     float64        `gorm:"column:impact_score;not null" json:"impact_score"`
	ComplexityScore float64        `gorm:"column:complexity_score;not null" json:"complexity_score"`
	PriorityScore   float64        `gorm:"column:priority_score;not null" json:"priority_score"`
	PriorityTier    string         `gorm:"column:priority_tier;not null;index" json:"priority_tier"`
	Breakdown       datatypes.JSON `gorm:"column:breakdown" json:"breakdown,omitempty"`
	RunID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"run_id"`
	CreatedAt       time.Time      `gorm:"not null;index" json:"created_at"`
}

func (AnalysisResult) TableName() string { return "analysis_result" }
