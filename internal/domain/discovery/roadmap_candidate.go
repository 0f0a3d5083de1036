package discovery

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Build-timeline tiers. Distinct from the HIGH/MEDIUM/LOW presentation tiers
// on analysis dimensions; the two vocabularies translate through a fixed
// table and are never interchangeable.
const (
	BuildTierNow         = "now"
	BuildTierNextQuarter = "next_quarter"
	BuildTierFuture      = "future"
)

// RoadmapCandidate is one proposed automation agent derived from an analysis
// result.
type RoadmapCandidate struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"session_id"`
	AnalysisResultID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"analysis_result_id"`
	RoleMappingID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"role_mapping_id"`
	Name              string         `gorm:"column:name;not null" json:"name"`
	Description       string         `gorm:"column:description" json:"description,omitempty"`
	PriorityTier      string         `gorm:"column:priority_tier;not null;index" json:"priority_tier"`
	EstimatedImpact   float64        `gorm:"column:estimated_impact;not null" json:"estimated_impact"`
	SelectedForBuild  bool           `gorm:"column:selected_for_build;not null" json:"selected_for_build"`
	IntakeRequestID   *uuid.UUID     `gorm:"type:uuid;column:intake_request_id" json:"intake_request_id,omitempty"`
	Metadata          datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt         time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null" json:"updated_at"`
}

func (RoadmapCandidate) TableName() string { return "roadmap_candidate" }
