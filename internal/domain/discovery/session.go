package discovery

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session lifecycle statuses.
const (
	StatusDraft            = "draft"
	StatusInProgress       = "in_progress"
	StatusAnalysisComplete = "analysis_complete"
	StatusFinalized        = "finalized"
)

// Wizard steps, in fixed order.
const (
	StepUpload           = "upload"
	StepMapRoles         = "map_roles"
	StepSelectActivities = "select_activities"
	StepAnalyze          = "analyze"
	StepRoadmap          = "roadmap"
)

// StepOrder is the fixed linear wizard order. The orchestrator advances
// through it one step at a time and never skips on its own.
var StepOrder = []string{StepUpload, StepMapRoles, StepSelectActivities, StepAnalyze, StepRoadmap}

type DiscoverySession struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	OrgID       *uuid.UUID     `gorm:"type:uuid;index" json:"org_id,omitempty"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Status      string         `gorm:"column:status;not null;index" json:"status"`
	CurrentStep string         `gorm:"column:current_step;not null;index" json:"current_step"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;index" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (DiscoverySession) TableName() string { return "discovery_session" }
