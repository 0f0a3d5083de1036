// Package domain re-exports the persisted entity types so callers can
// import one package instead of each sub-package.
package domain

import (
	"github.com/cartographai/discovery-backend/internal/domain/discovery"
	"github.com/cartographai/discovery-backend/internal/domain/taxonomy"
)

type (
	DiscoverySession  = discovery.DiscoverySession
	SessionMessage    = discovery.SessionMessage
	RoleMapping       = discovery.RoleMapping
	ActivitySelection = discovery.ActivitySelection
	AnalysisResult    = discovery.AnalysisResult
	RoadmapCandidate  = discovery.RoadmapCandidate

	Occupation           = taxonomy.Occupation
	GeneralizedActivity  = taxonomy.GeneralizedActivity
	IntermediateActivity = taxonomy.IntermediateActivity
	DetailedActivity     = taxonomy.DetailedActivity
	OccupationActivity   = taxonomy.OccupationActivity
)

const (
	StatusDraft            = discovery.StatusDraft
	StatusInProgress       = discovery.StatusInProgress
	StatusAnalysisComplete = discovery.StatusAnalysisComplete
	StatusFinalized        = discovery.StatusFinalized

	StepUpload           = discovery.StepUpload
	StepMapRoles         = discovery.StepMapRoles
	StepSelectActivities = discovery.StepSelectActivities
	StepAnalyze          = discovery.StepAnalyze
	StepRoadmap          = discovery.StepRoadmap

	MessageRoleUser      = discovery.MessageRoleUser
	MessageRoleAssistant = discovery.MessageRoleAssistant

	TierHigh   = discovery.TierHigh
	TierMedium = discovery.TierMedium
	TierLow    = discovery.TierLow

	BuildTierNow         = discovery.BuildTierNow
	BuildTierNextQuarter = discovery.BuildTierNextQuarter
	BuildTierFuture      = discovery.BuildTierFuture

	DimensionRole           = discovery.DimensionRole
	DimensionTask           = discovery.DimensionTask
	DimensionLineOfBusiness = discovery.DimensionLineOfBusiness
	DimensionGeography      = discovery.DimensionGeography
	DimensionDepartment     = discovery.DimensionDepartment
)

var (
	StepOrder  = discovery.StepOrder
	Dimensions = discovery.Dimensions
)
