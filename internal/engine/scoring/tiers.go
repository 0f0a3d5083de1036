package scoring

import (
	"strings"

	types "github.com/cartographai/discovery-backend/internal/domain"
)

// Build-timeline thresholds.
const (
	nowPriorityFloor     = 0.75
	nowComplexityCeiling = 0.3
	nextQuarterFloor     = 0.60
)

// BuildTier buckets a scored result into the build timeline.
func BuildTier(priority, complexity float64) string {
	switch {
	case priority >= nowPriorityFloor && complexity < nowComplexityCeiling:
		return types.BuildTierNow
	case priority >= nextQuarterFloor:
		return types.BuildTierNextQuarter
	default:
		return types.BuildTierFuture
	}
}

// PresentationTier translates a build-timeline tier into the HIGH/MEDIUM/LOW
// vocabulary shown on analysis dimensions. Unknown input maps to LOW; the
// roadmap display depends on that exact fallback.
func PresentationTier(buildTier string) string {
	switch strings.TrimSpace(strings.ToLower(buildTier)) {
	case types.BuildTierNow:
		return types.TierHigh
	case types.BuildTierNextQuarter:
		return types.TierMedium
	case types.BuildTierFuture:
		return types.TierLow
	default:
		return types.TierLow
	}
}
