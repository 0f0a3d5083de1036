// Package scoring holds the pure functions that turn activity exposure
// scores and headcounts into exposure/impact/complexity/priority numbers.
// Every function clamps its own output to [0,1]; inputs are assumed
// pre-validated by the persistence-adjacent layer.
package scoring

import "fmt"

// DefaultMaxHeadcount normalizes impact when a session has no usable
// headcount maximum.
const DefaultMaxHeadcount = 1000

// Weights for the priority blend. Custom weights are accepted as-is and do
// not have to sum to 1; the priority result is clamped regardless.
type Weights struct {
	Exposure   float64 `yaml:"exposure"`
	Impact     float64 `yaml:"impact"`
	Complexity float64 `yaml:"complexity"`
}

func DefaultWeights() Weights {
	return Weights{Exposure: 0.4, Impact: 0.4, Complexity: 0.2}
}

func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// EffectiveExposure resolves a detailed activity's exposure: the override
// when present, else the ancestor generalized activity's base score, else
// nil (undefined).
func EffectiveExposure(override, base *float64) *float64 {
	if override != nil {
		v := Clamp01(*override)
		return &v
	}
	if base != nil {
		v := Clamp01(*base)
		return &v
	}
	return nil
}

// Exposure is the mean of the selected activities' effective exposure
// scores, or 0 when nothing is selected.
func Exposure(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return Clamp01(sum / float64(len(scores)))
}

func Complexity(exposure float64) float64 {
	return Clamp01(1 - exposure)
}

// Impact scales exposure by the share of the workforce the role covers.
// maxHeadcount <= 0 falls back to DefaultMaxHeadcount.
func Impact(rowCount int, exposure float64, maxHeadcount int) float64 {
	if rowCount <= 0 || exposure <= 0 {
		return 0
	}
	if maxHeadcount <= 0 {
		maxHeadcount = DefaultMaxHeadcount
	}
	return Clamp01(float64(rowCount) * exposure / float64(maxHeadcount))
}

func Priority(exposure, impact, complexity float64, w Weights) float64 {
	return Clamp01(exposure*w.Exposure + impact*w.Impact + (1-complexity)*w.Complexity)
}

// CandidateName and CandidateDescription derive roadmap candidate text
// deterministically from the role and its exposure.
func CandidateName(role string) string {
	return fmt.Sprintf("%s Automation Agent", role)
}

func CandidateDescription(role string, exposure float64) string {
	pct := int(Clamp01(exposure)*100 + 0.5)
	return fmt.Sprintf("Automates high-exposure activities for %s roles (%d%% average AI exposure across selected activities).", role, pct)
}
