package scoring

import (
	"math"
	"strings"
	"testing"

	types "github.com/cartographai/discovery-backend/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func fp(v float64) *float64 { return &v }

func TestEffectiveExposureThreeBranches(t *testing.T) {
	if got := EffectiveExposure(fp(0.9), fp(0.5)); got == nil || *got != 0.9 {
		t.Fatalf("override branch: got %v", got)
	}
	if got := EffectiveExposure(nil, fp(0.5)); got == nil || *got != 0.5 {
		t.Fatalf("base branch: got %v", got)
	}
	if got := EffectiveExposure(nil, nil); got != nil {
		t.Fatalf("undefined branch: got %v", got)
	}
}

func TestExposureMeanAndEmpty(t *testing.T) {
	if got := Exposure(nil); got != 0 {
		t.Fatalf("empty: got %v", got)
	}
	if got := Exposure([]float64{0.6, 0.8, 1.0}); !almostEqual(got, 0.8) {
		t.Fatalf("mean: got %v", got)
	}
}

func TestComplexityIsOneMinusExposure(t *testing.T) {
	for _, e := range []float64{0, 0.2, 0.5, 0.8, 1} {
		if got := Complexity(e); !almostEqual(got, 1-e) {
			t.Fatalf("exposure %v: got %v", e, got)
		}
	}
}

func TestImpactZeroCases(t *testing.T) {
	if got := Impact(0, 0.9, 1000); got != 0 {
		t.Fatalf("row_count=0: got %v", got)
	}
	if got := Impact(100, 0, 1000); got != 0 {
		t.Fatalf("exposure=0: got %v", got)
	}
}

func TestImpactNormalization(t *testing.T) {
	if got := Impact(100, 0.8, 1000); !almostEqual(got, 0.08) {
		t.Fatalf("default normalization: got %v", got)
	}
	// maxHeadcount <= 0 falls back to the default.
	if got := Impact(100, 0.8, 0); !almostEqual(got, 0.08) {
		t.Fatalf("fallback normalization: got %v", got)
	}
	// Large roles clamp at 1.
	if got := Impact(5000, 1, 1000); got != 1 {
		t.Fatalf("clamp: got %v", got)
	}
}

func TestPriorityAlwaysInUnitRange(t *testing.T) {
	cases := []struct {
		e, i, c float64
		w       Weights
	}{
		{0, 0, 0, DefaultWeights()},
		{1, 1, 1, DefaultWeights()},
		{1, 1, 0, DefaultWeights()},
		{0, 0, 1, DefaultWeights()},
		{1, 1, 0, Weights{Exposure: 3, Impact: 3, Complexity: 3}},
		{0.5, 0.5, 0.5, Weights{Exposure: -1, Impact: 0, Complexity: 0}},
	}
	for _, tc := range cases {
		got := Priority(tc.e, tc.i, tc.c, tc.w)
		if got < 0 || got > 1 {
			t.Fatalf("priority out of range for %+v: %v", tc, got)
		}
	}
}

func TestPriorityScenarioSoftwareEngineer(t *testing.T) {
	// 100 heads, selected activities averaging 0.8 exposure, session max 1000.
	exposure := Exposure([]float64{0.8, 0.8})
	impact := Impact(100, exposure, 1000)
	complexity := Complexity(exposure)
	if !almostEqual(impact, 0.08) {
		t.Fatalf("impact: got %v", impact)
	}
	if !almostEqual(complexity, 0.2) {
		t.Fatalf("complexity: got %v", complexity)
	}
	got := Priority(exposure, impact, complexity, DefaultWeights())
	if !almostEqual(got, 0.512) {
		t.Fatalf("priority: got %v want 0.512", got)
	}
}

func TestBuildTierTable(t *testing.T) {
	cases := []struct {
		priority, complexity float64
		want                 string
	}{
		{0.8, 0.2, types.BuildTierNow},
		{0.8, 0.3, types.BuildTierNextQuarter}, // complexity at the ceiling is excluded from "now"
		{0.75, 0.29, types.BuildTierNow},
		{0.6, 0.9, types.BuildTierNextQuarter},
		{0.59, 0.1, types.BuildTierFuture},
		{0, 0, types.BuildTierFuture},
	}
	for _, tc := range cases {
		if got := BuildTier(tc.priority, tc.complexity); got != tc.want {
			t.Fatalf("(%v,%v): got %s want %s", tc.priority, tc.complexity, got, tc.want)
		}
	}
}

func TestPresentationTierTranslation(t *testing.T) {
	cases := map[string]string{
		types.BuildTierNow:         types.TierHigh,
		types.BuildTierNextQuarter: types.TierMedium,
		types.BuildTierFuture:      types.TierLow,
		"something_else":           types.TierLow,
		"":                         types.TierLow,
	}
	for in, want := range cases {
		if got := PresentationTier(in); got != want {
			t.Fatalf("%q: got %s want %s", in, got, want)
		}
	}
}

func TestCandidateTextDeterministic(t *testing.T) {
	if got := CandidateName("Software Engineer"); got != "Software Engineer Automation Agent" {
		t.Fatalf("name: got %q", got)
	}
	d1 := CandidateDescription("Software Engineer", 0.8)
	d2 := CandidateDescription("Software Engineer", 0.8)
	if d1 != d2 {
		t.Fatal("description must be deterministic")
	}
	if want := "80%"; !strings.Contains(d1, want) {
		t.Fatalf("description %q missing %q", d1, want)
	}
}
