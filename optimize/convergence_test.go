package optimize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lookatitude/policyopt/optimize"
	"github.com/lookatitude/policyopt/schema"
)

func TestConvergenceDetector_MaxIterationsTakesPriorityOverStability(t *testing.T) {
	d := optimize.NewConvergenceDetector(schema.ConvergenceConfig{
		MaxIterations:        2,
		StabilityWindow:      2,
		StabilityThreshold:   1.0, // would also fire on this window
		ImprovementThreshold: 0,
	})
	converged, reason := d.Check(1, []int64{100, 100})
	assert.True(t, converged)
	assert.Equal(t, "max-iterations", reason)
}

func TestConvergenceDetector_StabilityFiresBeforeWindowIsComplete_NotReached(t *testing.T) {
	d := optimize.NewConvergenceDetector(schema.ConvergenceConfig{
		MaxIterations:      10,
		StabilityWindow:    3,
		StabilityThreshold: 0.1,
	})
	converged, reason := d.Check(1, []int64{100, 101})
	assert.False(t, converged)
	assert.Empty(t, reason)
}

func TestConvergenceDetector_StabilityTakesPriorityOverNoImprovement(t *testing.T) {
	d := optimize.NewConvergenceDetector(schema.ConvergenceConfig{
		MaxIterations:        10,
		StabilityWindow:      2,
		StabilityThreshold:   0.5,
		ImprovementThreshold: 0.5,
	})
	converged, reason := d.Check(3, []int64{1000, 100, 100})
	assert.True(t, converged)
	assert.Equal(t, "stability", reason)
}

func TestConvergenceDetector_NoImprovementFiresWhenOthersDoNot(t *testing.T) {
	d := optimize.NewConvergenceDetector(schema.ConvergenceConfig{
		MaxIterations:        100,
		StabilityWindow:      2,
		StabilityThreshold:   0.01,
		ImprovementThreshold: 0.5,
	})
	converged, reason := d.Check(5, []int64{1000, 600})
	assert.True(t, converged)
	assert.Equal(t, "no-improvement", reason)
}

func TestConvergenceDetector_NoneFire(t *testing.T) {
	d := optimize.NewConvergenceDetector(schema.ConvergenceConfig{
		MaxIterations:        100,
		StabilityWindow:      2,
		StabilityThreshold:   0.01,
		ImprovementThreshold: 0.5,
	})
	// relative improvement (1000-400)/1000 = 0.6, above the 0.5 threshold,
	// so no-improvement must not fire either.
	converged, reason := d.Check(5, []int64{1000, 400})
	assert.False(t, converged)
	assert.Empty(t, reason)
}
