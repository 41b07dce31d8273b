package optimize

import (
	"math"

	"github.com/lookatitude/policyopt/schema"
)

// ConvergenceDetector implements spec.md §4.7: given the run's total-cost
// history up to iteration i, it reports whether the run has converged and
// why. Criteria are checked in a fixed tie-break order -- max-iterations,
// then stability, then no-improvement -- so that when two fire on the same
// step the higher-priority reason is the one recorded (Testable Property
// #10).
type ConvergenceDetector struct {
	cfg schema.ConvergenceConfig
}

// NewConvergenceDetector returns a detector configured from an
// experiment's convergence.* YAML fields.
func NewConvergenceDetector(cfg schema.ConvergenceConfig) *ConvergenceDetector {
	return &ConvergenceDetector{cfg: cfg}
}

// Check reports convergence for iteration i given costHistory, the total
// cost recorded at the end of every iteration 0..i (inclusive, one entry
// per iteration). Returns (false, "") if none of the three criteria fire.
func (d *ConvergenceDetector) Check(i int, costHistory []int64) (bool, string) {
	if i+1 >= d.cfg.MaxIterations {
		return true, "max-iterations"
	}

	window := costHistory
	if len(window) > d.cfg.StabilityWindow {
		window = window[len(window)-d.cfg.StabilityWindow:]
	}
	if len(window) < d.cfg.StabilityWindow {
		return false, ""
	}

	if relativeRange(window) <= d.cfg.StabilityThreshold {
		return true, "stability"
	}

	if maxImprovement(window) < d.cfg.ImprovementThreshold {
		return true, "no-improvement"
	}

	return false, ""
}

// relativeRange computes (max-min)/max(1,min) over window, spec.md §4.7
// criterion 2's exact formula.
func relativeRange(window []int64) float64 {
	min, max := window[0], window[0]
	for _, v := range window[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	denom := min
	if denom < 1 {
		denom = 1
	}
	return float64(max-min) / float64(denom)
}

// absRelativeEpsilonCents is the cost magnitude below which maxImprovement
// compares consecutive iterations by absolute cent difference rather than
// relative fraction (SPEC_FULL.md §10(b); spec.md §4.7's own hint: "absolute
// if costs near zero, else relative").
const absRelativeEpsilonCents = 100

// maxImprovement returns the largest consecutive-iteration cost
// improvement within window, as an absolute value when the prior cost is
// near zero and a relative fraction otherwise (spec.md §4.7 criterion 3).
func maxImprovement(window []int64) float64 {
	var best float64
	for i := 1; i < len(window); i++ {
		improvement := float64(window[i-1] - window[i])
		if math.Abs(float64(window[i-1])) < absRelativeEpsilonCents {
			if improvement > best {
				best = improvement
			}
			continue
		}
		relative := improvement / math.Abs(float64(window[i-1]))
		if relative > best {
			best = relative
		}
	}
	return best
}
