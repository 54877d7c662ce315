package pass1

import (
	"math"
	"sort"
)

// madScale makes the MAD z-score comparable to a standard z-score under
// normality (0.6745 ≈ Φ⁻¹(0.75)).
const madScale = 0.6745

// median returns the median of values, skipping NaN entries.
// Returns NaN when no finite values remain.
func median(values []float64) float64 {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return math.NaN()
	}
	sort.Float64s(finite)
	mid := len(finite) / 2
	if len(finite)%2 == 1 {
		return finite[mid]
	}
	return (finite[mid-1] + finite[mid]) / 2
}

// madZ returns robust z-scores for values using median and
// median-absolute-deviation. When the MAD is zero or non-finite every score
// is zero: a perfectly smooth series has no spikes, and dividing by zero
// would flag all of it.
func madZ(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	med := median(values)
	dev := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			dev[i] = math.NaN()
			continue
		}
		dev[i] = math.Abs(v - med)
	}
	mad := median(dev)
	if mad == 0 || math.IsNaN(mad) || math.IsInf(mad, 0) {
		return out
	}
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		out[i] = madScale * (v - med) / mad
	}
	return out
}

// run is one contiguous stretch of true values in a boolean mask.
type run struct {
	start, end, length int
}

// runsOf run-length encodes the true stretches of mask.
func runsOf(mask []bool) []run {
	var runs []run
	start := -1
	for i, v := range mask {
		switch {
		case v && start < 0:
			start = i
		case !v && start >= 0:
			runs = append(runs, run{start: start, end: i - 1, length: i - start})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, run{start: start, end: len(mask) - 1, length: len(mask) - start})
	}
	return runs
}

// flatlineMask flags every bucket inside a candidate run of length >= minRun.
func flatlineMask(candidates []bool, minRun int) []bool {
	out := make([]bool, len(candidates))
	for _, r := range runsOf(candidates) {
		if r.length < minRun {
			continue
		}
		for i := r.start; i <= r.end; i++ {
			out[i] = true
		}
	}
	return out
}

// firstDiff returns the first difference of values. The first element's
// missing predecessor counts as zero difference, and any NaN difference
// (a missing operand) collapses to zero as well, so the spike scorer sees
// a fully finite series.
func firstDiff(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		if math.IsNaN(d) {
			d = 0
		}
		out[i] = d
	}
	return out
}
