// Package pass1 runs the deterministic first-pass anomaly scan over an
// overview table: per-signal missing/flatline/spike detection, time column
// health checks, and a multi-signal merge into ranked anomaly windows.
package pass1

import (
	"math"
	"sort"

	"autopsy/internal/logging"
	"autopsy/internal/overview"
)

// gapFactor: a time delta beyond gapFactor × (1/hz) counts as a gap.
const gapFactor = 1.5

// Run executes the two-phase scan over a built overview table. It returns
// a complete result or no result at all: a configured signal with missing
// aggregate columns aborts the whole computation.
func Run(tbl *overview.Table, measurementID string, ovCfg overview.Config, cfg Config, key string) (*Result, error) {
	ovCfg = ovCfg.WithDefaults()
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	signals := ovCfg.Signals
	if signals == nil {
		signals = overview.InferSignals(tbl.ColumnNames, ovCfg.Agg)
	}

	n := tbl.Len()
	perSignal := make(map[string]SignalStats, len(signals))
	flaggedBySignal := make(map[string][]bool, len(signals))

	for _, signal := range signals {
		stats, flagged, err := scanSignal(tbl, signal, cfg)
		if err != nil {
			return nil, err
		}
		perSignal[signal] = stats
		flaggedBySignal[signal] = flagged
	}

	// Phase B: union the per-signal flags and cut maximal runs into windows.
	union := make([]bool, n)
	for _, flags := range flaggedBySignal {
		for i, f := range flags {
			union[i] = union[i] || f
		}
	}

	windows := make([]Window, 0)
	for _, r := range runsOf(union) {
		w := Window{
			StartBucket:     tbl.Buckets[r.start],
			EndBucket:       tbl.Buckets[r.end],
			StartTime:       TimeValue{Seconds: tbl.Times[r.start], Datetime: tbl.IsDatetime},
			EndTime:         TimeValue{Seconds: tbl.Times[r.end], Datetime: tbl.IsDatetime},
			DurationBuckets: tbl.Buckets[r.end] - tbl.Buckets[r.start] + 1,
		}
		for _, signal := range signals {
			flags := flaggedBySignal[signal][r.start : r.end+1]
			count := 0
			for _, f := range flags {
				if f {
					count++
				}
			}
			// The signal-wide spike maximum feeds the score even when the
			// extreme bucket lies outside this window. Intentional asymmetry:
			// persistence in-window plus severity anywhere.
			spikeMax := perSignal[signal].SpikeMadZMax
			score := float64(count) + spikeMax
			w.Score += score
			w.Signals = append(w.Signals, WindowSignal{
				Signal:             signal,
				FlaggedBucketCount: count,
				SpikeMadZMax:       spikeMax,
				Score:              score,
			})
		}
		sort.SliceStable(w.Signals, func(i, j int) bool {
			if w.Signals[i].Score != w.Signals[j].Score {
				return w.Signals[i].Score > w.Signals[j].Score
			}
			return w.Signals[i].Signal < w.Signals[j].Signal
		})
		windows = append(windows, w)
	}
	sort.SliceStable(windows, func(i, j int) bool {
		if windows[i].Score != windows[j].Score {
			return windows[i].Score > windows[j].Score
		}
		return windows[i].StartBucket < windows[j].StartBucket
	})

	logging.New("pass1").Debug("scan complete",
		"id", measurementID, "signals", len(signals), "windows", len(windows))

	return &Result{
		MeasurementID:   measurementID,
		OverviewConfig:  ovCfg,
		Config:          cfg,
		Key:             key,
		PerSignal:       perSignal,
		TimestampChecks: checkTimestamps(tbl, *ovCfg.Hz),
		Windows:         windows,
	}, nil
}

// scanSignal runs Phase A for one signal: missing-rate, flatline, and spike
// detection, each contributing to a per-bucket flag vector (logical OR).
func scanSignal(tbl *overview.Table, signal string, cfg Config) (SignalStats, []bool, error) {
	means, ok := tbl.Column(signal + "_mean")
	if !ok {
		return SignalStats{}, nil, &overview.DataShapeError{Signal: signal, Column: signal + "_mean"}
	}
	mins, ok := tbl.Column(signal + "_min")
	if !ok {
		return SignalStats{}, nil, &overview.DataShapeError{Signal: signal, Column: signal + "_min"}
	}
	maxs, ok := tbl.Column(signal + "_max")
	if !ok {
		return SignalStats{}, nil, &overview.DataShapeError{Signal: signal, Column: signal + "_max"}
	}

	n := tbl.Len()

	// Missing-rate: a global-rate threshold gates per-bucket flags.
	missingCount := 0
	missingMask := make([]bool, n)
	for i, m := range means {
		if math.IsNaN(m) {
			missingMask[i] = true
			missingCount++
		}
	}
	missingRate := 0.0
	if n > 0 {
		missingRate = float64(missingCount) / float64(n)
	}
	rateFlagged := missingRate >= *cfg.MissingRate

	// Flatline: spread within eps, absent spread is not a candidate.
	candidates := make([]bool, n)
	for i := range candidates {
		spread := maxs[i] - mins[i]
		candidates[i] = !math.IsNaN(spread) && spread <= *cfg.FlatlineEps
	}
	flat := flatlineMask(candidates, cfg.FlatlineMinRun)
	runCount, maxRun := 0, 0
	for _, r := range runsOf(flat) {
		runCount++
		if r.length > maxRun {
			maxRun = r.length
		}
	}

	// Spike: robust z-score over the first difference of the bucket means.
	z := madZ(firstDiff(means))
	spikeMax := 0.0
	spikeMask := make([]bool, n)
	for i, v := range z {
		if math.IsNaN(v) {
			continue
		}
		a := math.Abs(v)
		if a >= cfg.SpikeMadZ {
			spikeMask[i] = true
		}
		if a > spikeMax {
			spikeMax = a
		}
	}

	flagged := make([]bool, n)
	flaggedBuckets := []int64{}
	for i := 0; i < n; i++ {
		if (missingMask[i] && rateFlagged) || flat[i] || spikeMask[i] {
			flagged[i] = true
			flaggedBuckets = append(flaggedBuckets, tbl.Buckets[i])
		}
	}

	return SignalStats{
		MissingRate:        missingRate,
		MissingRateFlagged: rateFlagged,
		FlatlineRunCount:   runCount,
		FlatlineMaxRun:     maxRun,
		SpikeMadZMax:       spikeMax,
		FlaggedBucketCount: len(flaggedBuckets),
		FlaggedBuckets:     flaggedBuckets,
	}, flagged, nil
}

// checkTimestamps verifies the overview time column: monotonic
// non-decreasing, with gaps wherever a delta exceeds gapFactor × (1/hz).
// The first row has no predecessor and can be neither a violation nor a gap.
func checkTimestamps(tbl *overview.Table, hz float64) TimestampChecks {
	expected := 1.0 / hz
	checks := TimestampChecks{
		Monotonic:          true,
		GapIndices:         []int{},
		ExpectedGapSeconds: expected,
	}
	for i := 1; i < tbl.Len(); i++ {
		d := tbl.Times[i] - tbl.Times[i-1]
		if d < 0 {
			checks.Monotonic = false
		}
		if d > expected*gapFactor {
			checks.GapIndices = append(checks.GapIndices, i)
		}
	}
	checks.GapCount = len(checks.GapIndices)
	return checks
}
