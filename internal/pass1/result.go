package pass1

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"autopsy/internal/overview"
)

// TimeValue is a window boundary time. It serializes as an RFC 3339 string
// when the overview's timestamps were absolute, and as plain seconds
// otherwise, so result artifacts mirror their source time base.
type TimeValue struct {
	Seconds  float64
	Datetime bool
}

func (tv TimeValue) MarshalJSON() ([]byte, error) {
	if tv.Datetime {
		ts := time.Unix(0, int64(math.Round(tv.Seconds*1e9))).UTC()
		return json.Marshal(ts.Format(time.RFC3339Nano))
	}
	return json.Marshal(tv.Seconds)
}

func (tv *TimeValue) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		tv.Seconds = f
		tv.Datetime = false
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time value: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("time value %q: %w", s, err)
	}
	tv.Seconds = float64(ts.UnixNano()) / 1e9
	tv.Datetime = true
	return nil
}

// SignalStats is the per-signal detection summary.
type SignalStats struct {
	MissingRate        float64 `json:"missing_rate"`
	MissingRateFlagged bool    `json:"missing_rate_flagged"`
	FlatlineRunCount   int     `json:"flatline_run_count"`
	FlatlineMaxRun     int     `json:"flatline_max_run"`
	SpikeMadZMax       float64 `json:"spike_mad_z_max"`
	FlaggedBucketCount int     `json:"flagged_bucket_count"`
	FlaggedBuckets     []int64 `json:"flagged_buckets"`
}

// TimestampChecks is the engine-level time column health report.
type TimestampChecks struct {
	Monotonic          bool    `json:"monotonic"`
	GapCount           int     `json:"gap_count"`
	GapIndices         []int   `json:"gap_indices"`
	ExpectedGapSeconds float64 `json:"expected_gap_seconds"`
}

// WindowSignal is one signal's contribution to an anomaly window, ranked
// within the window by descending score (ties: ascending signal name).
type WindowSignal struct {
	Signal             string  `json:"signal"`
	FlaggedBucketCount int     `json:"flagged_bucket_count"`
	SpikeMadZMax       float64 `json:"spike_mad_z_max"`
	Score              float64 `json:"score"`
}

// Window is a maximal contiguous run of flagged buckets across all signals.
type Window struct {
	StartBucket     int64          `json:"start_bucket"`
	EndBucket       int64          `json:"end_bucket"`
	StartTime       TimeValue      `json:"start_time"`
	EndTime         TimeValue      `json:"end_time"`
	DurationBuckets int64          `json:"duration_buckets"`
	Score           float64        `json:"score"`
	Signals         []WindowSignal `json:"signals"`
}

// Result is the complete first-pass scan outcome for one measurement.
type Result struct {
	MeasurementID   string                 `json:"measurement_id"`
	OverviewConfig  overview.Config        `json:"overview_cfg"`
	Config          Config                 `json:"pass1_cfg"`
	Key             string                 `json:"key"`
	CreatedAtUnix   float64                `json:"created_at_unix"`
	PerSignal       map[string]SignalStats `json:"per_signal"`
	TimestampChecks TimestampChecks        `json:"timestamp_checks"`
	Windows         []Window               `json:"windows"`
	CacheHit        bool                   `json:"cache_hit"`
}
