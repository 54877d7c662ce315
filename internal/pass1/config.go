package pass1

import "autopsy/internal/overview"

// Config holds the first-pass detection thresholds. MissingRate and
// FlatlineEps are pointers because zero is a valid, meaningful threshold for
// both: nil means "use the default", an explicit zero is kept.
type Config struct {
	MissingRate    *float64 `json:"missing_rate,omitempty" yaml:"missing_rate,omitempty"`
	FlatlineEps    *float64 `json:"flatline_eps,omitempty" yaml:"flatline_eps,omitempty"`
	FlatlineMinRun int      `json:"flatline_min_run,omitempty" yaml:"flatline_min_run,omitempty"`
	SpikeMadZ      float64  `json:"spike_mad_z,omitempty" yaml:"spike_mad_z,omitempty"`
	TopKWindows    int      `json:"top_k_windows,omitempty" yaml:"top_k_windows,omitempty"`
	TopNSignals    int      `json:"top_n_signals,omitempty" yaml:"top_n_signals,omitempty"`
}

// WithDefaults fills unset fields: missing_rate=0.1, flatline_eps=0.01,
// flatline_min_run=10, spike_mad_z=5, top_k_windows=5, top_n_signals=3.
// Explicit zeros for missing_rate and flatline_eps are preserved.
func (c Config) WithDefaults() Config {
	if c.MissingRate == nil {
		rate := 0.1
		c.MissingRate = &rate
	}
	if c.FlatlineEps == nil {
		eps := 0.01
		c.FlatlineEps = &eps
	}
	if c.FlatlineMinRun == 0 {
		c.FlatlineMinRun = 10
	}
	if c.SpikeMadZ == 0 {
		c.SpikeMadZ = 5.0
	}
	if c.TopKWindows == 0 {
		c.TopKWindows = 5
	}
	if c.TopNSignals == 0 {
		c.TopNSignals = 3
	}
	return c
}

// Validate checks threshold ranges. Call after WithDefaults.
func (c Config) Validate() error {
	if c.MissingRate == nil || *c.MissingRate < 0 || *c.MissingRate > 1 {
		return &overview.InvalidConfigError{Field: "missing_rate", Reason: "must be in [0, 1]"}
	}
	if c.FlatlineEps == nil || *c.FlatlineEps < 0 {
		return &overview.InvalidConfigError{Field: "flatline_eps", Reason: "must be non-negative"}
	}
	if c.FlatlineMinRun < 1 {
		return &overview.InvalidConfigError{Field: "flatline_min_run", Reason: "must be at least 1"}
	}
	if c.SpikeMadZ <= 0 {
		return &overview.InvalidConfigError{Field: "spike_mad_z", Reason: "must be positive"}
	}
	return nil
}
