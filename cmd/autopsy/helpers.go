package main

import (
	"fmt"

	"autopsy/internal/artifact"
	"autopsy/internal/registry"
	"autopsy/internal/scanprofile"
)

// openEnv opens the artifact store and registry under --cache-dir.
// The caller owns the registry and must Close it.
func openEnv() (*artifact.Store, *registry.Registry, error) {
	store := artifact.NewStore(rootFlags.cacheDir)
	reg, err := registry.Open(store)
	if err != nil {
		return nil, nil, fmt.Errorf("open registry: %w", err)
	}
	return store, reg, nil
}

// profileFlags are the per-command overrides layered on top of a profile file.
type profileFlags struct {
	profilePath string
	signals     []string
	hz          float64
	timeCol     string

	missingRate    float64
	flatlineEps    float64
	flatlineMinRun int
	spikeMadZ      float64
	topK           int
	topN           int
}

// resolveProfile loads the profile file (when given) and applies flag
// overrides. Only flags the user actually set override the profile, so an
// explicit `--flatline-eps 0` wins while an untouched flag defers to the
// profile and then to the documented defaults.
func resolveProfile(set flagSet, f profileFlags) (scanprofile.Profile, error) {
	var profile scanprofile.Profile
	if f.profilePath != "" {
		p, err := scanprofile.LoadFromPath(f.profilePath)
		if err != nil {
			return scanprofile.Profile{}, err
		}
		profile = *p
	}

	if set.Changed("signals") {
		profile.Overview.Signals = f.signals
	}
	if set.Changed("hz") {
		profile.Overview.Hz = &f.hz
	}
	if set.Changed("time-col") {
		profile.Overview.TimeCol = f.timeCol
	}
	if set.Changed("missing-rate") {
		profile.Pass1.MissingRate = &f.missingRate
	}
	if set.Changed("flatline-eps") {
		profile.Pass1.FlatlineEps = &f.flatlineEps
	}
	if set.Changed("flatline-min-run") {
		profile.Pass1.FlatlineMinRun = f.flatlineMinRun
	}
	if set.Changed("spike-mad-z") {
		profile.Pass1.SpikeMadZ = f.spikeMadZ
	}
	if set.Changed("top-k") {
		profile.Pass1.TopKWindows = f.topK
	}
	if set.Changed("top-n") {
		profile.Pass1.TopNSignals = f.topN
	}

	profile = profile.WithDefaults()
	if err := profile.Validate(); err != nil {
		return scanprofile.Profile{}, err
	}
	return profile, nil
}

// registerOverviewFlags wires the overview-section flags shared by several commands.
func registerOverviewFlags(f *profileFlags, set flagSet) {
	set.StringVar(&f.profilePath, "profile", "", "Scan profile file (YAML/JSON)")
	set.StringSliceVar(&f.signals, "signals", nil, "Signals to include (default: infer from columns)")
	set.Float64Var(&f.hz, "hz", 0, "Bucket frequency in Hz (default 1.0)")
	set.StringVar(&f.timeCol, "time-col", "", "Time column name (default \"timestamp\")")
}

// registerPass1Flags wires the detection-threshold flags.
func registerPass1Flags(f *profileFlags, set flagSet) {
	set.Float64Var(&f.missingRate, "missing-rate", 0, "Missing-data rate threshold (default 0.1)")
	set.Float64Var(&f.flatlineEps, "flatline-eps", 0, "Flatline spread epsilon (default 0.01)")
	set.IntVar(&f.flatlineMinRun, "flatline-min-run", 0, "Minimum flatline run length in buckets (default 10)")
	set.Float64Var(&f.spikeMadZ, "spike-mad-z", 0, "Robust z-score spike threshold (default 5.0)")
	set.IntVar(&f.topK, "top-k", 0, "Windows shown in reports (default 5)")
	set.IntVar(&f.topN, "top-n", 0, "Signals shown per window (default 3)")
}

// flagSet is the subset of pflag.FlagSet these helpers need.
type flagSet interface {
	StringVar(p *string, name, value, usage string)
	StringSliceVar(p *[]string, name string, value []string, usage string)
	Float64Var(p *float64, name string, value float64, usage string)
	IntVar(p *int, name string, value int, usage string)
	Changed(name string) bool
}
