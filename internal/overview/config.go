package overview

// Aggregate names accepted in Config.Agg.
const (
	AggMin  = "min"
	AggMean = "mean"
	AggMax  = "max"
)

// Config controls overview building. Hz is a pointer so an explicit zero is
// distinguishable from unset: unset defaults to 1.0, explicit zero fails
// validation. Signals nil means "infer from the source columns".
type Config struct {
	Signals []string `json:"signals,omitempty" yaml:"signals,omitempty"`
	Hz      *float64 `json:"hz,omitempty" yaml:"hz,omitempty"`
	Agg     []string `json:"agg,omitempty" yaml:"agg,omitempty"`
	TimeCol string   `json:"time_col,omitempty" yaml:"time_col,omitempty"`
}

// WithDefaults fills unset fields: hz=1.0, agg=[min,mean,max],
// time_col="timestamp". Signals stays nil (inferred at build time).
// Explicitly supplied values, zero included, are left alone.
func (c Config) WithDefaults() Config {
	if c.Hz == nil {
		hz := 1.0
		c.Hz = &hz
	}
	if len(c.Agg) == 0 {
		c.Agg = []string{AggMin, AggMean, AggMax}
	}
	if c.TimeCol == "" {
		c.TimeCol = "timestamp"
	}
	return c
}

// Validate checks field ranges. Call after WithDefaults.
func (c Config) Validate() error {
	if c.Hz == nil || *c.Hz <= 0 {
		return &InvalidConfigError{Field: "hz", Reason: "must be positive"}
	}
	for _, a := range c.Agg {
		switch a {
		case AggMin, AggMean, AggMax:
		default:
			return &InvalidConfigError{Field: "agg", Reason: "must be a subset of {min, mean, max}"}
		}
	}
	return nil
}

// keyPayload is the canonical map hashed into the overview cache key.
// Signals and Agg are hashed in caller order: ordering is semantically
// meaningful and is deliberately not normalized here.
func (c Config) keyPayload(measurementID string) map[string]any {
	var signals any
	if c.Signals != nil {
		signals = c.Signals
	}
	return map[string]any{
		"measurement_id": measurementID,
		"signals":        signals,
		"hz":             *c.Hz,
		"agg":            c.Agg,
		"time_col":       c.TimeCol,
	}
}
