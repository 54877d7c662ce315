// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in CLI output, markdown reports, logs, and docs.
// Keep raw codes for JSON fields, map keys, and equality comparisons.
package display

// --- Detector Kinds ---

var detectors = map[string]string{
	"missing":  "Missing Data",
	"flatline": "Flatline",
	"spike":    "Spike",
}

// Detector returns the human-readable name for a detector kind.
// Unknown kinds are returned as-is.
func Detector(kind string) string {
	if name, ok := detectors[kind]; ok {
		return name
	}
	return kind
}

// --- Aggregates ---

var aggregates = map[string]string{
	"min":  "Minimum",
	"mean": "Mean",
	"max":  "Maximum",
}

// Aggregate returns the human-readable name for an aggregate code.
// "mean" -> "Mean".
func Aggregate(code string) string {
	if name, ok := aggregates[code]; ok {
		return name
	}
	return code
}

// --- Source Formats ---

var formats = map[string]string{
	"csv": "CSV",
	"mdf": "ASAM MDF",
}

// SourceFormat returns the human-readable name for a source format tag.
func SourceFormat(tag string) string {
	if name, ok := formats[tag]; ok {
		return name
	}
	return tag
}
