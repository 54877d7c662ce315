// Package report renders first-pass scan results for humans, as fixed-width
// terminal output or Markdown.
package report

import (
	"fmt"
	"sort"
	"strings"

	"autopsy/internal/display"
	"autopsy/internal/format"
	"autopsy/internal/pass1"
)

// RenderResult renders a scan result. The result's top_k_windows and
// top_n_signals settings cap the rendered tables; the underlying result
// always carries every window.
func RenderResult(res *pass1.Result, mode format.Mode) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Measurement:  %s\n", res.MeasurementID))
	b.WriteString(fmt.Sprintf("Result key:   %s\n", res.Key))
	b.WriteString(fmt.Sprintf("Signals:      %d\n", len(res.PerSignal)))
	b.WriteString(fmt.Sprintf("Windows:      %d\n", len(res.Windows)))
	b.WriteString(fmt.Sprintf("Cache hit:    %s\n\n", format.BoolMark(res.CacheHit)))

	b.WriteString("--- Timestamp Health ---\n")
	tc := res.TimestampChecks
	b.WriteString(fmt.Sprintf("Monotonic: %s  |  Gaps: %d  |  Expected spacing: %s\n\n",
		format.BoolMark(tc.Monotonic), tc.GapCount, format.FmtSeconds(tc.ExpectedGapSeconds)))

	b.WriteString("--- Per-signal Summary ---\n")
	b.WriteString(renderSignals(res, mode))
	b.WriteString("\n\n")

	topK := res.Config.TopKWindows
	shown := len(res.Windows)
	if topK > 0 && topK < shown {
		shown = topK
	}
	b.WriteString(fmt.Sprintf("--- Top Windows (%d of %d) ---\n", shown, len(res.Windows)))
	b.WriteString(renderWindows(res, mode, shown))
	b.WriteString("\n")

	return b.String()
}

func renderSignals(res *pass1.Result, mode format.Mode) string {
	names := make([]string, 0, len(res.PerSignal))
	for name := range res.PerSignal {
		names = append(names, name)
	}
	sort.Strings(names)

	tbl := format.NewTable(mode, "Signal", "Missing", "Flat Runs", "Max Run", "Spike Max", "Flagged", "Detectors")
	tbl.AlignRight(2, 5, 6)
	for _, name := range names {
		s := res.PerSignal[name]
		missing := format.FmtRate(s.MissingRate)
		if s.MissingRateFlagged {
			missing += " !"
		}
		tbl.Row(name, missing, s.FlatlineRunCount, s.FlatlineMaxRun,
			format.FmtScore(s.SpikeMadZMax), s.FlaggedBucketCount,
			detectorNames(s, res.Config.SpikeMadZ))
	}
	return tbl.String()
}

// detectorNames lists the detectors that fired for a signal, "-" when none.
func detectorNames(s pass1.SignalStats, spikeThreshold float64) string {
	var fired []string
	if s.MissingRateFlagged {
		fired = append(fired, display.Detector("missing"))
	}
	if s.FlatlineRunCount > 0 {
		fired = append(fired, display.Detector("flatline"))
	}
	if s.SpikeMadZMax >= spikeThreshold {
		fired = append(fired, display.Detector("spike"))
	}
	if len(fired) == 0 {
		return "-"
	}
	return strings.Join(fired, ", ")
}

func renderWindows(res *pass1.Result, mode format.Mode, shown int) string {
	tbl := format.NewTable(mode, "#", "Buckets", "Duration", "Score", "Top Signals")
	tbl.AlignRight(4)
	tbl.LimitWidth(5, 60)
	topN := res.Config.TopNSignals
	for i := 0; i < shown; i++ {
		w := res.Windows[i]
		tbl.Row(i+1,
			fmt.Sprintf("%d..%d", w.StartBucket, w.EndBucket),
			fmt.Sprintf("%d", w.DurationBuckets),
			format.FmtScore(w.Score),
			topSignals(w, topN))
	}
	return tbl.String()
}

// topSignals lists a window's leading contributors as "name (score)".
// Signals that contributed nothing are elided.
func topSignals(w pass1.Window, topN int) string {
	parts := make([]string, 0, topN)
	for _, ws := range w.Signals {
		if topN > 0 && len(parts) >= topN {
			break
		}
		if ws.Score == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", ws.Signal, format.FmtScore(ws.Score)))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

// RenderMeasurement renders one registry entry for status listings.
func RenderMeasurement(id, path, label, formatTag string, mode format.Mode) string {
	tbl := format.NewTable(mode, "Field", "Value")
	tbl.Row("ID", id)
	tbl.Row("Path", path)
	if label != "" {
		tbl.Row("Label", label)
	}
	tbl.Row("Format", display.SourceFormat(formatTag))
	return tbl.String()
}
