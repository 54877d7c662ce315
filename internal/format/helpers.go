package format

import (
	"fmt"
	"math"
)

// FmtSeconds formats a second count as "Xm Y.Zs" or "Y.Zs".
func FmtSeconds(s float64) string {
	if s >= 60 {
		m := int(s) / 60
		return fmt.Sprintf("%dm %.1fs", m, s-float64(m)*60)
	}
	return fmt.Sprintf("%.1fs", s)
}

// FmtScore formats an anomaly score compactly: integers stay integers,
// large robust z maxima get one decimal.
func FmtScore(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

// FmtRate formats a [0,1] rate as a percentage.
func FmtRate(r float64) string {
	return fmt.Sprintf("%.1f%%", r*100)
}

// Truncate shortens s to maxLen characters, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// BoolMark returns "✓" for true and "✗" for false.
func BoolMark(v bool) string {
	if v {
		return "✓"
	}
	return "✗"
}
