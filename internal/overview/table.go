package overview

import (
	"sort"
	"strings"
)

// Table is a bucketed overview: one row per occupied bucket, ordered by
// strictly increasing bucket index. Absent aggregate values are NaN.
type Table struct {
	TimeCol    string
	IsDatetime bool      // bucket times were reconstituted from absolute timestamps
	Buckets    []int64   // bucket indices, strictly increasing
	Times      []float64 // bucket boundary time in seconds (bucket/hz)

	ColumnNames []string // data columns ("<signal>_<agg>") in schema order
	Columns     map[string][]float64
}

// Len returns the number of occupied buckets.
func (t *Table) Len() int { return len(t.Buckets) }

// Column returns the values for a data column.
func (t *Table) Column(name string) ([]float64, bool) {
	v, ok := t.Columns[name]
	return v, ok
}

// InferSignals returns the sorted set of column-name prefixes that have a
// column for every aggregate suffix in agg. Used when a detection config
// does not name its signals explicitly.
func InferSignals(columns []string, agg []string) []string {
	if len(agg) == 0 {
		return nil
	}
	bySuffix := make(map[string]map[string]bool, len(agg))
	for _, a := range agg {
		bySuffix[a] = make(map[string]bool)
	}
	for _, col := range columns {
		i := strings.LastIndex(col, "_")
		if i <= 0 {
			continue
		}
		prefix, suffix := col[:i], col[i+1:]
		if set, ok := bySuffix[suffix]; ok {
			set[prefix] = true
		}
	}

	var out []string
	for prefix := range bySuffix[agg[0]] {
		complete := true
		for _, a := range agg[1:] {
			if !bySuffix[a][prefix] {
				complete = false
				break
			}
		}
		if complete {
			out = append(out, prefix)
		}
	}
	sort.Strings(out)
	return out
}
