// Package overview downsamples raw measurement rows into fixed-width time
// buckets with per-signal aggregate statistics, persisted as content-addressed
// parquet artifacts.
package overview

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"autopsy/internal/artifact"
	"autopsy/internal/logging"
	"autopsy/internal/registry"
)

// BuildResult describes a built (or cache-served) overview artifact.
type BuildResult struct {
	Path     string `json:"path"`
	Key      string `json:"key"`
	CacheHit bool   `json:"cache_hit"`
	Config   Config `json:"config"`
}

// Build builds or loads the overview artifact for a measurement. The cache
// key is a pure function of (measurement id, config); an existing artifact
// for that key is served as-is with CacheHit=true. Same raw rows plus same
// config always produce a byte-identical table.
func Build(reg *registry.Registry, store *artifact.Store, measurementID string, cfg Config) (BuildResult, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return BuildResult{}, err
	}

	meta, err := reg.Metadata(measurementID)
	if err != nil {
		return BuildResult{}, err
	}
	if meta.Format != "csv" {
		return BuildResult{}, &UnsupportedFormatError{Format: meta.Format}
	}

	key, err := artifact.ConfigKey(cfg.keyPayload(measurementID))
	if err != nil {
		return BuildResult{}, err
	}
	path, err := store.CachePath(measurementID, "overview", key, ".parquet")
	if err != nil {
		return BuildResult{}, err
	}
	res := BuildResult{Path: path, Key: key, Config: cfg}

	if artifact.Exists(path) {
		res.CacheHit = true
		return res, nil
	}

	logger := logging.New("overview")
	logger.Debug("building overview", "id", measurementID, "key", key, "hz", *cfg.Hz)

	table, err := buildTable(meta.Path, cfg)
	if err != nil {
		return BuildResult{}, err
	}
	if err := artifact.Publish(path, func(tmp string) error {
		return writeParquet(tmp, table)
	}); err != nil {
		return BuildResult{}, err
	}

	logger.Info("overview built", "id", measurementID, "key", key, "buckets", table.Len())
	return res, nil
}

// Load reads a cached overview table by key. Absent artifacts are a
// NotFound failure: Load is an explicit request, not a build probe.
func Load(store *artifact.Store, measurementID, key string) (*Table, error) {
	path, err := store.CachePath(measurementID, "overview", key, ".parquet")
	if err != nil {
		return nil, err
	}
	if !artifact.Exists(path) {
		return nil, fmt.Errorf("%w: overview %s/%s", artifact.ErrNotFound, measurementID, key)
	}
	return readParquet(path)
}

// LoadByConfig resolves the cache key for cfg and loads the table.
func LoadByConfig(store *artifact.Store, measurementID string, cfg Config) (*Table, error) {
	cfg = cfg.WithDefaults()
	key, err := artifact.ConfigKey(cfg.keyPayload(measurementID))
	if err != nil {
		return nil, err
	}
	return Load(store, measurementID, key)
}

// timeMode is how the raw time column is interpreted.
type timeMode int

const (
	timeUndecided timeMode = iota
	timeNumeric            // values are already seconds
	timeDatetime           // values are absolute timestamps
	timeSynthetic          // no time column; row ordinal at 1 Hz
)

// timeLayouts are tried in order for absolute timestamp cells.
// Layouts without a zone parse as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
}

// sigAcc accumulates one signal within one bucket. min/mean/max are all
// associative-reducible, so the whole file streams through in one pass
// without materializing rows.
type sigAcc struct {
	min, max, sum float64
	count         int
}

func (a *sigAcc) add(v float64) {
	if a.count == 0 || v < a.min {
		a.min = v
	}
	if a.count == 0 || v > a.max {
		a.max = v
	}
	a.sum += v
	a.count++
}

func buildTable(srcPath string, cfg Config) (*Table, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", srcPath, err)
	}
	defer f.Close()

	rd := csv.NewReader(f)
	rd.ReuseRecord = true

	header, err := rd.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", srcPath, err)
	}
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[name] = i
	}

	timeIdx := -1
	mode := timeSynthetic
	if i, ok := colIdx[cfg.TimeCol]; ok {
		timeIdx = i
		mode = timeUndecided
	}

	signals := cfg.Signals
	if signals == nil {
		for _, name := range header {
			if name != cfg.TimeCol {
				signals = append(signals, name)
			}
		}
	}
	sigIdx := make([]int, len(signals))
	for i, sig := range signals {
		idx, ok := colIdx[sig]
		if !ok {
			return nil, &DataShapeError{Signal: sig, Column: sig}
		}
		sigIdx[i] = idx
	}

	hz := *cfg.Hz
	accs := make(map[int64][]sigAcc)
	rowOrdinal := 0
	for {
		rec, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row of %s: %w", srcPath, err)
		}

		var seconds float64
		switch mode {
		case timeSynthetic:
			seconds = float64(rowOrdinal)
		default:
			if timeIdx >= len(rec) {
				rowOrdinal++
				continue
			}
			cell := rec[timeIdx]
			if mode == timeUndecided {
				if _, err := strconv.ParseFloat(cell, 64); err == nil {
					mode = timeNumeric
				} else if _, ok := parseTimestamp(cell); ok {
					mode = timeDatetime
				} else {
					rowOrdinal++
					continue
				}
			}
			var ok bool
			seconds, ok = parseSeconds(cell, mode)
			if !ok {
				rowOrdinal++
				continue
			}
		}
		rowOrdinal++

		bucket := int64(math.Floor(seconds * hz))
		row, ok := accs[bucket]
		if !ok {
			row = make([]sigAcc, len(signals))
			accs[bucket] = row
		}
		for i, idx := range sigIdx {
			if idx >= len(rec) {
				continue
			}
			if v, err := strconv.ParseFloat(rec[idx], 64); err == nil && !math.IsNaN(v) {
				row[i].add(v)
			}
		}
	}

	buckets := make([]int64, 0, len(accs))
	for b := range accs {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i] < buckets[j] })

	t := &Table{
		TimeCol:    cfg.TimeCol,
		IsDatetime: mode == timeDatetime,
		Buckets:    buckets,
		Times:      make([]float64, len(buckets)),
		Columns:    make(map[string][]float64, len(signals)*len(cfg.Agg)),
	}
	for i, b := range buckets {
		t.Times[i] = float64(b) / hz
	}
	for si, sig := range signals {
		for _, agg := range cfg.Agg {
			name := sig + "_" + agg
			vals := make([]float64, len(buckets))
			for bi, b := range buckets {
				a := accs[b][si]
				if a.count == 0 {
					vals[bi] = math.NaN()
					continue
				}
				switch agg {
				case AggMin:
					vals[bi] = a.min
				case AggMean:
					vals[bi] = a.sum / float64(a.count)
				case AggMax:
					vals[bi] = a.max
				}
			}
			t.ColumnNames = append(t.ColumnNames, name)
			t.Columns[name] = vals
		}
	}
	return t, nil
}

func parseSeconds(cell string, mode timeMode) (float64, bool) {
	switch mode {
	case timeNumeric:
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsNaN(v) {
			return 0, false
		}
		return v, true
	case timeDatetime:
		return parseTimestamp(cell)
	}
	return 0, false
}

func parseTimestamp(cell string) (float64, bool) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, cell); err == nil {
			return float64(ts.UnixNano()) / 1e9, true
		}
	}
	return 0, false
}
