package overview

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"autopsy/internal/artifact"
	"autopsy/internal/registry"
)

type env struct {
	store *artifact.Store
	reg   *registry.Registry
	dir   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	store := artifact.NewStore(filepath.Join(dir, ".autopsy"))
	reg, err := registry.Open(store)
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() { _ = reg.Close() })
	return env{store: store, reg: reg, dir: dir}
}

func hz(v float64) *float64 { return &v }

func (e env) register(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	ref, err := e.reg.Register(path, "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return ref.ID
}

func TestBuild_BucketsAndAggregates(t *testing.T) {
	e := newEnv(t)
	// Two rows per 1 Hz bucket.
	var sb strings.Builder
	sb.WriteString("timestamp,speed\n")
	for b := 0; b < 3; b++ {
		fmt.Fprintf(&sb, "%d,%d\n", b, b*10)
		fmt.Fprintf(&sb, "%d.5,%d\n", b, b*10+2)
	}
	id := e.register(t, "drive.csv", sb.String())

	res, err := Build(e.reg, e.store, id, Config{Hz: hz(1.0), TimeCol: "timestamp"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.CacheHit {
		t.Error("first build must not be a cache hit")
	}

	tbl, err := Load(e.store, id, res.Key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff([]int64{0, 1, 2}, tbl.Buckets); diff != "" {
		t.Errorf("buckets mismatch (-want +got):\n%s", diff)
	}
	mins, _ := tbl.Column("speed_min")
	means, _ := tbl.Column("speed_mean")
	maxs, _ := tbl.Column("speed_max")
	for b := 0; b < 3; b++ {
		lo, hi := float64(b*10), float64(b*10+2)
		if mins[b] != lo || maxs[b] != hi || means[b] != (lo+hi)/2 {
			t.Errorf("bucket %d: min=%v mean=%v max=%v", b, mins[b], means[b], maxs[b])
		}
	}
	if tbl.IsDatetime {
		t.Error("numeric time column should stay numeric")
	}
}

func TestBuild_CacheHitDoesNotRewrite(t *testing.T) {
	e := newEnv(t)
	id := e.register(t, "drive.csv", "timestamp,speed\n0,1\n1,2\n")
	cfg := Config{Hz: hz(1.0), TimeCol: "timestamp"}

	res1, err := Build(e.reg, e.store, id, cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	info1, err := os.Stat(res1.Path)
	if err != nil {
		t.Fatalf("stat artifact: %v", err)
	}

	res2, err := Build(e.reg, e.store, id, cfg)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if !res2.CacheHit {
		t.Error("second build must be a cache hit")
	}
	if res1.Key != res2.Key {
		t.Errorf("key changed: %s vs %s", res1.Key, res2.Key)
	}
	info2, err := os.Stat(res2.Path)
	if err != nil {
		t.Fatalf("stat artifact: %v", err)
	}
	if !info1.ModTime().Equal(info2.ModTime()) {
		t.Error("cache hit must not rewrite the artifact")
	}
}

func TestBuild_InvalidHz(t *testing.T) {
	e := newEnv(t)
	id := e.register(t, "drive.csv", "timestamp,speed\n0,1\n")

	_, err := Build(e.reg, e.store, id, Config{Hz: hz(-2)})
	var ice *InvalidConfigError
	if !errors.As(err, &ice) {
		t.Fatalf("want InvalidConfigError, got %v", err)
	}
	if ice.Field != "hz" {
		t.Errorf("wrong field: %s", ice.Field)
	}
}

func TestBuild_ExplicitZeroHzRejected(t *testing.T) {
	e := newEnv(t)
	id := e.register(t, "drive.csv", "timestamp,speed\n0,1\n")

	// An explicit zero must not be papered over by the 1.0 default.
	_, err := Build(e.reg, e.store, id, Config{Hz: hz(0)})
	var ice *InvalidConfigError
	if !errors.As(err, &ice) {
		t.Fatalf("want InvalidConfigError, got %v", err)
	}
	if ice.Field != "hz" {
		t.Errorf("wrong field: %s", ice.Field)
	}
}

func TestConfig_WithDefaultsKeepsExplicitHz(t *testing.T) {
	cfg := Config{Hz: hz(0)}.WithDefaults()
	if cfg.Hz == nil || *cfg.Hz != 0 {
		t.Fatalf("explicit hz=0 rewritten to %v", cfg.Hz)
	}
	cfg = Config{}.WithDefaults()
	if cfg.Hz == nil || *cfg.Hz != 1.0 {
		t.Fatalf("unset hz must default to 1.0, got %v", cfg.Hz)
	}
}

func TestBuild_MissingSignalColumn(t *testing.T) {
	e := newEnv(t)
	id := e.register(t, "drive.csv", "timestamp,speed\n0,1\n")

	_, err := Build(e.reg, e.store, id, Config{Hz: hz(1.0), Signals: []string{"rpm"}, TimeCol: "timestamp"})
	var dse *DataShapeError
	if !errors.As(err, &dse) {
		t.Fatalf("want DataShapeError, got %v", err)
	}
	if dse.Column != "rpm" {
		t.Errorf("error must name the missing column, got %q", dse.Column)
	}
}

func TestBuild_UnsupportedFormat(t *testing.T) {
	e := newEnv(t)
	id := e.register(t, "log.bin", "not a csv")

	_, err := Build(e.reg, e.store, id, Config{Hz: hz(1.0)})
	var ufe *UnsupportedFormatError
	if !errors.As(err, &ufe) {
		t.Fatalf("want UnsupportedFormatError, got %v", err)
	}
}

func TestBuild_SyntheticTimeFromRowOrdinal(t *testing.T) {
	e := newEnv(t)
	// No "timestamp" column: row index acts as seconds at 1 Hz.
	id := e.register(t, "drive.csv", "speed\n1\n2\n3\n4\n")

	res, err := Build(e.reg, e.store, id, Config{Hz: hz(0.5), TimeCol: "timestamp"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	tbl, err := Load(e.store, id, res.Key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Rows 0..3 at 0.5 Hz → buckets 0 (rows 0,1) and 1 (rows 2,3).
	if diff := cmp.Diff([]int64{0, 1}, tbl.Buckets); diff != "" {
		t.Errorf("buckets (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 2}, tbl.Times); diff != "" {
		t.Errorf("bucket times (-want +got):\n%s", diff)
	}
}

func TestBuild_DatetimeTimeColumn(t *testing.T) {
	e := newEnv(t)
	csv := "timestamp,speed\n" +
		"2026-03-01T00:00:00Z,1\n" +
		"2026-03-01T00:00:00.5Z,3\n" +
		"2026-03-01T00:00:01Z,5\n"
	id := e.register(t, "drive.csv", csv)

	res, err := Build(e.reg, e.store, id, Config{Hz: hz(1.0), TimeCol: "timestamp"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	tbl, err := Load(e.store, id, res.Key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !tbl.IsDatetime {
		t.Fatal("datetime source should reconstitute absolute bucket times")
	}
	if tbl.Len() != 2 {
		t.Fatalf("want 2 buckets, got %d", tbl.Len())
	}
	means, _ := tbl.Column("speed_mean")
	if means[0] != 2 || means[1] != 5 {
		t.Errorf("means = %v", means)
	}
}

func TestBuild_EmptyBucketsOmitted(t *testing.T) {
	e := newEnv(t)
	// A gap between t=1 and t=10: buckets 2..9 must not appear.
	id := e.register(t, "drive.csv", "timestamp,speed\n0,1\n1,2\n10,3\n")

	res, err := Build(e.reg, e.store, id, Config{Hz: hz(1.0), TimeCol: "timestamp"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	tbl, err := Load(e.store, id, res.Key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff([]int64{0, 1, 10}, tbl.Buckets); diff != "" {
		t.Errorf("buckets (-want +got):\n%s", diff)
	}
}

func TestBuild_NonNumericCellsBecomeNaN(t *testing.T) {
	e := newEnv(t)
	id := e.register(t, "drive.csv", "timestamp,speed\n0,\n1,2\n")

	res, err := Build(e.reg, e.store, id, Config{Hz: hz(1.0), TimeCol: "timestamp"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	tbl, err := Load(e.store, id, res.Key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	means, _ := tbl.Column("speed_mean")
	if !math.IsNaN(means[0]) {
		t.Errorf("empty cell bucket should be NaN, got %v", means[0])
	}
	if means[1] != 2 {
		t.Errorf("means[1] = %v", means[1])
	}
}

func TestLoad_AbsentIsNotFound(t *testing.T) {
	e := newEnv(t)
	_, err := Load(e.store, "m_none", "deadbeef00000000")
	if !errors.Is(err, artifact.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestInferSignals(t *testing.T) {
	cols := []string{"speed_min", "speed_mean", "speed_max", "rpm_min", "rpm_mean", "rpm_max", "partial_min", "bucket"}
	got := InferSignals(cols, []string{"min", "mean", "max"})
	if diff := cmp.Diff([]string{"rpm", "speed"}, got); diff != "" {
		t.Errorf("InferSignals (-want +got):\n%s", diff)
	}
}
