package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autopsy/internal/artifact"
)

func openTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	dir := t.TempDir()
	r, err := Open(artifact.NewStore(filepath.Join(dir, ".autopsy")))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r, dir
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRegister_Idempotent(t *testing.T) {
	r, dir := openTestRegistry(t)
	path := writeCSV(t, dir, "drive.csv", "timestamp,speed\n0,1\n1,2\n")

	ref1, err := r.Register(path, "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	ref2, err := r.Register(path, "")
	if err != nil {
		t.Fatalf("Register again: %v", err)
	}
	if ref1.ID != ref2.ID {
		t.Errorf("ids differ: %s vs %s", ref1.ID, ref2.ID)
	}

	all, err := r.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("want 1 record, got %d", len(all))
	}
}

func TestRegister_LabelUpdateNonDestructive(t *testing.T) {
	r, dir := openTestRegistry(t)
	path := writeCSV(t, dir, "drive.csv", "timestamp,speed\n0,1\n")

	ref, err := r.Register(path, "first")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	before, err := r.Metadata(ref.ID)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}

	// Same label is a no-op; a different label updates only the label.
	if _, err := r.Register(path, "first"); err != nil {
		t.Fatalf("Register same label: %v", err)
	}
	if _, err := r.Register(path, "second"); err != nil {
		t.Fatalf("Register new label: %v", err)
	}

	after, err := r.Metadata(ref.ID)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if after.Label != "second" {
		t.Errorf("label not updated: %q", after.Label)
	}
	if after.CreatedAt != before.CreatedAt || after.FileFingerprint != before.FileFingerprint {
		t.Error("label update must not touch other fields")
	}
}

func TestRegister_MissingFile(t *testing.T) {
	r, dir := openTestRegistry(t)
	if _, err := r.Register(filepath.Join(dir, "nope.csv"), ""); err == nil {
		t.Error("want error for unreadable file")
	}
}

func TestMetadata_UnknownID(t *testing.T) {
	r, _ := openTestRegistry(t)
	_, err := r.Metadata("m_doesnotexist")
	if err == nil {
		t.Fatal("want error for unknown id")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "m_doesnotexist") {
		t.Errorf("error should name the id: %v", err)
	}
}

func TestRegister_FormatTag(t *testing.T) {
	r, dir := openTestRegistry(t)
	path := writeCSV(t, dir, "drive.csv", "timestamp,speed\n0,1\n")

	ref, err := r.Register(path, "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	meta, err := r.Metadata(ref.ID)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if meta.Format != "csv" {
		t.Errorf("format = %q, want csv", meta.Format)
	}
	if meta.Note == "" {
		t.Error("minimal formats should carry a note")
	}
}
