package fingerprint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestSignature_Stable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.csv")
	writeFile(t, path, []byte("timestamp,speed\n0,1.5\n"))

	s1, err := Signature(path, 0)
	if err != nil {
		t.Fatalf("Signature: %v", err)
	}
	s2, err := Signature(path, 0)
	if err != nil {
		t.Fatalf("Signature: %v", err)
	}
	if s1 != s2 {
		t.Errorf("signature not stable: %s vs %s", s1, s2)
	}
	if len(s1) != 64 {
		t.Errorf("want 64 hex chars, got %d", len(s1))
	}
}

func TestSignature_HeadContentChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	mtime := time.Now().Add(-time.Hour)

	writeFile(t, path, []byte("timestamp,speed\n0,1.5\n"))
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	s1, err := Signature(path, 0)
	if err != nil {
		t.Fatalf("Signature: %v", err)
	}

	// Same size, same mtime, different head bytes.
	writeFile(t, path, []byte("timestamp,speed\n0,9.5\n"))
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	s2, err := Signature(path, 0)
	if err != nil {
		t.Fatalf("Signature: %v", err)
	}
	if s1 == s2 {
		t.Error("head content change not reflected in signature")
	}
}

func TestSignature_SizeChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	mtime := time.Now().Add(-time.Hour)

	writeFile(t, path, []byte("abc"))
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	s1, _ := Signature(path, 0)

	writeFile(t, path, []byte("abcd"))
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	s2, _ := Signature(path, 0)

	if s1 == s2 {
		t.Error("size change not reflected in signature")
	}
}

func TestSignature_TailChangeBeyondHeadNotDetected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	mtime := time.Now().Add(-time.Hour)

	head := strings.Repeat("x", 16)
	writeFile(t, path, []byte(head+"AAAA"))
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	s1, err := Signature(path, 16)
	if err != nil {
		t.Fatalf("Signature: %v", err)
	}

	// Same size, same mtime, change only bytes past the head window.
	writeFile(t, path, []byte(head+"BBBB"))
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	s2, err := Signature(path, 16)
	if err != nil {
		t.Fatalf("Signature: %v", err)
	}

	if s1 != s2 {
		t.Error("tail-only change should not alter the signature")
	}
}

func TestSignature_MissingFile(t *testing.T) {
	if _, err := Signature(filepath.Join(t.TempDir(), "nope.csv"), 0); err == nil {
		t.Error("want error for missing file")
	}
}

func TestMeasurementID(t *testing.T) {
	sig := "0123456789abcdef0123456789abcdef"
	if got := MeasurementID(sig); got != "m_0123456789ab" {
		t.Errorf("MeasurementID = %q", got)
	}
}
