package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeChannelExtractor simulates a rich binary-log reader for cap tests.
type fakeChannelExtractor struct {
	channels []string
	fail     bool
}

func (fakeChannelExtractor) Format() string { return "fake" }

func (f fakeChannelExtractor) Extract(string) (FormatMeta, error) {
	if f.fail {
		return FormatMeta{}, os.ErrPermission
	}
	return FormatMeta{Channels: f.channels, ChannelCount: len(f.channels)}, nil
}

func TestExtract_ChannelCap(t *testing.T) {
	r, dir := openTestRegistry(t)

	channels := make([]string, maxChannels+500)
	for i := range channels {
		channels[i] = "ch"
	}
	r.SetExtractor(".fake", fakeChannelExtractor{channels: channels})

	path := writeCSV(t, dir, "big.fake", "binary-ish payload")
	ref, err := r.Register(path, "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	meta, err := r.Metadata(ref.ID)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if len(meta.Channels) != maxChannels {
		t.Errorf("channels not capped: %d", len(meta.Channels))
	}
	if !meta.ChannelsTruncated {
		t.Error("truncation flag not set")
	}
	if meta.ChannelCount != maxChannels+500 {
		t.Errorf("channel count should keep the true total, got %d", meta.ChannelCount)
	}
}

func TestExtract_FailureIsDiagnosticNotFatal(t *testing.T) {
	r, dir := openTestRegistry(t)
	r.SetExtractor(".fake", fakeChannelExtractor{fail: true})

	path := writeCSV(t, dir, "broken.fake", "payload")
	ref, err := r.Register(path, "")
	if err != nil {
		t.Fatalf("registration must succeed despite extractor failure: %v", err)
	}
	meta, err := r.Metadata(ref.ID)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if meta.MetadataError == "" {
		t.Error("extractor failure should be recorded as metadata_error")
	}
}

func TestMDFExtractor_HeaderSniff(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.mf4")

	// 64-byte identification block: "MDF     " + version "4.10    " + padding.
	id := "MDF     4.10    " + strings.Repeat("\x00", 48)
	if err := os.WriteFile(path, []byte(id), 0644); err != nil {
		t.Fatalf("write mf4: %v", err)
	}

	fm, err := mdfExtractor{}.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if fm.FormatVersion != "4.10" {
		t.Errorf("version = %q", fm.FormatVersion)
	}
}

func TestMDFExtractor_RejectsNonMDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.mf4")
	if err := os.WriteFile(path, []byte(strings.Repeat("garbage!", 8)), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := (mdfExtractor{}).Extract(path); err == nil {
		t.Error("want error for non-MDF payload")
	}
}
