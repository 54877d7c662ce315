package registry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxChannels caps the stored channel list so registry records stay small.
const maxChannels = 2000

// FormatMeta is the best-effort, format-specific part of a measurement
// record. All fields are advisory; an extraction failure lands in
// MetadataError instead of failing registration.
type FormatMeta struct {
	ChannelCount      int      `json:"channel_count,omitempty"`
	Channels          []string `json:"channels,omitempty"`
	ChannelsTruncated bool     `json:"channels_truncated,omitempty"`
	StartTimeUnix     *float64 `json:"start_time_unix,omitempty"`
	FormatVersion     string   `json:"format_version,omitempty"`
	Note              string   `json:"note,omitempty"`
	MetadataError     string   `json:"metadata_error,omitempty"`
}

// Extractor produces format-specific metadata for one file format.
// Implementations are keyed by file extension on the registry.
type Extractor interface {
	// Format is the tag recorded on the measurement (e.g. "mf4", "csv").
	Format() string
	// Extract reads lightweight metadata without loading full data.
	Extract(path string) (FormatMeta, error)
}

func defaultExtractors() map[string]Extractor {
	mdf := mdfExtractor{}
	return map[string]Extractor{
		".mf4": mdf,
		".mdf": mdf,
	}
}

// extract resolves the extractor by extension and applies the channel cap.
// Extraction errors are captured on the record; they never abort registration.
func (r *Registry) extract(path string) FormatMeta {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.extractors[ext]
	if !ok {
		return FormatMeta{Note: "minimal metadata for this format"}
	}
	fm, err := e.Extract(path)
	if err != nil {
		return FormatMeta{MetadataError: err.Error()}
	}
	if len(fm.Channels) > maxChannels {
		fm.Channels = fm.Channels[:maxChannels]
		fm.ChannelsTruncated = true
	}
	return fm
}

// formatTag returns the format recorded on a measurement: the extractor's
// tag when one is registered for the extension, the bare extension otherwise.
func (r *Registry) formatTag(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if e, ok := r.extractors[ext]; ok {
		return e.Format()
	}
	return strings.TrimPrefix(ext, ".")
}

// mdfExtractor sniffs ASAM MDF/MF4 file headers. It reads the 64-byte
// identification block only; walking the full block tree for channel lists
// is out of scope, so channel fields stay empty for this format.
type mdfExtractor struct{}

func (mdfExtractor) Format() string { return "mf4" }

func (mdfExtractor) Extract(path string) (FormatMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatMeta{}, fmt.Errorf("open mdf: %w", err)
	}
	defer f.Close()

	var idBlock [64]byte
	if _, err := io.ReadFull(f, idBlock[:]); err != nil {
		return FormatMeta{}, fmt.Errorf("read mdf id block: %w", err)
	}

	magic := strings.TrimRight(string(idBlock[0:8]), " \x00")
	if magic != "MDF" && magic != "UnFinMF" {
		return FormatMeta{}, fmt.Errorf("not an MDF file: id %q", magic)
	}

	version := strings.TrimRight(string(idBlock[8:16]), " \x00")

	return FormatMeta{
		FormatVersion: version,
		Note:          "channel list requires full block parse; header sniff only",
	}, nil
}
