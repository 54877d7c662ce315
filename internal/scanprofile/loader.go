package scanprofile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// LoadFromPath reads a profile file (YAML or JSON) and returns the parsed Profile.
// Format is detected by extension (.yaml/.yml → YAML, .json → JSON) or by content (first non-whitespace char).
func LoadFromPath(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return Load(data, filepath.Ext(path))
}

// Load parses a profile from bytes. ext is the file extension (e.g. ".json", ".yaml") for format hint; empty = detect from content.
func Load(data []byte, ext string) (*Profile, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext == ".yaml" {
		var p Profile
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse profile yaml: %w", err)
		}
		return &p, nil
	}
	if ext == ".json" {
		var p Profile
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse profile json: %w", err)
		}
		return &p, nil
	}
	// Detect: try JSON first (starts with {), else YAML
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var p Profile
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse profile json: %w", err)
		}
		return &p, nil
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile yaml: %w", err)
	}
	return &p, nil
}
