package wiring

import (
	"autopsy/internal/artifact"
	"autopsy/internal/pass1"
	"autopsy/internal/registry"
	"autopsy/internal/scanprofile"
)

// ScanFile executes the full flow for one file: Register → build overview →
// run first-pass detection, all through the result cache. The returned result
// reports cache_hit=true when an identical (file, profile) pair was scanned
// before.
func ScanFile(store *artifact.Store, reg *registry.Registry, path, label string, profile scanprofile.Profile) (*pass1.Result, error) {
	ref, err := reg.Register(path, label)
	if err != nil {
		return nil, err
	}
	return pass1.NewCache(store, reg).Run(ref.ID, profile.Overview, profile.Pass1)
}
