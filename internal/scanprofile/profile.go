// Package scanprofile loads scan profiles: named bundles of overview and
// detection configuration shared across CLI runs and MCP sessions.
package scanprofile

import (
	"autopsy/internal/overview"
	"autopsy/internal/pass1"
)

// Profile bundles the overview build config with the first-pass detection
// config. Omitted fields fall back to the documented defaults.
type Profile struct {
	Name     string          `json:"name,omitempty" yaml:"name,omitempty"`
	Overview overview.Config `json:"overview,omitempty" yaml:"overview,omitempty"`
	Pass1    pass1.Config    `json:"pass1,omitempty" yaml:"pass1,omitempty"`
}

// WithDefaults fills unset fields in both sections.
func (p Profile) WithDefaults() Profile {
	p.Overview = p.Overview.WithDefaults()
	p.Pass1 = p.Pass1.WithDefaults()
	return p
}

// Validate checks both sections. Call after WithDefaults.
func (p Profile) Validate() error {
	if err := p.Overview.Validate(); err != nil {
		return err
	}
	return p.Pass1.Validate()
}
