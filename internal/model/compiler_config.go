package model

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// CompilerConfig is an exact compiler version plus the opaque settings
// map forwarded to the compiler's Standard JSON input.
type CompilerConfig struct {
	Version  *semver.Version
	Settings map[string]interface{}

	// Overridden records, per source name, whether the file's version
	// selection came from a user override entry rather than pragma
	// intersection (§3 CompilerConfig).
	Overridden map[SourceName]bool
}

// NewCompilerConfig builds a CompilerConfig for the given version and
// settings map.
func NewCompilerConfig(v *semver.Version, settings map[string]interface{}) *CompilerConfig {
	return &CompilerConfig{
		Version:    v,
		Settings:   settings,
		Overridden: map[SourceName]bool{},
	}
}

// Equal reports whether two configs are value-equal: same version and
// same settings. This is the equality the planner's job-merge step
// (§4.4 Step B) uses — merging by full config equality, not version
// alone, so that two jobs at the same version but with different
// settings are never combined.
func (c *CompilerConfig) Equal(o *CompilerConfig) bool {
	if c == nil || o == nil {
		return c == o
	}
	if !c.Version.Equal(o.Version) {
		return false
	}
	return settingsEqual(c.Settings, o.Settings)
}

func settingsEqual(a, b map[string]interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			return false
		}
		if fmt.Sprint(av) != fmt.Sprint(bv) {
			return false
		}
	}
	return true
}

// String renders the config for logging/diagnostics.
func (c *CompilerConfig) String() string {
	return c.Version.String()
}

// SettingsDigest returns a stable string rendering of Settings,
// suitable for cache comparison (§4.5 has_file_changed).
func (c *CompilerConfig) SettingsDigest() string {
	keys := make([]string, 0, len(c.Settings))
	for k := range c.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	digest := c.Version.String() + "|"
	for _, k := range keys {
		digest += k + "=" + fmt.Sprint(c.Settings[k]) + ";"
	}
	return digest
}
