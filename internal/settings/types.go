// Package settings loads relayup's own configuration from a sandboxed
// Lua file. The file is declarative: a global `relayup` table with
// plain values, optionally varied per platform through the injected
// `platform` table.
package settings

import "fmt"

// Settings controls where releases come from and which install steps
// run. Zero values for the toggles mean enabled; the file only needs to
// mention what it turns off.
type Settings struct {
	// DistributionRoot overrides the release endpoint. Empty selects
	// the built-in default.
	DistributionRoot string
	// LocalDir overrides the local mirror directory used for offline
	// fallback. Empty selects the payload directory next to the
	// installer.
	LocalDir string
	// InstallExtensions controls the editor extension step.
	InstallExtensions bool
	// DeployConfigs controls the configuration deployment step.
	DeployConfigs bool
	// RegisterPath controls PATH registration for the installed binary.
	RegisterPath bool
}

// Default returns the settings used when no settings file exists.
func Default() *Settings {
	return &Settings{
		InstallExtensions: true,
		DeployConfigs:     true,
		RegisterPath:      true,
	}
}

// ParseError wraps a Lua-level failure with a friendly message.
type ParseError struct {
	Message string
	Detail  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}
