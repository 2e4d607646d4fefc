package platform

import (
	"context"
	"os"
	"path/filepath"
)

// Paths holds the user-owned directories the installer writes into.
// All deployment destinations come from here; nothing else in the
// pipeline hard-codes a destination path.
type Paths struct {
	HomeDir           string // user home directory
	ToolConfigDir     string // Relay config root (~/.relay)
	EditorSettingsDir string // VS Code user settings directory
	CertsDir          string // destination for deployed certificates
}

// Ops collects every OS-specific operation the install pipeline needs.
// Exactly one implementation is selected at startup based on the detected
// OS; business logic never branches on GOOS directly.
type Ops interface {
	// Paths returns the platform-specific deployment directories.
	Paths() (*Paths, error)

	// PlatformID returns the distribution platform identifier used in
	// manifest lookups and download paths (e.g. "darwin-arm64").
	PlatformID() string

	// BinaryName returns the vendor binary filename for this platform.
	BinaryName() string

	// SetUserEnvVar persistently sets an environment variable for the
	// current user (shell rc file on unix, user environment on Windows).
	SetUserEnvVar(ctx context.Context, name, value string) error

	// AddToPath persistently prepends a directory to the user's PATH.
	// Idempotent: a directory already on PATH is not added again.
	AddToPath(ctx context.Context, dir string) error

	// ImportCertificate imports a certificate into the user trust store.
	ImportCertificate(ctx context.Context, certPath string) error

	// InstallInstructions returns the platform-specific guidance shown
	// when prerequisites are missing.
	InstallInstructions() string
}

// NewOps selects the Ops implementation for the detected platform.
// Unrecognized platforms get the unix implementation with the linux-x64
// development identifier rather than failing.
func NewOps(info *Info) Ops {
	switch info.OS {
	case "darwin":
		return &darwinOps{info: info}
	case "windows":
		return &windowsOps{info: info}
	default:
		return &unixOps{info: info}
	}
}

// PlatformIDFor maps detected OS/arch to a distribution platform
// identifier. Combinations outside the supported set fall back to the
// development-only linux-x64 identifier.
func PlatformIDFor(info *Info) string {
	switch {
	case info.OS == "windows" && info.Arch == "amd64":
		return "win32-x64"
	case info.OS == "darwin" && info.Arch == "amd64":
		return "darwin-x64"
	case info.OS == "darwin" && info.Arch == "arm64":
		return "darwin-arm64"
	default:
		return "linux-x64"
	}
}

// toolConfigDir returns the Relay config root under the given home.
func toolConfigDir(home string) string {
	return filepath.Join(home, ".relay")
}

// userHomeDir resolves the home directory, honoring an override for tests.
func userHomeDir() (string, error) {
	if dir := os.Getenv("RELAYUP_HOME"); dir != "" {
		return dir, nil
	}
	return os.UserHomeDir()
}
