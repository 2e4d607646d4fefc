package platform

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// windowsOps implements Ops for Windows.
//
// User environment mutation goes through PowerShell's
// [Environment]::SetEnvironmentVariable, which writes the user registry
// hive and broadcasts the settings change, without requiring cgo or a
// Windows-only build of this package.
type windowsOps struct {
	info *Info
}

func (o *windowsOps) Paths() (*Paths, error) {
	home, err := userHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home directory: %w", err)
	}

	appData := os.Getenv("APPDATA")
	if appData == "" {
		appData = filepath.Join(home, "AppData", "Roaming")
	}

	return &Paths{
		HomeDir:           home,
		ToolConfigDir:     toolConfigDir(home),
		EditorSettingsDir: filepath.Join(appData, "Code", "User"),
		CertsDir:          filepath.Join(home, ".relay", "certs"),
	}, nil
}

func (o *windowsOps) PlatformID() string {
	return PlatformIDFor(o.info)
}

func (o *windowsOps) BinaryName() string {
	return "relay.exe"
}

func (o *windowsOps) SetUserEnvVar(ctx context.Context, name, value string) error {
	script := fmt.Sprintf(`[Environment]::SetEnvironmentVariable(%s, %s, 'User')`,
		psQuote(name), psQuote(value))
	return runPowerShell(ctx, script)
}

// AddToPath appends the directory to the user PATH value unless an
// equivalent entry is already present (case-insensitive, Windows rules).
func (o *windowsOps) AddToPath(ctx context.Context, dir string) error {
	script := fmt.Sprintf(`$p = [Environment]::GetEnvironmentVariable('Path', 'User')
$dir = %s
if (-not (($p -split ';') -contains $dir)) {
  if ([string]::IsNullOrEmpty($p)) { $p = $dir } else { $p = "$p;$dir" }
  [Environment]::SetEnvironmentVariable('Path', $p, 'User')
}`, psQuote(dir))
	return runPowerShell(ctx, script)
}

// ImportCertificate is a no-op on Windows. Importing into the system
// store requires elevation; the deployed certificate is trusted via the
// NODE_EXTRA_CA_CERTS variable set during config deployment instead.
func (o *windowsOps) ImportCertificate(ctx context.Context, certPath string) error {
	return nil
}

func (o *windowsOps) InstallInstructions() string {
	return `Please install the missing software via Software Center:
  1. Open Software Center from the Start menu
  2. Search for and install:
     - Visual Studio Code
     - Git for Windows

Once installed, run this command again.`
}

// runPowerShell executes a script fragment with profile loading disabled.
func runPowerShell(ctx context.Context, script string) error {
	cmd := exec.CommandContext(ctx, "powershell.exe", "-NoProfile", "-NonInteractive", "-Command", script)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("powershell: %s: %w", firstLine(string(out)), err)
	}
	return nil
}

// psQuote single-quotes a string for PowerShell, escaping embedded quotes.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// firstLine returns the first non-empty line of command output, trimmed.
func firstLine(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return "no output"
}
