package platform

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/relaykit/relayup/internal/shell"
)

// darwinOps implements Ops for macOS.
type darwinOps struct {
	info *Info
}

func (o *darwinOps) Paths() (*Paths, error) {
	home, err := userHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home directory: %w", err)
	}

	return &Paths{
		HomeDir:           home,
		ToolConfigDir:     toolConfigDir(home),
		EditorSettingsDir: filepath.Join(home, "Library", "Application Support", "Code", "User"),
		CertsDir:          filepath.Join(home, "certs"),
	}, nil
}

func (o *darwinOps) PlatformID() string {
	return PlatformIDFor(o.info)
}

func (o *darwinOps) BinaryName() string {
	return "relay"
}

// SetUserEnvVar persists an environment variable by upserting an export
// line in the user's shell rc file. macOS defaults to zsh when $SHELL is
// not set or unrecognized.
func (o *darwinOps) SetUserEnvVar(ctx context.Context, name, value string) error {
	sh := shell.DetectWithDefault(shell.ShellZsh)
	rcPath, err := shell.RCFilePath(sh, "darwin")
	if err != nil {
		return fmt.Errorf("resolve rc file: %w", err)
	}
	return shell.UpsertEnvVar(rcPath, sh, name, value)
}

func (o *darwinOps) AddToPath(ctx context.Context, dir string) error {
	sh := shell.DetectWithDefault(shell.ShellZsh)
	rcPath, err := shell.RCFilePath(sh, "darwin")
	if err != nil {
		return fmt.Errorf("resolve rc file: %w", err)
	}
	return shell.EnsurePathEntry(rcPath, sh, dir)
}

// ImportCertificate adds the certificate to the user's login keychain.
// If the security tool refuses (common on managed machines), the
// certificate is opened in Keychain Access for manual import instead.
func (o *darwinOps) ImportCertificate(ctx context.Context, certPath string) error {
	home, err := userHomeDir()
	if err != nil {
		return fmt.Errorf("get home directory: %w", err)
	}

	keychain := filepath.Join(home, "Library", "Keychains", "login.keychain-db")

	cmd := exec.CommandContext(ctx, "security", "add-trusted-cert", "-k", keychain, certPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		// Fall back to manual import via Keychain Access.
		if openErr := exec.CommandContext(ctx, "open", certPath).Start(); openErr != nil {
			return fmt.Errorf("automatic import failed (%s) and manual import could not be started: %w",
				firstLine(string(out)), openErr)
		}
		return fmt.Errorf("automatic import failed, opened certificate for manual import: %s",
			firstLine(string(out)))
	}

	return nil
}

func (o *darwinOps) InstallInstructions() string {
	return `Please install the missing software via Self-Service:
  1. Open Self-Service from your Applications folder or Dock
  2. Search for and install:
     - Visual Studio Code
     - Git (or Xcode Command Line Tools)

Once installed, run this command again.`
}
