package platform

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/relaykit/relayup/internal/shell"
)

// ErrCertImportUnsupported is returned where no user trust store
// integration exists; callers treat it as a warning.
var ErrCertImportUnsupported = errors.New("certificate trust import is not supported on this platform")

// unixOps implements Ops for Linux and any other unrecognized platform.
// Linux is a development-only target: downloads use the linux-x64
// identifier and certificate trust import is unsupported.
type unixOps struct {
	info *Info
}

func (o *unixOps) Paths() (*Paths, error) {
	home, err := userHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home directory: %w", err)
	}

	return &Paths{
		HomeDir:           home,
		ToolConfigDir:     toolConfigDir(home),
		EditorSettingsDir: filepath.Join(home, ".config", "Code", "User"),
		CertsDir:          filepath.Join(home, "certs"),
	}, nil
}

func (o *unixOps) PlatformID() string {
	return PlatformIDFor(o.info)
}

func (o *unixOps) BinaryName() string {
	return "relay"
}

func (o *unixOps) SetUserEnvVar(ctx context.Context, name, value string) error {
	sh := shell.DetectWithDefault(shell.ShellBash)
	rcPath, err := shell.RCFilePath(sh, o.info.OS)
	if err != nil {
		return fmt.Errorf("resolve rc file: %w", err)
	}
	return shell.UpsertEnvVar(rcPath, sh, name, value)
}

func (o *unixOps) AddToPath(ctx context.Context, dir string) error {
	sh := shell.DetectWithDefault(shell.ShellBash)
	rcPath, err := shell.RCFilePath(sh, o.info.OS)
	if err != nil {
		return fmt.Errorf("resolve rc file: %w", err)
	}
	return shell.EnsurePathEntry(rcPath, sh, dir)
}

func (o *unixOps) ImportCertificate(ctx context.Context, certPath string) error {
	return ErrCertImportUnsupported
}

func (o *unixOps) InstallInstructions() string {
	return `This platform is not officially supported. Install the prerequisites manually:
  - Visual Studio Code (the 'code' command must be on PATH)
  - Git

Once installed, run this command again.`
}
