package tool

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/relaykit/relayup/internal/deploy"
	"github.com/relaykit/relayup/internal/platform"
	"github.com/relaykit/relayup/internal/release"
	"github.com/relaykit/relayup/internal/settings"
	"github.com/relaykit/relayup/internal/transaction"
	"github.com/relaykit/relayup/internal/vscode"
)

// Relay installs and manages the Relay developer tool. The install
// pipeline is: resolve version, resolve manifest, acquire a verified
// binary, run the vendor installer, then best-effort extension install,
// config deployment, and PATH registration.
type Relay struct {
	detector   platform.Detector
	editor     vscode.VSCode
	run        CommandRunner
	payloadDir string
	out        io.Writer
}

// RelayOptions configures construction. Zero values select production
// behavior.
type RelayOptions struct {
	// Detector overrides platform detection.
	Detector platform.Detector
	// Editor overrides the VS Code client.
	Editor vscode.VSCode
	// Runner overrides external command execution.
	Runner CommandRunner
	// PayloadDir overrides the payload directory shipped next to the
	// installer.
	PayloadDir string
	// Out receives progress and step reports.
	Out io.Writer
}

// NewRelay creates the Relay tool.
func NewRelay(opts RelayOptions) *Relay {
	r := &Relay{
		detector:   opts.Detector,
		editor:     opts.Editor,
		run:        opts.Runner,
		payloadDir: opts.PayloadDir,
		out:        opts.Out,
	}
	if r.detector == nil {
		r.detector = platform.NewDetector()
	}
	if r.editor == nil {
		r.editor = vscode.NewClient("")
	}
	if r.run == nil {
		r.run = ExecRunner
	}
	if r.out == nil {
		r.out = io.Discard
	}
	if r.payloadDir == "" {
		r.payloadDir = defaultPayloadDir()
	}
	return r
}

func (r *Relay) Name() string        { return "relay" }
func (r *Relay) DisplayName() string { return "Relay" }

// environment resolves everything the pipeline needs: platform ops,
// deployment paths, and the user's settings.
func (r *Relay) environment(ctx context.Context) (platform.Ops, *platform.Paths, *settings.Settings, error) {
	info, err := r.detector.Detect(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("detect platform: %w", err)
	}

	ops := platform.NewOps(info)
	paths, err := ops.Paths()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("resolve paths: %w", err)
	}

	loader := settings.NewLoader(r.detector)
	cfg, err := loader.Load(ctx, filepath.Join(paths.ToolConfigDir, "settings.lua"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load settings: %w", err)
	}

	return ops, paths, cfg, nil
}

// IsInstalled reports whether the Relay binary is present, either in
// the managed bin directory or anywhere on PATH.
func (r *Relay) IsInstalled(ctx context.Context) (bool, error) {
	ops, paths, _, err := r.environment(ctx)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(filepath.Join(paths.ToolConfigDir, "bin", ops.BinaryName())); err == nil {
		return true, nil
	}
	if _, err := exec.LookPath(strings.TrimSuffix(ops.BinaryName(), ".exe")); err == nil {
		return true, nil
	}
	return false, nil
}

// Install runs the full pipeline. Acquisition and the vendor installer
// are fatal on failure; extensions, config deployment, and PATH
// registration are best effort and reported as warnings.
func (r *Relay) Install(ctx context.Context) error {
	ops, paths, cfg, err := r.environment(ctx)
	if err != nil {
		return err
	}

	lock := transaction.New(paths.ToolConfigDir)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer lock.Release()

	localDir := cfg.LocalDir
	if localDir == "" {
		localDir = filepath.Join(r.payloadDir, "dist")
	}

	resolver := release.NewResolver(cfg.DistributionRoot, localDir)
	version, versionSrc, err := resolver.ResolveVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "✓ Resolved version %s (%s)\n", version, versionSrc)

	manifest, manifestSrc, err := resolver.ResolveManifest(ctx, version)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "✓ Resolved manifest (%s)\n", manifestSrc)

	platformID := ops.PlatformID()
	entry, err := manifest.Entry(platformID)
	if err != nil {
		return err
	}

	downloadPath := filepath.Join(paths.ToolConfigDir, "downloads",
		downloadName(version, platformID, ops.BinaryName()))
	keyringPath := filepath.Join(paths.ToolConfigDir, "keyrings", "relay.asc")

	acquirer := release.NewAcquirer(resolver.Root(), localDir, keyringPath, release.NewFetcher(r.out), r.out)
	binarySrc, err := acquirer.Acquire(ctx, version, platformID, ops.BinaryName(), downloadPath, entry.Checksum)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "✓ Acquired verified binary (%s)\n", binarySrc)

	if err := os.Chmod(downloadPath, 0755); err != nil {
		return fmt.Errorf("make binary executable: %w", err)
	}

	output, err := r.run(ctx, downloadPath, "install")
	if err != nil {
		return fmt.Errorf("vendor installer failed: %w\n%s", err, indent(string(output)))
	}
	fmt.Fprintf(r.out, "✓ Ran %s installer\n", r.DisplayName())

	if err := os.Remove(downloadPath); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(r.out, "⚠ could not remove temporary binary: %v\n", err)
	}

	if cfg.InstallExtensions {
		if err := r.editor.InstallExtensions(ctx, filepath.Join(r.payloadDir, "extensions"), r.out); err != nil {
			fmt.Fprintf(r.out, "⚠ extension install incomplete: %v\n", err)
		}
	}

	if cfg.DeployConfigs {
		deployer := deploy.NewDeployer(ops, r.payloadDir, r.out)
		if err := deployer.Deploy(ctx); err != nil {
			fmt.Fprintf(r.out, "⚠ configuration deployment incomplete: %v\n", err)
		}
	}

	if cfg.RegisterPath {
		binDir := filepath.Join(paths.ToolConfigDir, "bin")
		if err := ops.AddToPath(ctx, binDir); err != nil {
			fmt.Fprintf(r.out, "⚠ could not register %s on PATH: %v\n", binDir, err)
		} else {
			fmt.Fprintf(r.out, "✓ Registered %s on PATH\n", binDir)
		}
	}

	return nil
}

// Uninstall asks the vendor binary to remove itself, and falls back to
// deleting the managed binary directly when that fails or the binary is
// gone. User configuration under the Relay config directory is kept.
func (r *Relay) Uninstall(ctx context.Context) error {
	ops, paths, _, err := r.environment(ctx)
	if err != nil {
		return err
	}

	binDir := filepath.Join(paths.ToolConfigDir, "bin")
	binPath := filepath.Join(binDir, ops.BinaryName())

	if _, statErr := os.Stat(binPath); statErr == nil {
		if output, runErr := r.run(ctx, binPath, "uninstall"); runErr == nil {
			fmt.Fprintf(r.out, "✓ %s uninstalled itself\n", r.DisplayName())
			return nil
		} else {
			fmt.Fprintf(r.out, "⚠ vendor uninstaller failed, removing binary directly: %v\n%s",
				runErr, indent(string(output)))
		}
	}

	// The bin directory is managed install state, not user data.
	if err := os.RemoveAll(binDir); err != nil {
		return fmt.Errorf("remove binary directory: %w", err)
	}

	fmt.Fprintf(r.out, "✓ Removed %s binary\n", r.DisplayName())
	return nil
}

// Configure re-runs configuration deployment and extension install
// without touching the binary.
func (r *Relay) Configure(ctx context.Context) error {
	ops, _, cfg, err := r.environment(ctx)
	if err != nil {
		return err
	}

	if cfg.InstallExtensions {
		if err := r.editor.InstallExtensions(ctx, filepath.Join(r.payloadDir, "extensions"), r.out); err != nil {
			fmt.Fprintf(r.out, "⚠ extension install incomplete: %v\n", err)
		}
	}

	deployer := deploy.NewDeployer(ops, r.payloadDir, r.out)
	return deployer.Deploy(ctx)
}

// indent prefixes each non-empty output line for display under an
// error message.
func indent(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n") + "\n"
}

// downloadName builds the temporary download filename, keeping the
// platform's executable extension.
func downloadName(version, platformID, binaryName string) string {
	name := fmt.Sprintf("relay-%s-%s", version, platformID)
	if strings.HasSuffix(binaryName, ".exe") {
		name += ".exe"
	}
	return name
}

// defaultPayloadDir is the payload directory shipped beside the
// installer executable.
func defaultPayloadDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "payload"
	}
	return filepath.Join(filepath.Dir(exe), "payload")
}
