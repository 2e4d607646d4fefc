package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/relaykit/relayup/internal/platform"
)

// certEnvVar is consumed by Node-based tooling (the Relay binary and
// the editor extensions) to trust a corporate root CA.
const certEnvVar = "NODE_EXTRA_CA_CERTS"

// certEnvCandidates are the certificate filenames that, when present in
// the deployed certs directory, get wired into certEnvVar. First match
// wins.
var certEnvCandidates = []string{"RelayRootCA.crt", "relay-root.crt"}

// editorSettingsCandidates are the payload-relative locations of the
// editor settings source, most specific first.
var editorSettingsCandidates = []string{
	filepath.Join("editor", "settings.json"),
	"vscode-settings.json",
}

// certSourceCandidates are the payload-relative directories searched
// for certificates to deploy, most specific first.
var certSourceCandidates = []string{
	filepath.Join(".relay", "certs"),
	"certs",
}

// Deployer runs the configuration deployment steps. Every step is
// best effort: a failing step is reported and the rest still run, so a
// locked-down machine gets as much configuration as it allows.
type Deployer struct {
	ops        platform.Ops
	payloadDir string
	out        io.Writer
}

// NewDeployer creates a deployer reading the payload rooted at
// payloadDir and reporting step results to out.
func NewDeployer(ops platform.Ops, payloadDir string, out io.Writer) *Deployer {
	if out == nil {
		out = io.Discard
	}
	return &Deployer{ops: ops, payloadDir: payloadDir, out: out}
}

// Deploy runs all deployment steps in order: tool settings,
// certificates, editor settings, certificate environment variable.
// The returned error joins every step failure; callers treat it as a
// warning, not an abort.
func (d *Deployer) Deploy(ctx context.Context) error {
	paths, err := d.ops.Paths()
	if err != nil {
		return fmt.Errorf("resolving deployment paths: %w", err)
	}

	var failures []error

	report := func(step string, err error) {
		if err != nil {
			fmt.Fprintf(d.out, "⚠ %s: %v\n", step, err)
			failures = append(failures, fmt.Errorf("%s: %w", step, err))
			return
		}
		fmt.Fprintf(d.out, "✓ %s\n", step)
	}

	report("tool settings", d.deployToolSettings(paths))
	report("certificates", d.deployCertificates(ctx, paths))
	report("editor settings", d.deployEditorSettings(paths))
	report("certificate environment", d.configureCertEnv(ctx, paths))

	return errors.Join(failures...)
}

// deployToolSettings merges the payload's settings.json into the Relay
// config directory. A payload without tool settings is fine.
func (d *Deployer) deployToolSettings(paths *platform.Paths) error {
	srcPath := filepath.Join(d.payloadDir, "settings.json")
	if _, err := os.Stat(srcPath); os.IsNotExist(err) {
		return nil
	}
	return MergeOrCopy(srcPath, filepath.Join(paths.ToolConfigDir, "settings.json"))
}

// deployCertificates copies payload certificates into the certs
// directory and imports each into the user trust store. Every existing
// source candidate is deployed; when two sources carry the same
// filename the more specific one wins. Import failures are collected
// rather than aborting the copy loop; macOS resource fork artifacts
// ("._" prefixed) are skipped.
func (d *Deployer) deployCertificates(ctx context.Context, paths *platform.Paths) error {
	deployed := make(map[string]bool)
	madeDestDir := false

	var importErrs []error
	for _, candidate := range certSourceCandidates {
		srcDir := filepath.Join(d.payloadDir, candidate)
		entries, err := os.ReadDir(srcDir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading certificate source %s: %w", srcDir, err)
		}

		if !madeDestDir {
			if err := os.MkdirAll(paths.CertsDir, 0755); err != nil {
				return fmt.Errorf("creating certs directory: %w", err)
			}
			madeDestDir = true
		}

		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || strings.HasPrefix(name, "._") || !strings.HasSuffix(name, ".crt") {
				continue
			}
			if deployed[name] {
				continue
			}
			deployed[name] = true

			data, err := os.ReadFile(filepath.Join(srcDir, name))
			if err != nil {
				return fmt.Errorf("reading certificate %s: %w", name, err)
			}

			destPath := filepath.Join(paths.CertsDir, name)
			if err := os.WriteFile(destPath, data, 0644); err != nil {
				return fmt.Errorf("writing certificate %s: %w", name, err)
			}

			if err := d.ops.ImportCertificate(ctx, destPath); err != nil {
				importErrs = append(importErrs, fmt.Errorf("importing %s: %w", name, err))
			}
		}
	}

	return errors.Join(importErrs...)
}

// deployEditorSettings merges the payload's editor settings into the
// VS Code user settings file.
func (d *Deployer) deployEditorSettings(paths *platform.Paths) error {
	var srcPath string
	for _, candidate := range editorSettingsCandidates {
		path := filepath.Join(d.payloadDir, candidate)
		if _, err := os.Stat(path); err == nil {
			srcPath = path
			break
		}
	}
	if srcPath == "" {
		return nil
	}

	return MergeOrCopy(srcPath, filepath.Join(paths.EditorSettingsDir, "settings.json"))
}

// configureCertEnv points certEnvVar at a deployed root certificate so
// Node-based tooling trusts it. Nothing happens when no recognized
// certificate was deployed.
func (d *Deployer) configureCertEnv(ctx context.Context, paths *platform.Paths) error {
	for _, name := range certEnvCandidates {
		certPath := filepath.Join(paths.CertsDir, name)
		if _, err := os.Stat(certPath); err == nil {
			return d.ops.SetUserEnvVar(ctx, certEnvVar, certPath)
		}
	}
	return nil
}
