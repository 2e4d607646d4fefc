package deploy

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/relaykit/relayup/internal/platform"
)

// fakeOps records the platform operations the deployer performed.
type fakeOps struct {
	paths      platform.Paths
	envVars    map[string]string
	imported   []string
	importFail error
}

func newFakeOps(t *testing.T) *fakeOps {
	t.Helper()
	root := t.TempDir()
	return &fakeOps{
		paths: platform.Paths{
			HomeDir:           root,
			ToolConfigDir:     filepath.Join(root, ".relay"),
			EditorSettingsDir: filepath.Join(root, "Code", "User"),
			CertsDir:          filepath.Join(root, ".relay", "certs"),
		},
		envVars: make(map[string]string),
	}
}

func (f *fakeOps) Paths() (*platform.Paths, error) { return &f.paths, nil }
func (f *fakeOps) PlatformID() string              { return "linux-x64" }
func (f *fakeOps) BinaryName() string              { return "relay" }
func (f *fakeOps) InstallInstructions() string     { return "" }

func (f *fakeOps) SetUserEnvVar(_ context.Context, name, value string) error {
	f.envVars[name] = value
	return nil
}

func (f *fakeOps) AddToPath(_ context.Context, _ string) error { return nil }

func (f *fakeOps) ImportCertificate(_ context.Context, certPath string) error {
	if f.importFail != nil {
		return f.importFail
	}
	f.imported = append(f.imported, filepath.Base(certPath))
	return nil
}

func writePayload(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestDeployToolSettings(t *testing.T) {
	ops := newFakeOps(t)
	payload := t.TempDir()
	writePayload(t, payload, "settings.json", `{"distribution_root": "https://mirror"}`)

	d := NewDeployer(ops, payload, io.Discard)
	if err := d.Deploy(context.Background()); err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	if _, err := os.Stat(filepath.Join(ops.paths.ToolConfigDir, "settings.json")); err != nil {
		t.Errorf("tool settings not deployed: %v", err)
	}
}

func TestDeployCertificates(t *testing.T) {
	ops := newFakeOps(t)
	payload := t.TempDir()
	writePayload(t, payload, filepath.Join("certs", "RelayRootCA.crt"), "cert data")
	writePayload(t, payload, filepath.Join("certs", "._RelayRootCA.crt"), "resource fork junk")
	writePayload(t, payload, filepath.Join("certs", "notes.txt"), "not a cert")

	d := NewDeployer(ops, payload, io.Discard)
	if err := d.Deploy(context.Background()); err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	if _, err := os.Stat(filepath.Join(ops.paths.CertsDir, "RelayRootCA.crt")); err != nil {
		t.Errorf("certificate not deployed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(ops.paths.CertsDir, "._RelayRootCA.crt")); !os.IsNotExist(err) {
		t.Error("resource fork artifact was deployed")
	}
	if len(ops.imported) != 1 || ops.imported[0] != "RelayRootCA.crt" {
		t.Errorf("imported = %v", ops.imported)
	}

	if got := ops.envVars[certEnvVar]; got != filepath.Join(ops.paths.CertsDir, "RelayRootCA.crt") {
		t.Errorf("%s = %q", certEnvVar, got)
	}
}

func TestDeployCertSourcePrecedence(t *testing.T) {
	ops := newFakeOps(t)
	payload := t.TempDir()
	writePayload(t, payload, filepath.Join(".relay", "certs", "relay-root.crt"), "preferred")
	writePayload(t, payload, filepath.Join("certs", "relay-root.crt"), "ignored")

	d := NewDeployer(ops, payload, io.Discard)
	if err := d.Deploy(context.Background()); err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(ops.paths.CertsDir, "relay-root.crt"))
	if err != nil {
		t.Fatalf("read deployed cert: %v", err)
	}
	if string(data) != "preferred" {
		t.Errorf("deployed cert came from the wrong source: %q", data)
	}
}

func TestDeployCertificatesFromAllSources(t *testing.T) {
	ops := newFakeOps(t)
	payload := t.TempDir()
	writePayload(t, payload, filepath.Join(".relay", "certs", "RelayRootCA.crt"), "root ca")
	writePayload(t, payload, filepath.Join("certs", "proxy.crt"), "proxy cert")

	d := NewDeployer(ops, payload, io.Discard)
	if err := d.Deploy(context.Background()); err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	for _, name := range []string{"RelayRootCA.crt", "proxy.crt"} {
		if _, err := os.Stat(filepath.Join(ops.paths.CertsDir, name)); err != nil {
			t.Errorf("certificate %s not deployed: %v", name, err)
		}
	}
	if len(ops.imported) != 2 {
		t.Errorf("imported = %v, want both certificates", ops.imported)
	}
}

func TestDeployCertImportFailureIsWarning(t *testing.T) {
	ops := newFakeOps(t)
	ops.importFail = errors.New("trust store locked down")
	payload := t.TempDir()
	writePayload(t, payload, filepath.Join("certs", "RelayRootCA.crt"), "cert data")

	d := NewDeployer(ops, payload, io.Discard)
	err := d.Deploy(context.Background())
	if err == nil {
		t.Fatal("expected joined warning error")
	}

	// The certificate file must still be deployed and the env var still set.
	if _, statErr := os.Stat(filepath.Join(ops.paths.CertsDir, "RelayRootCA.crt")); statErr != nil {
		t.Errorf("certificate not deployed despite import failure: %v", statErr)
	}
	if _, ok := ops.envVars[certEnvVar]; !ok {
		t.Error("later steps did not run after import failure")
	}
}

func TestDeployEditorSettingsFlatFallback(t *testing.T) {
	ops := newFakeOps(t)
	payload := t.TempDir()
	writePayload(t, payload, "vscode-settings.json", `{"editor.formatOnSave": true}`)

	d := NewDeployer(ops, payload, io.Discard)
	if err := d.Deploy(context.Background()); err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	if _, err := os.Stat(filepath.Join(ops.paths.EditorSettingsDir, "settings.json")); err != nil {
		t.Errorf("editor settings not deployed: %v", err)
	}
}

func TestDeployEmptyPayload(t *testing.T) {
	ops := newFakeOps(t)

	d := NewDeployer(ops, t.TempDir(), io.Discard)
	if err := d.Deploy(context.Background()); err != nil {
		t.Fatalf("Deploy on empty payload: %v", err)
	}
	if len(ops.envVars) != 0 {
		t.Errorf("env vars set for empty payload: %v", ops.envVars)
	}
}
