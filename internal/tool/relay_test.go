package tool

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/relaykit/relayup/internal/platform"
	"github.com/relaykit/relayup/internal/testutil"
)

// fixedDetector pins the platform so tests behave the same everywhere.
type fixedDetector struct{}

func (fixedDetector) Detect(_ context.Context) (*platform.Info, error) {
	return &platform.Info{OS: "linux", Arch: "amd64"}, nil
}

// fakeEditor records extension install calls.
type fakeEditor struct {
	installedDirs []string
}

func (f *fakeEditor) Installed(_ context.Context) bool { return true }

func (f *fakeEditor) InstallExtensions(_ context.Context, vsixDir string, _ io.Writer) error {
	f.installedDirs = append(f.installedDirs, vsixDir)
	return nil
}

// fakeRunner simulates the vendor binary. "install" drops the binary
// into the managed bin directory like the real installer does.
type fakeRunner struct {
	home          string
	calls         [][]string
	failInstall   bool
	failUninstall bool
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))

	if len(args) > 0 && args[0] == "install" {
		if f.failInstall {
			return []byte("install exploded"), fmt.Errorf("exit status 1")
		}
		binPath := filepath.Join(f.home, ".relay", "bin", "relay")
		if err := os.MkdirAll(filepath.Dir(binPath), 0755); err != nil {
			return nil, err
		}
		return nil, os.WriteFile(binPath, []byte("installed relay"), 0755)
	}

	if len(args) > 0 && args[0] == "uninstall" {
		if f.failUninstall {
			return []byte("uninstall exploded"), fmt.Errorf("exit status 1")
		}
		return nil, os.Remove(filepath.Join(f.home, ".relay", "bin", "relay"))
	}

	return nil, nil
}

// installFixture wires a release server, payload, and settings file
// into a ready-to-install Relay tool.
type installFixture struct {
	home   string
	relay  *Relay
	runner *fakeRunner
	editor *fakeEditor
}

func newInstallFixture(t *testing.T) *installFixture {
	t.Helper()
	home := testutil.SetupTestEnv(t)

	binary := []byte("relay vendor binary")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/latest":
			w.Write([]byte("1.0.0\n"))
		case "/1.0.0/manifest.json":
			fmt.Fprintf(w, `{"platforms":{"linux-x64":{"checksum":%q}}}`, sha256Hex(binary))
		case "/1.0.0/linux-x64/relay":
			w.Write(binary)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	settingsPath := filepath.Join(home, ".relay", "settings.lua")
	content := fmt.Sprintf("relayup = { distribution_root = %q }\n", server.URL)
	if err := os.WriteFile(settingsPath, []byte(content), 0644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	payloadDir := t.TempDir()
	writeFile(t, filepath.Join(payloadDir, "settings.json"), `{"channel": "stable"}`)
	writeFile(t, filepath.Join(payloadDir, "certs", "RelayRootCA.crt"), "cert data")

	runner := &fakeRunner{home: home}
	editor := &fakeEditor{}
	relay := NewRelay(RelayOptions{
		Detector:   fixedDetector{},
		Editor:     editor,
		Runner:     runner.run,
		PayloadDir: payloadDir,
		Out:        io.Discard,
	})

	return &installFixture{home: home, relay: relay, runner: runner, editor: editor}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestInstallEndToEnd(t *testing.T) {
	fx := newInstallFixture(t)
	ctx := context.Background()

	if err := fx.relay.Install(ctx); err != nil {
		t.Fatalf("Install: %v", err)
	}

	// The vendor installer ran against the downloaded binary.
	foundInstall := false
	for _, call := range fx.runner.calls {
		if len(call) == 2 && call[1] == "install" {
			foundInstall = true
			if !strings.Contains(call[0], "relay-1.0.0-linux-x64") {
				t.Errorf("installer invoked on unexpected path %q", call[0])
			}
			if _, err := os.Stat(call[0]); !os.IsNotExist(err) {
				t.Error("temporary download not removed after install")
			}
		}
	}
	if !foundInstall {
		t.Fatal("vendor installer was never invoked")
	}

	// The binary is in place and reported as installed.
	if _, err := os.Stat(filepath.Join(fx.home, ".relay", "bin", "relay")); err != nil {
		t.Errorf("installed binary missing: %v", err)
	}
	installed, err := fx.relay.IsInstalled(ctx)
	if err != nil {
		t.Fatalf("IsInstalled: %v", err)
	}
	if !installed {
		t.Error("IsInstalled = false after install")
	}

	// Extensions were attempted from the payload.
	if len(fx.editor.installedDirs) != 1 {
		t.Errorf("extension installs = %v", fx.editor.installedDirs)
	}

	// Config deployment placed the tool settings.
	if _, err := os.Stat(filepath.Join(fx.home, ".relay", "settings.json")); err != nil {
		t.Errorf("tool settings not deployed: %v", err)
	}

	// PATH registration and cert env var landed in the rc file.
	rc, err := os.ReadFile(filepath.Join(fx.home, ".bashrc"))
	if err != nil {
		t.Fatalf("read .bashrc: %v", err)
	}
	if !strings.Contains(string(rc), filepath.Join(fx.home, ".relay", "bin")) {
		t.Errorf("bin directory not on PATH:\n%s", rc)
	}
	if !strings.Contains(string(rc), "NODE_EXTRA_CA_CERTS") {
		t.Errorf("certificate env var not set:\n%s", rc)
	}
}

func TestInstallIdempotent(t *testing.T) {
	fx := newInstallFixture(t)
	ctx := context.Background()

	if err := fx.relay.Install(ctx); err != nil {
		t.Fatalf("first Install: %v", err)
	}
	if err := fx.relay.Install(ctx); err != nil {
		t.Fatalf("second Install: %v", err)
	}

	rc, _ := os.ReadFile(filepath.Join(fx.home, ".bashrc"))
	binDir := filepath.Join(fx.home, ".relay", "bin")
	if got := strings.Count(string(rc), binDir); got != 1 {
		t.Errorf("PATH entry appears %d times after two installs:\n%s", got, rc)
	}
}

func TestInstallVendorFailureIsFatal(t *testing.T) {
	fx := newInstallFixture(t)
	fx.runner.failInstall = true

	err := fx.relay.Install(context.Background())
	if err == nil {
		t.Fatal("expected install failure")
	}
	if !strings.Contains(err.Error(), "install exploded") {
		t.Errorf("installer output not surfaced: %v", err)
	}
}

func TestUninstallViaVendor(t *testing.T) {
	fx := newInstallFixture(t)
	ctx := context.Background()

	if err := fx.relay.Install(ctx); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if err := fx.relay.Uninstall(ctx); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}

	if _, err := os.Stat(filepath.Join(fx.home, ".relay", "bin", "relay")); !os.IsNotExist(err) {
		t.Error("binary still present after uninstall")
	}
}

func TestUninstallFallsBackToDirectRemoval(t *testing.T) {
	fx := newInstallFixture(t)
	fx.runner.failUninstall = true
	ctx := context.Background()

	if err := fx.relay.Install(ctx); err != nil {
		t.Fatalf("Install: %v", err)
	}

	// Leftover install state in bin must not block removal.
	binDir := filepath.Join(fx.home, ".relay", "bin")
	writeFile(t, filepath.Join(binDir, "relay.old"), "previous version")

	if err := fx.relay.Uninstall(ctx); err != nil {
		t.Fatalf("Uninstall with failing vendor: %v", err)
	}

	if _, err := os.Stat(binDir); !os.IsNotExist(err) {
		t.Error("bin directory still present after fallback removal")
	}
	// User configuration must survive.
	if _, err := os.Stat(filepath.Join(fx.home, ".relay", "settings.lua")); err != nil {
		t.Errorf("settings file removed by uninstall: %v", err)
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	registry.Register(NewRelay(RelayOptions{Detector: fixedDetector{}, Out: io.Discard}))

	if got := registry.Names(); len(got) != 1 || got[0] != "relay" {
		t.Errorf("Names = %v", got)
	}

	if _, err := registry.Get("relay"); err != nil {
		t.Errorf("Get(relay): %v", err)
	}
	if _, err := registry.Get("nope"); err == nil {
		t.Error("Get(nope) should fail")
	}
}
