package release

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeMirror(t *testing.T, dir string, rel string, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestResolveVersionRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/latest" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("1.2.3\n"))
	}))
	defer server.Close()

	resolver := NewResolver(server.URL, t.TempDir())
	version, source, err := resolver.ResolveVersion(context.Background())
	if err != nil {
		t.Fatalf("ResolveVersion: %v", err)
	}
	if version != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", version)
	}
	if source != SourceRemote {
		t.Errorf("source = %v, want remote", source)
	}
}

func TestResolveVersionFallsBackToLocal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	localDir := t.TempDir()
	writeMirror(t, localDir, "latest", "2.0.0\n")

	resolver := NewResolver(server.URL, localDir)
	version, source, err := resolver.ResolveVersion(context.Background())
	if err != nil {
		t.Fatalf("ResolveVersion: %v", err)
	}
	if version != "2.0.0" {
		t.Errorf("version = %q, want 2.0.0", version)
	}
	if source != SourceLocalFallback {
		t.Errorf("source = %v, want local fallback", source)
	}
}

func TestResolveVersionBothUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // closed server simulates an unreachable root

	resolver := NewResolver(server.URL, t.TempDir())
	_, _, err := resolver.ResolveVersion(context.Background())
	if !errors.Is(err, ErrNoVersion) {
		t.Fatalf("expected ErrNoVersion, got %v", err)
	}
}

func TestResolveManifestRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1.2.3/manifest.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"platforms":{"darwin-arm64":{"checksum":"abc123"}}}`))
	}))
	defer server.Close()

	resolver := NewResolver(server.URL, t.TempDir())
	manifest, source, err := resolver.ResolveManifest(context.Background(), "1.2.3")
	if err != nil {
		t.Fatalf("ResolveManifest: %v", err)
	}
	if source != SourceRemote {
		t.Errorf("source = %v, want remote", source)
	}

	entry, err := manifest.Entry("darwin-arm64")
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if entry.Checksum != "abc123" {
		t.Errorf("checksum = %q", entry.Checksum)
	}
}

func TestResolveManifestFallsBackToLocal(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	localDir := t.TempDir()
	writeMirror(t, localDir, filepath.Join("1.2.3", "manifest.json"),
		`{"platforms":{"win32-x64":{"checksum":"def456"}}}`)

	resolver := NewResolver(server.URL, localDir)
	manifest, source, err := resolver.ResolveManifest(context.Background(), "1.2.3")
	if err != nil {
		t.Fatalf("ResolveManifest: %v", err)
	}
	if source != SourceLocalFallback {
		t.Errorf("source = %v, want local fallback", source)
	}
	if _, err := manifest.Entry("win32-x64"); err != nil {
		t.Errorf("Entry: %v", err)
	}
}

func TestResolveManifestBothUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	resolver := NewResolver(server.URL, t.TempDir())
	_, _, err := resolver.ResolveManifest(context.Background(), "1.2.3")
	if !errors.Is(err, ErrNoManifest) {
		t.Fatalf("expected ErrNoManifest, got %v", err)
	}
}

func TestResolveManifestLocalParseErrorIsFatal(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	localDir := t.TempDir()
	writeMirror(t, localDir, filepath.Join("1.2.3", "manifest.json"), "not json")

	resolver := NewResolver(server.URL, localDir)
	_, _, err := resolver.ResolveManifest(context.Background(), "1.2.3")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if errors.Is(err, ErrNoManifest) {
		t.Errorf("parse failure should not report ErrNoManifest: %v", err)
	}
}

func TestManifestEntryUnknownPlatform(t *testing.T) {
	manifest := &Manifest{Platforms: map[string]PlatformEntry{
		"darwin-x64": {Checksum: "abc"},
	}}

	_, err := manifest.Entry("win32-x64")
	if !errors.Is(err, ErrPlatformNotFound) {
		t.Fatalf("expected ErrPlatformNotFound, got %v", err)
	}
}
