// Package testutil provides utilities for testing relayup in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv points every path relayup resolves at a per-test temp
// directory so tests never touch the user's real home, Relay config,
// or shell rc files. Cleanup is handled by t.TempDir.
//
// It returns the fake home directory for tests that build expected
// paths.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	home := t.TempDir()

	t.Setenv("RELAYUP_HOME", home)
	t.Setenv("SHELL", "/bin/bash")

	dirs := []string{
		filepath.Join(home, ".relay"),
		filepath.Join(home, ".relay", "certs"),
		filepath.Join(home, ".relay", "downloads"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return home
}
