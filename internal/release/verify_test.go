package release

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestVerifyChecksumMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay")
	content := []byte("relay binary payload")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := VerifyChecksum(path, sha256Hex(content)); err != nil {
		t.Errorf("VerifyChecksum: %v", err)
	}
}

func TestVerifyChecksumCaseInsensitive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay")
	content := []byte("relay binary payload")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := VerifyChecksum(path, strings.ToUpper(sha256Hex(content))); err != nil {
		t.Errorf("uppercase expected checksum should match: %v", err)
	}
}

func TestVerifyChecksumDetectsSingleByteChange(t *testing.T) {
	dir := t.TempDir()
	content := []byte("relay binary payload")
	expected := sha256Hex(content)

	mutated := append([]byte(nil), content...)
	mutated[len(mutated)/2] ^= 0x01

	path := filepath.Join(dir, "relay")
	if err := os.WriteFile(path, mutated, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	err := VerifyChecksum(path, expected)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestVerifyChecksumMissingFile(t *testing.T) {
	err := VerifyChecksum(filepath.Join(t.TempDir(), "missing"), "abc")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("missing file should not report a mismatch: %v", err)
	}
}

func TestVerifyDetachedSignatureMissingKeyring(t *testing.T) {
	dir := t.TempDir()
	signed := filepath.Join(dir, "relay")
	sig := filepath.Join(dir, "relay.asc")
	os.WriteFile(signed, []byte("payload"), 0644)
	os.WriteFile(sig, []byte("sig"), 0644)

	err := VerifyDetachedSignature(signed, sig, filepath.Join(dir, "no-keyring.asc"))
	if err == nil {
		t.Fatal("expected error for missing keyring")
	}
}
