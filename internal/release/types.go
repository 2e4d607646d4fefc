// Package release resolves Relay release metadata and acquires the
// vendor binary. Every network-dependent step (version, manifest,
// binary) follows the same two-step fallback chain: one remote attempt
// against the distribution root, then one attempt against a local
// mirror directory. There are no retries.
package release

import (
	"errors"
	"fmt"
)

// DefaultDistributionRoot is the release endpoint used when the
// settings file does not override it. The remote layout is:
//
//	<root>/latest
//	<root>/<version>/manifest.json
//	<root>/<version>/<platform_id>/<binary_name>
//
// The local mirror directory follows the same layout.
const DefaultDistributionRoot = "https://dist.relaykit.dev/relay-releases"

// Source records where a resolved version, manifest, or binary came
// from. It is attached for reporting only; the fallback chain itself is
// the only logic that branches on availability.
type Source int

const (
	// SourceRemote indicates the artifact came from the distribution root.
	SourceRemote Source = iota
	// SourceLocalFallback indicates the artifact came from the local mirror.
	SourceLocalFallback
)

// String returns the human-readable source tag.
func (s Source) String() string {
	switch s {
	case SourceRemote:
		return "remote"
	case SourceLocalFallback:
		return "local fallback"
	default:
		return "unknown"
	}
}

// Manifest describes a release: one entry per platform identifier.
type Manifest struct {
	Platforms map[string]PlatformEntry `json:"platforms"`
}

// PlatformEntry holds the expected metadata for one platform's binary.
type PlatformEntry struct {
	// Checksum is the hex-encoded SHA-256 digest of the binary.
	Checksum string `json:"checksum"`
}

// Entry returns the manifest entry for a platform identifier.
func (m *Manifest) Entry(platformID string) (PlatformEntry, error) {
	entry, ok := m.Platforms[platformID]
	if !ok {
		return PlatformEntry{}, fmt.Errorf("%w: %s", ErrPlatformNotFound, platformID)
	}
	if entry.Checksum == "" {
		return PlatformEntry{}, fmt.Errorf("manifest entry for %s has no checksum", platformID)
	}
	return entry, nil
}

// Resolution failure sentinels. All of these are fatal: the install
// pipeline never proceeds on unresolved or unverified inputs.
var (
	ErrNoVersion            = errors.New("could not get version from remote or local fallback")
	ErrNoManifest           = errors.New("could not get manifest from remote or local fallback")
	ErrNoBinary             = errors.New("remote unavailable and no local fallback binary found")
	ErrPlatformNotFound     = errors.New("platform not found in manifest")
	ErrChecksumMismatch     = errors.New("checksum mismatch")
	ErrLocalFallbackCorrupt = errors.New("local fallback checksum verification failed")
	ErrSignatureInvalid     = errors.New("release signature verification failed")
)

// HTTPStatusError reports a non-success response from the distribution
// root. It is treated exactly like a transport failure by the fallback
// chain.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}
