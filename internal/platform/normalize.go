package platform

import (
	"fmt"
	"strings"
)

// familyMap maps distribution identifiers to canonical family names.
// gopsutil reports inconsistent family strings across distros, so both
// family and distro IDs are accepted as keys.
var familyMap = map[string]string{
	"debian":  FamilyDebian,
	"ubuntu":  FamilyDebian,
	"mint":    FamilyDebian,
	"rhel":    FamilyRHEL,
	"centos":  FamilyRHEL,
	"rocky":   FamilyRHEL,
	"fedora":  FamilyRHEL,
	"arch":    FamilyArch,
	"manjaro": FamilyArch,
	"alpine":  FamilyAlpine,
}

// normalizeArch converts GOARCH values to normalized architecture names.
// Only amd64 and arm64 are supported by the distribution root.
func normalizeArch(goarch string) (string, error) {
	switch goarch {
	case "amd64", "x86_64":
		return "amd64", nil
	case "arm64", "aarch64":
		return "arm64", nil
	default:
		return "", fmt.Errorf("unsupported architecture: %s (supported: amd64, arm64)", goarch)
	}
}

// normalizePlatform lowercases and trims a platform string from gopsutil.
func normalizePlatform(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// mapFamily maps a raw family or distro string to a canonical family name.
func mapFamily(raw string) string {
	normalized := normalizePlatform(raw)
	if family, ok := familyMap[normalized]; ok {
		return family
	}
	return FamilyUnknown
}
