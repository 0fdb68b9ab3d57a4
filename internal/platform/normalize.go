package platform

import (
	"fmt"
	"strings"
)

// familyMap maps distribution names to their canonical family names.
// This is used to normalize variations of family strings from gopsutil.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian, // gopsutil might return ubuntu as family
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
	"gentoo":   FamilyGentoo,
}

// normalizeArch converts GOARCH values and vendor spellings to a target architecture.
// Only x86_64 and aarch64 runtimes are published for both operating systems.
func normalizeArch(arch string) (Arch, error) {
	switch strings.ToLower(arch) {
	case "amd64", "x86_64", "x64":
		return ArchX86_64, nil
	case "arm64", "aarch64":
		return ArchAarch64, nil
	default:
		return "", fmt.Errorf("unsupported architecture: %s (supported: x86_64, aarch64)", arch)
	}
}

// normalizeOS converts GOOS values and user spellings to a target operating system.
func normalizeOS(goos string) (OS, error) {
	switch strings.ToLower(goos) {
	case "linux":
		return OSLinux, nil
	case "darwin", "macos", "mac", "osx":
		return OSMacOS, nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s (supported: linux, macos)", goos)
	}
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
// Uses a package-level lookup table for explicit mapping.
func mapFamily(family string) string {
	normalized := strings.ToLower(strings.TrimSpace(family))
	if canonical, ok := familyMap[normalized]; ok {
		return canonical
	}

	// Return "unknown" for unrecognized families
	return FamilyUnknown
}
