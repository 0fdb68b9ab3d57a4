package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// SupportedTargets lists every target a runtime can be packaged for.
var SupportedTargets = []Target{
	{OS: OSLinux, Arch: ArchX86_64},
	{OS: OSLinux, Arch: ArchAarch64},
	{OS: OSMacOS, Arch: ArchX86_64},
	{OS: OSMacOS, Arch: ArchAarch64},
}

// ParseTarget parses an override string of the form "<os>-<arch>".
//
// Accepted spellings: os is one of linux, macos, darwin, mac; arch is one of
// x64, x86_64, amd64, aarch64, arm64. Matching is case-insensitive. Anything
// else fails with ErrInvalidTarget.
func ParseTarget(s string) (Target, error) {
	raw := strings.ToLower(strings.TrimSpace(s))

	// x86_64 contains no '-', so the first '-' always separates os from arch
	osPart, archPart, ok := strings.Cut(raw, "-")
	if !ok || osPart == "" || archPart == "" {
		return Target{}, fmt.Errorf("%w: %q (use one of %s)", ErrInvalidTarget, s, supportedList())
	}

	os, err := normalizeOS(osPart)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q (use one of %s)", ErrInvalidTarget, s, supportedList())
	}
	arch, err := normalizeArch(archPart)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q (use one of %s)", ErrInvalidTarget, s, supportedList())
	}

	return Target{OS: os, Arch: arch}, nil
}

// Current returns the target matching the running process.
// Unsupported hosts fall back to linux and x86_64 for the missing part.
func Current() Target {
	t := Target{OS: OSLinux, Arch: ArchX86_64}
	if runtime.GOOS == "darwin" {
		t.OS = OSMacOS
	}
	if runtime.GOARCH == "arm64" {
		t.Arch = ArchAarch64
	}
	return t
}

// Resolve returns the parsed override, or the host target when override is empty.
func Resolve(override string) (Target, error) {
	if strings.TrimSpace(override) == "" {
		return Current(), nil
	}
	return ParseTarget(override)
}

func supportedList() string {
	names := make([]string, 0, len(SupportedTargets))
	for _, t := range SupportedTargets {
		names = append(names, t.String())
	}
	return strings.Join(names, ", ")
}
