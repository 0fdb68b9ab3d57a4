// Package platform describes the machines jbundle builds for and runs on.
//
// A Target is the (operating system, architecture) pair a packaged binary is
// built for. It is derived from the host or parsed from an explicit override
// string such as "linux-aarch64". Info carries the richer host detection
// result (gopsutil distro details) used by the info command and injected as a
// read-only table into jbundle.lua project configs.
package platform

import (
	"context"
	"errors"
)

// ErrInvalidTarget is returned when an override string names no supported target.
var ErrInvalidTarget = errors.New("invalid target")

// OS is a supported target operating system.
type OS string

// Arch is a supported target CPU architecture.
type Arch string

const (
	OSLinux OS = "linux"
	OSMacOS OS = "macos"
)

const (
	ArchX86_64  Arch = "x86_64"
	ArchAarch64 Arch = "aarch64"
)

// Target identifies the platform a runtime is fetched and packaged for.
// Targets are values; two targets are equal iff both fields are equal.
type Target struct {
	OS   OS
	Arch Arch
}

// String returns the canonical "<os>-<arch>" form, e.g. "macos-aarch64".
func (t Target) String() string {
	return string(t.OS) + "-" + string(t.Arch)
}

// AdoptiumOS returns the os query value used by the release catalog.
func (t Target) AdoptiumOS() string {
	if t.OS == OSMacOS {
		return "mac"
	}
	return "linux"
}

// AdoptiumArch returns the architecture query value used by the release catalog.
func (t Target) AdoptiumArch() string {
	if t.Arch == ArchAarch64 {
		return "aarch64"
	}
	return "x64"
}

// Linux distribution family constants.
// These represent canonical family names for grouping related distributions.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains host detection information.
type Info struct {
	OS       string // runtime.GOOS: "linux", "darwin", ...
	Arch     Arch   // normalized: "x86_64" or "aarch64"
	ArchRaw  string // original GOARCH (e.g., "amd64", "arm64")
	Platform string // distro ID (Linux only, e.g., "ubuntu", "arch")
	Family   string // canonical family (e.g., "debian", "rhel", "arch")
	Version  string // distro version (Linux only, e.g., "22.04")
	Musl     bool   // libc is musl (Linux only); glibc runtimes will not run
}

// Distro contains Linux distribution information.
// This is nil on non-Linux platforms.
type Distro struct {
	ID      string
	Family  string
	Version string
}

// GetDistro returns distro information if this is a Linux platform.
// Returns nil for non-Linux platforms or if distro detection failed.
func (i *Info) GetDistro() *Distro {
	if i.OS != "linux" || i.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      i.Platform,
		Family:  i.Family,
		Version: i.Version,
	}
}

// Target converts the detected host into a packaging target.
// Hosts other than Linux and macOS have no target.
func (i *Info) Target() (Target, error) {
	os, err := normalizeOS(i.OS)
	if err != nil {
		return Target{}, err
	}
	return Target{OS: os, Arch: i.Arch}, nil
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsX86_64 returns true if the architecture is x86_64.
func (i *Info) IsX86_64() bool {
	return i.Arch == ArchX86_64
}

// IsAarch64 returns true if the architecture is aarch64.
func (i *Info) IsAarch64() bool {
	return i.Arch == ArchAarch64
}

// IsAppleSilicon returns true if running on Apple Silicon (macOS + aarch64).
func (i *Info) IsAppleSilicon() bool {
	return i.IsMacOS() && i.IsAarch64()
}

// IsDebianFamily returns true if the Linux distribution is Debian-based.
func (i *Info) IsDebianFamily() bool {
	return i.OS == "linux" && i.Family == FamilyDebian
}

// IsAlpine returns true if the Linux distribution is Alpine.
// Alpine uses musl, which the glibc runtime builds do not run on.
func (i *Info) IsAlpine() bool {
	return i.OS == "linux" && i.Family == FamilyAlpine
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
