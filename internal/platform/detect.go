package platform

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// muslLoaderGlob matches the dynamic loader shipped by musl-based distros.
var muslLoaderGlob = "/lib/ld-musl-*.so.1"

// RealDetector reads the host's OS, architecture and Linux distribution.
type RealDetector struct{}

func NewDetector() Detector {
	return &RealDetector{}
}

// Detect reports the host platform. Linux distribution fields come from
// gopsutil and stay empty when it cannot tell; only context cancellation
// fails the call. Musl is set on Linux hosts whose libc is musl, where the
// glibc runtimes jbundle downloads will not start.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	arch, err := normalizeArch(runtime.GOARCH)
	if err != nil {
		return nil, fmt.Errorf("detect platform: %w", err)
	}

	info := &Info{
		OS:      runtime.GOOS,
		Arch:    arch,
		ArchRaw: runtime.GOARCH,
	}
	if info.OS != "linux" {
		return info, nil
	}

	id, family, version, err := host.PlatformInformationWithContext(ctx)
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, fmt.Errorf("detect platform: %w", ctx.Err())
	case err == nil && normalizePlatform(id) != "":
		info.Platform = normalizePlatform(id)
		info.Family = mapFamily(family)
		info.Version = normalizePlatform(version)
	}

	info.Musl = info.IsAlpine() || detectMusl(muslLoaderGlob)
	return info, nil
}

// detectMusl reports whether any file matches the musl loader pattern.
func detectMusl(pattern string) bool {
	matches, err := filepath.Glob(pattern)
	return err == nil && len(matches) > 0
}
