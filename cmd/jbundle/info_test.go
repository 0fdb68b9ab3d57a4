package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Huy1073hello/jbundle/internal/jdk"
	"github.com/Huy1073hello/jbundle/internal/platform"
	"github.com/Huy1073hello/jbundle/internal/service"
)

func TestPrintInfo(t *testing.T) {
	var buf bytes.Buffer
	printInfo(&buf, &service.InfoResult{
		CacheDir: "/home/dev/.jbundle/cache",
		Size:     2_500_000,
		Entries: []jdk.Entry{
			{Name: "runtime-21-linux-x86_64", Size: 2_000_000, IsDir: true},
			{Name: "OpenJDK21U.tar.gz", Size: 500_000},
		},
		Host:     platform.Target{OS: platform.OSLinux, Arch: platform.ArchX86_64},
		Platform: &platform.Info{OS: "linux", Platform: "ubuntu", Family: "debian", Version: "24.04"},
	})

	out := buf.String()
	for _, want := range []string{
		"Cache directory: /home/dev/.jbundle/cache",
		"Cache size:      2.5 MB",
		"Cached items:    2",
		"  runtime-21-linux-x86_64 (2.0 MB)",
		"Current platform: linux-x86_64",
		"Distribution:     ubuntu 24.04 (debian family)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintInfo_Empty(t *testing.T) {
	var buf bytes.Buffer
	printInfo(&buf, &service.InfoResult{
		CacheDir: "/tmp/cache",
		Host:     platform.Target{OS: platform.OSMacOS, Arch: platform.ArchAarch64},
	})

	out := buf.String()
	if !strings.Contains(out, "Cache is empty") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "Distribution") {
		t.Error("no distribution line expected without platform details")
	}
}

func TestPrintInfo_Musl(t *testing.T) {
	tests := []struct {
		name     string
		platform *platform.Info
		wantNote bool
	}{
		{
			name:     "alpine host",
			platform: &platform.Info{OS: "linux", Platform: "alpine", Family: "alpine", Version: "3.20", Musl: true},
			wantNote: true,
		},
		{
			name:     "musl without distro details",
			platform: &platform.Info{OS: "linux", Musl: true},
			wantNote: true,
		},
		{
			name:     "glibc host",
			platform: &platform.Info{OS: "linux", Platform: "debian", Family: "debian", Version: "12"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printInfo(&buf, &service.InfoResult{
				CacheDir: "/tmp/cache",
				Host:     platform.Target{OS: platform.OSLinux, Arch: platform.ArchX86_64},
				Platform: tt.platform,
			})
			if got := strings.Contains(buf.String(), "musl libc host"); got != tt.wantNote {
				t.Errorf("musl note present = %v, want %v:\n%s", got, tt.wantNote, buf.String())
			}
		})
	}
}
