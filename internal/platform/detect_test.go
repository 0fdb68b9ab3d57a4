package platform

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// MockDetector is a test implementation of Detector.
type MockDetector struct {
	info *Info
	err  error
}

// NewMockDetector creates a mock detector with specified return values.
func NewMockDetector(info *Info, err error) Detector {
	return &MockDetector{info: info, err: err}
}

// Detect returns the pre-configured info and error.
func (m *MockDetector) Detect(ctx context.Context) (*Info, error) {
	return m.info, m.err
}

func TestRealDetector_Detect(t *testing.T) {
	detector := NewDetector()

	info, err := detector.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if info.OS != runtime.GOOS {
		t.Errorf("OS = %v, want %v", info.OS, runtime.GOOS)
	}
	if info.Arch != ArchX86_64 && info.Arch != ArchAarch64 {
		t.Errorf("Arch = %v, want x86_64 or aarch64", info.Arch)
	}
	if info.ArchRaw != runtime.GOARCH {
		t.Errorf("ArchRaw = %v, want %v", info.ArchRaw, runtime.GOARCH)
	}

	// If Platform is set, Family should also be set ("unknown" at minimum)
	if info.Platform != "" && info.Family == "" {
		t.Error("Family should be set when Platform is set")
	}

	if runtime.GOOS != "linux" && info.Platform != "" {
		t.Errorf("Platform should be empty on non-Linux, got %v", info.Platform)
	}
}

func TestRealDetector_DetectCancelled(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("distro detection only runs on Linux")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// gopsutil may answer from cache before checking the context, so either
	// a full result or a cancellation error is acceptable; a panic is not.
	info, err := NewDetector().Detect(ctx)
	if err == nil && info == nil {
		t.Fatal("Detect() returned neither info nor error")
	}
}

func TestDetectMusl(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  bool
	}{
		{name: "musl loader present", files: []string{"ld-musl-x86_64.so.1"}, want: true},
		{name: "aarch64 musl loader", files: []string{"ld-musl-aarch64.so.1"}, want: true},
		{name: "glibc loader only", files: []string{"ld-linux-x86-64.so.2"}, want: false},
		{name: "empty lib dir", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				if err := os.WriteFile(filepath.Join(dir, f), nil, 0o644); err != nil {
					t.Fatal(err)
				}
			}
			if got := detectMusl(filepath.Join(dir, "ld-musl-*.so.1")); got != tt.want {
				t.Errorf("detectMusl() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRealDetector_DetectMusl(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("musl detection only runs on Linux")
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ld-musl-x86_64.so.1"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	prev := muslLoaderGlob
	muslLoaderGlob = filepath.Join(dir, "ld-musl-*.so.1")
	defer func() { muslLoaderGlob = prev }()

	info, err := NewDetector().Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !info.Musl {
		t.Error("Musl = false on a host with a musl loader")
	}
}

func TestInfo_Target(t *testing.T) {
	tests := []struct {
		name    string
		info    *Info
		want    Target
		wantErr bool
	}{
		{"linux x86_64", &Info{OS: "linux", Arch: ArchX86_64}, Target{OS: OSLinux, Arch: ArchX86_64}, false},
		{"darwin aarch64", &Info{OS: "darwin", Arch: ArchAarch64}, Target{OS: OSMacOS, Arch: ArchAarch64}, false},
		{"windows", &Info{OS: "windows", Arch: ArchX86_64}, Target{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.info.Target()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Target() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Target() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInfo_GetDistro(t *testing.T) {
	tests := []struct {
		name string
		info *Info
		want *Distro
	}{
		{
			name: "Linux with distro info",
			info: &Info{OS: "linux", Arch: ArchX86_64, Platform: "ubuntu", Family: "debian", Version: "22.04"},
			want: &Distro{ID: "ubuntu", Family: "debian", Version: "22.04"},
		},
		{
			name: "Linux without distro info",
			info: &Info{OS: "linux", Arch: ArchX86_64},
			want: nil,
		},
		{
			name: "macOS",
			info: &Info{OS: "darwin", Arch: ArchAarch64},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.info.GetDistro()
			if got == nil && tt.want == nil {
				return
			}
			if got == nil || tt.want == nil {
				t.Errorf("GetDistro() = %v, want %v", got, tt.want)
				return
			}
			if *got != *tt.want {
				t.Errorf("GetDistro() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInfo_BooleanMethods(t *testing.T) {
	mac := &Info{OS: "darwin", Arch: ArchAarch64}
	if !mac.IsMacOS() || mac.IsLinux() || !mac.IsAppleSilicon() || mac.IsX86_64() {
		t.Errorf("unexpected booleans for %+v", mac)
	}

	alpine := &Info{OS: "linux", Arch: ArchX86_64, Family: FamilyAlpine}
	if !alpine.IsLinux() || !alpine.IsAlpine() || alpine.IsDebianFamily() || alpine.IsAppleSilicon() {
		t.Errorf("unexpected booleans for %+v", alpine)
	}
}
