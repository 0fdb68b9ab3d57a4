package platform

import (
	"testing"
)

func TestNormalizeArch(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Arch
		wantErr bool
	}{
		{"amd64", "amd64", ArchX86_64, false},
		{"x86_64", "x86_64", ArchX86_64, false},
		{"x64", "x64", ArchX86_64, false},
		{"arm64", "arm64", ArchAarch64, false},
		{"aarch64", "aarch64", ArchAarch64, false},
		{"i386 unsupported", "i386", "", true},
		{"arm unsupported", "arm", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeArch(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("normalizeArch() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("normalizeArch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeOS(t *testing.T) {
	tests := []struct {
		input   string
		want    OS
		wantErr bool
	}{
		{"linux", OSLinux, false},
		{"darwin", OSMacOS, false},
		{"macos", OSMacOS, false},
		{"mac", OSMacOS, false},
		{"windows", "", true},
		{"freebsd", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := normalizeOS(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("normalizeOS() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("normalizeOS() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapFamily(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debian", FamilyDebian},
		{"Ubuntu", FamilyDebian},
		{"centos", FamilyRHEL},
		{"manjaro", FamilyArch},
		{" alpine ", FamilyAlpine},
		{"slackware", FamilyUnknown},
		{"", FamilyUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := mapFamily(tt.input); got != tt.want {
				t.Errorf("mapFamily(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
