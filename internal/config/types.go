// Package config holds jbundle's configuration layers and the logging contract
// shared by the packaging packages.
//
// Global settings come from JBUNDLE_* environment variables through viper.
// Per-project settings come from an optional jbundle.lua file evaluated in a
// sandboxed gopher-lua VM with the host platform table injected.
package config

import (
	"fmt"
	"strings"

	"github.com/Huy1073hello/jbundle/internal/platform"
)

// Project is the per-project configuration read from jbundle.lua.
// Zero values mean "not set" so that command-line flags and global settings can fill them.
type Project struct {
	// Runtime major version (e.g. 21)
	JavaVersion int

	// Output path for the composed binary, relative to the project directory
	Output string

	// Target override string ("linux-aarch64"); empty means host
	Target string

	// Extra runtime-launch arguments embedded into the launcher
	JVMArgs []string

	// Replacement for the module list used when module derivation fails
	FallbackModules []string

	// Optional OpenPGP keyring used to verify runtime archive signatures
	Keyring string
}

// Validate checks field-level constraints of a project config.
func (p *Project) Validate() error {
	if p.JavaVersion < 0 {
		return fmt.Errorf("java_version must be a positive integer, got %d", p.JavaVersion)
	}

	if p.Target != "" {
		if _, err := platform.ParseTarget(p.Target); err != nil {
			return fmt.Errorf("target: %w", err)
		}
	}

	for i, arg := range p.JVMArgs {
		if strings.TrimSpace(arg) == "" {
			return fmt.Errorf("jvm_args[%d] is empty", i+1)
		}
	}

	for i, mod := range p.FallbackModules {
		if strings.TrimSpace(mod) == "" || strings.ContainsAny(mod, ", \t") {
			return fmt.Errorf("fallback_modules[%d] is not a module name: %q", i+1, mod)
		}
	}

	return nil
}
