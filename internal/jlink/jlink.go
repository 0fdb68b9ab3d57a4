// Package jlink derives the module set an application needs and links a
// minimized runtime containing only those modules.
//
// Both steps drive tools shipped inside the runtime tree (jdeps and jlink)
// through tool.Runner.
package jlink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Huy1073hello/jbundle/internal/config"
	"github.com/Huy1073hello/jbundle/internal/jdk"
	"github.com/Huy1073hello/jbundle/internal/tool"
)

// BaseModule is the module every runtime contains.
const BaseModule = "java.base"

// RuntimeDirName is the name of the linked runtime under the output directory.
const RuntimeDirName = "runtime"

// DefaultFallbackModules is used when module derivation fails. It covers
// the core platform, logging, SQL, naming, management, instrumentation,
// desktop, XML and the HTTP client.
var DefaultFallbackModules = ModuleSet{
	"java.base",
	"java.logging",
	"java.sql",
	"java.naming",
	"java.management",
	"java.instrument",
	"java.desktop",
	"java.xml",
	"java.net.http",
}

// ErrLinkFailed is returned when jlink exits non-zero.
var ErrLinkFailed = errors.New("runtime link failed")

// LinkError carries jlink's diagnostics verbatim. It unwraps to ErrLinkFailed.
type LinkError struct {
	ExitCode int
	Output   string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("jlink exited with status %d:\n%s", e.ExitCode, e.Output)
}

func (e *LinkError) Unwrap() error {
	return ErrLinkFailed
}

// ModuleSet is a list of module names without duplicates.
type ModuleSet []string

// String joins the modules with commas, the form jlink's --add-modules expects.
func (m ModuleSet) String() string {
	return strings.Join(m, ",")
}

// ParseModules splits jdeps-style output ("a,b\n") into a ModuleSet.
// Blank names and duplicates are dropped.
func ParseModules(s string) ModuleSet {
	var set ModuleSet
	seen := make(map[string]bool)
	for _, field := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	}) {
		name := strings.TrimSpace(field)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		set = append(set, name)
	}
	return set
}

// Linker runs module derivation and runtime linking.
type Linker struct {
	runner   tool.Runner
	logger   config.Logger
	fallback ModuleSet
}

// New creates a Linker. A nil logger discards output.
func New(runner tool.Runner, logger config.Logger) *Linker {
	return &Linker{
		runner:   runner,
		logger:   config.OrNop(logger),
		fallback: DefaultFallbackModules,
	}
}

// WithFallback replaces the fallback module list. An empty list keeps the current one.
func (l *Linker) WithFallback(modules []string) *Linker {
	if set := ParseModules(strings.Join(modules, ",")); len(set) > 0 {
		l.fallback = set
	}
	return l
}

// Fallback returns the module list used when derivation fails.
func (l *Linker) Fallback() ModuleSet {
	return l.fallback
}

// DetectModules asks jdeps which modules jarPath needs.
//
// A non-zero jdeps exit is not an error: a warning is logged and the
// fallback list is returned instead. Empty output means java.base only.
func (l *Linker) DetectModules(ctx context.Context, runtimeDir, jarPath string) (ModuleSet, error) {
	jdeps, err := jdk.FindBin(runtimeDir, "jdeps")
	if err != nil {
		return nil, err
	}

	l.logger.Info("detecting required modules", "jar", jarPath)

	result, err := l.runner.Run(ctx, tool.Command{
		Name: jdeps,
		Args: []string{
			"--print-module-deps",
			"--ignore-missing-deps",
			"--multi-release", "base",
			jarPath,
		},
	})
	if err != nil {
		if errors.Is(err, tool.ErrFailed) {
			stderr := ""
			if result != nil {
				stderr = strings.TrimSpace(string(result.Stderr))
			}
			l.logger.Warn("module detection failed, falling back to common modules",
				"modules", l.fallback.String(), "stderr", stderr)
			return l.fallback, nil
		}
		return nil, fmt.Errorf("run jdeps: %w", err)
	}

	modules := ParseModules(string(result.Stdout))
	if len(modules) == 0 {
		return ModuleSet{BaseModule}, nil
	}

	l.logger.Debug("detected modules", "modules", modules.String())
	return modules, nil
}

// CreateRuntime links a runtime holding only modules into outputDir/runtime.
// Any existing runtime directory there is removed first. A failed link is
// returned as a *LinkError; there is no fallback.
func (l *Linker) CreateRuntime(ctx context.Context, runtimeDir string, modules ModuleSet, outputDir string) (string, error) {
	if len(modules) == 0 {
		return "", fmt.Errorf("%w: no modules requested", ErrLinkFailed)
	}

	jlinkBin, err := jdk.FindBin(runtimeDir, "jlink")
	if err != nil {
		return "", err
	}

	runtimePath := filepath.Join(outputDir, RuntimeDirName)
	if err := os.RemoveAll(runtimePath); err != nil {
		return "", fmt.Errorf("remove previous runtime: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	l.logger.Info("linking minimal runtime", "modules", modules.String())

	result, err := l.runner.Run(ctx, tool.Command{
		Name: jlinkBin,
		Args: []string{
			"--add-modules", modules.String(),
			"--strip-debug",
			"--no-man-pages",
			"--no-header-files",
			"--compress=zip-6",
			"--output", runtimePath,
		},
	})
	if err != nil {
		var exitErr *tool.ExitError
		if errors.As(err, &exitErr) {
			output := ""
			if result != nil {
				output = strings.TrimSpace(string(result.Stderr))
				if output == "" {
					output = strings.TrimSpace(string(result.Stdout))
				}
			}
			return "", &LinkError{ExitCode: exitErr.ExitCode, Output: output}
		}
		return "", fmt.Errorf("run jlink: %w", err)
	}

	return runtimePath, nil
}
