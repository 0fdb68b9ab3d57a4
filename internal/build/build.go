// Package build turns a Clojure project directory into a single über-jar by
// driving the project's own build tool (tools.build, depstar, or Leiningen).
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Huy1073hello/jbundle/internal/config"
	"github.com/Huy1073hello/jbundle/internal/tool"
)

var (
	// ErrMissingArtifact classifies every "no application bundle to package" failure.
	ErrMissingArtifact = errors.New("missing output artifact")
	// ErrNoBuildSystem is returned when neither deps.edn nor project.clj exists.
	ErrNoBuildSystem = fmt.Errorf("%w: no deps.edn or project.clj found", ErrMissingArtifact)
	// ErrUberjarNotFound is returned when the build left no usable jar in target/.
	ErrUberjarNotFound = fmt.Errorf("%w: no uberjar found", ErrMissingArtifact)
	// ErrBuildFailed is returned when the build tool is missing or exits non-zero.
	ErrBuildFailed = errors.New("build failed")
)

// System identifies a project's build system.
type System string

const (
	SystemDepsEdn   System = "deps.edn"
	SystemLeiningen System = "leiningen"
)

// Strategy is how a deps.edn project produces its über-jar.
type Strategy string

const (
	StrategyToolsBuild Strategy = "tools.build"
	StrategyUberjar    Strategy = "uberjar alias"
	StrategyLein       Strategy = "lein uberjar"
)

// TargetDir is where build tools leave their jars.
const TargetDir = "target"

// Detect returns the build system of projectDir. deps.edn wins over project.clj.
func Detect(projectDir string) (System, error) {
	if fileExists(filepath.Join(projectDir, "deps.edn")) {
		return SystemDepsEdn, nil
	}
	if fileExists(filepath.Join(projectDir, "project.clj")) {
		return SystemLeiningen, nil
	}
	return "", fmt.Errorf("%w in %s", ErrNoBuildSystem, projectDir)
}

// DetectStrategy picks the über-jar strategy for a project of the given system.
// For deps.edn, a build.clj selects tools.build; otherwise an :uberjar alias in
// deps.edn selects `clojure -X:uberjar`; otherwise tools.build is assumed.
func DetectStrategy(projectDir string, system System) Strategy {
	if system == SystemLeiningen {
		return StrategyLein
	}

	if fileExists(filepath.Join(projectDir, "build.clj")) {
		return StrategyToolsBuild
	}

	content, err := os.ReadFile(filepath.Join(projectDir, "deps.edn"))
	if err == nil && strings.Contains(string(content), ":uberjar") {
		return StrategyUberjar
	}

	return StrategyToolsBuild
}

// Command returns the invocation for strategy, run inside projectDir.
func (s Strategy) Command(projectDir string) tool.Command {
	switch s {
	case StrategyUberjar:
		return tool.Command{Name: "clojure", Args: []string{"-X:uberjar"}, Dir: projectDir}
	case StrategyLein:
		return tool.Command{Name: "lein", Args: []string{"uberjar"}, Dir: projectDir}
	default:
		return tool.Command{Name: "clojure", Args: []string{"-T:build", "uber"}, Dir: projectDir}
	}
}

// Builder runs a project's build tool and locates the resulting über-jar.
type Builder struct {
	runner tool.Runner
	logger config.Logger
}

// NewBuilder creates a Builder. A nil logger discards output.
func NewBuilder(runner tool.Runner, logger config.Logger) *Builder {
	return &Builder{runner: runner, logger: config.OrNop(logger)}
}

// Build produces the über-jar for projectDir and returns its path.
func (b *Builder) Build(ctx context.Context, projectDir string) (string, error) {
	system, err := Detect(projectDir)
	if err != nil {
		return "", err
	}

	strategy := DetectStrategy(projectDir, system)
	cmd := strategy.Command(projectDir)
	b.logger.Info("building uberjar", "system", string(system), "command", cmd.String())

	result, err := b.runner.Run(ctx, cmd)
	if err != nil {
		switch {
		case errors.Is(err, tool.ErrNotFound):
			return "", fmt.Errorf("%w: command '%s' not found in PATH, please install it first: %w", ErrBuildFailed, cmd.Name, err)
		case errors.Is(err, tool.ErrFailed):
			stderr := ""
			if result != nil {
				stderr = strings.TrimSpace(string(result.Stderr))
			}
			return "", fmt.Errorf("%w: %s failed:\n%s", ErrBuildFailed, cmd.String(), stderr)
		default:
			return "", fmt.Errorf("%w: %s: %w", ErrBuildFailed, cmd.String(), err)
		}
	}

	jar, err := FindUberjar(projectDir)
	if err != nil {
		return "", err
	}
	b.logger.Info("uberjar built", "path", jar)
	return jar, nil
}

// FindUberjar locates the über-jar under projectDir/target (and one level of
// subdirectories, e.g. target/uberjar). Jars whose names contain "standalone"
// or "uber" win, newest first; otherwise the newest jar that is not a
// sources or javadoc jar is used.
func FindUberjar(projectDir string) (string, error) {
	targetDir := filepath.Join(projectDir, TargetDir)

	jars := listJars(targetDir)
	if entries, err := os.ReadDir(targetDir); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				jars = append(jars, listJars(filepath.Join(targetDir, e.Name()))...)
			}
		}
	}

	sort.SliceStable(jars, func(i, j int) bool {
		return jars[i].modTime.After(jars[j].modTime)
	})

	for _, j := range jars {
		name := strings.ToLower(filepath.Base(j.path))
		if strings.Contains(name, "standalone") || strings.Contains(name, "uber") {
			return j.path, nil
		}
	}

	for _, j := range jars {
		name := strings.ToLower(filepath.Base(j.path))
		if !strings.Contains(name, "sources") && !strings.Contains(name, "javadoc") {
			return j.path, nil
		}
	}

	return "", fmt.Errorf("%w in %s", ErrUberjarNotFound, targetDir)
}

type jarFile struct {
	path    string
	modTime time.Time
}

func listJars(dir string) []jarFile {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var jars []jarFile
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".jar") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		jars = append(jars, jarFile{path: filepath.Join(dir, e.Name()), modTime: info.ModTime()})
	}
	return jars
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
