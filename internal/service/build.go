// Package service provides the high-level operations behind jbundle's commands.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Huy1073hello/jbundle/internal/build"
	"github.com/Huy1073hello/jbundle/internal/config"
	"github.com/Huy1073hello/jbundle/internal/jlink"
	"github.com/Huy1073hello/jbundle/internal/pack"
	"github.com/Huy1073hello/jbundle/internal/platform"
)

// RuntimeProvider returns a cached runtime tree, fetching it when needed.
type RuntimeProvider interface {
	Ensure(ctx context.Context, version int, target platform.Target) (string, error)
}

// ModuleLinker derives a module set and links a minimized runtime.
type ModuleLinker interface {
	DetectModules(ctx context.Context, runtimeDir, jarPath string) (jlink.ModuleSet, error)
	CreateRuntime(ctx context.Context, runtimeDir string, modules jlink.ModuleSet, outputDir string) (string, error)
}

// JarBuilder builds a project directory into an uberjar.
type JarBuilder interface {
	Build(ctx context.Context, projectDir string) (string, error)
}

// BuildService runs one packaging pipeline: uberjar, runtime, module
// derivation, runtime link, payload and binary, strictly in that order.
type BuildService struct {
	runtimes RuntimeProvider
	linker   ModuleLinker
	builder  JarBuilder
	clock    Clock
	logger   config.Logger
	tmpRoot  string
}

// NewBuildService creates a build service with dependency injection.
// A nil clock uses the system time and a nil logger discards output.
func NewBuildService(runtimes RuntimeProvider, linker ModuleLinker, builder JarBuilder, clock Clock, logger config.Logger) *BuildService {
	if clock == nil {
		clock = RealClock{}
	}
	return &BuildService{
		runtimes: runtimes,
		linker:   linker,
		builder:  builder,
		clock:    clock,
		logger:   config.OrNop(logger),
	}
}

// WithTempRoot places per-run workspaces under dir instead of the system temp dir.
func (s *BuildService) WithTempRoot(dir string) *BuildService {
	s.tmpRoot = dir
	return s
}

// BuildRequest contains the parameters for one packaging run.
type BuildRequest struct {
	// Input is a project directory or a prebuilt .jar
	Input string
	// Output is the path of the composed binary
	Output string
	// JavaVersion is the runtime major version
	JavaVersion int
	// Target is an override string such as "linux-aarch64"; empty means host
	Target string
	// JVMArgs are embedded verbatim into the launcher
	JVMArgs []string
}

// BuildResult describes a finished packaging run.
type BuildResult struct {
	Binary   *pack.Binary
	JarPath  string
	JDKPath  string
	Target   platform.Target
	Modules  jlink.ModuleSet
	Duration time.Duration
}

// Execute performs the packaging run. Nothing is written to req.Output
// unless every step succeeds.
func (s *BuildService) Execute(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	start := s.clock.Now()

	if req.Output == "" {
		return nil, fmt.Errorf("output path is required")
	}
	if req.JavaVersion <= 0 {
		return nil, fmt.Errorf("java version must be a positive integer, got %d", req.JavaVersion)
	}

	// Reject a bad override before touching the network
	target, err := platform.Resolve(req.Target)
	if err != nil {
		return nil, err
	}
	if host := platform.Current(); target != host {
		s.logger.Warn("target differs from host, jdeps and jlink from the target runtime must be runnable here",
			"target", target.String(), "host", host.String())
	}

	jarPath, err := s.resolveJar(ctx, req.Input)
	if err != nil {
		return nil, err
	}
	s.logger.Info("uberjar ready", "jar", jarPath)

	jdkPath, err := s.runtimes.Ensure(ctx, req.JavaVersion, target)
	if err != nil {
		return nil, err
	}
	s.logger.Info("runtime ready", "path", jdkPath)

	workspace, err := os.MkdirTemp(s.tmpRoot, "jbundle-build-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workspace); err != nil {
			s.logger.Warn("failed to remove workspace", "path", workspace, "error", err)
		}
	}()

	modules, err := s.linker.DetectModules(ctx, jdkPath, jarPath)
	if err != nil {
		return nil, fmt.Errorf("detect modules: %w", err)
	}
	s.logger.Info("modules", "modules", modules.String())

	runtimeDir, err := s.linker.CreateRuntime(ctx, jdkPath, modules, workspace)
	if err != nil {
		return nil, fmt.Errorf("create runtime: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	binary, err := pack.CreateBinary(workspace, runtimeDir, jarPath, req.Output, req.JVMArgs)
	if err != nil {
		return nil, fmt.Errorf("create binary: %w", err)
	}
	s.logger.Info("binary written", "path", binary.Path, "size", binary.Size, "fingerprint", binary.Fingerprint)

	return &BuildResult{
		Binary:   binary,
		JarPath:  jarPath,
		JDKPath:  jdkPath,
		Target:   target,
		Modules:  modules,
		Duration: s.clock.Now().Sub(start),
	}, nil
}

// resolveJar returns input itself when it names a jar, otherwise builds it.
func (s *BuildService) resolveJar(ctx context.Context, input string) (string, error) {
	if input == "" {
		input = "."
	}

	if strings.EqualFold(filepath.Ext(input), ".jar") {
		info, err := os.Stat(input)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("%w: %s does not exist", build.ErrMissingArtifact, input)
			}
			return "", fmt.Errorf("stat jar: %w", err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%w: %s is a directory", build.ErrMissingArtifact, input)
		}
		s.logger.Info("using pre-built jar", "jar", input)
		return input, nil
	}

	s.logger.Info("detecting build system", "dir", input)
	return s.builder.Build(ctx, input)
}
