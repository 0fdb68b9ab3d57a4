package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Huy1073hello/jbundle/internal/build"
	"github.com/Huy1073hello/jbundle/internal/config"
	"github.com/Huy1073hello/jbundle/internal/jdk"
	"github.com/Huy1073hello/jbundle/internal/jlink"
	"github.com/Huy1073hello/jbundle/internal/platform"
	"github.com/Huy1073hello/jbundle/internal/service"
	"github.com/Huy1073hello/jbundle/internal/tool"
)

// buildFlags holds the values given on the command line for `jbundle build`.
type buildFlags struct {
	input       string
	output      string
	javaVersion int
	target      string
	jvmArgs     []string
}

func newBuildCmd(global *globalFlags) *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a self-contained executable",
		Long: `Build a self-contained executable from a Clojure project or a prebuilt jar.

Settings come from, highest precedence first: command-line flags, the
project's jbundle.lua, JBUNDLE_* environment variables, built-in defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), cmd, global, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.input, "input", "i", ".", "project directory or prebuilt .jar")
	f.StringVarP(&flags.output, "output", "o", "", "path of the executable to write")
	f.IntVar(&flags.javaVersion, "java-version", 0, "runtime major version (default from JBUNDLE_JAVA_VERSION or 21)")
	f.StringVar(&flags.target, "target", "", "target platform: linux-x64, linux-aarch64, macos-x64, macos-aarch64 (default: host)")
	f.StringArrayVar(&flags.jvmArgs, "jvm-args", nil, "argument passed to the runtime at launch (repeatable)")

	return cmd
}

func runBuild(ctx context.Context, cmd *cobra.Command, global *globalFlags, flags *buildFlags) error {
	settings, err := loadSettings(global)
	if err != nil {
		return err
	}
	logger := newLogger(settings.Debug)

	project, projectDir, err := loadProject(ctx, flags.input)
	if err != nil {
		return errors.New(config.FormatError(err, settings.Debug))
	}

	req, err := resolveRequest(flags, cmd.Flags().Changed, project, projectDir, settings)
	if err != nil {
		return err
	}

	var keyring openpgp.EntityList
	if project.Keyring != "" {
		keyring, err = jdk.LoadKeyring(resolvePath(projectDir, project.Keyring))
		if err != nil {
			return err
		}
	}

	progress := newProgressPrinter(os.Stderr)
	manager, err := jdk.NewManager(jdk.Config{
		CacheDir:   settings.CacheDir,
		CatalogURL: settings.CatalogURL,
		Timeout:    settings.HTTPTimeout,
		Keyring:    keyring,
		Logger:     logger,
		Progress:   progress.Update,
	})
	if err != nil {
		return err
	}

	runner := tool.NewExecRunner()
	linker := jlink.New(runner, logger).WithFallback(project.FallbackModules)
	svc := service.NewBuildService(manager, linker, build.NewBuilder(runner, logger), service.RealClock{}, logger)

	result, err := svc.Execute(ctx, req)
	progress.Done()
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "  Binary: %s\n", result.Binary.Path)
	fmt.Fprintf(os.Stderr, "  Size:   %s\n", humanize.Bytes(uint64(result.Binary.Size)))
	fmt.Fprintf(os.Stderr, "  Target: %s\n", result.Target)
	fmt.Fprintf(os.Stderr, "  Took:   %s\n", result.Duration.Round(100*time.Millisecond))
	fmt.Fprintln(os.Stderr, "  Ready to run!")
	fmt.Fprintln(os.Stderr)
	return nil
}

// loadProject reads jbundle.lua from the input directory. A jar input has
// no project config.
func loadProject(ctx context.Context, input string) (*config.Project, string, error) {
	if strings.EqualFold(filepath.Ext(input), ".jar") {
		return &config.Project{}, filepath.Dir(input), nil
	}

	parser := config.NewParser(platform.NewDetector())
	project, _, err := parser.LoadProject(ctx, input)
	if err != nil {
		return nil, "", err
	}
	return project, input, nil
}

// resolveRequest merges flags over the project config over global settings.
// changed reports whether a flag was set explicitly.
func resolveRequest(flags *buildFlags, changed func(string) bool, project *config.Project, projectDir string, settings *config.Settings) (service.BuildRequest, error) {
	req := service.BuildRequest{
		Input:       flags.input,
		JavaVersion: settings.JavaVersion,
		Target:      project.Target,
		JVMArgs:     project.JVMArgs,
	}

	if project.JavaVersion > 0 {
		req.JavaVersion = project.JavaVersion
	}
	if changed("java-version") {
		if flags.javaVersion <= 0 {
			return req, fmt.Errorf("--java-version must be a positive integer, got %d", flags.javaVersion)
		}
		req.JavaVersion = flags.javaVersion
	}

	// Project paths are relative to the project, flag paths to the working directory
	if project.Output != "" {
		req.Output = resolvePath(projectDir, project.Output)
	}
	if flags.output != "" {
		req.Output = flags.output
	}
	if req.Output == "" {
		return req, fmt.Errorf("no output path: pass --output or set output in %s", config.ProjectFileName)
	}

	if changed("target") {
		req.Target = flags.target
	}
	if changed("jvm-args") {
		req.JVMArgs = flags.jvmArgs
	}

	return req, nil
}

func resolvePath(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
