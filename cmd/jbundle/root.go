package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Huy1073hello/jbundle/internal/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "jbundle",
		Short: "Package a JVM application and a minimal runtime into one executable",
		Long: `jbundle builds a project's uberjar (or takes a prebuilt jar), links a
runtime holding only the modules the application uses, and writes a single
self-extracting executable that needs no Java installation to run.

Examples:
  jbundle build --input . --output dist/app
  jbundle build -i target/app-standalone.jar -o app --target linux-aarch64
  jbundle info
  jbundle clean`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newBuildCmd(flags),
		newCleanCmd(flags),
		newInfoCmd(flags),
	)
	return root
}

// loadSettings reads global settings; --verbose forces debug logging.
func loadSettings(flags *globalFlags) (*config.Settings, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	if flags.verbose {
		settings.Debug = true
	}
	return settings, nil
}

// charmLogger adapts a charmbracelet logger to config.Logger.
type charmLogger struct {
	l *log.Logger
}

var _ config.Logger = (*charmLogger)(nil)

// newLogger writes to stderr at info level, or debug when debug is set.
func newLogger(debug bool) *charmLogger {
	l := log.NewWithOptions(os.Stderr, log.Options{Prefix: "jbundle"})
	if debug {
		l.SetLevel(log.DebugLevel)
	}
	return &charmLogger{l: l}
}

func (c *charmLogger) Debug(msg string, kv ...interface{}) { c.l.Debug(msg, kv...) }
func (c *charmLogger) Info(msg string, kv ...interface{})  { c.l.Info(msg, kv...) }
func (c *charmLogger) Warn(msg string, kv ...interface{})  { c.l.Warn(msg, kv...) }
func (c *charmLogger) Error(msg string, kv ...interface{}) { c.l.Error(msg, kv...) }
