// Package commands defines the xcwatch CLI.
package commands

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/xcwatch/xcwatch/internal/capture"
	"github.com/xcwatch/xcwatch/internal/config"
	"github.com/xcwatch/xcwatch/internal/devices"
	"github.com/xcwatch/xcwatch/internal/diag"
	"github.com/xcwatch/xcwatch/internal/project"
	"github.com/xcwatch/xcwatch/internal/utils/logger"
	"github.com/xcwatch/xcwatch/internal/utils/runner"
	"github.com/xcwatch/xcwatch/pkg/export"
	xcerrors "github.com/xcwatch/xcwatch/pkg/errors"
)

var (
	configPath string
	cfg        *config.GlobalConfig
)

// defaultExportDir is where saved device logs land unless overridden.
const defaultExportDir = "~/Documents/xcwatch"

var rootCmd = &cobra.Command{
	Use:   "xcwatch",
	Short: "Xcode log capture and build diagnostics",
	Long: `xcwatch streams macOS unified logging output for Xcode, simulators, and
connected devices, and extracts diagnostics from recent builds.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loaded, err := config.Load(configPath)
		if err != nil && !errors.Is(err, xcerrors.ErrConfigNotFound) {
			cmd.PrintErrf("invalid config %s: %v\n", configPath, err)
			os.Exit(1)
		}
		cfg = loaded
		logger.Init(cfg.Logging)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// app bundles the wired collaborators the subcommands share.
type app struct {
	run       runner.Runner
	engine    *capture.Engine
	devices   *devices.Lister
	locator   *project.Locator
	archive   *project.Archive
	builder   *project.Builder
	extractor *diag.Extractor
	sink      *export.FileSink
}

func newApp() *app {
	run := runner.Exec{}
	locator := project.NewLocator(run, config.ExpandPath(cfg.Project.DerivedData), cfg.Project.SearchRoots)
	archive := project.NewArchive(run, locator)
	builder := project.NewBuilder(run)

	opts := diag.ExtractorOptions{
		EditorWindow: config.Duration(cfg.Extractor.EditorWindow, diag.DefaultExtractorOptions().EditorWindow),
		ProbeTimeout: config.Duration(cfg.Extractor.ProbeTimeout, diag.DefaultExtractorOptions().ProbeTimeout),
		BuildTimeout: config.Duration(cfg.Extractor.BuildTimeout, diag.DefaultExtractorOptions().BuildTimeout),
	}

	return &app{
		run:       run,
		engine:    capture.NewEngine(capture.ExecStreamer{}, cfg.Capture.BufferSize),
		devices:   devices.NewLister(run),
		locator:   locator,
		archive:   archive,
		builder:   builder,
		extractor: diag.NewExtractor(run, locator, builder, archive, opts),
		sink:      export.NewFileSink(config.ExpandPath(defaultExportDir)),
	}
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "config file path")

	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(diagnosticsCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(versionCmd)
}
