package main

import (
	"errors"
	"os"

	"github.com/xcwatch/xcwatch/internal/capture"
	"github.com/xcwatch/xcwatch/internal/config"
	"github.com/xcwatch/xcwatch/internal/devices"
	"github.com/xcwatch/xcwatch/internal/diag"
	"github.com/xcwatch/xcwatch/internal/mcp"
	"github.com/xcwatch/xcwatch/internal/oslog"
	"github.com/xcwatch/xcwatch/internal/project"
	"github.com/xcwatch/xcwatch/internal/utils/logger"
	"github.com/xcwatch/xcwatch/internal/utils/runner"
	"github.com/xcwatch/xcwatch/internal/version"
	"github.com/xcwatch/xcwatch/pkg/export"
	xcerrors "github.com/xcwatch/xcwatch/pkg/errors"
)

func main() {
	configPath := config.DefaultConfigPath
	if env := os.Getenv("XCWATCH_CONFIG"); env != "" {
		configPath = env
	}

	cfg, err := config.Load(configPath)
	if err != nil && !errors.Is(err, xcerrors.ErrConfigNotFound) {
		// Stdout carries the protocol, so complaints go to the log only.
		logger.Init(config.Default().Logging)
		logger.Get(nil).Fatalf("invalid config %s: %v", configPath, err)
	}

	logger.Init(cfg.Logging)
	defer logger.Sync()

	l := logger.Get(nil)
	l.Infof("starting xcwatch MCP server %s", version.Version)

	run := runner.Exec{}
	locator := project.NewLocator(run, config.ExpandPath(cfg.Project.DerivedData), cfg.Project.SearchRoots)
	archive := project.NewArchive(run, locator)
	builder := project.NewBuilder(run)

	extractor := diag.NewExtractor(run, locator, builder, archive, diag.ExtractorOptions{
		EditorWindow: config.Duration(cfg.Extractor.EditorWindow, diag.DefaultExtractorOptions().EditorWindow),
		ProbeTimeout: config.Duration(cfg.Extractor.ProbeTimeout, diag.DefaultExtractorOptions().ProbeTimeout),
		BuildTimeout: config.Duration(cfg.Extractor.BuildTimeout, diag.DefaultExtractorOptions().BuildTimeout),
	})

	engine := capture.NewEngine(capture.ExecStreamer{}, cfg.Capture.BufferSize)
	rules, err := capture.CompileRules(cfg.Watch, func(rule string, rec oslog.Record) {
		l.Infow("watch rule matched", "rule", rule, "process", rec.Process, "message", rec.Message)
	})
	if err != nil {
		l.Fatalf("cannot compile watch rules: %v", err)
	}
	if rules.Len() > 0 {
		engine.AddObserver(rules.Observer())
	}

	watcher := project.NewBuildWatcher(archive, extractor, nil)

	server := mcp.NewServer(mcp.Deps{
		Engine:        engine,
		Devices:       devices.NewLister(run),
		Extractor:     extractor,
		Locator:       locator,
		Watcher:       watcher,
		Sink:          export.NewFileSink(config.ExpandPath("~/Documents/xcwatch")),
		CollectWindow: cfg.CollectWindow(),
	})

	if err := server.Serve(); err != nil {
		l.Fatalf("MCP server error: %v", err)
	}
	engine.Stop()
	watcher.Stop()
}
