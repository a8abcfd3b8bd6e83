// Package config loads and persists the xcwatch configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xcwatch/xcwatch/internal/utils/fileutil"
	"github.com/xcwatch/xcwatch/internal/utils/logger"
	xcerrors "github.com/xcwatch/xcwatch/pkg/errors"
)

// DefaultConfigPath is the standard location for the xcwatch configuration
// file.
const DefaultConfigPath = "~/.config/xcwatch/config.yaml"

// CaptureConfig tunes the streaming capture engine.
type CaptureConfig struct {
	// BufferSize is the ring-buffer capacity; oldest records are evicted
	// when it fills.
	BufferSize int `yaml:"buffer_size"`
	// CollectWindow bounds each bounded device collection, e.g. "5s".
	CollectWindow string `yaml:"collect_window"`
}

// ExtractorConfig bounds the build-diagnostic probes.
type ExtractorConfig struct {
	// EditorWindow is the recent window scanned for live editor output,
	// e.g. "5m".
	EditorWindow string `yaml:"editor_window"`
	// ProbeTimeout bounds short probes (log show, mdfind, dry-run builds).
	ProbeTimeout string `yaml:"probe_timeout"`
	// BuildTimeout bounds the escalated full build.
	BuildTimeout string `yaml:"build_timeout"`
}

// WatchRule matches captured records with an expression. Rules see the
// record fields: level, process, subsystem, category, message.
type WatchRule struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

// ProjectConfig overrides project discovery paths.
type ProjectConfig struct {
	// DerivedData overrides Xcode's DerivedData location. Empty means the
	// conventional path under the user's home.
	DerivedData string `yaml:"derived_data"`
	// SearchRoots are walked when Spotlight cannot find a project.
	SearchRoots []string `yaml:"search_roots"`
}

// GlobalConfig is the root of the configuration file.
type GlobalConfig struct {
	Capture   CaptureConfig        `yaml:"capture"`
	Extractor ExtractorConfig      `yaml:"extractor"`
	Project   ProjectConfig        `yaml:"project"`
	Watch     []WatchRule          `yaml:"watch"`
	Logging   logger.LoggingConfig `yaml:"logging"`
}

// Default returns the configuration used when no file exists.
func Default() *GlobalConfig {
	return &GlobalConfig{
		Capture: CaptureConfig{
			BufferSize:    1000,
			CollectWindow: "5s",
		},
		Extractor: ExtractorConfig{
			EditorWindow: "5m",
			ProbeTimeout: "30s",
			BuildTimeout: "60s",
		},
		Logging: logger.LoggingConfig{
			Enabled:    false,
			Level:      "info",
			Path:       "~/.local/state/xcwatch/xcwatch.log",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// Load reads the configuration at path, layering the file over the
// defaults. A missing file yields ErrConfigNotFound with the defaults still
// usable by the caller.
func Load(path string) (*GlobalConfig, error) {
	cfg := Default()

	safePath := filepath.Clean(ExpandPath(path))
	data, err := os.ReadFile(safePath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, xcerrors.ErrConfigNotFound
		}
		return nil, xcerrors.NewConfigError(err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, xcerrors.NewConfigError(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration atomically, creating parent directories.
func Save(path string, cfg *GlobalConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return xcerrors.NewConfigError(err)
	}

	safePath := filepath.Clean(ExpandPath(path))
	if err := os.MkdirAll(filepath.Dir(safePath), 0o755); err != nil {
		return xcerrors.NewConfigError(err)
	}
	return fileutil.AtomicWriteFile(safePath, data, 0o644)
}

// Validate checks the durations and sizes a typo would most likely break.
func (c *GlobalConfig) Validate() error {
	if c.Capture.BufferSize <= 0 {
		return xcerrors.NewConfigError(fmt.Errorf("capture.buffer_size must be positive, got %d", c.Capture.BufferSize))
	}
	for name, value := range map[string]string{
		"capture.collect_window":  c.Capture.CollectWindow,
		"extractor.editor_window": c.Extractor.EditorWindow,
		"extractor.probe_timeout": c.Extractor.ProbeTimeout,
		"extractor.build_timeout": c.Extractor.BuildTimeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return xcerrors.NewConfigError(fmt.Errorf("%s: %w", name, err))
		}
	}
	for i, rule := range c.Watch {
		if rule.Name == "" || rule.Expr == "" {
			return xcerrors.NewConfigError(fmt.Errorf("watch rule %d needs both name and expr", i))
		}
	}
	return nil
}

// Duration parses a validated duration field. Callers pass fields that
// Validate already checked, so the fallback only covers the zero value.
func Duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// CollectWindow returns the parsed device collection window.
func (c *GlobalConfig) CollectWindow() time.Duration {
	return Duration(c.Capture.CollectWindow, 5*time.Second)
}
