package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xcerrors "github.com/xcwatch/xcwatch/pkg/errors"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, xcerrors.ErrConfigNotFound)
	require.NotNil(t, cfg)
	assert.Equal(t, 1000, cfg.Capture.BufferSize)
	assert.Equal(t, 5*time.Second, cfg.CollectWindow())
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
capture:
  buffer_size: 250
watch:
  - name: crash
    expr: level == "error" && message contains "crash"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Capture.BufferSize)
	// Untouched sections keep their defaults.
	assert.Equal(t, "30s", cfg.Extractor.ProbeTimeout)
	require.Len(t, cfg.Watch, 1)
	assert.Equal(t, "crash", cfg.Watch[0].Name)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("capture:\n  buffer_size: -1\n"), 0o644))
	_, err := Load(bad)
	assert.ErrorIs(t, err, xcerrors.ErrConfigInvalid)

	badDuration := filepath.Join(dir, "dur.yaml")
	require.NoError(t, os.WriteFile(badDuration, []byte("capture:\n  collect_window: soon\n"), 0o644))
	_, err = Load(badDuration)
	assert.ErrorIs(t, err, xcerrors.ErrConfigInvalid)

	badRule := filepath.Join(dir, "rule.yaml")
	require.NoError(t, os.WriteFile(badRule, []byte("watch:\n  - name: unnamed\n"), 0o644))
	_, err = Load(badRule)
	assert.ErrorIs(t, err, xcerrors.ErrConfigInvalid)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Capture.BufferSize = 42
	cfg.Watch = append(cfg.Watch, WatchRule{Name: "faults", Expr: `level == "fault"`})
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, loaded.Capture.BufferSize)
	require.Len(t, loaded.Watch, 1)
	assert.Equal(t, "faults", loaded.Watch[0].Name)
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 90*time.Second, Duration("90s", time.Second))
	assert.Equal(t, time.Second, Duration("", time.Second))
	assert.Equal(t, time.Second, Duration("-5s", time.Second))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x.yaml"), ExpandPath("~/x.yaml"))
	assert.Equal(t, "/etc/x.yaml", ExpandPath("/etc/x.yaml"))
}
