package project

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xcwatch/xcwatch/internal/utils/logger"
	"github.com/xcwatch/xcwatch/internal/utils/runner"
	xcerrors "github.com/xcwatch/xcwatch/pkg/errors"
)

// convertTimeout bounds the xcactivitylog conversion call.
const convertTimeout = 15 * time.Second

// Archive reads the build logs Xcode stores under DerivedData.
type Archive struct {
	run     runner.Runner
	locator *Locator
}

// NewArchive builds an archive reader over the locator's DerivedData root.
func NewArchive(run runner.Runner, locator *Locator) *Archive {
	return &Archive{run: run, locator: locator}
}

// BuildLogDir returns the Logs/Build directory for a DerivedData project
// directory name.
func (a *Archive) BuildLogDir(projectDir string) string {
	return filepath.Join(a.locator.DerivedDataPath(), projectDir, "Logs", "Build")
}

// LatestBuildLog returns the newest .xcactivitylog for the named project,
// with its modification time. With an empty name it picks the most recently
// built project.
func (a *Archive) LatestBuildLog(projectName string) (string, time.Time, error) {
	dirs := a.locator.RecentProjects(0)
	if projectName != "" {
		var matched []string
		for _, dir := range dirs {
			if strings.HasPrefix(dir, projectName+"-") || dir == projectName {
				matched = append(matched, dir)
			}
		}
		dirs = matched
	}

	var newest string
	var newestMod time.Time
	for _, dir := range dirs {
		logs, err := filepath.Glob(filepath.Join(a.BuildLogDir(dir), "*.xcactivitylog"))
		if err != nil {
			continue
		}
		for _, log := range logs {
			info, err := os.Stat(log)
			if err != nil {
				continue
			}
			if info.ModTime().After(newestMod) {
				newest = log
				newestMod = info.ModTime()
			}
		}
	}

	if newest == "" {
		return "", time.Time{}, xcerrors.ErrNoBuildLog
	}
	return newest, newestMod, nil
}

// ExtractText returns the textual content of a build log. Activity logs go
// through xcrun's converter; when that fails the raw bytes are scrubbed down
// to the lines that look like diagnostics.
func (a *Archive) ExtractText(ctx context.Context, path string) (string, error) {
	if filepath.Ext(path) != ".xcactivitylog" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", xcerrors.NewToolError("read", err)
		}
		return string(data), nil
	}

	cctx, cancel := runner.WithTimeout(ctx, convertTimeout)
	defer cancel()
	out, err := a.run.Output(cctx, []string{"xcrun", "xcactivitylog", "--log", path})
	if err == nil && strings.TrimSpace(out) != "" {
		return out, nil
	}
	if err != nil {
		logger.Get(ctx).Debugf("xcactivitylog conversion failed, scrubbing raw log: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", xcerrors.NewToolError("read", err)
	}
	return scrubBinaryLog(data), nil
}

// scrubBinaryLog salvages diagnostic-looking lines from a log that could not
// be converted. Activity logs are gzipped SLF, so most bytes are noise; only
// lines carrying a path-like colon or a diagnostic keyword survive.
func scrubBinaryLog(data []byte) string {
	var kept []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimFunc(line, func(r rune) bool {
			return r < 0x20 || r == 0x7f
		})
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "error:") ||
			strings.Contains(lower, "warning:") ||
			strings.Contains(lower, "note:") ||
			strings.Contains(line, "BUILD") ||
			strings.Contains(line, ":") {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
