package project

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/xcwatch/xcwatch/internal/utils/runner"
	xcerrors "github.com/xcwatch/xcwatch/pkg/errors"
)

// Builder runs xcodebuild probes against a project file. Callers bound each
// probe with a context deadline.
type Builder struct {
	run runner.Runner
}

// NewBuilder returns a Builder backed by the given runner.
func NewBuilder(run runner.Runner) *Builder {
	return &Builder{run: run}
}

// containerFlag picks the xcodebuild container flag for a project path.
func containerFlag(projectPath string) string {
	if filepath.Ext(projectPath) == ".xcworkspace" {
		return "-workspace"
	}
	return "-project"
}

// ListSchemes asks xcodebuild for the schemes a project file defines.
func (b *Builder) ListSchemes(ctx context.Context, projectPath string) ([]string, error) {
	out, err := b.run.Output(ctx, []string{"xcodebuild", containerFlag(projectPath), projectPath, "-list"})
	if err != nil {
		return nil, err
	}

	schemes := parseSchemes(out)
	if len(schemes) == 0 {
		return nil, xcerrors.ErrNoSchemes
	}
	return schemes, nil
}

// parseSchemes pulls scheme names out of xcodebuild -list output. The list
// is the indented block following the "Schemes:" heading.
func parseSchemes(out string) []string {
	var schemes []string
	inSchemes := false
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "Schemes:" {
			inSchemes = true
			continue
		}
		if !inSchemes {
			continue
		}
		if trimmed == "" || strings.HasSuffix(trimmed, ":") {
			break
		}
		schemes = append(schemes, trimmed)
	}
	return schemes
}

// DryRun replays the last build's commands without executing them. The
// combined output carries the same diagnostics a real build would emit.
func (b *Builder) DryRun(ctx context.Context, projectPath, scheme string) (string, error) {
	return b.run.Combined(ctx, []string{
		"xcodebuild",
		containerFlag(projectPath), projectPath,
		"-scheme", scheme,
		"-configuration", "Debug",
		"-dry-run",
	})
}

// Build runs a full build and returns its combined output. A failed build
// is not an error here: its output is exactly what the diagnostics
// extraction wants.
func (b *Builder) Build(ctx context.Context, projectPath, scheme string) (string, error) {
	return b.run.Combined(ctx, []string{
		"xcodebuild",
		containerFlag(projectPath), projectPath,
		"-scheme", scheme,
		"-configuration", "Debug",
		"build",
	})
}
