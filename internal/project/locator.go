// Package project locates Xcode projects, their archived build logs, and
// drives xcodebuild probes against them.
package project

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xcwatch/xcwatch/internal/utils/logger"
	"github.com/xcwatch/xcwatch/internal/utils/runner"
	xcerrors "github.com/xcwatch/xcwatch/pkg/errors"
)

// mdfindTimeout bounds each Spotlight query.
const mdfindTimeout = 5 * time.Second

// Locator resolves project names to project files. Resolution is a fast
// Spotlight lookup first, then a recursive walk of a small set of
// conventional roots.
type Locator struct {
	run         runner.Runner
	derivedData string
	searchRoots []string
}

// NewLocator builds a locator rooted at the given DerivedData directory.
// Empty arguments select the conventional defaults under the user's home.
func NewLocator(run runner.Runner, derivedData string, searchRoots []string) *Locator {
	if derivedData == "" {
		derivedData = DefaultDerivedDataPath()
	}
	if len(searchRoots) == 0 {
		searchRoots = defaultSearchRoots()
	}
	return &Locator{run: run, derivedData: derivedData, searchRoots: searchRoots}
}

// DefaultDerivedDataPath returns Xcode's conventional DerivedData location.
func DefaultDerivedDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Library", "Developer", "Xcode", "DerivedData")
}

func defaultSearchRoots() []string {
	var roots []string
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots,
			filepath.Join(home, "Desktop"),
			filepath.Join(home, "Documents"),
			filepath.Join(home, "Developer"),
		)
	}
	roots = append(roots, filepath.Join("/Users", "Shared", "Developer"))
	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, cwd)
	}
	return roots
}

// DerivedDataPath returns the DerivedData root this locator scans.
func (l *Locator) DerivedDataPath() string { return l.derivedData }

// RecentProjects lists project directory names under DerivedData, most
// recently modified first.
func (l *Locator) RecentProjects(limit int) []string {
	entries, err := os.ReadDir(l.derivedData)
	if err != nil {
		return nil
	}

	type candidate struct {
		name string
		mod  time.Time
	}
	var candidates []candidate
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{entry.Name(), info.ModTime()})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].mod.After(candidates[j].mod)
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.name
	}
	return names
}

// FindProjectFile resolves a project name to its .xcworkspace or
// .xcodeproj path.
func (l *Locator) FindProjectFile(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", xcerrors.NewProjectError(name)
	}

	if path := l.spotlightLookup(ctx, name); path != "" {
		return path, nil
	}
	// Spotlight misses projects on excluded volumes; fall back to walking
	// the conventional roots.
	if path := l.walkLookup(name); path != "" {
		return path, nil
	}
	return "", xcerrors.NewProjectError(name)
}

func (l *Locator) spotlightLookup(ctx context.Context, name string) string {
	queries := []string{
		fmt.Sprintf("kMDItemKind == 'Xcode Workspace' && kMDItemDisplayName == '%s.xcworkspace'", name),
		fmt.Sprintf("kMDItemKind == 'Xcode Project' && kMDItemDisplayName == '%s.xcodeproj'", name),
	}

	for _, query := range queries {
		cctx, cancel := runner.WithTimeout(ctx, mdfindTimeout)
		out, err := l.run.Output(cctx, []string{"mdfind", query})
		cancel()
		if err != nil {
			logger.Get(ctx).Debugf("mdfind lookup failed: %v", err)
			continue
		}
		if trimmed := strings.TrimSpace(out); trimmed != "" {
			return strings.Split(trimmed, "\n")[0]
		}
	}
	return ""
}

func (l *Locator) walkLookup(name string) string {
	targets := []string{name + ".xcworkspace", name + ".xcodeproj"}

	for _, root := range l.searchRoots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		var found string
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fs.SkipDir
			}
			for _, target := range targets {
				if d.Name() == target {
					found = path
					return fs.SkipAll
				}
			}
			return nil
		})
		if found != "" {
			return found
		}
	}
	return ""
}
