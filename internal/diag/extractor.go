package diag

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/xcwatch/xcwatch/internal/metrics"
	"github.com/xcwatch/xcwatch/internal/oslog"
	"github.com/xcwatch/xcwatch/internal/utils/logger"
	"github.com/xcwatch/xcwatch/internal/utils/runner"
)

// ProjectLocator resolves project names to project files and enumerates
// recently built projects.
type ProjectLocator interface {
	RecentProjects(limit int) []string
	FindProjectFile(ctx context.Context, name string) (string, error)
}

// BuildInvoker runs xcodebuild against a located project.
type BuildInvoker interface {
	ListSchemes(ctx context.Context, projectPath string) ([]string, error)
	// DryRun surfaces syntax and type diagnostics without a full
	// compile/link pass.
	DryRun(ctx context.Context, projectPath, scheme string) (string, error)
	Build(ctx context.Context, projectPath, scheme string) (string, error)
}

// ArchiveReader locates archived build logs and renders them as text.
type ArchiveReader interface {
	// LatestBuildLog returns the newest build-log artifact for the named
	// project, or for the most recently built project when name is empty.
	LatestBuildLog(project string) (path string, modTime time.Time, err error)
	// ExtractText converts a (possibly binary) log artifact to text.
	ExtractText(ctx context.Context, path string) (string, error)
}

// ExtractorOptions bound the extractor's subprocess invocations.
type ExtractorOptions struct {
	// EditorWindow is the recent window probed for live editor output.
	EditorWindow time.Duration
	// ProbeTimeout bounds short probes: log show, mdfind, scheme listing,
	// and the dry-run build.
	ProbeTimeout time.Duration
	// BuildTimeout bounds the escalated full build.
	BuildTimeout time.Duration
}

// DefaultExtractorOptions mirror the windows the tool has always used.
func DefaultExtractorOptions() ExtractorOptions {
	return ExtractorOptions{
		EditorWindow: 5 * time.Minute,
		ProbeTimeout: 30 * time.Second,
		BuildTimeout: 60 * time.Second,
	}
}

// Extractor answers "what are the current diagnostics" by trying an ordered
// list of source strategies and short-circuiting on the first that yields
// anything. Every strategy fails soft: a timeout, missing tool, or
// unparseable output means "no diagnostics from this source", never a hard
// failure.
type Extractor struct {
	grammar *Grammar
	run     runner.Runner
	locator ProjectLocator
	builder BuildInvoker
	archive ArchiveReader
	opts    ExtractorOptions

	strategies []strategy
}

type strategy struct {
	name string
	run  func(ctx context.Context, project string) []Diagnostic
}

// NewExtractor wires an extractor from its collaborators.
func NewExtractor(run runner.Runner, locator ProjectLocator, builder BuildInvoker, archive ArchiveReader, opts ExtractorOptions) *Extractor {
	e := &Extractor{
		grammar: NewGrammar(),
		run:     run,
		locator: locator,
		builder: builder,
		archive: archive,
		opts:    opts,
	}
	// Fixed priority order; new sources are inserted here without touching
	// the existing ones.
	e.strategies = []strategy{
		{"editor-stream", e.fromEditorStream},
		{"rebuild-probe", e.fromRebuildProbe},
		{"archived-log", e.fromArchivedLog},
	}
	return e
}

// Grammar exposes the extractor's grammar for callers that classify their
// own text (the build-log watcher, tests).
func (e *Extractor) Grammar() *Grammar { return e.grammar }

// CurrentDiagnostics runs the strategy chain for the named project (empty
// means the most recently built one). Only exhaustion of every strategy
// yields an empty result.
func (e *Extractor) CurrentDiagnostics(ctx context.Context, project string) []Diagnostic {
	log := logger.Get(ctx)
	for _, s := range e.strategies {
		diags := s.run(ctx, project)
		if len(diags) > 0 {
			metrics.StrategyHits.WithLabelValues(s.name).Inc()
			log.Debugf("diagnostics source %s produced %d diagnostic(s)", s.name, len(diags))
			return diags
		}
		log.Debugf("diagnostics source %s empty, trying next", s.name)
	}
	return nil
}

// AnalyzeBuildLog parses the newest archived build log for the named
// project into a BuildResult. Unlike the strategy chain this consults the
// archive only: no archived log is an error, not a fallback.
func (e *Extractor) AnalyzeBuildLog(ctx context.Context, project string) (BuildResult, error) {
	path, modTime, err := e.archive.LatestBuildLog(project)
	if err != nil {
		return BuildResult{}, err
	}

	cctx, cancel := runner.WithTimeout(ctx, e.opts.ProbeTimeout)
	defer cancel()
	content, err := e.archive.ExtractText(cctx, path)
	if err != nil {
		return BuildResult{}, err
	}

	result := e.ParseLogContent(content, path, modTime)
	if project != "" {
		result.ProjectName = project
	}
	return result, nil
}

// ExtractBuildResult wraps CurrentDiagnostics in a BuildResult.
func (e *Extractor) ExtractBuildResult(ctx context.Context, project string) BuildResult {
	diags := e.CurrentDiagnostics(ctx, project)
	name := project
	if name == "" {
		if recent := e.locator.RecentProjects(1); len(recent) > 0 {
			name = recent[0]
		} else {
			name = "Unknown"
		}
	}
	return NewBuildResult(name, diags, time.Now())
}

// fromEditorStream classifies a short, bounded capture of recent
// compiler/IDE log output.
func (e *Extractor) fromEditorStream(ctx context.Context, _ string) []Diagnostic {
	cctx, cancel := runner.WithTimeout(ctx, e.opts.ProbeTimeout)
	defer cancel()

	out, err := e.run.Output(cctx, oslog.EditorShowArgs(e.opts.EditorWindow))
	if err != nil {
		logger.Get(ctx).Debugf("editor stream probe failed: %v", err)
		return nil
	}
	return e.grammar.ClassifyAll(out)
}

// fromRebuildProbe locates the project, lists its schemes, and runs a
// dry-run build, escalating to a real build when the dry run is clean.
func (e *Extractor) fromRebuildProbe(ctx context.Context, project string) []Diagnostic {
	log := logger.Get(ctx)

	if project == "" {
		recent := e.locator.RecentProjects(1)
		if len(recent) == 0 {
			return nil
		}
		project = recent[0]
	}

	projectPath, err := e.locator.FindProjectFile(ctx, project)
	if err != nil {
		log.Debugf("project file for %q not found: %v", project, err)
		return nil
	}

	pctx, cancel := runner.WithTimeout(ctx, e.opts.ProbeTimeout)
	schemes, err := e.builder.ListSchemes(pctx, projectPath)
	cancel()
	if err != nil || len(schemes) == 0 {
		log.Debugf("no schemes for %s: %v", projectPath, err)
		return nil
	}
	scheme := schemes[0]

	dctx, cancel := runner.WithTimeout(ctx, e.opts.ProbeTimeout)
	out, err := e.builder.DryRun(dctx, projectPath, scheme)
	cancel()
	if err != nil {
		log.Debugf("dry-run build failed: %v", err)
		// The partial output may still carry diagnostics.
	}
	if diags := e.grammar.ClassifyAll(out); len(diags) > 0 {
		return diags
	}

	bctx, cancel := runner.WithTimeout(ctx, e.opts.BuildTimeout)
	out, err = e.builder.Build(bctx, projectPath, scheme)
	cancel()
	if err != nil {
		log.Debugf("full build probe failed: %v", err)
	}
	return e.grammar.ClassifyAll(out)
}

// fromArchivedLog classifies the newest archived build log.
func (e *Extractor) fromArchivedLog(ctx context.Context, project string) []Diagnostic {
	log := logger.Get(ctx)

	path, _, err := e.archive.LatestBuildLog(project)
	if err != nil {
		log.Debugf("no archived build log: %v", err)
		return nil
	}

	cctx, cancel := runner.WithTimeout(ctx, e.opts.ProbeTimeout)
	defer cancel()
	content, err := e.archive.ExtractText(cctx, path)
	if err != nil {
		log.Debugf("archived log extraction failed: %v", err)
		return nil
	}
	return e.grammar.ClassifyAll(content)
}

// ParseLogContent aggregates classified content into a BuildResult,
// inferring the project name from the archive path when it lives under
// DerivedData.
func (e *Extractor) ParseLogContent(content, logPath string, modTime time.Time) BuildResult {
	result := NewBuildResult(ProjectNameFromPath(logPath), e.grammar.ClassifyAll(content), modTime)
	if strings.Contains(content, "BUILD FAILED") {
		result.Success = false
	}
	return result
}

// NewBuildResult builds the aggregate with best-effort metadata. Success is
// false when any error-severity diagnostic is present.
func NewBuildResult(project string, diags []Diagnostic, buildTime time.Time) BuildResult {
	success := true
	for _, d := range diags {
		if d.Severity == SeverityError {
			success = false
			break
		}
	}
	return BuildResult{
		ProjectName:   project,
		Scheme:        "Unknown",
		Target:        "Unknown",
		Configuration: "Unknown",
		Success:       success,
		Diagnostics:   diags,
		BuildTime:     buildTime,
	}
}

// ProjectNameFromPath infers a project name from a DerivedData artifact
// path: the segment after "DerivedData" up to its hash suffix.
func ProjectNameFromPath(logPath string) string {
	if logPath == "" {
		return "Unknown"
	}
	parts := strings.Split(filepath.ToSlash(logPath), "/")
	for i, part := range parts {
		if part == "DerivedData" && i+1 < len(parts) {
			return strings.SplitN(parts[i+1], "-", 2)[0]
		}
	}
	return "Unknown"
}
