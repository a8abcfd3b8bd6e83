package mcp

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/xcwatch/xcwatch/internal/devices"
	"github.com/xcwatch/xcwatch/internal/diag"
	"github.com/xcwatch/xcwatch/internal/oslog"
)

func levelArg(request mcp.CallToolRequest) oslog.Level {
	return oslog.Level(strings.ToLower(request.GetString("level", "")))
}

func filterSeverity(diags []diag.Diagnostic, severity diag.Severity) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range diags {
		if d.Severity == severity {
			out = append(out, d)
		}
	}
	return out
}

func formatDiagnostics(diags []diag.Diagnostic) string {
	var b strings.Builder
	errs, warns := 0, 0
	for _, d := range diags {
		switch d.Severity {
		case diag.SeverityError:
			errs++
		case diag.SeverityWarning:
			warns++
		}
	}
	fmt.Fprintf(&b, "Found %d issue(s): %d error(s), %d warning(s)\n\n", len(diags), errs, warns)

	for _, d := range diags {
		if d.HasLocation() {
			fmt.Fprintf(&b, "[%s] %s:%d:%d\n  %s\n", strings.ToUpper(string(d.Severity)), d.File, d.Line, d.Column, d.Message)
		} else {
			fmt.Fprintf(&b, "[%s] %s\n", strings.ToUpper(string(d.Severity)), d.Message)
		}
	}
	return b.String()
}

// formatAnalysis renders a per-project build analysis: status, severity
// counts, and the SwiftUI/compiler error split.
func formatAnalysis(result diag.BuildResult) string {
	var b strings.Builder
	status := "succeeded"
	if !result.Success {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "Analysis for %s\n", result.ProjectName)
	fmt.Fprintf(&b, "Build %s at %s\n\n", status, result.BuildTime.Format("2006-01-02 15:04:05"))

	var errs, swiftui, compiler []diag.Diagnostic
	warns, notes := 0, 0
	for _, d := range result.Diagnostics {
		switch d.Severity {
		case diag.SeverityError:
			errs = append(errs, d)
			if strings.Contains(d.Message, "SwiftUI") {
				swiftui = append(swiftui, d)
			} else {
				compiler = append(compiler, d)
			}
		case diag.SeverityWarning:
			warns++
		case diag.SeverityNote:
			notes++
		}
	}
	fmt.Fprintf(&b, "Errors: %d\nWarnings: %d\nNotes: %d\n", len(errs), warns, notes)

	appendIssueGroup(&b, "SwiftUI issues", swiftui)
	appendIssueGroup(&b, "Compiler issues", compiler)
	return b.String()
}

// appendIssueGroup lists the first issues of a group with a trailing count
// when more were found.
func appendIssueGroup(b *strings.Builder, title string, diags []diag.Diagnostic) {
	const maxShown = 5
	if len(diags) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for i, d := range diags {
		if i == maxShown {
			fmt.Fprintf(b, "  ... and %d more\n", len(diags)-maxShown)
			return
		}
		if d.HasLocation() {
			fmt.Fprintf(b, "  - %s (%s:%d)\n", d.Message, filepath.Base(d.File), d.Line)
		} else {
			fmt.Fprintf(b, "  - %s\n", d.Message)
		}
	}
}

func formatRecords(records []oslog.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d record(s):\n\n", len(records))
	for _, rec := range records {
		fmt.Fprintf(&b, "[%s] %s %s: %s\n",
			rec.Timestamp.Format("15:04:05.000"),
			strings.ToUpper(string(rec.Level)),
			rec.Process,
			rec.Message)
	}
	return b.String()
}

func formatDevices(found []devices.Descriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d device(s) found:\n\n", len(found))
	for _, d := range found {
		fmt.Fprintf(&b, "- %s (%s)", d.Name, d.Kind)
		if d.UDID != "" {
			fmt.Fprintf(&b, " UDID=%s", d.UDID)
		}
		if d.State != "" {
			fmt.Fprintf(&b, " state=%s", d.State)
		}
		if d.Runtime != "" {
			fmt.Fprintf(&b, " runtime=%s", d.Runtime)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatProjects(names []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d recently built project(s):\n\n", len(names))
	for i, name := range names {
		fmt.Fprintf(&b, "%d. %s\n", i+1, name)
	}
	return b.String()
}
