// Package diag extracts structured build diagnostics from heterogeneous
// log sources: the live editor stream, one-shot xcodebuild output, and
// archived build logs.
package diag

import "time"

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Diagnostic is one build-time error, warning, or note with an optional
// source location. Line and Column are 1-based and jointly present: either
// both are set or both are zero.
type Diagnostic struct {
	Severity Severity
	Message  string
	File     string
	Line     int
	Column   int
	// Category and Code are reserved for dialects that carry them.
	Category  string
	Code      string
	Timestamp time.Time
}

// HasLocation reports whether the diagnostic carries a source location.
func (d Diagnostic) HasLocation() bool {
	return d.File != "" && d.Line > 0
}

// BuildResult aggregates the diagnostics of one extraction pass. Scheme,
// target, and configuration are best-effort and frequently "Unknown": the
// archived log format does not reliably carry them.
type BuildResult struct {
	ProjectName   string
	Scheme        string
	Target        string
	Configuration string
	Success       bool
	Diagnostics   []Diagnostic
	BuildTime     time.Time
	// Duration is zero when the source does not record it.
	Duration time.Duration
}

// Errors returns the diagnostics of severity error, in source order.
func (r BuildResult) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}
