package diag

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// grammarRule is one line-matching rule. Rules come in two shapes: located
// rules capture file, line, column, and message (4 groups); bare rules
// capture only the message (1 group).
type grammarRule struct {
	pattern  *regexp.Regexp
	severity Severity
	located  bool
}

// Grammar is an ordered rule list. Rules are grouped by severity, errors
// first, and the first match wins, so adding a new diagnostic dialect is a
// matter of inserting a rule; existing rules are never revisited.
type Grammar struct {
	rules []grammarRule
}

// NewGrammar returns the default grammar covering the compiler's
// file:line:column dialect, bare severity-prefixed lines, and the
// xcodebuild failure banner.
func NewGrammar() *Grammar {
	return &Grammar{rules: []grammarRule{
		{regexp.MustCompile(`^(.+?):(\d+):(\d+): error: (.+)$`), SeverityError, true},
		{regexp.MustCompile(`^error: (.+)$`), SeverityError, false},
		{regexp.MustCompile(`^\*\* (BUILD FAILED) \*\*$`), SeverityError, false},
		{regexp.MustCompile(`^(.+?):(\d+):(\d+): warning: (.+)$`), SeverityWarning, true},
		{regexp.MustCompile(`^warning: (.+)$`), SeverityWarning, false},
		{regexp.MustCompile(`^(.+?):(\d+):(\d+): note: (.+)$`), SeverityNote, true},
		{regexp.MustCompile(`^note: (.+)$`), SeverityNote, false},
	}}
}

// Classify matches a single line against the rule list. Most lines of build
// output are not diagnostics; a non-match returns false and is not an
// error. Classify never fails on arbitrary input.
func (g *Grammar) Classify(line string) (Diagnostic, bool) {
	for _, r := range g.rules {
		m := r.pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		d := Diagnostic{Severity: r.severity, Timestamp: time.Now()}
		if r.located {
			d.Message = m[4]
			d.File = m[1]
			lineNo, lineErr := strconv.Atoi(m[2])
			colNo, colErr := strconv.Atoi(m[3])
			if lineErr == nil && colErr == nil && lineNo > 0 && colNo > 0 {
				d.Line = lineNo
				d.Column = colNo
			} else {
				// Degrade to an unlocated diagnostic; line and column are
				// jointly present or jointly absent.
				d.File = ""
			}
		} else {
			d.Message = m[1]
		}
		return d, true
	}
	return Diagnostic{}, false
}

// ClassifyAll applies the grammar line by line, preserving source order.
func (g *Grammar) ClassifyAll(content string) []Diagnostic {
	var out []Diagnostic
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if d, ok := g.Classify(line); ok {
			out = append(out, d)
		}
	}
	return out
}
