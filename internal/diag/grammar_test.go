package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyLocatedError(t *testing.T) {
	g := NewGrammar()

	d, ok := g.Classify("path/to/File.swift:12:5: error: message text")
	require.True(t, ok)
	assert.Equal(t, SeverityError, d.Severity)
	assert.Equal(t, "path/to/File.swift", d.File)
	assert.Equal(t, 12, d.Line)
	assert.Equal(t, 5, d.Column)
	assert.Equal(t, "message text", d.Message)
	assert.True(t, d.HasLocation())
}

func TestClassifyBareSeverities(t *testing.T) {
	g := NewGrammar()

	tests := []struct {
		line     string
		severity Severity
		message  string
	}{
		{"error: message text", SeverityError, "message text"},
		{"warning: unused variable", SeverityWarning, "unused variable"},
		{"note: did you mean 'bar'?", SeverityNote, "did you mean 'bar'?"},
		{"** BUILD FAILED **", SeverityError, "BUILD FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			d, ok := g.Classify(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.severity, d.Severity)
			assert.Equal(t, tt.message, d.Message)
			assert.Empty(t, d.File)
			assert.Zero(t, d.Line)
			assert.Zero(t, d.Column)
			assert.False(t, d.HasLocation())
		})
	}
}

func TestClassifyLocatedWarningAndNote(t *testing.T) {
	g := NewGrammar()

	d, ok := g.Classify("Views/Home.swift:3:1: warning: [SwiftUI] state change during view update")
	require.True(t, ok)
	assert.Equal(t, SeverityWarning, d.Severity)
	assert.Equal(t, "Views/Home.swift", d.File)
	assert.Equal(t, 3, d.Line)
	assert.Equal(t, 1, d.Column)

	d, ok = g.Classify("Main.swift:8:2: note: add 'try'")
	require.True(t, ok)
	assert.Equal(t, SeverityNote, d.Severity)
}

func TestClassifyNonDiagnosticLines(t *testing.T) {
	g := NewGrammar()

	for _, line := range []string{
		"",
		"Compiling Main.swift",
		"=== BUILD TARGET MyApp ===",
		"ld: informational message without marker prefix",
		"totally arbitrary text :: with colons 12:5",
	} {
		_, ok := g.Classify(line)
		assert.False(t, ok, "should not classify: %q", line)
	}
}

func TestClassifyDegradesOnLineNumberOverflow(t *testing.T) {
	g := NewGrammar()

	d, ok := g.Classify("F.swift:99999999999999999999:5: error: overflow line")
	require.True(t, ok)
	assert.Equal(t, SeverityError, d.Severity)
	assert.Equal(t, "overflow line", d.Message)
	assert.False(t, d.HasLocation(), "numeric failure degrades to no structured location")
	assert.Zero(t, d.Line)
	assert.Zero(t, d.Column)
}

func TestClassifyAllPreservesOrder(t *testing.T) {
	g := NewGrammar()

	content := "building...\n" +
		"A.swift:1:1: error: first\n" +
		"noise\n" +
		"warning: second\n" +
		"B.swift:2:2: note: third\n"

	diags := g.ClassifyAll(content)
	require.Len(t, diags, 3)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Equal(t, "first", diags[0].Message)
	assert.Equal(t, SeverityWarning, diags[1].Severity)
	assert.Equal(t, SeverityNote, diags[2].Severity)
}
