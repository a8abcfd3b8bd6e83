package capture

import (
	"strings"
	"time"

	"github.com/xcwatch/xcwatch/internal/oslog"
)

// The query helpers are pure filters over a drained batch of records. They
// preserve arrival order and never modify their input.

// FilterLevel keeps records at exactly the given level. An empty level
// keeps everything.
func FilterLevel(records []oslog.Record, level oslog.Level) []oslog.Record {
	if level == "" {
		return records
	}
	var out []oslog.Record
	for _, rec := range records {
		if rec.Level == level {
			out = append(out, rec)
		}
	}
	return out
}

// FilterContains keeps records whose message contains the substring,
// case-insensitively. Only the message is searched, not process or
// subsystem.
func FilterContains(records []oslog.Record, substr string) []oslog.Record {
	if substr == "" {
		return records
	}
	needle := strings.ToLower(substr)
	var out []oslog.Record
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.Message), needle) {
			out = append(out, rec)
		}
	}
	return out
}

// FilterSince keeps records stamped at or after the cutoff.
func FilterSince(records []oslog.Record, since time.Time) []oslog.Record {
	var out []oslog.Record
	for _, rec := range records {
		if !rec.Timestamp.Before(since) {
			out = append(out, rec)
		}
	}
	return out
}

// BuildErrors keeps records from build tooling that look like build
// diagnostics: either the message matches a build-error pattern or the
// record itself is error-severity.
func BuildErrors(records []oslog.Record) []oslog.Record {
	var out []oslog.Record
	for _, rec := range records {
		if !oslog.FromBuildProcess(rec.Process) {
			continue
		}
		if oslog.IsBuildErrorMessage(rec.Message) || rec.IsErrorLevel() {
			out = append(out, rec)
		}
	}
	return out
}

// ErrorLogs keeps error-severity records from Xcode-related processes at or
// after the cutoff.
func ErrorLogs(records []oslog.Record, since time.Time) []oslog.Record {
	var out []oslog.Record
	for _, rec := range records {
		if rec.Timestamp.Before(since) {
			continue
		}
		if rec.IsErrorLevel() && oslog.FromXcodeProcess(rec.Process) {
			out = append(out, rec)
		}
	}
	return out
}
