package oslog

import (
	"regexp"
	"strings"
	"time"
)

// linePattern decomposes one syslog-style line from `log stream` /
// `log show`:
//
//	2024-01-15 10:30:00.123-0500 host MyApp[1234]: (Framework) [sub:cat] message
//
// The framework and [subsystem:category] tags are optional.
var linePattern = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d+[-+]\d{4})\s+` + // timestamp
		`(\w+)\s+` + // hostname
		`([\w\-.]+)\[(\d+)\]:\s+` + // process[pid]
		`(?:\(([\w.]+)\)\s+)?` + // optional (framework)
		`(?:\[([\w.]+):([\w.]+)\]\s+)?` + // optional [subsystem:category]
		`(.*)$`) // message

// timestampLayout parses the timestamp after its fixed-width timezone
// offset has been stripped.
const timestampLayout = "2006-01-02 15:04:05.999999"

// Parse decomposes a single log line into a Record. It returns false for
// lines that do not match the record format; log streams intersperse
// control lines ("Filtering the log data ...") that are not records, so a
// non-match is the common case and never an error.
func Parse(line string) (Record, bool) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return Record{}, false
	}

	tsRaw := m[1]
	if len(tsRaw) < 5 {
		return Record{}, false
	}
	// Strip the trailing ±HHMM offset; the window queries compare against
	// local wall-clock time, matching how the records were captured.
	ts, err := time.ParseInLocation(timestampLayout, tsRaw[:len(tsRaw)-5], time.Local)
	if err != nil {
		// A matched line with a malformed timestamp is a dropped record,
		// not a failure.
		return Record{}, false
	}

	message := m[8]
	subsystem := m[6]
	if subsystem == "" {
		subsystem = m[5] // fall back to the (framework) tag
	}

	return Record{
		Timestamp: ts,
		Level:     InferLevel(message),
		Subsystem: subsystem,
		Category:  m[7],
		Message:   message,
		Process:   m[3],
	}, true
}

// InferLevel derives a level from message content. The keyword table is
// deliberately the ad-hoc one the tool has always used: a message merely
// containing "warning" inside an informational sentence is still classified
// as a warning. Filtering behavior depends on this exact table; do not
// "improve" it without a product decision.
func InferLevel(message string) Level {
	lower := strings.ToLower(message)
	for _, kw := range []string{"error", "failed", "exception", "crash"} {
		if strings.Contains(lower, kw) {
			return LevelError
		}
	}
	for _, kw := range []string{"warning", "warn"} {
		if strings.Contains(lower, kw) {
			return LevelWarning
		}
	}
	for _, kw := range []string{"debug", "trace"} {
		if strings.Contains(lower, kw) {
			return LevelDebug
		}
	}
	return LevelInfo
}
