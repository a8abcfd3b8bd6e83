package oslog

import (
	"fmt"
	"strings"
	"time"
)

// NoisePrefix marks control lines emitted by `log` before the stream
// proper ("Filtering the log data using ..."). The reader loop skips them.
const NoisePrefix = "Filtering"

var streamBase = []string{"log", "stream", "--style", "syslog", "--level", "debug"}

// processClause builds `(process == "a" OR process == "b" ...)`.
func processClause(processes []string) string {
	parts := make([]string, 0, len(processes))
	for _, p := range processes {
		parts = append(parts, fmt.Sprintf("process == %q", p))
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func joinPredicates(predicates []string) string {
	if len(predicates) == 1 {
		return predicates[0]
	}
	return strings.Join(predicates, " AND ")
}

// GlobalStreamArgs builds the argv for the global capture mode: every
// Xcode-related process, optionally narrowed to an app bundle ID. With
// includeDevices the stream also admits trace events so that logs from apps
// running on connected devices are captured.
func GlobalStreamArgs(bundleID string, includeDevices bool) []string {
	predicates := []string{processClause(XcodeProcesses)}

	if bundleID != "" {
		app := []string{
			fmt.Sprintf("subsystem == %q", bundleID),
			fmt.Sprintf("sender == %q", bundleID),
			fmt.Sprintf("processImagePath CONTAINS %q", bundleID),
		}
		predicates = append(predicates, "("+strings.Join(app, " OR ")+")")

		if includeDevices {
			predicates = append(predicates, "eventType == logEvent OR eventType == traceEvent")
		}
	}

	return append(append([]string{}, streamBase...), "--predicate", joinPredicates(predicates))
}

// BuildStreamArgs builds the argv for the build-focused capture mode.
func BuildStreamArgs(projectName string) []string {
	predicates := []string{processClause(BuildProcesses)}
	if projectName != "" {
		predicates = append(predicates, fmt.Sprintf("eventMessage CONTAINS %q", projectName))
	}
	predicates = append(predicates, "eventType == logEvent")

	return append(append([]string{}, streamBase...), "--predicate", strings.Join(predicates, " AND "))
}

// DeviceStreamArgs builds the argv for streaming inside a device context
// via simctl spawn.
func DeviceStreamArgs(udid, bundleID string) []string {
	args := append([]string{"xcrun", "simctl", "spawn", udid}, streamBase...)
	if bundleID != "" {
		args = append(args, "--predicate",
			fmt.Sprintf("subsystem == %q OR sender == %q", bundleID, bundleID))
	}
	return args
}

// deviceDebugKeywords widen the device-debug predicate so console output
// surfaced through the debugger is not filtered away.
var deviceDebugKeywords = []string{
	"device", "debug", "console", "log", "print", "NSLog", "os_log",
	"debugger", "breakpoint", "exception", "crash",
}

// DeviceDebugPredicate builds the predicate shared by the device-debug
// stream and show commands.
func DeviceDebugPredicate(deviceName, bundleID string) string {
	predicates := []string{processClause(DebugProcesses)}

	if deviceName != "" {
		predicates = append(predicates, fmt.Sprintf("eventMessage CONTAINS %q", deviceName))
	}
	if bundleID != "" {
		predicates = append(predicates, fmt.Sprintf(
			"(eventMessage CONTAINS %q OR subsystem == %q OR sender == %q)",
			bundleID, bundleID, bundleID))
	}

	parts := make([]string, 0, len(deviceDebugKeywords))
	for _, kw := range deviceDebugKeywords {
		parts = append(parts, fmt.Sprintf("eventMessage CONTAINS %q", kw))
	}
	predicates = append(predicates, "("+strings.Join(parts, " OR ")+")")

	return joinPredicates(predicates)
}

// DeviceDebugStreamArgs builds the argv for the device-debug capture mode.
func DeviceDebugStreamArgs(deviceName, bundleID string) []string {
	return append(append([]string{}, streamBase...),
		"--predicate", DeviceDebugPredicate(deviceName, bundleID))
}

// ShowArgs builds a one-shot `log show` over a recent window.
func ShowArgs(window time.Duration, predicate, style string) []string {
	args := []string{"log", "show", "--last", windowArg(window), "--style", style, "--level", "debug"}
	if predicate != "" {
		args = append(args, "--predicate", predicate)
	}
	return args
}

// DeviceShowArgs builds a one-shot `log show` inside a device context.
func DeviceShowArgs(udid string, window time.Duration) []string {
	return []string{"xcrun", "simctl", "spawn", udid,
		"log", "show", "--last", windowArg(window), "--style", "syslog"}
}

// EditorShowArgs builds the short live-editor probe used by the diagnostic
// extractor: recent compiler/IDE output in compact style.
func EditorShowArgs(window time.Duration) []string {
	return []string{"log", "show",
		"--predicate", `process == "Xcode" OR process == "SourceKitService" OR process == "swift"`,
		"--last", windowArg(window),
		"--style", "compact"}
}

func windowArg(window time.Duration) string {
	minutes := int(window.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%dm", minutes)
}
