// Package oslog models records of the macOS unified logging stream and
// builds the `log` / `xcrun simctl` command lines that produce them.
package oslog

import (
	"regexp"
	"strings"
	"time"
)

// Level is the severity of a log record. The syslog style emitted by
// `log stream` carries no explicit level, so it is inferred from the
// message (see InferLevel).
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFault   Level = "fault"
)

// Record is one structured line from the OS logging stream. Records are
// immutable values; observers and the capture buffer receive them by value.
type Record struct {
	Timestamp time.Time
	Level     Level
	Subsystem string
	Category  string
	Message   string
	Process   string
}

// IsErrorLevel reports whether the record is at error or fault level.
func (r Record) IsErrorLevel() bool {
	return r.Level == LevelError || r.Level == LevelFault
}

// XcodeProcesses are the process names monitored in global capture mode.
var XcodeProcesses = []string{
	"Xcode",
	"xcodebuild",
	"xctest",
	"Simulator",
	"iOS Simulator",
	"iPhone Simulator",
	"iPad Simulator",
	"swift",
	"clang",
	"ld",
	"Metal",
	"ibtool",
	"actool",
	"assetutil",
	"debugserver",
	"lldb",
	"DTDeviceServiceBase",
	"DTServiceHub",
	"com.apple.dt.DeviceKit",
	"com.apple.dt.IDE.IDEiOSSupportCore",
}

// BuildProcesses is the narrower process set used in build capture mode.
var BuildProcesses = []string{"Xcode", "xcodebuild", "swift", "clang", "ld"}

// DebugProcesses are the IDE/debugger processes targeted by the
// device-debug capture mode.
var DebugProcesses = []string{
	"Xcode",
	"debugserver",
	"lldb",
	"DTDeviceServiceBase",
	"DTServiceHub",
	"com.apple.dt.DeviceKit",
	"com.apple.dt.IDE.IDEiOSSupportCore",
}

// buildErrorPatterns flag messages that belong to a build failure. Matched
// case-insensitively anywhere in the message.
var buildErrorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)error:`),
	regexp.MustCompile(`(?i)warning:`),
	regexp.MustCompile(`(?i)note:`),
	regexp.MustCompile(`(?i)BUILD FAILED`),
	regexp.MustCompile(`(?i)Compile Swift`),
	regexp.MustCompile(`(?i)CompileC`),
	regexp.MustCompile(`(?i)Ld `),
	regexp.MustCompile(`(?i)CodeSign`),
	regexp.MustCompile(`(?i)PhaseScriptExecution`),
}

// IsBuildErrorMessage reports whether the message matches any known
// build-error marker.
func IsBuildErrorMessage(message string) bool {
	for _, p := range buildErrorPatterns {
		if p.MatchString(message) {
			return true
		}
	}
	return false
}

// FromXcodeProcess reports whether the process name belongs to the Xcode
// tool set. Matching is by substring, same as the query layer has always
// done ("swift" matches "swift-frontend").
func FromXcodeProcess(process string) bool {
	return matchesProcessSet(process, XcodeProcesses)
}

// FromBuildProcess reports whether the process name belongs to the build
// tool set.
func FromBuildProcess(process string) bool {
	return matchesProcessSet(process, BuildProcesses)
}

func matchesProcessSet(process string, set []string) bool {
	for _, p := range set {
		if strings.Contains(process, p) {
			return true
		}
	}
	return false
}
