package devices

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/xcwatch/xcwatch/internal/oslog"
	"github.com/xcwatch/xcwatch/internal/utils/logger"
	"github.com/xcwatch/xcwatch/internal/utils/runner"
	xcerrors "github.com/xcwatch/xcwatch/pkg/errors"
)

// showTimeout bounds the one-shot `log show` retrievals.
const showTimeout = 30 * time.Second

// DefaultCollectWindow is how long a debug-log collection streams before
// stopping when the caller does not override it.
const DefaultCollectWindow = 5 * time.Second

// DefaultShowWindow is how far back the one-shot `log show` retrievals
// look when the caller does not override it.
const DefaultShowWindow = 10 * time.Minute

// Logs retrieves up to count recent records from a device via a bounded
// `log show` inside the device's context. Failures degrade to an empty
// result.
func (l *Lister) Logs(ctx context.Context, udid string, count int, window time.Duration) []oslog.Record {
	if window <= 0 {
		window = DefaultShowWindow
	}
	cctx, cancel := runner.WithTimeout(ctx, showTimeout)
	defer cancel()

	out, err := l.run.Output(cctx, oslog.DeviceShowArgs(udid, window))
	if err != nil {
		logger.Get(ctx).Debugf("device log retrieval for %s failed: %v", udid, err)
		return nil
	}
	return lastN(parseLines(out), count)
}

// DebugLogs streams the device's debug-level log for a fixed collection
// window and returns up to count parsed records. The window is a tunable,
// not a constant: callers pass zero to get DefaultCollectWindow.
func (l *Lister) DebugLogs(ctx context.Context, udid, bundleID string, count int, window time.Duration) []oslog.Record {
	if window <= 0 {
		window = DefaultCollectWindow
	}

	// The stream runs until the deadline kills it; the output gathered up
	// to that point is the collection. A deadline error here is the normal
	// exit, not a failure.
	cctx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	out, err := l.run.Combined(cctx, oslog.DeviceStreamArgs(udid, bundleID))
	if err != nil && !errors.Is(err, xcerrors.ErrTimeout) {
		logger.Get(ctx).Debugf("device debug stream for %s failed: %v", udid, err)
	}
	return lastN(parseLines(out), count)
}

// HostDebugLogs retrieves debugger-session records from the host's log
// store: output from Xcode, lldb, and the device services, optionally
// narrowed to a device name and app bundle ID.
func (l *Lister) HostDebugLogs(ctx context.Context, deviceName, bundleID string, count int, window time.Duration) []oslog.Record {
	if window <= 0 {
		window = DefaultShowWindow
	}
	cctx, cancel := runner.WithTimeout(ctx, showTimeout)
	defer cancel()

	args := oslog.ShowArgs(window, oslog.DeviceDebugPredicate(deviceName, bundleID), "syslog")
	out, err := l.run.Output(cctx, args)
	if err != nil {
		logger.Get(ctx).Debugf("host debug log retrieval failed: %v", err)
		return nil
	}
	return lastN(parseLines(out), count)
}

func parseLines(out string) []oslog.Record {
	var records []oslog.Record
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if rec, ok := oslog.Parse(line); ok {
			records = append(records, rec)
		}
	}
	return records
}

func lastN(records []oslog.Record, n int) []oslog.Record {
	if n <= 0 || len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}
