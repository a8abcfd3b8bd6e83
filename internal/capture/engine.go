package capture

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/xcwatch/xcwatch/internal/metrics"
	"github.com/xcwatch/xcwatch/internal/oslog"
	"github.com/xcwatch/xcwatch/internal/utils/logger"
	xcerrors "github.com/xcwatch/xcwatch/pkg/errors"
)

// Mode selects what a capture session streams.
type Mode string

const (
	// ModeGlobal streams everything Xcode-related on the host.
	ModeGlobal Mode = "global"
	// ModeApp streams a single app's output by bundle identifier.
	ModeApp Mode = "app"
	// ModeBuild streams build-tool output for a project.
	ModeBuild Mode = "build"
	// ModeDevice streams a simulator's log via its UDID.
	ModeDevice Mode = "device"
	// ModeDeviceDebug streams host-side device debugging output.
	ModeDeviceDebug Mode = "device-debug"
	// ModeFile follows a log file on disk.
	ModeFile Mode = "file"
)

// Params carry the mode-specific arguments of a capture session.
type Params struct {
	BundleID       string
	ProjectName    string
	DeviceUDID     string
	DeviceName     string
	IncludeDevices bool
	FilePath       string
}

// Observer receives each captured record synchronously, in arrival order.
// A panicking observer is isolated; it never kills the capture loop.
type Observer func(oslog.Record)

type state int

const (
	stateIdle state = iota
	stateStarting
	stateRunning
	stateStopping
)

// drainYield paces the consume loop so a chatty stream cannot starve the
// rest of the process.
const drainYield = 10 * time.Millisecond

// Engine owns one capture session at a time: it spawns the stream for the
// requested mode, parses each line into a record, buffers it, and fans it
// out to observers.
type Engine struct {
	streamer Streamer
	buffer   *Buffer

	mu        sync.Mutex
	state     state
	mode      Mode
	params    Params
	cancel    context.CancelFunc
	done      chan struct{}
	observers []Observer
}

// NewEngine builds an engine over the given streamer and buffer capacity.
func NewEngine(streamer Streamer, bufferSize int) *Engine {
	return &Engine{
		streamer: streamer,
		buffer:   NewBuffer(bufferSize),
	}
}

// AddObserver registers an observer for subsequent records. Observers
// cannot be removed; stop the session instead.
func (e *Engine) AddObserver(obs Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, obs)
}

// Active reports whether a capture session is running.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == stateRunning || e.state == stateStarting
}

// Mode returns the active session's mode, or the empty string when idle.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateIdle {
		return ""
	}
	return e.mode
}

// source maps a mode and its params onto a stream source.
func source(mode Mode, params Params) (Source, error) {
	switch mode {
	case ModeGlobal:
		return Source{Argv: oslog.GlobalStreamArgs(params.BundleID, params.IncludeDevices)}, nil
	case ModeApp:
		if params.BundleID == "" {
			return Source{}, xcerrors.ErrInvalidMode
		}
		return Source{Argv: oslog.GlobalStreamArgs(params.BundleID, false)}, nil
	case ModeBuild:
		return Source{Argv: oslog.BuildStreamArgs(params.ProjectName)}, nil
	case ModeDevice:
		if params.DeviceUDID == "" {
			return Source{}, xcerrors.ErrInvalidMode
		}
		return Source{Argv: oslog.DeviceStreamArgs(params.DeviceUDID, params.BundleID)}, nil
	case ModeDeviceDebug:
		if params.DeviceName == "" {
			return Source{}, xcerrors.ErrInvalidMode
		}
		return Source{Argv: oslog.DeviceDebugStreamArgs(params.DeviceName, params.BundleID)}, nil
	case ModeFile:
		if params.FilePath == "" {
			return Source{}, xcerrors.ErrInvalidFilePath
		}
		return Source{Path: params.FilePath}, nil
	default:
		return Source{}, xcerrors.ErrInvalidMode
	}
}

// Start begins a capture session. A second Start while one is active fails
// with ErrAlreadyMonitoring; the running session is untouched.
func (e *Engine) Start(ctx context.Context, mode Mode, params Params) error {
	e.mu.Lock()
	if e.state != stateIdle {
		e.mu.Unlock()
		return xcerrors.ErrAlreadyMonitoring
	}

	src, err := source(mode, params)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sctx = logger.WithContext(sctx, logger.Get(ctx))
	done := make(chan struct{})

	// cancel and done must be visible before the lock drops so a Stop that
	// arrives during startup has something to cancel and wait on.
	e.state = stateStarting
	e.mode = mode
	e.params = params
	e.cancel = cancel
	e.done = done
	e.mu.Unlock()

	lines, err := e.streamer.Stream(sctx, src)
	if err != nil {
		cancel()
		close(done)
		e.mu.Lock()
		if e.state == stateStarting {
			e.state = stateIdle
			e.cancel = nil
			e.done = nil
		}
		e.mu.Unlock()
		return err
	}

	e.mu.Lock()
	if e.state == stateStarting {
		e.state = stateRunning
	}
	e.mu.Unlock()

	logger.Get(ctx).Infow("capture started", "mode", string(mode))
	go e.consume(sctx, mode, lines, done)
	return nil
}

// Stop ends the session: the stream subprocess is terminated and the loop
// is waited out. Records already buffered survive. Stopping an idle engine
// is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state != stateRunning && e.state != stateStarting {
		e.mu.Unlock()
		return
	}
	e.state = stateStopping
	cancel := e.cancel
	done := e.done
	e.mu.Unlock()

	cancel()
	<-done

	e.mu.Lock()
	e.state = stateIdle
	e.cancel = nil
	e.done = nil
	e.mu.Unlock()
}

// Recent removes and returns up to n buffered records from the queue head,
// oldest first; n <= 0 drains everything. Records not taken stay buffered
// for the next call.
func (e *Engine) Recent(n int) []oslog.Record {
	return e.buffer.Drain(n)
}

// BufferLen reports how many records are waiting to be read.
func (e *Engine) BufferLen() int { return e.buffer.Len() }

func (e *Engine) consume(ctx context.Context, mode Mode, lines <-chan string, done chan struct{}) {
	defer close(done)
	modeLabel := string(mode)

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			rec, parsed := parseLine(line)
			if !parsed {
				metrics.LinesSkipped.Inc()
				continue
			}

			e.buffer.Append(rec)
			metrics.RecordsCaptured.WithLabelValues(modeLabel).Inc()
			e.notify(ctx, rec)

			select {
			case <-ctx.Done():
				return
			case <-time.After(drainYield):
			}
		}
	}
}

// parseLine filters noise and parses a stream line into a record. Header
// lines, blanks, and the stream's own filter banner never become records.
func parseLine(line string) (oslog.Record, bool) {
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, oslog.NoisePrefix) {
		return oslog.Record{}, false
	}
	return oslog.Parse(line)
}

// notify fans the record out to every observer, isolating panics so one
// faulty observer cannot take the capture loop down.
func (e *Engine) notify(ctx context.Context, rec oslog.Record) {
	e.mu.Lock()
	observers := e.observers
	e.mu.Unlock()

	for _, obs := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					metrics.ObserverPanics.Inc()
					logger.Get(ctx).Warnf("observer panic: %v", r)
				}
			}()
			obs(rec)
		}()
	}
}
