package capture

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xcwatch/xcwatch/internal/oslog"
	xcerrors "github.com/xcwatch/xcwatch/pkg/errors"
)

// fakeStreamer hands the engine a channel the test writes to directly.
type fakeStreamer struct {
	lines chan string
	src   Source
}

func newFakeStreamer() *fakeStreamer {
	return &fakeStreamer{lines: make(chan string, 64)}
}

func (f *fakeStreamer) Stream(_ context.Context, src Source) (<-chan string, error) {
	f.src = src
	return f.lines, nil
}

const (
	sampleLine = "2024-01-15 10:30:00.123-0500 MacBook Xcode[1234]: Build started"
	errorLine  = "2024-01-15 10:30:01.456-0500 MacBook MyApp[4321]: request failed with timeout"
)

func startedEngine(t *testing.T) (*Engine, *fakeStreamer) {
	t.Helper()
	fs := newFakeStreamer()
	e := NewEngine(fs, 10)
	require.NoError(t, e.Start(context.Background(), ModeGlobal, Params{}))
	t.Cleanup(e.Stop)
	return e, fs
}

func waitBuffered(t *testing.T, e *Engine, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return e.BufferLen() >= n },
		2*time.Second, 5*time.Millisecond)
}

func TestEngineCapturesParsedLines(t *testing.T) {
	e, fs := startedEngine(t)

	fs.lines <- sampleLine
	fs.lines <- ""                          // blank
	fs.lines <- "Filtering the log data"    // stream banner
	fs.lines <- "not a syslog line at all " // unparseable
	fs.lines <- errorLine
	waitBuffered(t, e, 2)

	got := e.Recent(0)
	require.Len(t, got, 2)
	assert.Equal(t, "Xcode", got[0].Process)
	assert.Equal(t, "MyApp", got[1].Process)
	// "failed" in the message infers error severity.
	assert.Equal(t, "error", string(got[1].Level))
}

func TestEngineRejectsDoubleStart(t *testing.T) {
	e, _ := startedEngine(t)

	err := e.Start(context.Background(), ModeGlobal, Params{})
	assert.ErrorIs(t, err, xcerrors.ErrAlreadyMonitoring)
	assert.True(t, e.Active())
	assert.Equal(t, ModeGlobal, e.Mode())
}

func TestEngineStopIsIdempotent(t *testing.T) {
	fs := newFakeStreamer()
	e := NewEngine(fs, 10)
	require.NoError(t, e.Start(context.Background(), ModeDevice, Params{DeviceUDID: "UDID-1"}))

	fs.lines <- sampleLine
	waitBuffered(t, e, 1)

	e.Stop()
	e.Stop() // second stop is a no-op
	assert.False(t, e.Active())

	// Buffered records survive the stop.
	assert.Len(t, e.Recent(0), 1)

	// The engine is reusable after a stop.
	require.NoError(t, e.Start(context.Background(), ModeGlobal, Params{}))
	e.Stop()
}

// blockingStreamer holds Stream open until released, keeping the engine in
// its startup phase.
type blockingStreamer struct {
	release chan struct{}
}

func (s *blockingStreamer) Stream(context.Context, Source) (<-chan string, error) {
	<-s.release
	ch := make(chan string)
	close(ch)
	return ch, nil
}

func TestEngineStopDuringStartup(t *testing.T) {
	bs := &blockingStreamer{release: make(chan struct{})}
	e := NewEngine(bs, 10)

	startErr := make(chan error, 1)
	go func() { startErr <- e.Start(context.Background(), ModeGlobal, Params{}) }()
	require.Eventually(t, e.Active, 2*time.Second, time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		e.Stop()
		close(stopped)
	}()

	time.Sleep(10 * time.Millisecond)
	close(bs.release)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	require.NoError(t, <-startErr)
	assert.False(t, e.Active())

	// The engine starts cleanly again afterwards.
	require.NoError(t, e.Start(context.Background(), ModeGlobal, Params{}))
	e.Stop()
}

func TestEngineObserverPanicIsolation(t *testing.T) {
	e, fs := startedEngine(t)

	var mu sync.Mutex
	var seen []string
	e.AddObserver(func(oslog.Record) { panic("broken observer") })
	e.AddObserver(func(rec oslog.Record) {
		mu.Lock()
		seen = append(seen, rec.Message)
		mu.Unlock()
	})

	fs.lines <- sampleLine
	fs.lines <- errorLine
	waitBuffered(t, e, 2)

	e.Stop()
	assert.Equal(t, []string{"Build started", "request failed with timeout"}, seen)
}

func TestSourceValidation(t *testing.T) {
	tests := []struct {
		name   string
		mode   Mode
		params Params
		err    error
	}{
		{"app needs bundle id", ModeApp, Params{}, xcerrors.ErrInvalidMode},
		{"device needs udid", ModeDevice, Params{}, xcerrors.ErrInvalidMode},
		{"device-debug needs name", ModeDeviceDebug, Params{}, xcerrors.ErrInvalidMode},
		{"file needs path", ModeFile, Params{}, xcerrors.ErrInvalidFilePath},
		{"unknown mode", Mode("bogus"), Params{}, xcerrors.ErrInvalidMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := source(tt.mode, tt.params)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	src, err := source(ModeFile, Params{FilePath: "/var/log/build.log"})
	require.NoError(t, err)
	assert.Equal(t, "/var/log/build.log", src.Path)

	src, err = source(ModeBuild, Params{ProjectName: "MyApp"})
	require.NoError(t, err)
	assert.Contains(t, src.Argv, "stream")
}

func TestParseLineFiltersNoise(t *testing.T) {
	_, ok := parseLine("")
	assert.False(t, ok)
	_, ok = parseLine("Filtering the log data using ...")
	assert.False(t, ok)
	_, ok = parseLine("   ")
	assert.False(t, ok)

	rec, ok := parseLine(sampleLine)
	require.True(t, ok)
	assert.Equal(t, "Build started", rec.Message)
}
