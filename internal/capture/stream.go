package capture

import (
	"bufio"
	"context"
	"io"
	"os/exec"

	"github.com/nxadm/tail"

	"github.com/xcwatch/xcwatch/internal/utils/logger"
	xcerrors "github.com/xcwatch/xcwatch/pkg/errors"
)

// Streamer produces a line channel for the engine to consume. The channel
// closes when the source ends or the context is cancelled.
type Streamer interface {
	Stream(ctx context.Context, src Source) (<-chan string, error)
}

// Source names what a capture session reads: a subprocess argv or a file
// path to follow.
type Source struct {
	Argv []string
	Path string
}

// ExecStreamer spawns the argv and streams its stdout line by line.
// Cancelling the context kills the subprocess; collected lines stay valid.
type ExecStreamer struct{}

// maxLineSize caps a single log line. os_log messages can carry large
// payloads, but anything past this is truncated noise.
const maxLineSize = 1024 * 1024

func (ExecStreamer) Stream(ctx context.Context, src Source) (<-chan string, error) {
	if src.Path != "" {
		return tailFile(ctx, src.Path)
	}

	cmd := exec.CommandContext(ctx, src.Argv[0], src.Argv[1:]...)
	cmd.Stderr = io.Discard
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, xcerrors.NewToolError(src.Argv[0], err)
	}
	if err := cmd.Start(); err != nil {
		return nil, xcerrors.NewToolError(src.Argv[0], err)
	}

	lines := make(chan string, 256)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), maxLineSize)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				_ = cmd.Wait()
				return
			}
		}
		// The stream ends when the process exits or the context kills it;
		// either way the exit status is irrelevant here.
		_ = cmd.Wait()
	}()
	return lines, nil
}

// tailFile follows a log file the way the subprocess stream follows stdout,
// surviving rotation and falling back to polling when inotify fails.
func tailFile(ctx context.Context, path string) (<-chan string, error) {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Poll:      true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, xcerrors.NewToolError("tail", err)
	}

	lines := make(chan string, 256)
	go func() {
		defer close(lines)
		defer func() { _ = t.Stop() }()
		for {
			select {
			case line, ok := <-t.Lines:
				if !ok {
					return
				}
				if line.Err != nil {
					logger.Get(ctx).Warnf("error reading %s: %v", path, line.Err)
					continue
				}
				select {
				case lines <- line.Text:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines, nil
}
