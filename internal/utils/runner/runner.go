// Package runner executes external tools with bounded lifetimes. Every
// collaborator the engine shells out to (log, xcrun, xcodebuild, mdfind,
// system_profiler) goes through a Runner so tests can substitute canned
// output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	xcerrors "github.com/xcwatch/xcwatch/pkg/errors"
)

// Runner runs a command line to completion and returns its output.
type Runner interface {
	// Output returns stdout. A non-zero exit, missing binary, or context
	// timeout is returned as an error; stderr is discarded.
	Output(ctx context.Context, argv []string) (string, error)
	// Combined returns interleaved stdout+stderr. Build tools report
	// diagnostics on both streams, so callers that classify output use
	// Combined.
	Combined(ctx context.Context, argv []string) (string, error)
}

// Exec is the real Runner backed by os/exec.
type Exec struct{}

func (Exec) Output(ctx context.Context, argv []string) (string, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.Output()
	return string(out), wrapExecErr(ctx, argv[0], err)
}

func (Exec) Combined(ctx context.Context, argv []string) (string, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	// Combined output stays useful even on a non-zero exit: a failed build
	// is exactly when the output carries diagnostics.
	return buf.String(), wrapExecErr(ctx, argv[0], err)
}

func wrapExecErr(ctx context.Context, tool string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return xcerrors.NewTimeoutError(tool)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return xcerrors.ErrToolNotFound
	}
	return xcerrors.NewToolError(tool, err)
}

// WithTimeout derives a context bounded by d, or returns ctx unchanged when
// d is zero.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
