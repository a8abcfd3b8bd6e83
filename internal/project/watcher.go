package project

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/xcwatch/xcwatch/internal/diag"
	"github.com/xcwatch/xcwatch/internal/utils/logger"
)

// settleDelay gives Xcode time to finish writing an activity log before it
// is read. The file appears before the final flush.
const settleDelay = 500 * time.Millisecond

// BuildWatcher reacts to new archived build logs. Each completed Xcode
// build drops an .xcactivitylog into the project's Logs/Build directory;
// the watcher extracts and classifies it, then hands the result to the
// callback.
type BuildWatcher struct {
	archive   *Archive
	extractor *diag.Extractor
	callback  func(diag.BuildResult)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewBuildWatcher builds a watcher that reports through cb.
func NewBuildWatcher(archive *Archive, extractor *diag.Extractor, cb func(diag.BuildResult)) *BuildWatcher {
	return &BuildWatcher{archive: archive, extractor: extractor, callback: cb}
}

// Start begins watching the Logs/Build directories of the most recent
// projects. Calling Start on a running watcher is a no-op.
func (w *BuildWatcher) Start(ctx context.Context, projectLimit int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	log := logger.Get(ctx)
	watched := 0
	for _, dir := range w.archive.locator.RecentProjects(projectLimit) {
		buildDir := w.archive.BuildLogDir(dir)
		if _, statErr := os.Stat(buildDir); statErr != nil {
			continue
		}
		if addErr := watcher.Add(buildDir); addErr != nil {
			log.Warnf("cannot watch %s: %v", buildDir, addErr)
			continue
		}
		watched++
	}
	log.Infof("watching %d build log directories", watched)

	w.watcher = watcher
	w.done = make(chan struct{})
	go w.loop(ctx, watcher, w.done)
	return nil
}

// Stop tears the watcher down. Safe to call on a stopped watcher.
func (w *BuildWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return
	}
	_ = w.watcher.Close()
	<-w.done
	w.watcher = nil
	w.done = nil
}

func (w *BuildWatcher) loop(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	log := logger.Get(ctx)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) || filepath.Ext(event.Name) != ".xcactivitylog" {
				continue
			}
			time.Sleep(settleDelay)
			w.report(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("build watcher error: %v", err)
		case <-ctx.Done():
			return
		}
	}
}

func (w *BuildWatcher) report(ctx context.Context, path string) {
	log := logger.Get(ctx)

	text, err := w.archive.ExtractText(ctx, path)
	if err != nil {
		log.Warnf("cannot extract %s: %v", path, err)
		return
	}

	buildTime := time.Now()
	if info, statErr := os.Stat(path); statErr == nil {
		buildTime = info.ModTime()
	}

	result := w.extractor.ParseLogContent(text, path, buildTime)
	log.Infof("build completed for %s: success=%v diagnostics=%d",
		result.ProjectName, result.Success, len(result.Diagnostics))
	if w.callback != nil {
		w.callback(result)
	}
}
