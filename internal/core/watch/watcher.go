// Package watch re-runs an analysis when the tool reports it reads change.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/aravindramcb/water-models/internal/util"
	"github.com/fsnotify/fsnotify"
)

// FileEvent is a change to a watched report.
type FileEvent struct {
	Path      string
	Operation string
}

type FileWatcher struct {
	watcher  *fsnotify.Watcher
	patterns []string
	events   chan FileEvent
	done     chan struct{}
	once     sync.Once
}

// NewFileWatcher watches every directory below paths. Only files whose base
// name matches one of patterns are reported; no patterns reports everything.
func NewFileWatcher(paths []string, patterns []string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher:  watcher,
		patterns: patterns,
		events:   make(chan FileEvent, 100),
		done:     make(chan struct{}),
	}

	for _, path := range paths {
		if err := fw.addPath(path); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	go fw.processEvents()

	return fw, nil
}

func (fw *FileWatcher) addPath(path string) error {
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return fw.watcher.Add(p)
		}
		return nil
	})
}

func (fw *FileWatcher) match(name string) bool {
	if len(fw.patterns) == 0 {
		return true
	}
	base := filepath.Base(name)
	for _, p := range fw.patterns {
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}

func (fw *FileWatcher) processEvents() {
	defer close(fw.events)

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// new result directories appear while a run is in progress
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.addPath(event.Name); err != nil {
						util.LogWarnf("Failed to watch %s: %v", event.Name, err)
					}
					continue
				}
			}

			if !fw.match(event.Name) {
				continue
			}
			select {
			case fw.events <- FileEvent{Path: event.Name, Operation: event.Op.String()}:
			case <-fw.done:
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("File monitoring error: " + err.Error())

		case <-fw.done:
			return
		}
	}
}

func (fw *FileWatcher) Events() <-chan FileEvent {
	return fw.events
}

func (fw *FileWatcher) Close() error {
	var err error
	fw.once.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
	})
	return err
}

// Run calls fn once, then again each time the watched reports have been quiet
// for debounce after a change. fn receives the changed paths, sorted; the first
// call receives none. Errors from fn are logged and watching continues. Run
// returns when ctx is done or the watcher is closed.
func Run(ctx context.Context, fw *FileWatcher, debounce time.Duration, fn func(ctx context.Context, changed []string) error) error {
	if err := fn(ctx, nil); err != nil {
		util.LogErrorf("Analysis failed: %v", err)
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()

		case ev, ok := <-fw.Events():
			if !ok {
				return nil
			}
			util.LogDebugf("Report changed: %s (%s)", ev.Path, ev.Operation)
			pending[ev.Path] = true
			timer.Reset(debounce)

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = make(map[string]bool)

			util.LogInfo("Re-running analysis", util.F("changed", len(changed)))
			if err := fn(ctx, changed); err != nil {
				util.LogErrorf("Analysis failed: %v", err)
			}
		}
	}
}
