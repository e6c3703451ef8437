package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"blogpress/internal/logfields"
)

// ContentWatcher monitors the content directory and fires a callback after a
// quiet period, so a burst of editor saves causes one rebuild rather than many.
type ContentWatcher struct {
	contentDir string
	watcher    *fsnotify.Watcher
	debounce   time.Duration
	onChange   func()
	stopChan   chan struct{}
}

// NewContentWatcher creates a watcher over contentDir and its subdirectories.
func NewContentWatcher(contentDir string, debounce time.Duration, onChange func()) (*ContentWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	cw := &ContentWatcher{
		contentDir: contentDir,
		watcher:    watcher,
		debounce:   debounce,
		onChange:   onChange,
		stopChan:   make(chan struct{}),
	}

	if err := cw.addRecursive(contentDir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	return cw, nil
}

// addRecursive registers contentDir and all non-hidden subdirectories.
// fsnotify watches are not recursive on their own.
func (cw *ContentWatcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		if err := cw.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Start begins watching. Events are debounced before onChange fires.
func (cw *ContentWatcher) Start(ctx context.Context) {
	slog.Info("Watching content directory", logfields.Path(cw.contentDir))
	go cw.watchLoop(ctx)
}

// Stop terminates the watcher.
func (cw *ContentWatcher) Stop() {
	close(cw.stopChan)
	_ = cw.watcher.Close()
}

func (cw *ContentWatcher) watchLoop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if !cw.relevant(event) {
				continue
			}
			slog.Debug("Content change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))

			// New directories must be added to the watch set.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = cw.addRecursive(event.Name)
				}
			}

			if timer == nil {
				timer = time.NewTimer(cw.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(cw.debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			cw.onChange()
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Content watcher error", logfields.Error(err))
		}
	}
}

// relevant filters out noise: hidden files (git internals, editor temp files)
// and pure chmod events.
func (cw *ContentWatcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	return !strings.HasPrefix(base, ".")
}
