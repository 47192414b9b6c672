package profile

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultSettle is how long the watcher waits after the last write before
// reloading, so a half-written file is not applied.
const DefaultSettle = 100 * time.Millisecond

// Watcher reloads a profile when its file changes. The directory is
// watched so that editors replacing the file by rename are noticed.
type Watcher struct {
	path     string
	settle   time.Duration
	clock    clock.Clock
	fs       *fsnotify.Watcher
	log      *zap.SugaredLogger
	onChange func(*Profile)
}

// NewWatcher starts watching path. onChange receives every profile that
// loads cleanly; invalid edits are logged and the previous profile stays.
// The settle delay runs on clk.
func NewWatcher(path string, clk clock.Clock, logger *zap.SugaredLogger, onChange func(*Profile)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("profile path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:     abs,
		settle:   DefaultSettle,
		clock:    clk,
		fs:       fw,
		log:      logger,
		onChange: onChange,
	}, nil
}

// Run delivers reloads until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	timer := w.clock.Timer(w.settle)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.log.Debugw("profile changed", "op", ev.Op.String())
			timer.Reset(w.settle)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Errorw("profile watch error", "error", err)
		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	p, err := Load(w.path)
	if err != nil {
		w.log.Warnw("profile reload rejected", "path", w.path, "error", err)
		return
	}
	w.log.Infow("profile reloaded", "path", w.path, "buttons", len(p.Mappings))
	w.onChange(p)
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
