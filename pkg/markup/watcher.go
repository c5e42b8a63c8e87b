package markup

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates cached templates when their folders change on
// disk, so edits show up without a restart.
type Watcher struct {
	cache    *Cache
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewWatcher watches folders and invalidates cache entries for
// templates that change. Events are debounced; editors tend to emit
// several events per save. A non-positive debounce defaults to 50ms.
func NewWatcher(cache *Cache, folders []string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, folder := range folders {
		if err := fw.Add(folder); err != nil {
			fw.Close()
			return nil, err
		}
	}
	if debounce <= 0 {
		debounce = 50 * time.Millisecond
	}
	w := &Watcher{
		cache:    cache,
		watcher:  fw,
		debounce: debounce,
		logger:   slog.Default().With("component", "markup"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)

	timer := time.NewTimer(0)
	<-timer.C
	pending := make(map[string]struct{})

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name, ok := templateName(event.Name)
			if !ok {
				continue
			}
			pending[name] = struct{}{}
			timer.Reset(w.debounce)

		case <-timer.C:
			for name := range pending {
				n := w.cache.Invalidate(name)
				w.logger.Info("template changed", "name", name, "invalidated", n)
			}
			pending = make(map[string]struct{})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("template watch error", "error", err)
		}
	}
}

// templateName maps a changed file back to its logical template name,
// stripping the folder and any style or locale suffixes.
func templateName(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".html") {
		return "", false
	}
	name, _, _ := strings.Cut(base, ".")
	if name == "" {
		return "", false
	}
	return name, true
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	close(w.stop)
	err := w.watcher.Close()
	<-w.done
	return err
}
