package scope

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"plantkeeper/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// SessionWatcher applies external sign-in/out (changes to the session file)
// to a Resolver while the process runs.
type SessionWatcher struct {
	file     SessionFile
	resolver *Resolver
	watcher  *fsnotify.Watcher
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// WatchSessionFile starts watching path. The parent directory is watched so
// that atomic replace (write temp + rename) and removal are both observed.
func WatchSessionFile(path string, r *Resolver) (*SessionWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve session path: %w", err)
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	sw := &SessionWatcher{
		file:     SessionFile{Path: abs},
		resolver: r,
		watcher:  w,
		done:     make(chan struct{}),
	}
	sw.wg.Add(1)
	go sw.loop()
	logging.Scope("watching session file %s", abs)
	return sw, nil
}

func (sw *SessionWatcher) loop() {
	defer sw.wg.Done()
	for {
		select {
		case <-sw.done:
			return
		case ev, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != sw.file.Path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				sw.apply()
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			logging.ScopeWarn("session watcher error: %v", err)
		}
	}
}

func (sw *SessionWatcher) apply() {
	s, err := sw.file.Load()
	if err != nil {
		// Partially written file; the next event carries the complete one.
		logging.Get(logging.CategoryScope).Debug("session file not readable yet: %v", err)
		return
	}
	if s == nil {
		sw.resolver.ClearSession()
		return
	}
	sw.resolver.SetSession(s)
}

// Close stops watching and waits for the event loop to exit.
func (sw *SessionWatcher) Close() error {
	var err error
	sw.once.Do(func() {
		close(sw.done)
		err = sw.watcher.Close()
		sw.wg.Wait()
	})
	return err
}
