package extension

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce is how long the watcher waits after the last change to an
// extension directory before instantiating it.
const WatchDebounce = 250 * time.Millisecond

// Watch instantiates extension directories that appear in the managed
// directory after startup. Results are sent on the returned channel, which
// is closed when ctx is done. Results are dropped if the channel is full.
func (m *Manager) Watch(ctx context.Context) (<-chan LoadResult, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(m.dir); err != nil {
		watcher.Close()
		return nil, err
	}

	// Existing extension directories, so manifest rewrites are noticed.
	if paths, err := m.ListInstalled(); err == nil {
		for _, p := range paths {
			_ = watcher.Add(p)
		}
	}

	results := make(chan LoadResult, 32)

	go func() {
		var (
			mu      sync.Mutex
			timers  = make(map[string]*time.Timer)
			pending sync.WaitGroup
			done    bool
		)

		defer func() {
			mu.Lock()
			done = true
			for dir, t := range timers {
				if t.Stop() {
					pending.Done()
				}
				delete(timers, dir)
			}
			mu.Unlock()
			pending.Wait()
			watcher.Close()
			close(results)
		}()

		schedule := func(dir string) {
			mu.Lock()
			defer mu.Unlock()
			if done {
				return
			}
			if t, ok := timers[dir]; ok {
				if !t.Stop() {
					// Already fired; its goroutine owns the pending slot.
					pending.Add(1)
				}
			} else {
				pending.Add(1)
			}
			var t *time.Timer
			t = time.AfterFunc(WatchDebounce, func() {
				defer pending.Done()
				mu.Lock()
				if timers[dir] == t {
					delete(timers, dir)
				}
				stopped := done
				mu.Unlock()
				if stopped {
					return
				}

				_, res := m.instantiate(ctx, dir)
				if res.Err != nil {
					m.logger.Error("failed to load watched extension", "path", dir, "err", res.Err)
				}
				select {
				case results <- res:
				default:
					// Channel full, drop result
				}
			})
			timers[dir] = t
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if dir, ok := m.extensionDirFor(event); ok {
					if event.Op&fsnotify.Create != 0 && filepath.Dir(event.Name) == m.dir {
						_ = watcher.Add(dir)
					}
					schedule(dir)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				m.logger.Warn("extensions watcher error", "err", err)
			}
		}
	}()

	return results, nil
}

// extensionDirFor maps a filesystem event to the extension directory it
// concerns: a new directory in the managed root, or a manifest change
// inside one.
func (m *Manager) extensionDirFor(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return "", false
	}

	parent := filepath.Dir(event.Name)
	switch {
	case parent == m.dir:
		if strings.HasPrefix(filepath.Base(event.Name), ".") {
			return "", false
		}
		info, err := os.Stat(event.Name)
		if err != nil || !info.IsDir() {
			return "", false
		}
		return event.Name, true

	case filepath.Dir(parent) == m.dir && filepath.Base(event.Name) == ManifestFile:
		if strings.HasPrefix(filepath.Base(parent), ".") {
			return "", false
		}
		return parent, true
	}
	return "", false
}
