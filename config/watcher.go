package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeEvent describes one successful hot-reload: the freshly loaded and
// validated config, and which watched file triggered it.
type ChangeEvent struct {
	Path   string
	Config *Config
	Time   time.Time
}

// Watcher wraps fsnotify over the single config file given to NewWatcher
// (a HotReloadConfig's WatchedFiles list is not consulted), re-loading and
// re-validating before swapping the active config behind a mutex-guarded
// pointer. Grounded on
// GoCodeAlone-workflow/config/watcher.go's directory-watch-plus-debounce
// shape (watching each file's containing directory catches atomic
// rename-over saves that a direct file watch would miss) and
// reloader.go's atomic-swap-after-validate pattern, narrowed here to a
// single mutex-guarded pointer instead of that repo's full module-diffing
// reconfigurer.
type Watcher struct {
	path     string
	sourceFn func(path string) ([]byte, error)
	opts     LoadOptions

	mu      sync.RWMutex
	current *Config

	fsWatcher *fsnotify.Watcher
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	onChange func(ChangeEvent)
	onError  func(error)

	validateBeforeReload bool
	debounce             time.Duration
}

// NewWatcher builds a Watcher for the config file at path, seeded with the
// already-loaded initial config. onChange, if non-nil, fires after every
// successful reload; onError, if non-nil, fires on any reload failure
// (including a failed read or a failed validation; every reload is
// validated, and validateBeforeReload adds one more Validate pass) without
// disturbing the currently active config.
func NewWatcher(path string, initial *Config, validateBeforeReload bool, onChange func(ChangeEvent), onError func(error)) *Watcher {
	return &Watcher{
		path:                 path,
		current:              initial,
		done:                 make(chan struct{}),
		onChange:             onChange,
		onError:              onError,
		validateBeforeReload: validateBeforeReload,
		debounce:             250 * time.Millisecond,
	}
}

// Current returns the most recently loaded config.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start begins watching the config file's containing directory.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: create fsnotify: %w", err)
	}
	w.fsWatcher = fsw

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("config watcher: watch %s: %w", dir, err)
	}

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop terminates the watcher and waits for its goroutine to exit. Safe to
// call more than once.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.done) })
	w.wg.Wait()
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var pending bool
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = true
			timer.Reset(w.debounce)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}

		case <-timer.C:
			if pending {
				pending = false
				w.reload()
			}
		}
	}
}

func (w *Watcher) reload() {
	raw, err := readFile(w.path)
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return
	}

	cfg, err := parse(raw, LoadOptions{})
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return
	}

	if w.validateBeforeReload {
		if err := cfg.Validate(); err != nil {
			if w.onError != nil {
				w.onError(err)
			}
			return
		}
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	if w.onChange != nil {
		w.onChange(ChangeEvent{Path: w.path, Config: cfg, Time: time.Now()})
	}
}
