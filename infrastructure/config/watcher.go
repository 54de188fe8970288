package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Overrides represents runtime-changeable configuration, loaded from a
// YAML file and hot reloaded on change. Only knobs that are safe to flip
// without a restart live here.
type Overrides struct {
	Limits   OverrideLimits   `yaml:"limits"`
	Features OverrideFeatures `yaml:"features"`
}

// OverrideLimits holds runtime-adjustable limits
type OverrideLimits struct {
	MaxHistory       int `yaml:"maxHistory"`
	MaxSlidesPerDeck int `yaml:"maxSlidesPerDeck"`
}

// OverrideFeatures holds runtime feature flags
type OverrideFeatures struct {
	HistoryPersistence bool `yaml:"historyPersistence"`
}

// OverridesWatcher watches the overrides file for changes
type OverridesWatcher struct {
	path        string
	watcher     *fsnotify.Watcher
	current     *Overrides
	mu          sync.RWMutex
	onChange    []func(*Overrides)
	logger      *zap.Logger
	stopCh      chan struct{}
	lastModTime time.Time
}

// NewOverridesWatcher creates a watcher for the given overrides file. The
// file is loaded immediately; a missing file is not an error, it simply
// yields empty overrides until one appears.
func NewOverridesWatcher(path string, logger *zap.Logger) (*OverridesWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &OverridesWatcher{
		path:    path,
		watcher: watcher,
		current: &Overrides{},
		logger:  logger,
		stopCh:  make(chan struct{}),
	}

	if err := w.load(); err != nil {
		logger.Warn("failed to load overrides file, starting with defaults",
			zap.String("path", path),
			zap.Error(err),
		)
	}

	// Watch the directory: editors replace files atomically, which drops
	// the watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	go w.run()
	return w, nil
}

// Current returns the most recently loaded overrides
func (w *OverridesWatcher) Current() *Overrides {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after each successful reload
func (w *OverridesWatcher) OnChange(fn func(*Overrides)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Stop terminates the watcher
func (w *OverridesWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
}

func (w *OverridesWatcher) run() {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := w.load(); err != nil {
				w.logger.Error("failed to reload overrides",
					zap.String("path", w.path),
					zap.Error(err),
				)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("overrides watcher error", zap.Error(err))
		}
	}
}

func (w *OverridesWatcher) load() error {
	info, err := os.Stat(w.path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if !info.ModTime().After(w.lastModTime) {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	data, err := os.ReadFile(w.path)
	if err != nil {
		return err
	}

	overrides := &Overrides{}
	if err := yaml.Unmarshal(data, overrides); err != nil {
		return err
	}

	w.mu.Lock()
	w.current = overrides
	w.lastModTime = info.ModTime()
	callbacks := make([]func(*Overrides), len(w.onChange))
	copy(callbacks, w.onChange)
	w.mu.Unlock()

	w.logger.Info("overrides reloaded", zap.String("path", w.path))
	for _, fn := range callbacks {
		fn(overrides)
	}
	return nil
}
