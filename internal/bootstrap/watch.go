package bootstrap

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/eleven-am/voicenotes/internal/transcription"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/fx"
)

// ConfigWatcher reloads the filler phrases from the config file whenever it
// changes. Every other setting needs a restart.
type ConfigWatcher struct {
	path       string
	classifier *transcription.Classifier
	logger     *slog.Logger

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewConfigWatcher(path string, classifier *transcription.Classifier, logger *slog.Logger) *ConfigWatcher {
	return &ConfigWatcher{
		path:       path,
		classifier: classifier,
		logger:     logger.With("component", "config_watcher", "path", path),
	}
}

func ProvideConfigWatcher(cfg *Config, classifier *transcription.Classifier, logger *slog.Logger) *ConfigWatcher {
	return NewConfigWatcher(cfg.ConfigFile, classifier, logger)
}

func (w *ConfigWatcher) Start() error {
	if w.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return err
	}
	w.watcher = watcher

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)
	go w.loop(ctx)

	w.logger.Info("watching config file for filler phrase changes")
	return nil
}

func (w *ConfigWatcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	if w.watcher != nil {
		w.watcher.Close()
	}
	w.wg.Wait()
}

func (w *ConfigWatcher) loop(ctx context.Context) {
	defer w.wg.Done()
	name := filepath.Base(w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.Reload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)

		case <-ctx.Done():
			return
		}
	}
}

// Reload re-reads the file and swaps in its phrases. A file that fails to
// parse leaves the current phrases in place.
func (w *ConfigWatcher) Reload() {
	file, err := LoadFile(w.path)
	if err != nil {
		w.logger.Warn("failed to reload config", "error", err)
		return
	}

	phrases := file.Filler.Phrases
	if phrases == nil {
		phrases = transcription.DefaultFillerPhrases
	}
	w.classifier.SetPhrases(phrases)
	w.logger.Info("filler phrases reloaded", "count", w.classifier.Phrases())
}

func StartConfigWatcher(lc fx.Lifecycle, w *ConfigWatcher) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return w.Start()
		},
		OnStop: func(context.Context) error {
			w.Stop()
			return nil
		},
	})
}
