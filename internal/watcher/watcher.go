// Package watcher rebuilds content indexes after out-of-band filesystem
// changes.
//
// The index is a derived cache of the data directories; anything that swaps
// the working tree under it (most commonly a git branch checkout) leaves the
// two out of sync. The watcher observes .git/HEAD and each content type's
// data directory and schedules RebuildIndex for the affected types, debounced
// and rate-limited so a checkout touching hundreds of files causes one
// rebuild.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/rogermparent/content-engine/internal/content"
)

// debounce is how long the watcher waits after the last event before
// rebuilding, coalescing event bursts.
const debounce = 500 * time.Millisecond

// Watcher schedules index rebuilds for a set of content types.
type Watcher struct {
	engine  *content.Engine
	types   []*content.Config
	limiter *rate.Limiter
}

// New creates a watcher over the engine's content types. minInterval is the
// minimum spacing between rebuild rounds.
func New(engine *content.Engine, types []*content.Config, minInterval time.Duration) *Watcher {
	if minInterval <= 0 {
		minInterval = 2 * time.Second
	}
	return &Watcher{
		engine:  engine,
		types:   types,
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

// Run watches until ctx is canceled. It returns the context's error on
// cancellation, or the watch setup error.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = fsw.Close()
	}()

	contentDir := w.engine.ContentDir()
	if gitDir := filepath.Join(contentDir, ".git"); dirExists(gitDir) {
		// HEAD is rewritten on checkout; watching the .git directory catches
		// the rename-over fsnotify would miss on the file itself.
		if err := fsw.Add(gitDir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", gitDir, err)
		}
	}
	for _, cfg := range w.types {
		dir := filepath.Join(contentDir, cfg.DataDirectory)
		if !dirExists(dir) {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	dirty := make(map[*content.Config]bool)
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.mark(dirty, event.Name)
			if len(dirty) > 0 {
				timer.Reset(debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)
		case <-timer.C:
			if err := w.limiter.Wait(ctx); err != nil {
				return err
			}
			w.rebuild(ctx, dirty)
		}
	}
}

// mark flags the content types affected by a change at path. A change inside
// .git (e.g. HEAD moving on checkout) affects every type.
func (w *Watcher) mark(dirty map[*content.Config]bool, path string) {
	contentDir := w.engine.ContentDir()
	if strings.HasPrefix(path, filepath.Join(contentDir, ".git")) {
		if filepath.Base(path) != "HEAD" {
			return
		}
		for _, cfg := range w.types {
			dirty[cfg] = true
		}
		return
	}
	for _, cfg := range w.types {
		if strings.HasPrefix(path, filepath.Join(contentDir, cfg.DataDirectory)) {
			dirty[cfg] = true
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context, dirty map[*content.Config]bool) {
	for cfg := range dirty {
		delete(dirty, cfg)
		itemErrs, err := w.engine.RebuildIndex(ctx, cfg)
		if err != nil {
			slog.Error("index rebuild failed", "type", cfg.ContentType, "error", err)
			continue
		}
		slog.Info("index rebuilt", "type", cfg.ContentType, "itemErrors", len(itemErrs))
	}
}

func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
