package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the write bursts editors produce when saving.
const watchDebounce = 250 * time.Millisecond

// Watch reloads path whenever it changes and hands each valid result to
// onChange. Invalid or unreadable files are logged and skipped, keeping
// the previous config in effect. Watch blocks until ctx ends.
//
// The parent directory is watched rather than the file itself, so
// rename-and-replace saves keep working.
func Watch(ctx context.Context, path string, log *slog.Logger, onChange func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(path)
	log.Info("watching config", "path", target)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				fire = timer.C
			} else {
				timer.Reset(watchDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error("config watch error", "error", err)
		case <-fire:
			timer = nil
			fire = nil
			cfg, err := Load(target)
			if err != nil {
				log.Warn("ignoring config change", "error", err)
				continue
			}
			log.Info("config reloaded", "path", target)
			onChange(cfg)
		}
	}
}
