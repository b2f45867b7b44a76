// Package watch notifies on external rewrites of a document file.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// Watch blocks and runs fn every time the file at path is rewritten.
// Changes arriving closer together than every collapse into one call. The
// parent directory is watched rather than the file itself so writers that
// replace the file are seen too. Watch returns ctx.Err() once ctx is
// canceled.
func Watch(ctx context.Context, path string, every time.Duration, fn func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	name := filepath.Base(abs)
	lim := rate.NewLimiter(rate.Every(every), 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if lim.Allow() {
				fn()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "Error watching document", "err", err)
		}
	}
}
