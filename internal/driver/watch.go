package driver

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch invokes rebuild whenever one of the inputs changes, collapsing
// change bursts into a single call per debounce window. It returns when
// ctx is canceled or the watcher breaks.
func Watch(ctx context.Context, inputs []string, debounce time.Duration, rebuild func(changed string)) error {
	if len(inputs) == 0 {
		return fmt.Errorf("nothing to watch")
	}
	if rebuild == nil {
		return fmt.Errorf("missing rebuild callback")
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = w.Close()
	}()

	watched := make(map[string]struct{}, len(inputs))
	dirs := make(map[string]struct{})
	for _, input := range inputs {
		abs, err := filepath.Abs(input)
		if err != nil {
			return err
		}
		watched[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	// Watch directories, not files: editors replace files on save, which
	// would orphan a direct file watch.
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %q: %w", dir, err)
		}
	}

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending string
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, absErr := filepath.Abs(ev.Name)
			if absErr != nil {
				continue
			}
			if _, ok := watched[abs]; !ok {
				continue
			}
			pending = abs
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}
		case <-timerC:
			rebuild(pending)
			timer = nil
			timerC = nil
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return werr
		}
	}
}
