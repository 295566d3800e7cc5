package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"rvcheck/internal/driver"
)

const watchDebounce = 150 * time.Millisecond

// watchAndCheck checks opts.target once and again after every relevant
// change until ctx is cancelled.
func watchAndCheck(ctx context.Context, out, errOut io.Writer, opts checkOptions) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	target := filepath.Clean(opts.target)
	isDir := false
	if st, err := os.Stat(target); err == nil && st.IsDir() {
		isDir = true
		if err := addTree(w, target); err != nil {
			return fmt.Errorf("watch: %w", err)
		}
	} else if err := w.Add(filepath.Dir(target)); err != nil {
		// редакторы сохраняют через rename, поэтому следим за каталогом
		return fmt.Errorf("watch: %w", err)
	}

	if _, err := checkOnce(ctx, out, errOut, opts); err != nil {
		return err
	}

	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()
	changed := make(map[string]struct{})
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if isDir && ev.Op&fsnotify.Create != 0 {
				if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
					_ = addTree(w, ev.Name)
				}
			}
			if !relevantChange(ev, target, isDir) {
				continue
			}
			changed[ev.Name] = struct{}{}
			debounce.Reset(watchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(errOut, "watch: %v\n", err)
		case <-debounce.C:
			if !opts.quiet {
				fmt.Fprintf(errOut, "--- changed: %s ---\n", strings.Join(sortedPaths(changed), ", "))
			}
			clear(changed)
			if _, err := checkOnce(ctx, out, errOut, opts); err != nil {
				return err
			}
		}
	}
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

// relevantChange filters watcher events down to the checked documents.
func relevantChange(ev fsnotify.Event, target string, isDir bool) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	if isDir {
		return strings.HasSuffix(ev.Name, driver.HIRSuffix)
	}
	return filepath.Clean(ev.Name) == target
}

func sortedPaths(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}
