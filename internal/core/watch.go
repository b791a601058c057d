package core

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/julien-sobczak/otlbook/internal/helpers"
)

// Delay to group the events of editors saving files in several steps
const watchDebounce = 200 * time.Millisecond

// Watch calls fn every time outline files are created, modified or removed until ctx is cancelled.
// fn receives the relative paths of the changed files.
func (c *Collection) Watch(ctx context.Context, fn func(changed []string) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := c.addDirsRecursive(w, c.Path); err != nil {
		return err
	}

	// Ignore writes not modifying the content
	hashes := make(map[string]string)
	if relpaths, err := c.Files(); err == nil {
		for _, relpath := range relpaths {
			if hash, err := helpers.HashFromFile(c.GetAbsolutePath(relpath)); err == nil {
				hashes[relpath] = hash
			}
		}
	}

	CurrentLogger().Infof("Watching %s...", c.Path)

	pending := make(map[string]bool)
	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case <-debounceCh:
			debounceCh = nil
			var changed []string
			for relpath := range pending {
				changed = append(changed, relpath)
			}
			pending = make(map[string]bool)
			if err := fn(changed); err != nil {
				return err
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			// Watch new directories
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := c.addDirsRecursive(w, ev.Name); err != nil {
						CurrentLogger().Warnf("Unable to watch %s: %v", ev.Name, err)
					}
					continue
				}
			}

			relpath, err := c.GetFileRelativePath(ev.Name)
			if err != nil || !c.config.ConfigFile.SupportExtension(relpath) || c.config.IgnoreFile.MustExcludeFile(relpath, false) {
				continue
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				hash, err := helpers.HashFromFile(ev.Name)
				if err != nil || hashes[relpath] == hash {
					continue
				}
				hashes[relpath] = hash
			} else if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				delete(hashes, relpath)
			} else {
				continue
			}

			CurrentLogger().Debugf("Detected change on %s (%s)", relpath, ev.Op)
			pending[relpath] = true
			if debounceTimer == nil {
				debounceTimer = time.NewTimer(watchDebounce)
			} else {
				debounceTimer.Reset(watchDebounce)
			}
			debounceCh = debounceTimer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			CurrentLogger().Warnf("Watcher error: %v", err)
		}
	}
}

// addDirsRecursive adds root and all its non-ignored subdirectories to the watcher.
func (c *Collection) addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != c.Path {
			relpath, err := c.GetFileRelativePath(path)
			if err != nil {
				return err
			}
			if c.config.IgnoreFile.MustExcludeFile(relpath, true) {
				return fs.SkipDir
			}
		}
		return w.Add(path)
	})
}
