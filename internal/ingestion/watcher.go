package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// ReloadFunc receives the outcome of a reload triggered by Watch. On
// failure snap is nil and the caller should keep its previous index.
type ReloadFunc func(snap *Snapshot, err error)

// Watch monitors the ontology at path and reloads it whenever its documents
// change. Changes are batched until they settle for the loader's debounce
// interval, and reloads whose content fingerprint equals previous are
// skipped. Blocks until the context is cancelled.
func (l *Loader) Watch(ctx context.Context, path, previous string, onReload ReloadFunc) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	root := path
	var matcher gitignore.Matcher
	if info.IsDir() {
		patterns, err := loadGitignore(root)
		if err != nil {
			l.logger.Warn("ignoring unreadable .gitignore", "path", root, "err", err)
		}
		matcher = newMatcher(patterns)
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if p != root && shouldSkipDir(d.Name(), p, root, matcher) {
				return filepath.SkipDir
			}
			return watcher.Add(p)
		})
		if err != nil {
			return fmt.Errorf("setting up watcher: %w", err)
		}
	} else {
		// Editors often replace files on save, so watch the directory.
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			return fmt.Errorf("setting up watcher: %w", err)
		}
	}

	batchTimer := time.NewTimer(l.debounce)
	batchTimer.Stop()
	pending := false

	l.logger.Info("watching ontology for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if info.IsDir() && event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if !shouldSkipDir(fi.Name(), event.Name, root, matcher) {
						_ = watcher.Add(event.Name)
					}
					continue
				}
			}
			if !l.relevant(event, path, info.IsDir(), matcher) {
				continue
			}
			pending = true
			batchTimer.Reset(l.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("watch error", "err", err)

		case <-batchTimer.C:
			if !pending {
				continue
			}
			pending = false

			snap, err := l.LoadSnapshot(path)
			if err != nil {
				l.logger.Error("reload failed, keeping previous ontology", "path", path, "err", err)
				onReload(nil, err)
				continue
			}
			if snap.Fingerprint == previous {
				l.logger.Debug("ontology unchanged", "path", path)
				continue
			}
			previous = snap.Fingerprint
			onReload(snap, nil)
		}
	}
}

// relevant reports whether an event touches the watched ontology.
func (l *Loader) relevant(event fsnotify.Event, path string, isDir bool, matcher gitignore.Matcher) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if !isDir {
		return filepath.Clean(event.Name) == filepath.Clean(path)
	}

	relPath, err := filepath.Rel(path, event.Name)
	if err != nil {
		return false
	}
	if matcher != nil && matcher.Match(splitPath(relPath), false) {
		return false
	}
	if isOntologyFile(event.Name) {
		return true
	}
	// A removed or renamed directory may have held documents.
	return event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
