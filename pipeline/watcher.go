// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/g3d/internal/logging"
)

// Watcher reloads a WGSL file into a Builder whenever it changes on disk.
// The directory is watched rather than the file so that editors which
// save by renaming a temporary file are picked up.
type Watcher struct {
	path    string
	builder *Builder
	w       *fsnotify.Watcher

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// WatchShader loads path into b and starts watching it.
func WatchShader(b *Builder, path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: watch %s: %w", path, err)
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("pipeline: watch %s: %w", path, err)
	}
	b.SetSource(string(src))

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("pipeline: watch %s: %w", path, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("pipeline: watch %s: %w", path, err)
	}

	w := &Watcher{
		path:    abs,
		builder: b,
		w:       fw,
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.reload()
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			logging.Logger().Warn("shader watcher error", "path", w.path, "err", err)
		}
	}
}

func (w *Watcher) reload() {
	src, err := os.ReadFile(w.path)
	if err != nil {
		logging.Logger().Warn("shader reload failed", "path", w.path, "err", err)
		return
	}
	if len(src) == 0 {
		// Truncated mid-save; the following write event carries the content.
		return
	}
	w.builder.SetSource(string(src))
	logging.Logger().Info("shader reloaded", "path", w.path, "dirty", w.builder.Dirty())
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.w.Close()
		w.wg.Wait()
	})
	return err
}
