// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce collapses the burst of events editors emit on save.
var WatchDebounce = 150 * time.Millisecond

// ReloadFunc receives each reloaded config, or the error that prevented it.
type ReloadFunc func(cfg *Config, err error)

// Watch reloads path whenever it changes and hands the result to fn until ctx
// is done. The parent directory is watched so rename-on-save editors are
// picked up. fn runs on the watcher goroutine.
func Watch(ctx context.Context, path string, fn ReloadFunc) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if debounce == nil {
					debounce = time.NewTimer(WatchDebounce)
				} else {
					debounce.Reset(WatchDebounce)
				}
				fire = debounce.C

			case <-fire:
				fire = nil
				cfg, err := LoadFromPath(abs)
				fn(cfg, err)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fn(nil, fmt.Errorf("watch config: %w", err))
			}
		}
	}()
	return nil
}
