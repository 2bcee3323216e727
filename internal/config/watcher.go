// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events editors emit per save.
const watchDebounce = 500 * time.Millisecond

// Watch reloads the configuration whenever its file changes, invoking
// onChange with each successfully reloaded config. Reload failures are
// logged and the previous configuration stays in effect. Returns after
// installing the watcher; watching stops when ctx is done.
func Watch(ctx context.Context, dir string, onChange func(*Config)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return err
	}

	go func() {
		defer fsw.Close()

		var timer *time.Timer
		var timerC <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if !isConfigFile(ev.Name) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
					timerC = timer.C
				} else {
					timer.Reset(watchDebounce)
				}

			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				log.Printf("config: watch error: %v", err)

			case <-timerC:
				timer = nil
				timerC = nil
				cfg, err := LoadFrom(dir)
				if err != nil {
					log.Printf("config: reload failed, keeping previous: %v", err)
					continue
				}
				onChange(cfg)
			}
		}
	}()

	return nil
}

// isConfigFile reports whether a watched event concerns a config file.
func isConfigFile(path string) bool {
	base := filepath.Base(path)
	return base == "config.toml" || base == "config.json"
}
