// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/monobar/playd/internal/log"
)

// Holder provides thread-safe access to the configuration and hot reloads
// it when the config file changes on disk.
type Holder struct {
	mu         sync.RWMutex
	current    Config
	configPath string
	watcher    *fsnotify.Watcher
	logger     zerolog.Logger

	reloadMu  sync.RWMutex
	listeners []func(Config)
}

// NewHolder wraps an already-loaded configuration.
func NewHolder(initial Config, configPath string) *Holder {
	return &Holder{
		current:    initial,
		configPath: configPath,
		logger:     log.WithComponent("config"),
	}
}

// Get returns the current configuration.
func (h *Holder) Get() Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Subscribe registers a callback invoked after every successful reload.
func (h *Holder) Subscribe(fn func(Config)) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Reload re-reads the config file and swaps the configuration atomically.
// A config that fails validation is discarded and the old one kept.
func (h *Holder) Reload(_ context.Context) error {
	newCfg, err := Load(h.configPath)
	if err != nil {
		h.logger.Error().Err(err).Str("event", "config.reload_failed").Msg("config reload rejected")
		return err
	}

	h.mu.Lock()
	h.current = newCfg
	h.mu.Unlock()

	h.reloadMu.RLock()
	listeners := h.listeners
	h.reloadMu.RUnlock()
	for _, fn := range listeners {
		fn(newCfg)
	}

	h.logger.Info().Str("event", "config.reload_success").Msg("configuration reloaded")
	return nil
}

// StartWatcher watches the config file and reloads on change. A no-op when
// no config file is in use.
func (h *Holder) StartWatcher(ctx context.Context) error {
	if h.configPath == "" {
		h.logger.Info().Str("event", "config.watcher_disabled").Msg("no config file, watcher disabled")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(h.configPath); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config file: %w", err)
	}
	h.watcher = watcher

	h.logger.Info().
		Str("event", "config.watcher_started").
		Str("path", h.configPath).
		Msg("watching config file")

	go h.watchLoop(ctx)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context) {
	// Editors produce bursts of writes; debounce them into one reload.
	var debounce *time.Timer
	const debounceDelay = 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			_ = h.watcher.Close()
			return

		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDelay, func() {
					if err := h.Reload(ctx); err != nil {
						h.logger.Error().Err(err).Str("event", "config.auto_reload_failed").Msg("automatic reload failed")
					}
				})
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Str("event", "config.watcher_error").Msg("config watcher error")
		}
	}
}
