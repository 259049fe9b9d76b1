// SPDX-License-Identifier: MIT

// playd is the playback coordination daemon: it owns the playback session,
// drives the decoder lifecycle, reports status telemetry and advances
// series playback to the next episode.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/monobar/playd/internal/api"
	"github.com/monobar/playd/internal/autoprogress"
	"github.com/monobar/playd/internal/cache"
	"github.com/monobar/playd/internal/config"
	"github.com/monobar/playd/internal/events"
	"github.com/monobar/playd/internal/history"
	"github.com/monobar/playd/internal/log"
	"github.com/monobar/playd/internal/mediaapi"
	"github.com/monobar/playd/internal/player"
	"github.com/monobar/playd/internal/prefs"
	"github.com/monobar/playd/internal/series"
	"github.com/monobar/playd/internal/session"
	"github.com/monobar/playd/internal/telemetry"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("playd %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "playd: %v\n", err)
		os.Exit(1)
	}

	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Service: "playd",
	})
	logger := log.WithComponent("daemon")

	if err := run(cfg, *configPath); err != nil {
		logger.Fatal().Err(err).Msg("daemon exited with error")
	}
	logger.Info().Msg("daemon stopped")
}

func run(cfg config.Config, configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.WithComponent("daemon")
	logger.Info().
		Str("version", version).
		Str("listen", cfg.ListenAddr).
		Str("data_dir", cfg.DataDir).
		Msg("starting playd")

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Persistent stores.
	prefStore, err := prefs.Open(filepath.Join(cfg.DataDir, "prefs"))
	if err != nil {
		return fmt.Errorf("open preferences store: %w", err)
	}
	defer func() { _ = prefStore.Close() }()

	histStore, err := history.Open(filepath.Join(cfg.DataDir, "history.db"))
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer func() { _ = histStore.Close() }()

	// Cache backend.
	var graphCache cache.Cache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(cache.RedisConfig{Addr: cfg.RedisAddr})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() { _ = rc.Close() }()
		graphCache = rc
	} else {
		mc, stopCache := cache.NewMemoryCache(time.Minute)
		defer stopCache()
		graphCache = mc
	}

	media := mediaapi.New(cfg.MediaAPIBase, cfg.MediaAPIToken)

	stateFile := session.NewStateFile(filepath.Join(cfg.DataDir, "session.json"))
	logLastSession(logger, stateFile)
	store := session.NewStore(media, session.WithStateFile(stateFile))

	reporter := telemetry.NewReporter(
		telemetry.NewHTTPCollector(cfg.MediaAPIBase),
		telemetry.WithInterval(cfg.TelemetryInterval),
		telemetry.WithPositionSink(histStore),
	)
	defer reporter.Close()

	// Config reloads retune the knobs that are safe to change on a live
	// daemon. Listen address, data dir and stores keep their boot values.
	holder := config.NewHolder(cfg, configPath)
	holder.Subscribe(func(c config.Config) {
		log.SetLevel(c.LogLevel)
		reporter.SetInterval(c.TelemetryInterval)
	})
	if err := holder.StartWatcher(ctx); err != nil {
		return fmt.Errorf("start config watcher: %w", err)
	}

	hub := events.NewHub()

	// The browser decoder is driven over the event feed and reports back
	// through the progress endpoint.
	engines := func() player.Engine {
		return player.NewClientEngine(func(action, url string) {
			hub.Publish(events.Event{
				Type:    events.TypePlayerControl,
				Payload: events.PlayerControlPayload{Action: action, URL: url},
			})
		})
	}

	// The machine and the manager reference each other through closures:
	// the manager feeds positions in, the machine tears players down when
	// it advances. Both pointers are set before any traffic arrives.
	var machine *autoprogress.Machine
	var srv *api.Server

	manager := player.NewManager(engines, reporter, player.Hooks{
		OnPosition: func(positionSec, durationSec float64) {
			machine.Observe(positionSec, durationSec)
		},
		OnEnded: func(lastPositionSec float64) {
			store.Stop(context.WithoutCancel(ctx), lastPositionSec)
		},
		OnFatal: func(message string) {
			store.Fail(message)
		},
		OnTeardown: func(cause player.TeardownCause) {
			machine.Disarm()
		},
	})

	machine = autoprogress.New(machineConfig(loadPrefs(prefStore)), autoprogress.Callbacks{
		ShowPrompt: func(successor series.Episode, remainingSec int) {
			hub.Publish(events.Event{
				Type:    events.TypePromptShow,
				Payload: events.PromptShowPayload{NextMediaID: successor.ID, NextTitle: successor.Title},
			})
		},
		HidePrompt: func() {
			hub.Publish(events.Event{Type: events.TypePromptHide})
		},
		Countdown: func(remainingSec int) {
			hub.Publish(events.Event{
				Type:    events.TypeCountdown,
				Payload: events.CountdownPayload{SecondsLeft: remainingSec},
			})
		},
		Navigate: func(target series.Episode, restoreFullscreen bool) {
			srv.AdvanceTo(target, restoreFullscreen)
		},
		ExitFullscreen: func() {
			hub.Publish(events.Event{Type: events.TypeFullscreenExit})
		},
		RestoreFullscreen: func() {
			hub.Publish(events.Event{Type: events.TypeFullscreenRestore})
		},
	})

	// Every session transition fans out to connected clients.
	store.Subscribe(func(snap session.PlaybackSession) {
		publishStatus(hub, snap)
	})

	// Preference changes retune auto-progress and notify clients.
	prefStore.Subscribe(func(p prefs.Preferences) {
		machine.SetConfig(machineConfig(p))
		hub.Publish(events.Event{Type: events.TypePrefsChanged, Payload: p})
	})

	srv = api.New(api.Options{
		Store:      store,
		Players:    manager,
		Progress:   machine,
		Series:     media,
		Prefs:      prefStore,
		History:    histStore,
		Hub:        hub,
		Cache:      graphCache,
		RateLimit:  cfg.RateLimit,
		RateWindow: cfg.RateWindow,

		MetricsEnabled: cfg.MetricsEnabled,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		// Destroy the player first so the final stop report goes out
		// before the reporter is closed.
		if manager.Current() != nil {
			_ = manager.Teardown(player.CauseShutdown)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// logLastSession reports what was playing when the previous daemon instance
// went down. Best effort: a corrupt or inconsistent snapshot only warns.
func logLastSession(logger zerolog.Logger, stateFile *session.StateFile) {
	snap, err := stateFile.Load()
	if err != nil {
		logger.Warn().Err(err).Msg("discarding persisted session snapshot")
		return
	}
	if snap.Status == session.StatusPlaying {
		logger.Info().
			Str("media_id", snap.MediaID).
			Str("session_id", snap.SessionID).
			Msg("previous instance went down mid-playback")
	}
}

func loadPrefs(store *prefs.Store) prefs.Preferences {
	p, err := store.Get()
	if err != nil {
		logger := log.WithComponent("daemon")
		logger.Warn().Err(err).Msg("failed to load preferences, using defaults")
		return prefs.Defaults()
	}
	return p
}

func machineConfig(p prefs.Preferences) autoprogress.Config {
	return autoprogress.Config{
		Enabled:          p.PlayNextEnabled,
		ShowThresholdSec: p.ShowThresholdSec,
		AutoThresholdSec: p.AutoThresholdSec,
	}
}

func publishStatus(hub *events.Hub, snap session.PlaybackSession) {
	hub.Publish(events.Event{
		Type: events.TypeSessionStatus,
		Payload: events.SessionStatusPayload{
			SessionID: snap.SessionID,
			MediaID:   snap.MediaID,
			Status:    string(snap.Status),
			Error:     snap.Error,
		},
	})
}
