// SPDX-License-Identifier: MIT

// Package api exposes the playback daemon over HTTP: session control,
// decoder progress ingest, auto-progress actions, preferences and the
// websocket event feed.
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/monobar/playd/internal/cache"
	"github.com/monobar/playd/internal/events"
	"github.com/monobar/playd/internal/log"
)

// Server holds the handler dependencies. All mutable playback state lives
// behind the injected stores and managers; the server itself is stateless.
type Server struct {
	store    SessionStore
	players  PlayerManager
	progress ProgressMachine
	seriesrc SeriesSource
	prefs    PrefStore
	history  HistoryStore
	hub      *events.Hub
	cache    cache.Cache
	logger   zerolog.Logger

	// The series of the most recent episode start, used to re-arm
	// auto-progress after an auto-advance.
	seriesMu     sync.Mutex
	lastSeriesID string

	// Per-IP request budget for the whole API surface.
	rateLimit  int
	rateWindow time.Duration

	metricsEnabled bool
}

// Options bundles the server dependencies.
type Options struct {
	Store    SessionStore
	Players  PlayerManager
	Progress ProgressMachine
	Series   SeriesSource
	Prefs    PrefStore
	History  HistoryStore
	Hub      *events.Hub
	Cache    cache.Cache

	RateLimit  int
	RateWindow time.Duration

	MetricsEnabled bool
}

// New constructs the API server.
func New(opts Options) *Server {
	s := &Server{
		store:      opts.Store,
		players:    opts.Players,
		progress:   opts.Progress,
		seriesrc:   opts.Series,
		prefs:      opts.Prefs,
		history:    opts.History,
		hub:        opts.Hub,
		cache:      opts.Cache,
		logger:     log.WithComponent("api"),
		rateLimit:  opts.RateLimit,
		rateWindow: opts.RateWindow,

		metricsEnabled: opts.MetricsEnabled,
	}
	if s.rateLimit <= 0 {
		s.rateLimit = 600
	}
	if s.rateWindow <= 0 {
		s.rateWindow = time.Minute
	}
	return s
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(httprate.Limit(
		s.rateLimit,
		s.rateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	))

	r.Route("/api", func(r chi.Router) {
		r.Route("/playback", func(r chi.Router) {
			r.Get("/", s.handleGetPlayback)
			r.Post("/", s.handleStartPlayback)
			r.Delete("/", s.handleStopPlayback)
			r.Post("/progress", s.handleProgress)
			r.Post("/fullscreen", s.handleFullscreen)
			r.Route("/next", func(r chi.Router) {
				r.Post("/dismiss", s.handleDismissNext)
				r.Post("/now", s.handlePlayNextNow)
			})
		})
		r.Get("/next/{mediaID}", s.handleNextEpisode)
		r.Route("/prefs", func(r chi.Router) {
			r.Get("/", s.handleGetPrefs)
			r.Put("/", s.handlePutPrefs)
		})
		r.Route("/history/{mediaID}", func(r chi.Router) {
			r.Get("/", s.handleGetHistory)
			r.Delete("/", s.handleForgetHistory)
		})
	})

	r.Get("/ws", s.hub.ServeWS)
	r.Get("/healthz", s.handleHealthz)
	if s.metricsEnabled {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
