// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"time"

	"github.com/monobar/playd/internal/events"
	"github.com/monobar/playd/internal/player"
	"github.com/monobar/playd/internal/series"
	"github.com/monobar/playd/internal/session"
)

const advanceTimeout = 15 * time.Second

// AdvanceTo switches playback to the successor episode. It drives the same
// path as an explicit start request: destroy the old instance, resolve the
// new session, mount a fresh player, re-arm auto-progress.
//
// It is called from the auto-progress machine and must not block it, so the
// heavy lifting runs on its own goroutine.
func (s *Server) AdvanceTo(target series.Episode, restoreFullscreen bool) {
	if s.hub != nil {
		s.hub.Publish(events.Event{
			Type: events.TypeNavigate,
			Payload: events.NavigatePayload{
				MediaID:           target.ID,
				RestoreFullscreen: restoreFullscreen,
			},
		})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), advanceTimeout)
		defer cancel()

		if s.players.Current() != nil {
			_ = s.players.Teardown(player.CauseNavigation)
		}

		sess, err := s.store.Initialize(ctx, target.ID, session.MediaEpisode)
		if err != nil {
			s.logger.Warn().Err(err).Str("media_id", target.ID).Msg("auto-advance resolution failed")
			return
		}

		if _, err := s.players.Mount(ctx, sess, player.MountOptions{
			Container: "player-main",
			Autoplay:  true,
		}); err != nil {
			s.logger.Warn().Err(err).Str("media_id", target.ID).Msg("auto-advance mount failed")
			s.store.StopSilent()
			return
		}

		if seriesID := s.currentSeriesID(); seriesID != "" {
			s.armAutoProgress(seriesID, target.ID)
		}
		s.publishPlayerConfig()
	}()
}

func (s *Server) currentSeriesID() string {
	s.seriesMu.Lock()
	defer s.seriesMu.Unlock()
	return s.lastSeriesID
}

func (s *Server) rememberSeriesID(id string) {
	s.seriesMu.Lock()
	defer s.seriesMu.Unlock()
	s.lastSeriesID = id
}
