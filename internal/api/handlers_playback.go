// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/monobar/playd/internal/events"
	"github.com/monobar/playd/internal/player"
	"github.com/monobar/playd/internal/series"
	"github.com/monobar/playd/internal/session"
)

type startPlaybackRequest struct {
	MediaID   string `json:"mediaId"`
	MediaType string `json:"mediaType"`
	// SeriesID enables the next-episode lookup that arms auto-progress.
	SeriesID  string `json:"seriesId,omitempty"`
	Container string `json:"container"`
	Autoplay  bool   `json:"autoplay"`
	// Resume restores the saved position from the watch history.
	Resume bool `json:"resume"`
}

type playbackResponse struct {
	Session  session.PlaybackSession `json:"session"`
	PlayerID string                  `json:"playerId,omitempty"`
}

// handleStartPlayback resolves a source, tears down any previous player and
// mounts a fresh one. A second request while one is in flight wins: the
// older resolution is discarded, never applied.
func (s *Server) handleStartPlayback(w http.ResponseWriter, r *http.Request) {
	var req startPlaybackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New("invalid request body"))
		return
	}
	if req.MediaID == "" {
		writeError(w, errors.New("mediaId is required"))
		return
	}
	mediaType := session.MediaType(req.MediaType)
	if !mediaType.IsValid() {
		writeError(w, errors.New("unknown mediaType"))
		return
	}
	if req.Container == "" {
		req.Container = "player-main"
	}

	// A source change destroys the old instance before the new session is
	// resolved. The instance is never rebound to a different URL.
	if s.players.Current() != nil {
		_ = s.players.Teardown(player.CauseSourceChanged)
	}

	sess, err := s.store.Initialize(r.Context(), req.MediaID, mediaType)
	switch {
	case errors.Is(err, session.ErrSuperseded):
		writeConflict(w, err)
		return
	case errors.Is(err, session.ErrNotPlayable):
		writeError(w, err)
		return
	case err != nil:
		writeBadGateway(w, err)
		return
	}

	var resumePos float64
	if req.Resume && s.history != nil {
		if pos, err := s.history.Position(r.Context(), req.MediaID); err == nil {
			resumePos = pos
		}
	}

	inst, err := s.players.Mount(r.Context(), sess, player.MountOptions{
		Container:         req.Container,
		Autoplay:          req.Autoplay,
		ResumePositionSec: resumePos,
	})
	if err != nil {
		s.store.StopSilent()
		writeError(w, err)
		return
	}

	if mediaType == session.MediaEpisode && req.SeriesID != "" {
		s.rememberSeriesID(req.SeriesID)
		go s.armAutoProgress(req.SeriesID, sess.MediaID)
	}

	s.publishPlayerConfig()
	writeJSON(w, http.StatusCreated, playbackResponse{Session: s.store.Snapshot(), PlayerID: inst.ID})
}

type stopPlaybackRequest struct {
	PositionSec float64 `json:"positionSec"`
	// Silent skips the remote stop notification, used when another client
	// already reported the stop for this player.
	Silent bool `json:"silent"`
}

func (s *Server) handleStopPlayback(w http.ResponseWriter, r *http.Request) {
	var req stopPlaybackRequest
	if r.Body != nil {
		// An empty body is a plain stop at the last known position.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	pos := req.PositionSec
	if inst := s.players.Current(); inst != nil {
		if last := inst.LastSnapshot().PositionSec; pos == 0 && last > 0 {
			pos = last
		}
		_ = s.players.Teardown(player.CauseNavigation)
	}

	var snap session.PlaybackSession
	if req.Silent {
		snap = s.store.StopSilent()
	} else {
		snap = s.store.Stop(r.Context(), pos)
	}
	writeJSON(w, http.StatusOK, playbackResponse{Session: snap})
}

func (s *Server) handleGetPlayback(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	resp := playbackResponse{Session: snap}
	if inst := s.players.Current(); inst != nil {
		resp.PlayerID = inst.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

type progressRequest struct {
	Event         string  `json:"event"`
	PositionSec   float64 `json:"positionSec"`
	DurationSec   float64 `json:"durationSec"`
	AudioTrack    int     `json:"audioTrack"`
	SubtitleTrack int     `json:"subtitleTrack"`
	Volume        float64 `json:"volume"`
	Muted         bool    `json:"muted"`
	Level         int     `json:"level"`
	BitrateBPS    int64   `json:"bitrateBps"`
	Error         *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Fatal   bool   `json:"fatal"`
	} `json:"error,omitempty"`
}

// handleProgress ingests decoder events from the browser. The in-process
// engine bridge turns them into lifecycle and telemetry activity.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New("invalid request body"))
		return
	}

	ev := player.EngineEvent{
		Kind:          player.EngineEventKind(req.Event),
		PositionSec:   req.PositionSec,
		DurationSec:   req.DurationSec,
		AudioTrack:    req.AudioTrack,
		SubtitleTrack: req.SubtitleTrack,
		Volume:        req.Volume,
		Muted:         req.Muted,
		Level:         req.Level,
		BitrateBPS:    req.BitrateBPS,
	}
	if req.Error != nil {
		ev.Err = &player.EngineError{Code: req.Error.Code, Message: req.Error.Message, Fatal: req.Error.Fatal}
	}

	if err := s.players.Inject(ev); err != nil {
		if errors.Is(err, player.ErrNoActivePlayer) {
			writeNotFound(w)
			return
		}
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// armAutoProgress looks up the successor episode and arms the prompt
// machinery. Lookup failures leave auto-progress dormant for the episode.
func (s *Server) armAutoProgress(seriesID, episodeID string) {
	graph, err := s.lookupGraph(context.Background(), seriesID)
	if err != nil {
		s.logger.Warn().Err(err).Str("series_id", seriesID).Msg("successor lookup failed")
		s.progress.Arm(episodeID, series.Episode{}, false)
		return
	}
	if !graph.Contains(episodeID) {
		// A stale or wrong seriesId must not arm a successor from an
		// unrelated series.
		s.logger.Warn().Str("series_id", seriesID).Str("episode_id", episodeID).
			Msg("episode not in series graph, auto-progress dormant")
		s.progress.Arm(episodeID, series.Episode{}, false)
		return
	}
	succ, ok := series.FindSuccessor(episodeID, graph.Seasons)
	s.progress.Arm(episodeID, succ, ok)
}

// publishPlayerConfig broadcasts a configure control event carrying the
// stored preferences, so the freshly mounted decoder applies subtitle,
// audio and quality selections without a round trip.
func (s *Server) publishPlayerConfig() {
	if s.hub == nil || s.prefs == nil {
		return
	}
	p, err := s.prefs.Get()
	if err != nil {
		s.logger.Warn().Err(err).Msg("preferences unavailable, decoder keeps defaults")
		return
	}
	s.hub.Publish(events.Event{
		Type:    events.TypePlayerControl,
		Payload: events.PlayerControlPayload{Action: "configure", Prefs: &p},
	})
}
