// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/monobar/playd/internal/mediaapi"
	"github.com/monobar/playd/internal/series"
)

// Episode graphs change rarely; a short TTL keeps prompt arming cheap while
// new episodes still show up within minutes.
const seriesGraphTTL = 5 * time.Minute

// lookupGraph fetches the episode graph, consulting the cache first.
func (s *Server) lookupGraph(ctx context.Context, seriesID string) (series.Graph, error) {
	key := "series:graph:" + seriesID
	if s.cache != nil {
		if data, ok := s.cache.Get(key); ok {
			var g series.Graph
			if err := json.Unmarshal(data, &g); err == nil {
				return g, nil
			}
		}
	}

	g, err := s.seriesrc.SeriesGraph(ctx, seriesID)
	if err != nil {
		return series.Graph{}, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(g); err == nil {
			s.cache.Set(key, data, seriesGraphTTL)
		}
	}
	return g, nil
}

type nextEpisodeResponse struct {
	Episode series.Episode `json:"episode"`
}

// handleNextEpisode returns the successor of the given episode, or 404 when
// the episode is the last of the series or unknown to the graph.
func (s *Server) handleNextEpisode(w http.ResponseWriter, r *http.Request) {
	episodeID := chi.URLParam(r, "mediaID")
	seriesID := r.URL.Query().Get("seriesId")
	if seriesID == "" {
		writeError(w, errors.New("seriesId query parameter is required"))
		return
	}

	graph, err := s.lookupGraph(r.Context(), seriesID)
	switch {
	case errors.Is(err, mediaapi.ErrNotFound):
		writeNotFound(w)
		return
	case err != nil:
		writeBadGateway(w, err)
		return
	}

	succ, ok := series.FindSuccessor(episodeID, graph.Seasons)
	if !ok {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, nextEpisodeResponse{Episode: succ})
}
