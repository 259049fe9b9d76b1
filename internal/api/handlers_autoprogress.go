// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"
)

// handleDismissNext records that the viewer dismissed the next-up prompt.
// The prompt stays away for the rest of the episode.
func (s *Server) handleDismissNext(w http.ResponseWriter, r *http.Request) {
	s.progress.Dismiss()
	w.WriteHeader(http.StatusNoContent)
}

// handlePlayNextNow skips the countdown and advances immediately.
func (s *Server) handlePlayNextNow(w http.ResponseWriter, r *http.Request) {
	s.progress.PlayNow()
	w.WriteHeader(http.StatusAccepted)
}

type fullscreenRequest struct {
	Active bool `json:"active"`
}

// handleFullscreen tracks the client's fullscreen state so the prompt can
// drop out of fullscreen before showing and restore it after advancing.
func (s *Server) handleFullscreen(w http.ResponseWriter, r *http.Request) {
	var req fullscreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New("invalid request body"))
		return
	}
	s.progress.SetFullscreen(req.Active)
	w.WriteHeader(http.StatusNoContent)
}
