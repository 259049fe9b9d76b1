// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/monobar/playd/internal/history"
)

type historyResponse struct {
	MediaID     string  `json:"mediaId"`
	PositionSec float64 `json:"positionSec"`
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	mediaID := chi.URLParam(r, "mediaID")
	pos, err := s.history.Position(r.Context(), mediaID)
	switch {
	case errors.Is(err, history.ErrNotFound):
		writeNotFound(w)
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read history"})
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{MediaID: mediaID, PositionSec: pos})
}

func (s *Server) handleForgetHistory(w http.ResponseWriter, r *http.Request) {
	mediaID := chi.URLParam(r, "mediaID")
	if err := s.history.Forget(r.Context(), mediaID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete history"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
