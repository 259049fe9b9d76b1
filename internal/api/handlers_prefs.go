// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/monobar/playd/internal/prefs"
)

func (s *Server) handleGetPrefs(w http.ResponseWriter, r *http.Request) {
	p, err := s.prefs.Get()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load preferences"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutPrefs(w http.ResponseWriter, r *http.Request) {
	var p prefs.Preferences
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, errors.New("invalid request body"))
		return
	}
	if err := s.prefs.Put(p); err != nil {
		if errors.Is(err, prefs.ErrInvalidThresholds) {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to store preferences"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}
