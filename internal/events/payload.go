// SPDX-License-Identifier: MIT

package events

import "github.com/monobar/playd/internal/prefs"

// SessionStatusPayload mirrors the current playback session for clients.
type SessionStatusPayload struct {
	SessionID string `json:"sessionId"`
	MediaID   string `json:"mediaId,omitempty"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// PromptShowPayload announces the next-up overlay for a successor episode.
type PromptShowPayload struct {
	NextMediaID string `json:"nextMediaId"`
	NextTitle   string `json:"nextTitle,omitempty"`
}

// CountdownPayload carries the whole seconds remaining before auto-advance.
type CountdownPayload struct {
	SecondsLeft int `json:"secondsLeft"`
}

// NavigatePayload tells the client to switch to the successor episode.
// RestoreFullscreen is set when fullscreen was exited for the prompt and
// should be re-entered once the new player mounts.
type NavigatePayload struct {
	MediaID           string `json:"mediaId"`
	RestoreFullscreen bool   `json:"restoreFullscreen"`
}

// PlayerControlPayload drives the in-browser decoder: load, attach,
// stopload and destroy, in the order the lifecycle manager issues them.
// A configure action carries the stored preferences so the decoder applies
// subtitle, audio and quality selections as it mounts.
type PlayerControlPayload struct {
	Action string             `json:"action"`
	URL    string             `json:"url,omitempty"`
	Prefs  *prefs.Preferences `json:"prefs,omitempty"`
}
