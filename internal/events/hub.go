// SPDX-License-Identifier: MIT

// Package events pushes playback events to connected UI clients over a
// websocket. Clients get explicit "something changed" messages instead of
// polling browser storage.
package events

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/monobar/playd/internal/log"
)

// Event types pushed to clients.
const (
	TypeSessionStatus     = "session.status"
	TypePromptShow        = "prompt.show"
	TypePromptHide        = "prompt.hide"
	TypeCountdown         = "prompt.countdown"
	TypeNavigate          = "navigate"
	TypePlayerControl     = "player.control"
	TypePrefsChanged      = "prefs.changed"
	TypeFullscreenExit    = "fullscreen.exit"
	TypeFullscreenRestore = "fullscreen.restore"
)

// Event is one message broadcast to every connected client.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Hub owns the client set and fans events out to all of them.
type Hub struct {
	logger zerolog.Logger

	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub creates an empty hub. Call Run to start dispatching.
func NewHub() *Hub {
	return &Hub{
		logger:     log.WithComponent("events"),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run dispatches until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer: drop it rather than block everyone.
					h.drop(client)
				}
			}
		}
	}
}

// Publish broadcasts one event to all connected clients. Never blocks the
// caller: when the hub's buffer is full the event is dropped and logged.
func (h *Hub) Publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error().Err(err).Str("type", ev.Type).Msg("failed to encode event")
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn().Str("type", ev.Type).Msg("event dropped, hub backlogged")
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	_ = client.conn.Close()
}
