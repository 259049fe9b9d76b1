// SPDX-License-Identifier: MIT

package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func dialHub(t *testing.T, h *Hub) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	hubDone := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(hubDone)
	}()
	defer func() {
		cancel()
		<-hubDone
	}()

	conn, cleanup := dialHub(t, h)
	defer cleanup()

	// Registration races the publish; give the hub a beat to pick it up.
	time.Sleep(50 * time.Millisecond)

	h.Publish(Event{
		Type: TypeSessionStatus,
		Payload: SessionStatusPayload{
			SessionID: "sess-1",
			MediaID:   "ep-1",
			Status:    "playing",
		},
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev struct {
		Type    string               `json:"type"`
		Payload SessionStatusPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &ev))
	require.Equal(t, TypeSessionStatus, ev.Type)
	require.Equal(t, "sess-1", ev.Payload.SessionID)
	require.Equal(t, "playing", ev.Payload.Status)
}

func TestHub_PublishWithoutClientsDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	hubDone := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(hubDone)
	}()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			h.Publish(Event{Type: TypeCountdown, Payload: CountdownPayload{SecondsLeft: i}})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked with no clients attached")
	}
	cancel()
	<-hubDone
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	hubDone := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(hubDone)
	}()

	conn, cleanup := dialHub(t, h)
	defer cleanup()
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-hubDone

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
