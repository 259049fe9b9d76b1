// SPDX-License-Identifier: MIT

package mediaapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items/ep-1/playbackinfo", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"playbackUrl":   "http://media/master.m3u8",
			"mediaSourceId": "ms-1",
			"subtitles":     []string{"en.vtt"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	src, err := c.Resolve(context.Background(), "ep-1")
	require.NoError(t, err)
	assert.Equal(t, "http://media/master.m3u8", src.PlaybackURL)
	assert.Equal(t, "ms-1", src.MediaSourceID)
	assert.Equal(t, []string{"en.vtt"}, src.Subtitles)
}

func TestClient_ResolveNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.Resolve(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClient_ResolveUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.Resolve(context.Background(), "ep-1")
	require.ErrorIs(t, err, ErrUpstream)
}

func TestClient_SeriesGraphPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shows/show-1/seasons", r.URL.Path)
		_, _ = w.Write([]byte(`{"seriesId":"show-1","seasons":[
			{"id":"s2","episodes":[{"id":"e3"}]},
			{"id":"s1","episodes":[{"id":"e1"},{"id":"e2"}]}
		]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	g, err := c.SeriesGraph(context.Background(), "show-1")
	require.NoError(t, err)
	require.Len(t, g.Seasons, 2)
	assert.Equal(t, "s2", g.Seasons[0].ID)
	assert.Equal(t, "s1", g.Seasons[1].ID)
}

func TestClient_NotifyStopped(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/stopped", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	require.NoError(t, c.NotifyStopped(context.Background(), "sess-1", 120.5))
	assert.Equal(t, "sess-1", got["sessionId"])
	assert.Equal(t, 120.5, got["positionSec"])
}
