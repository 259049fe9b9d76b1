// SPDX-License-Identifier: MIT

// Package mediaapi is the client for the upstream media server: source
// resolution, series metadata, and the end-of-session notification.
package mediaapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/monobar/playd/internal/series"
	"github.com/monobar/playd/internal/session"
)

// ErrNotFound is returned when the media server does not know the item.
var ErrNotFound = errors.New("mediaapi: item not found")

// ErrUpstream wraps any non-2xx response other than 404.
var ErrUpstream = errors.New("mediaapi: upstream error")

// Client talks to the media server's HTTP API.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// New creates a client for the given base URL. token may be empty when the
// upstream does not require one.
func New(base, token string) *Client {
	return &Client{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{Timeout: 15 * time.Second},
	}
}

type playbackInfoResponse struct {
	PlaybackURL   string   `json:"playbackUrl"`
	MediaSourceID string   `json:"mediaSourceId"`
	Subtitles     []string `json:"subtitles"`
	Chapters      []string `json:"chapters"`
}

// Resolve asks the media server for a playable source for mediaID.
func (c *Client) Resolve(ctx context.Context, mediaID string) (session.Source, error) {
	var payload playbackInfoResponse
	if err := c.getJSON(ctx, "/items/"+url.PathEscape(mediaID)+"/playbackinfo", &payload); err != nil {
		return session.Source{}, err
	}
	return session.Source{
		PlaybackURL:   payload.PlaybackURL,
		MediaSourceID: payload.MediaSourceID,
		Subtitles:     payload.Subtitles,
		Chapters:      payload.Chapters,
	}, nil
}

type seasonsResponse struct {
	SeriesID string          `json:"seriesId"`
	Seasons  []series.Season `json:"seasons"`
}

// SeriesGraph fetches the ordered season/episode structure of a series.
// Order is preserved exactly as delivered.
func (c *Client) SeriesGraph(ctx context.Context, seriesID string) (series.Graph, error) {
	var payload seasonsResponse
	if err := c.getJSON(ctx, "/shows/"+url.PathEscape(seriesID)+"/seasons", &payload); err != nil {
		return series.Graph{}, err
	}
	return series.Graph{SeriesID: seriesID, Seasons: payload.Seasons}, nil
}

// NotifyStopped tells the media server a playback session ended. Callers
// treat this as fire-and-forget.
func (c *Client) NotifyStopped(ctx context.Context, sessionID string, positionSec float64) error {
	body := strings.NewReader(fmt.Sprintf(`{"sessionId":%q,"positionSec":%g}`, sessionID, positionSec))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/sessions/stopped", body)
	if err != nil {
		return fmt.Errorf("build stop request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post stop: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: %s", ErrUpstream, res.Status)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case res.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrUpstream, res.Status)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
