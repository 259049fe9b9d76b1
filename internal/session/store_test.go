// SPDX-License-Identifier: MIT

package session

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	mu      sync.Mutex
	src     Source
	err     error
	resolve func(ctx context.Context, mediaID string) (Source, error) // optional override
	stopped chan string                                               // receives session ids from NotifyStopped
	stopErr error
}

func (r *stubResolver) Resolve(ctx context.Context, mediaID string) (Source, error) {
	r.mu.Lock()
	fn := r.resolve
	src, err := r.src, r.err
	r.mu.Unlock()
	if fn != nil {
		return fn(ctx, mediaID)
	}
	return src, err
}

func (r *stubResolver) NotifyStopped(ctx context.Context, sessionID string, positionSec float64) error {
	if r.stopped != nil {
		r.stopped <- sessionID
	}
	return r.stopErr
}

func (r *stubResolver) set(src Source, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.src = src
	r.err = err
}

func TestStore_InitializeSuccess(t *testing.T) {
	resolver := &stubResolver{src: Source{PlaybackURL: "http://media/master.m3u8", MediaSourceID: "ms-1"}}
	store := NewStore(resolver)

	snap, err := store.Initialize(context.Background(), "movie-1", MediaMovie)
	require.NoError(t, err)
	assert.Equal(t, StatusPlaying, snap.Status)
	assert.Equal(t, "http://media/master.m3u8", snap.SourceURL)
	assert.Equal(t, "ms-1", snap.MediaSourceID)
	assert.Empty(t, snap.Error)
	assert.True(t, snap.Valid())
}

func TestStore_InitializeErrorRoundTrip(t *testing.T) {
	resolver := &stubResolver{err: errors.New("upstream 502")}
	store := NewStore(resolver)

	snap, err := store.Initialize(context.Background(), "movie-1", MediaMovie)
	require.NoError(t, err)
	assert.Equal(t, StatusError, snap.Status)
	assert.Empty(t, snap.SourceURL)
	assert.NotEmpty(t, snap.Error)
	assert.True(t, snap.Valid())

	// A subsequent successful call clears the error.
	resolver.set(Source{PlaybackURL: "http://media/master.m3u8"}, nil)
	snap, err = store.Initialize(context.Background(), "movie-1", MediaMovie)
	require.NoError(t, err)
	assert.Equal(t, StatusPlaying, snap.Status)
	assert.NotEmpty(t, snap.SourceURL)
	assert.Empty(t, snap.Error)
}

func TestStore_InitializeMissingURL(t *testing.T) {
	resolver := &stubResolver{src: Source{MediaSourceID: "ms-1"}}
	store := NewStore(resolver)

	snap, err := store.Initialize(context.Background(), "movie-1", MediaMovie)
	require.NoError(t, err)
	assert.Equal(t, StatusError, snap.Status)
	assert.Contains(t, snap.Error, "no url")
}

func TestStore_InitializeRejectsSeries(t *testing.T) {
	store := NewStore(&stubResolver{})
	_, err := store.Initialize(context.Background(), "series-1", MediaSeries)
	require.ErrorIs(t, err, ErrNotPlayable)
}

func TestStore_LastCallWins(t *testing.T) {
	gate := make(chan struct{})
	slow := &stubResolver{}
	slow.resolve = func(ctx context.Context, mediaID string) (Source, error) {
		if mediaID == "ep-1" {
			<-gate
			return Source{PlaybackURL: "http://media/stale.m3u8"}, nil
		}
		return Source{PlaybackURL: "http://media/fresh.m3u8"}, nil
	}
	store := NewStore(slow)

	done := make(chan error, 1)
	go func() {
		_, err := store.Initialize(context.Background(), "ep-1", MediaEpisode)
		done <- err
	}()

	// Wait until the first call is in flight, then supersede it.
	require.Eventually(t, func() bool {
		return store.Snapshot().Status == StatusResolving
	}, time.Second, 5*time.Millisecond)

	snap, err := store.Initialize(context.Background(), "ep-2", MediaEpisode)
	require.NoError(t, err)
	require.Equal(t, "http://media/fresh.m3u8", snap.SourceURL)

	close(gate)
	require.ErrorIs(t, <-done, ErrSuperseded)

	// The stale resolution must not have overwritten the fresh one.
	assert.Equal(t, "http://media/fresh.m3u8", store.Snapshot().SourceURL)
	assert.Equal(t, "ep-2", store.Snapshot().MediaID)
}

func TestStore_StaleResolutionMustNotOverwriteStop(t *testing.T) {
	gate := make(chan struct{})
	slow := &stubResolver{}
	slow.resolve = func(ctx context.Context, mediaID string) (Source, error) {
		<-gate
		return Source{PlaybackURL: "http://media/stale.m3u8"}, nil
	}
	store := NewStore(slow)

	done := make(chan error, 1)
	go func() {
		_, err := store.Initialize(context.Background(), "ep-1", MediaEpisode)
		done <- err
	}()
	require.Eventually(t, func() bool {
		return store.Snapshot().Status == StatusResolving
	}, time.Second, 5*time.Millisecond)

	store.StopSilent()
	close(gate)
	require.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, StatusStopped, store.Snapshot().Status)
	assert.Empty(t, store.Snapshot().SourceURL)
}

func TestStore_StopNotifiesRemote(t *testing.T) {
	stopped := make(chan string, 1)
	resolver := &stubResolver{src: Source{PlaybackURL: "u"}, stopped: stopped}
	store := NewStore(resolver)

	snap := store.Stop(context.Background(), 1234.5)
	assert.Equal(t, StatusStopped, snap.Status)
	assert.Empty(t, snap.SourceURL)
	assert.True(t, snap.Valid())

	select {
	case id := <-stopped:
		assert.Equal(t, store.SessionID(), id)
	case <-time.After(time.Second):
		t.Fatal("expected stop notification")
	}
}

func TestStore_StopSilentSkipsNotification(t *testing.T) {
	stopped := make(chan string, 1)
	resolver := &stubResolver{stopped: stopped}
	store := NewStore(resolver)

	snap := store.StopSilent()
	assert.Equal(t, StatusStopped, snap.Status)
	select {
	case <-stopped:
		t.Fatal("silent stop must not notify the remote server")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStore_SubscribersSeeTransitions(t *testing.T) {
	resolver := &stubResolver{src: Source{PlaybackURL: "u"}}
	store := NewStore(resolver)

	var mu sync.Mutex
	var seen []PlaybackStatus
	store.Subscribe(func(s PlaybackSession) {
		mu.Lock()
		seen = append(seen, s.Status)
		mu.Unlock()
	})

	_, err := store.Initialize(context.Background(), "m", MediaMovie)
	require.NoError(t, err)
	store.StopSilent()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []PlaybackStatus{StatusResolving, StatusPlaying, StatusStopped}, seen)
}

func TestStateFile_SaveLoad(t *testing.T) {
	sf := NewStateFile(t.TempDir() + "/session.json")

	snap, err := sf.Load()
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, snap.Status)

	want := PlaybackSession{SessionID: "s1", MediaID: "m1", Status: StatusStopped, UpdatedAtUnix: 42}
	require.NoError(t, sf.Save(want))

	got, err := sf.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStateFile_LoadRejectsInconsistentSnapshot(t *testing.T) {
	path := t.TempDir() + "/session.json"
	// A hand-edited file claiming to play without a source violates the
	// session invariants and must not survive a restart.
	data := []byte(`{"sessionId":"s1","mediaId":"m1","status":"playing"}`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err := NewStateFile(path).Load()
	require.Error(t, err)
}
