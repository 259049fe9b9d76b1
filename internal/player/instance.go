// SPDX-License-Identifier: MIT

package player

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/monobar/playd/internal/telemetry"
)

// Instance is one concrete mounted decoder bound to one source URL. It is
// never rebound: any change of source or container destroys it and mints a
// fresh instance with a new id.
type Instance struct {
	ID        string
	SourceURL string
	Container string
	MountedAt time.Time

	mu       sync.Mutex
	phase    Phase
	engine   Engine
	unsubs   []func()
	started  bool // first play event seen
	lastSnap telemetry.Snapshot
}

func newInstance(sourceURL, container string, engine Engine) *Instance {
	return &Instance{
		ID:        uuid.NewString(),
		SourceURL: sourceURL,
		Container: container,
		MountedAt: time.Now(),
		phase:     PhaseUnmounted,
		engine:    engine,
	}
}

// Phase returns the current lifecycle phase.
func (i *Instance) Phase() Phase {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.phase
}

// LastSnapshot returns the most recently observed playback snapshot. The
// position is captured continuously during playback, never read from the
// engine at teardown time, because the engine's live position may already be
// gone by then.
func (i *Instance) LastSnapshot() telemetry.Snapshot {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastSnap
}

func (i *Instance) observe(snap telemetry.Snapshot) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.lastSnap = snap
}

func (i *Instance) markStarted() (first bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	first = !i.started
	i.started = true
	return first
}

func (i *Instance) transition(ev EventKind) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	tr, ok := TransitionFor(i.phase, ev)
	if !ok {
		return fmt.Errorf("%w: %s + %d", ErrIllegalTransition, i.phase, ev)
	}
	i.phase = tr.To
	return nil
}

func (i *Instance) addUnsub(fn func()) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.unsubs = append(i.unsubs, fn)
}

// detachAll removes every registered event listener as a single step.
func (i *Instance) detachAll() {
	i.mu.Lock()
	unsubs := i.unsubs
	i.unsubs = nil
	i.mu.Unlock()
	for _, fn := range unsubs {
		fn()
	}
}
