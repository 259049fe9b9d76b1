// SPDX-License-Identifier: MIT

package player

import (
	"context"
	"sync"
)

// ControlSender pushes control messages to the remote decoder (the browser
// player that does the actual decoding). In production this is the events
// hub broadcast.
type ControlSender func(action, url string)

// ClientEngine mirrors a decoder that lives in the client. Playback events
// arrive through Inject (fed by the progress endpoint); control flows out
// through the sender. It satisfies the Engine contract so the lifecycle
// manager treats local and remote decoders identically.
type ClientEngine struct {
	send ControlSender

	mu        sync.Mutex
	url       string
	container string
	destroyed bool
	subs      map[int]func(EngineEvent)
	nextSub   int
}

// NewClientEngine creates an engine bridged to a remote decoder.
func NewClientEngine(send ControlSender) *ClientEngine {
	if send == nil {
		send = func(string, string) {}
	}
	return &ClientEngine{
		send: send,
		subs: map[int]func(EngineEvent){},
	}
}

// LoadSource instructs the remote decoder to load the manifest.
func (e *ClientEngine) LoadSource(ctx context.Context, url string) error {
	e.mu.Lock()
	e.url = url
	e.mu.Unlock()
	e.send("load", url)
	return nil
}

// Attach binds the remote decoder to its rendering container.
func (e *ClientEngine) Attach(container string) error {
	e.mu.Lock()
	e.container = container
	e.mu.Unlock()
	e.send("attach", container)
	return nil
}

// StopLoad tells the remote decoder to halt segment fetching now.
func (e *ClientEngine) StopLoad() {
	e.send("stopload", "")
}

// Destroy releases the remote decoder. Further injected events are dropped.
func (e *ClientEngine) Destroy() {
	e.mu.Lock()
	e.destroyed = true
	e.subs = map[int]func(EngineEvent){}
	e.mu.Unlock()
	e.send("destroy", "")
}

// Subscribe registers an event callback and returns its remover.
func (e *ClientEngine) Subscribe(fn func(EngineEvent)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, id)
	}
}

// Inject delivers one event reported by the remote decoder to subscribers.
func (e *ClientEngine) Inject(ev EngineEvent) {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	subs := make([]func(EngineEvent), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}
