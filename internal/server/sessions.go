// Package server implements the TCP protocol surface of the messenger: the
// action router, the per-verb handlers, the session registry, the
// per-connection read/dispatch/write loop, and the supervisor that owns the
// listener lifecycle.
//
// This file holds the session registry: a process-wide map from a logged-in
// username to the write end of its connection, plus the set of active
// connections. Bindings are installed by a successful login and removed on
// logout, on connection close, and on a failed fan-out send. Sinks never
// outlive their connection.
package server

import (
	"sort"
	"sync"

	"github.com/tbourn/go-messenger-server/internal/events"
)

// Sink is the write end of a client connection. Send must deliver one
// complete output frame; implementations serialize concurrent sends.
type Sink interface {
	Send(frame []byte) error
	Close() error
	RemoteAddr() string
}

// Registry maps authenticated usernames to their connection sinks and
// tracks every open connection. All mutations are serialized; binding
// changes are published on the event bus as client add/delete events.
type Registry struct {
	mu    sync.RWMutex
	sinks map[string]Sink
	conns map[Sink]struct{}
	bus   *events.Bus
}

// NewRegistry constructs an empty registry publishing to bus.
func NewRegistry(bus *events.Bus) *Registry {
	return &Registry{
		sinks: make(map[string]Sink),
		conns: make(map[Sink]struct{}),
		bus:   bus,
	}
}

// Bind associates username with sink, overwriting any prior binding, and
// emits a client add event. The binding is visible to fan-outs before the
// login response that installed it is written.
func (r *Registry) Bind(username string, sink Sink) {
	r.mu.Lock()
	r.sinks[username] = sink
	r.mu.Unlock()
	r.bus.Client(events.ClientAdd, username)
}

// Unbind removes the username's binding if present and emits a client
// delete event. Unbinding an unknown username is a no-op.
func (r *Registry) Unbind(username string) {
	r.mu.Lock()
	_, had := r.sinks[username]
	delete(r.sinks, username)
	r.mu.Unlock()
	if had {
		r.bus.Client(events.ClientDelete, username)
	}
}

// UnbindSink removes every binding pointing at sink. Called when a
// connection closes without a clean logout.
func (r *Registry) UnbindSink(sink Sink) {
	r.mu.Lock()
	var dropped []string
	for name, s := range r.sinks {
		if s == sink {
			dropped = append(dropped, name)
			delete(r.sinks, name)
		}
	}
	r.mu.Unlock()
	for _, name := range dropped {
		r.bus.Client(events.ClientDelete, name)
	}
}

// Lookup returns the sink bound to username.
func (r *Registry) Lookup(username string) (Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sinks[username]
	return s, ok
}

// ActiveUsernames returns the usernames with live bindings, sorted for
// deterministic iteration.
func (r *Registry) ActiveUsernames() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.sinks))
	for name := range r.sinks {
		out = append(out, name)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// AddConn tracks an open connection.
func (r *Registry) AddConn(sink Sink) {
	r.mu.Lock()
	r.conns[sink] = struct{}{}
	r.mu.Unlock()
}

// RemoveConn forgets a closed connection.
func (r *Registry) RemoveConn(sink Sink) {
	r.mu.Lock()
	delete(r.conns, sink)
	r.mu.Unlock()
}

// ConnCount returns the number of open connections.
func (r *Registry) ConnCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CloseAll closes every tracked connection. The supervisor calls it during
// shutdown so blocked reads return and connection loops drain.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := make([]Sink, 0, len(r.conns))
	for s := range r.conns {
		conns = append(conns, s)
	}
	r.mu.Unlock()
	for _, s := range conns {
		_ = s.Close()
	}
}
