// Package events implements the typed publish/subscribe bus the server uses
// to expose state changes to external observers (admin console, ops
// listener). Subscribers are plain closures registered per event kind.
//
// Delivery is synchronous within the publisher and serialized per bus:
// subscribers run on the publishing goroutine, one at a time, and must not
// block. A subscriber that needs to do real work should hand the event off
// to its own goroutine.
package events

import (
	"sync"
)

// Kind discriminates event payloads.
type Kind string

// Event kinds published by the server.
const (
	KindState    Kind = "state"    // server started/stopped
	KindLog      Kind = "log"      // free-text info line
	KindClient   Kind = "client"   // session bound/unbound
	KindRequest  Kind = "request"  // raw decoded request JSON
	KindResponse Kind = "response" // raw response JSON
)

// Client event actions.
const (
	ClientAdd    = "add"
	ClientDelete = "delete"
)

// Event is a single bus notification. Exactly the fields matching the Kind
// are populated.
type Event struct {
	Kind Kind

	// KindState
	Running bool
	Addr    string

	// KindLog
	Info string

	// KindClient
	Action   string // ClientAdd or ClientDelete
	Username string

	// KindRequest / KindResponse
	Raw []byte
}

// Handler consumes one event. Handlers run synchronously on the publishing
// goroutine and must return promptly.
type Handler func(Event)

// Bus is a typed fan-out to subscribers. The zero value is unusable;
// construct with NewBus.
type Bus struct {
	mu   sync.RWMutex
	subs map[Kind][]Handler
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Kind][]Handler)}
}

// Subscribe registers a handler for one event kind.
func (b *Bus) Subscribe(kind Kind, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.subs[kind] = append(b.subs[kind], h)
	b.mu.Unlock()
}

// Publish delivers the event to every subscriber of its kind, in
// subscription order.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	handlers := b.subs[ev.Kind]
	b.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}

// State publishes a server lifecycle change.
func (b *Bus) State(running bool, addr string) {
	b.Publish(Event{Kind: KindState, Running: running, Addr: addr})
}

// Log publishes a free-text info line.
func (b *Bus) Log(info string) {
	b.Publish(Event{Kind: KindLog, Info: info})
}

// Client publishes a session registry change.
func (b *Bus) Client(action, username string) {
	b.Publish(Event{Kind: KindClient, Action: action, Username: username})
}

// Request publishes a raw decoded request frame.
func (b *Bus) Request(raw []byte) {
	b.Publish(Event{Kind: KindRequest, Raw: raw})
}

// Response publishes a raw response frame.
func (b *Bus) Response(raw []byte) {
	b.Publish(Event{Kind: KindResponse, Raw: raw})
}
