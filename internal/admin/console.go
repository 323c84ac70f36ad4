package admin

import (
	"fmt"
	"io"
	"sync"

	"github.com/tbourn/go-messenger-server/internal/events"
)

// Console mirrors server events to a writer. It subscribes to the event bus
// and prints one line per event: lifecycle changes, session add/delete, and
// free-text log lines. Raw request/response frames are printed only when
// verbose is set.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
}

// NewConsole attaches a console observer to the bus.
func NewConsole(w io.Writer, bus *events.Bus, verbose bool) *Console {
	c := &Console{w: w, verbose: verbose}
	bus.Subscribe(events.KindState, c.onEvent)
	bus.Subscribe(events.KindClient, c.onEvent)
	bus.Subscribe(events.KindLog, c.onEvent)
	if verbose {
		bus.Subscribe(events.KindRequest, c.onEvent)
		bus.Subscribe(events.KindResponse, c.onEvent)
	}
	return c
}

func (c *Console) onEvent(ev events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch ev.Kind {
	case events.KindState:
		if ev.Running {
			fmt.Fprintf(c.w, "server listening on %s\n", ev.Addr)
		} else {
			fmt.Fprintln(c.w, "server stopped")
		}
	case events.KindClient:
		switch ev.Action {
		case events.ClientAdd:
			fmt.Fprintf(c.w, "client logged in: %s\n", ev.Username)
		case events.ClientDelete:
			fmt.Fprintf(c.w, "client gone: %s\n", ev.Username)
		}
	case events.KindLog:
		fmt.Fprintln(c.w, ev.Info)
	case events.KindRequest:
		fmt.Fprintf(c.w, "<- %s\n", ev.Raw)
	case events.KindResponse:
		fmt.Fprintf(c.w, "-> %s\n", ev.Raw)
	}
}
