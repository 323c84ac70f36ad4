// Router: the immutable verb→handler table assembled at startup from the
// route tables of the installed modules (auth, chat). Verbs are values, not
// types; a handler is a function of the decoded request.
package server

import (
	"context"
	"fmt"
	"sort"

	"github.com/tbourn/go-messenger-server/internal/protocol"
)

// Handler processes one decoded request and returns the response to write
// back. Handlers reach the store and the session registry through the
// dependencies they were constructed with; the context carries the
// connection sink for handlers that bind sessions or fan out.
type Handler func(ctx context.Context, req *protocol.Request) *protocol.Response

// Route binds one action verb to its handler.
type Route struct {
	Action  string
	Handler Handler
}

// Router resolves action verbs to handlers. It is immutable after
// construction and safe for concurrent use.
type Router struct {
	routes map[string]Handler
}

// NewRouter collects the given route tables into one verb map. A duplicate
// verb across tables is a programming error and fails construction.
func NewRouter(tables ...[]Route) (*Router, error) {
	routes := make(map[string]Handler)
	for _, table := range tables {
		for _, rt := range table {
			if rt.Action == "" || rt.Handler == nil {
				return nil, fmt.Errorf("router: empty route entry")
			}
			if _, dup := routes[rt.Action]; dup {
				return nil, fmt.Errorf("router: duplicate action %q", rt.Action)
			}
			routes[rt.Action] = rt.Handler
		}
	}
	return &Router{routes: routes}, nil
}

// ValidateAction reports whether the verb is routable.
func (r *Router) ValidateAction(action string) bool {
	_, ok := r.routes[action]
	return ok
}

// Resolve returns the handler for the verb.
func (r *Router) Resolve(action string) (Handler, bool) {
	h, ok := r.routes[action]
	return h, ok
}

// Actions returns all routable verbs, sorted.
func (r *Router) Actions() []string {
	out := make([]string, 0, len(r.routes))
	for a := range r.routes {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// BuildRouter assembles the router for the configured module list. Known
// modules: "auth" and "chat". An unknown module name fails startup.
func BuildRouter(modules []string, d *Deps) (*Router, error) {
	var tables [][]Route
	for _, m := range modules {
		switch m {
		case "auth":
			tables = append(tables, AuthRoutes(d))
		case "chat":
			tables = append(tables, ChatRoutes(d))
		default:
			return nil, fmt.Errorf("router: unknown module %q", m)
		}
	}
	return NewRouter(tables...)
}
