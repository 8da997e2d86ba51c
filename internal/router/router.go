// Package router implements spec.md §4.10's Router contract: `find(request)
// -> (handler, binding) | no-endpoint`, `not_found(request) -> response`.
// The router itself is specified as an external collaborator beyond this
// minimum contract — SPEC_FULL.md §11 names gorilla/mux as the default
// implementation's path-matching engine, grounded on the teacher's sibling
// pack repo packetd-packetd's `server/server.go` (`mux.NewRouter()`,
// `router.Methods(...).Path(...).HandlerFunc(...)`).
package router

import (
	"github.com/kestrelhttp/kestrel/internal/message"
)

// Handler processes a matched Request and produces a Response. Binding
// carries the path parameters extracted by Router.Find, keyed by name.
type Handler func(req *message.Request, binding map[string]string) *message.Response

// Endpoint is one registered route: a method bitset, a path pattern, and
// the handler it dispatches to, plus the async/dedicated-pool dispatch
// hints from spec.md §4.9/§6.
type Endpoint struct {
	Methods message.Set
	Pattern string
	Handler Handler
	Async   bool
	Pool    string // named worker pool, empty means the default runtime pool
}

// Router is the minimum contract spec.md §4.10 requires of the routing
// collaborator.
type Router interface {
	// Find resolves a request to its matched Endpoint and path-parameter
	// binding. ok is false when no endpoint matches (the caller should
	// fall back to NotFound).
	Find(req *message.Request) (ep Endpoint, binding map[string]string, ok bool)

	// NotFound synthesizes the response for an unmatched request. The
	// router owns this as an overridable function per spec.md's "Global
	// default not-found handler" edge case.
	NotFound(req *message.Request) *message.Response

	// Register adds an endpoint. Implementations may reject conflicting
	// patterns.
	Register(ep Endpoint) error
}
