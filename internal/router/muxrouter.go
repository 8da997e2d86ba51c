package router

import (
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/kestrelhttp/kestrel/internal/message"
)

// MuxRouter is the default Router, delegating path-template matching (
// literal segments, `{name}`/`{name:regex}` parameters, optional trailing
// slash) to gorilla/mux's own matcher rather than reimplementing one, per
// SPEC_FULL.md §11. Each registered Endpoint becomes one mux.Route; Find
// builds a minimal *http.Request carrying only Method/URL/Host (the
// fields mux's matcher actually consults) to drive router.Match without
// adopting net/http's server model anywhere else in this engine.
type MuxRouter struct {
	mu       sync.RWMutex
	mux      *mux.Router
	routes   map[*mux.Route]Endpoint
	notFound func(req *message.Request) *message.Response
}

// NewMuxRouter builds an empty router with spec.md's default not-found
// behavior: 404 with a small body.
func NewMuxRouter() *MuxRouter {
	r := mux.NewRouter()
	r.StrictSlash(true) // spec.md §4.10: "a trailing slash is always optional"
	r.UseEncodedPath()
	return &MuxRouter{
		mux:    r,
		routes: make(map[*mux.Route]Endpoint),
		notFound: func(req *message.Request) *message.Response {
			resp := message.NewResponse(message.StatusNotFound)
			resp.Body([]byte("404 not found\n"))
			return resp
		},
	}
}

// SetNotFound overrides the router-owned default not-found handler
// (spec.md's "Global default not-found handler... The router owns an
// overridable function").
func (r *MuxRouter) SetNotFound(fn func(req *message.Request) *message.Response) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notFound = fn
}

func (r *MuxRouter) Register(ep Endpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	route := r.mux.NewRoute().Path(ep.Pattern)
	if methods := methodStrings(ep.Methods); len(methods) > 0 {
		route = route.Methods(methods...)
	}
	r.routes[route] = ep
	return route.GetError()
}

func (r *MuxRouter) Find(req *message.Request) (Endpoint, map[string]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	httpReq := syntheticHTTPRequest(req)
	var match mux.RouteMatch
	if !r.mux.Match(httpReq, &match) {
		return Endpoint{}, nil, false
	}
	ep, ok := r.routes[match.Route]
	if !ok {
		return Endpoint{}, nil, false
	}
	return ep, match.Vars, true
}

func (r *MuxRouter) NotFound(req *message.Request) *message.Response {
	r.mu.RLock()
	fn := r.notFound
	r.mu.RUnlock()
	return fn(req)
}

// syntheticHTTPRequest builds just enough of an *http.Request for
// mux.Router.Match to operate on: Method, URL (path + query), and Host.
// gorilla/mux's matcher never touches the body or headers for plain
// path/method routes, so nothing else needs to be populated.
func syntheticHTTPRequest(req *message.Request) *http.Request {
	u := &url.URL{Path: req.Path, RawQuery: rawQuery(req)}
	host := req.Headers.Get(":authority")
	if host == "" {
		host = req.Headers.Get("Host")
	}
	return &http.Request{
		Method: req.Method.String(),
		URL:    u,
		Host:   host,
	}
}

func rawQuery(req *message.Request) string {
	var parts []string
	for _, kv := range req.Query.Pairs() {
		parts = append(parts, url.QueryEscape(kv.Key)+"="+url.QueryEscape(kv.Value))
	}
	return strings.Join(parts, "&")
}

func methodStrings(set message.Set) []string {
	all := []message.Method{
		message.MethodGET, message.MethodHEAD, message.MethodPOST, message.MethodPUT,
		message.MethodDELETE, message.MethodCONNECT, message.MethodOPTIONS,
		message.MethodTRACE, message.MethodPATCH,
	}
	var out []string
	for _, m := range all {
		if set.Allows(m) {
			out = append(out, m.String())
		}
	}
	return out
}
