// Package kestrel is the root package of the HTTP serving engine: a
// connection-lifecycle manager (internal/connpool), an edge-triggered
// epoll reactor with a portable goroutine-per-connection fallback
// (internal/reactor), a bounded worker pool (internal/runtime), HTTP/1.1
// and HTTP/2 wire codecs (internal/h1, internal/h2, internal/hpack,
// internal/frame), a pluggable Router (internal/router), and the Server
// that wires them together (server).
//
// Following the teacher's root-package idiom of re-exporting the handful
// of types a caller actually needs, so most callers only ever import
// "github.com/kestrelhttp/kestrel".
package kestrel

import (
	"github.com/kestrelhttp/kestrel/internal/kmetrics"
	"github.com/kestrelhttp/kestrel/internal/message"
	"github.com/kestrelhttp/kestrel/server"
)

// Version is the current version of the engine.
const Version = "0.1.0"

// GetVersion returns the current version of the engine.
func GetVersion() string {
	return Version
}

// Re-export the types most callers need to configure and run a server
// without reaching into internal/ or server/ directly.
type (
	// Config describes one server instance: listening address, connection
	// table sizing, optional TLS material, and the router driving request
	// dispatch.
	Config = server.Config

	// RuntimeConfig sizes the bounded worker pool and any named pools.
	RuntimeConfig = server.RuntimeConfig

	// Endpoint is one registered route: a method set, a path pattern, the
	// handler it dispatches to, and async/named-pool dispatch hints.
	Endpoint = server.EndpointConfig

	// Handler processes a matched Request and produces a Response.
	Handler = server.Handler

	// Router resolves requests to endpoints; NewRouter builds the default
	// gorilla/mux-backed implementation.
	Router = server.Router

	// Request is the decoded form of an inbound HTTP/1.1 or HTTP/2 message.
	Request = message.Request

	// Response is the outbound side of the Request/Response pair, streamed
	// chunk by chunk rather than built up as one buffer.
	Response = message.Response

	// StatusCode is an HTTP response status.
	StatusCode = message.StatusCode

	// Method is one of the closed set of HTTP methods this engine
	// recognizes.
	Method = message.Method

	// Metrics is a point-in-time snapshot of a Server's atomic counters.
	Metrics = kmetrics.Snapshot

	// Set is a bitmask of permitted methods, used by Endpoint.Methods.
	Set = message.Set
)

// Re-export the status codes and methods callers build handlers against,
// so "kestrel.StatusOK"/"kestrel.MethodGET" read the same as the
// underlying message package without a second import.
const (
	StatusOK                  = message.StatusOK
	StatusCreated             = message.StatusCreated
	StatusNoContent           = message.StatusNoContent
	StatusMovedPermanently    = message.StatusMovedPermanently
	StatusFound               = message.StatusFound
	StatusNotModified         = message.StatusNotModified
	StatusBadRequest          = message.StatusBadRequest
	StatusUnauthorized        = message.StatusUnauthorized
	StatusForbidden           = message.StatusForbidden
	StatusNotFound            = message.StatusNotFound
	StatusMethodNotAllowed    = message.StatusMethodNotAllowed
	StatusRequestTimeout      = message.StatusRequestTimeout
	StatusTeapot              = message.StatusTeapot
	StatusTooManyRequests     = message.StatusTooManyRequests
	StatusInternalServerError = message.StatusInternalServerError
	StatusNotImplemented      = message.StatusNotImplemented
	StatusBadGateway          = message.StatusBadGateway
	StatusServiceUnavailable  = message.StatusServiceUnavailable
)

const (
	MethodGET     = message.MethodGET
	MethodHEAD    = message.MethodHEAD
	MethodPOST    = message.MethodPOST
	MethodPUT     = message.MethodPUT
	MethodDELETE  = message.MethodDELETE
	MethodCONNECT = message.MethodCONNECT
	MethodOPTIONS = message.MethodOPTIONS
	MethodTRACE   = message.MethodTRACE
	MethodPATCH   = message.MethodPATCH
)

// NewRouter builds the default gorilla/mux-backed Router.
func NewRouter() Router { return server.NewRouter() }

// NewResponse builds a Response with the given status and an empty header
// set; use Body for a single-buffer response or Stream for a chunked one.
func NewResponse(status StatusCode) *Response { return message.NewResponse(status) }

// NewSet builds a method bitset for Endpoint.Methods.
func NewSet(methods ...Method) message.Set { return message.NewSet(methods...) }

// New builds a Server from cfg. cfg.Router must be set; use NewRouter for
// the default implementation.
func New(cfg Config) (*Server, error) { return server.New(cfg) }

// Server is one running HTTP serving engine.
type Server = server.Server
