// Package server wires the connection lifecycle engine, HTTP/1.1 and
// HTTP/2 state machines, the router, and the worker pool into one running
// HTTP serving engine, per spec.md's top-level data flow: acceptor ->
// runtime -> protocol state machine -> router -> handler -> streamed
// response -> serializer -> socket.
//
// Grounded on the teacher's root-package idiom of typed Config structs
// passed to a constructor (e.g. transport.Config, http2.Options) rather
// than a config-file library, per SPEC_FULL.md §10.5.
package server

import (
	"time"

	"github.com/kestrelhttp/kestrel/internal/kconst"
	"github.com/kestrelhttp/kestrel/internal/router"
)

// Config describes one server instance: its listening address, connection
// table sizing, optional TLS material, and the router driving request
// dispatch.
type Config struct {
	IP             string // empty means all interfaces (INADDR_ANY)
	Port           uint16
	MaxConnections int
	KeepAlive      time.Duration

	// CertFile/KeyFile, when both set, put the server in TLS mode with
	// ALPN negotiation between "h2" and "http/1.1" (spec.md §6). Left
	// empty, connections are plaintext: one that opens with the HTTP/2
	// client preface is served as HTTP/2, any other as HTTP/1.1.
	CertFile string
	KeyFile  string

	Router  router.Router
	Runtime RuntimeConfig

	// Pools configures additional named worker pools beyond the default
	// one, for endpoints that set EndpointConfig.Pool to isolate slow
	// handlers from the rest of the traffic (spec.md §4.9's per-endpoint
	// dispatch target, supplemented from
	// original_source/include/http/endpoint.hpp's pool selector).
	Pools map[string]RuntimeConfig
}

// RuntimeConfig sizes the bounded worker pool (spec.md §4.9/§6).
type RuntimeConfig struct {
	WorkerThreads  int
	ReadBufferSize int
	TaskQueueDepth int
}

func (c Config) maxConnections() int {
	if c.MaxConnections <= 0 {
		return kconst.DefaultMaxConnections
	}
	return c.MaxConnections
}

func (c Config) keepAlive() time.Duration {
	if c.KeepAlive <= 0 {
		return kconst.DefaultKeepAlive
	}
	return c.KeepAlive
}

func (c Config) tlsEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

func (rc RuntimeConfig) workerThreads() int {
	if rc.WorkerThreads <= 0 {
		return kconst.DefaultWorkerThreads
	}
	return rc.WorkerThreads
}

func (rc RuntimeConfig) readBufferSize() int {
	if rc.ReadBufferSize <= 0 {
		return kconst.DefaultReadBufferSize
	}
	return rc.ReadBufferSize
}

func (rc RuntimeConfig) taskQueueDepth() int {
	if rc.TaskQueueDepth <= 0 {
		return kconst.DefaultTaskQueueDepth
	}
	return rc.TaskQueueDepth
}

// EndpointConfig is the spec's per-endpoint configuration surface,
// re-exported here as a thin alias over router.Endpoint so callers
// configure routes without importing internal/router directly.
type EndpointConfig = router.Endpoint

// Handler and Router are re-exported the same way.
type Handler = router.Handler
type Router = router.Router

// NewRouter builds the default gorilla/mux-backed Router.
func NewRouter() *router.MuxRouter { return router.NewMuxRouter() }
