// Package reactor is the TCP acceptor of spec.md §4.8: it owns the
// listening socket, accepts new connections into an internal/connpool
// Table, and notifies a Handler when a connection becomes readable.
//
// Two implementations share this file's types: an edge-triggered Linux
// epoll reactor (acceptor_linux.go), grounded directly on
// original_source/include/server.hpp's socket setup sequence and the
// teacher's docker-compose epoll wrapper, and a portable goroutine-per-
// connection fallback (acceptor_other.go) for every other GOOS, preserving
// the same Table/refcount/tombstone semantics without requiring raw
// epoll syscalls.
package reactor

import (
	"net"
	"strconv"
	"time"

	"github.com/kestrelhttp/kestrel/internal/connpool"
	"github.com/kestrelhttp/kestrel/internal/kconst"
)

// Config describes the listening socket and connection-table sizing for
// an Acceptor, mirroring the source's server<T>::config builder
// (port/ip/max_connections).
type Config struct {
	IP             string // empty means all interfaces
	Port           uint16
	MaxConnections int
	KeepAlive      time.Duration
}

// Handler is notified by the reactor whenever a connection is accepted or
// becomes readable. It is implemented by the server package, which wires
// a Slot's bytes into the appropriate internal/h1 or internal/h2 pipeline.
type Handler interface {
	// OnAccept is called once per newly accepted connection, before it is
	// registered for readiness events.
	OnAccept(slot *connpool.Slot)
	// OnReadable is called whenever a registered connection has data
	// ready to read. Implementations are expected to dispatch the actual
	// read/parse/handle work onto an internal/runtime Pool rather than
	// block the reactor's own goroutine.
	OnReadable(slot *connpool.Slot)
}

// Acceptor is the common contract both platform implementations satisfy.
type Acceptor interface {
	// Run binds and listens per cfg, then blocks servicing readiness
	// events until Close is called or an unrecoverable error occurs.
	Run() error
	// Close stops the accept loop and releases the listening socket.
	Close() error
	// Addr blocks until Run has performed its bind step, then returns the
	// bound listening address. Used mainly to discover the actual port
	// when Config.Port is 0.
	Addr() net.Addr
}

// addr renders cfg's IP/Port as the string net.Listen expects.
func (cfg Config) addr() string {
	return net.JoinHostPort(cfg.IP, strconv.Itoa(int(cfg.Port)))
}

// newTable centralizes Table construction so both implementations size it
// identically from Config.
func newTable(cfg Config) *connpool.Table {
	n := cfg.MaxConnections
	if n <= 0 {
		n = kconst.DefaultMaxConnections
	}
	return connpool.NewTable(n)
}

func (cfg Config) keepAlive() time.Duration {
	if cfg.KeepAlive <= 0 {
		return kconst.DefaultKeepAlive
	}
	return cfg.KeepAlive
}
