//go:build !linux

package reactor

import (
	"net"
	"sync"

	"github.com/kestrelhttp/kestrel/internal/connpool"
)

// portableAcceptor is the non-Linux fallback: a plain Accept loop plus one
// goroutine per connection watching for readability via blocking Read
// calls. It preserves the same Table/refcount/tombstone contract as the
// epoll implementation so internal/connpool and the server layer above it
// never need to know which one is running.
type portableAcceptor struct {
	cfg      Config
	handler  Handler
	table    *connpool.Table
	listener net.Listener

	mu     sync.Mutex
	closed bool
	ready  chan struct{}
}

// New builds the Acceptor appropriate for the current platform.
func New(cfg Config, handler Handler) Acceptor {
	return &portableAcceptor{cfg: cfg, handler: handler, table: newTable(cfg), ready: make(chan struct{})}
}

func (a *portableAcceptor) Run() error {
	ln, err := net.Listen("tcp", a.cfg.addr())
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()
	close(a.ready)

	for {
		conn, err := ln.Accept()
		if err != nil {
			a.mu.Lock()
			closed := a.closed
			a.mu.Unlock()
			if closed {
				return nil
			}
			return err
		}

		slot, err := a.table.Allocate(conn, a.cfg.keepAlive())
		if err != nil {
			conn.Close()
			continue
		}
		a.handler.OnAccept(slot)
		go a.watch(slot)
	}
}

// watch stands in for the epoll readiness loop: it hands every readability
// notification to the handler until the slot is closed, which is expected
// to do its own buffered reads. A tiny one-byte peek would work too, but
// the handler already owns read buffering (internal/h1, internal/h2), so
// every notification simply tells it "go read what's there" and it pulls
// as much as arrives. The slot's base hold (seeded by Allocate, released
// once the connection's lifecycle ends) keeps the slot alive for this
// whole loop; the handler holds its own reference across whatever
// asynchronous work it dispatches per notification.
func (a *portableAcceptor) watch(slot *connpool.Slot) {
	for !slot.Closed() {
		a.handler.OnReadable(slot)
	}
}

// Addr blocks until Run has bound the listening socket, then returns its
// address.
func (a *portableAcceptor) Addr() net.Addr {
	<-a.ready
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listener.Addr()
}

func (a *portableAcceptor) Close() error {
	a.mu.Lock()
	a.closed = true
	ln := a.listener
	a.mu.Unlock()
	if ln == nil {
		return nil
	}
	return ln.Close()
}
