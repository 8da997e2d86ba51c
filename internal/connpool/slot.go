// Package connpool implements the connection lifetime engine of spec.md
// §3/§4.7: a fixed-capacity slot table indexed by integer (never a raw
// pointer), atomic reference counting, and a per-slot sentinel enforcing
// the keep-alive idle timeout.
//
// Grounded on the teacher's pkg/transport/transport.go hostPool (mutex +
// sync.Cond + atomic counters, a timed condition-variable wait built from
// a helper goroutine + select + time.After since raw sync.Cond has no
// timeout), generalized from an idle-connection LIFO stack to a
// fixed-size, index-addressed slot table per spec.md's "stale pointer"
// design note.
package connpool

import (
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Slot is one connection's durable identity in the table. It always
// exists at a stable memory address for its slot index's lifetime — only
// the tombstone bit changes between a slot being free and live — which is
// what lets a readiness event's integer slot index be resolved safely
// even after the connection it once named has been freed and possibly
// reused.
type Slot struct {
	index int

	mu sync.Mutex // serializes writes to conn, per spec.md §3
	cond *sync.Cond

	conn       net.Conn
	createdAt  time.Time
	lastActive time.Time
	keepAlive  time.Duration

	refCount  atomic.Int32
	closed    atomic.Bool
	tombstone atomic.Bool // true = free / not a live connection
}

func newSlot(index int) *Slot {
	s := &Slot{index: index}
	s.cond = sync.NewCond(&s.mu)
	s.tombstone.Store(true)
	return s
}

// Index returns the slot's stable position in the table, the value that
// should be stored as epoll readiness-event user data.
func (s *Slot) Index() int { return s.index }

// Conn returns the underlying net.Conn. Callers must hold a reference
// (via AddRef) for the duration of any I/O to guarantee the slot isn't
// recycled underneath them.
func (s *Slot) Conn() net.Conn { return s.conn }

// RemoteAddr implements message.ConnInfo.
func (s *Slot) RemoteAddr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.RemoteAddr()
}

// Write serializes a write against concurrent writers on the same slot,
// per spec.md's "mutex guarding the socket for serialized writes".
func (s *Slot) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Write(p)
}

// Touch bumps the slot's last-activity timestamp, called by the acceptor/
// reactor whenever a readiness event fires for this slot.
func (s *Slot) Touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// MarkClosed flags the slot as explicitly closed (e.g. the peer sent
// Connection: close, or a protocol error occurred), making it eligible
// for the sentinel to free regardless of the keep-alive timer.
func (s *Slot) MarkClosed() {
	s.closed.Store(true)
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Closed reports whether MarkClosed has been called on this slot, letting
// a caller stop driving a connection immediately rather than waiting for
// the sentinel's next poll tick to tombstone it.
func (s *Slot) Closed() bool { return s.closed.Load() }

// idleDeadlinePassed reports whether the slot has sat past its keep-alive
// window since the last activity, under the slot's own lock.
func (s *Slot) idleDeadlinePassed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActive) > s.keepAlive
}

func (s *Slot) eligibleForFree() bool {
	return s.refCount.Load() == 0 && (s.closed.Load() || s.idleDeadlinePassed())
}

// AddRef increments the slot's hold count; pair every AddRef with a
// Release once the corresponding work (an in-flight handler, a dispatched
// task, the connection's whole watched lifetime) completes.
func (s *Slot) AddRef() { s.refCount.Add(1) }

// Release decrements the slot's hold count and wakes its sentinel so it
// can re-evaluate whether the slot is now eligible to be freed.
func (s *Slot) Release() {
	s.refCount.Add(-1)
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
}
