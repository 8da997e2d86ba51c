package connpool

import (
	"net"
	"sync"
	"time"

	"github.com/kestrelhttp/kestrel/internal/kerr"
)

// Table is a fixed-capacity array of Slots, addressed by integer index
// rather than pointer. Capacity is set once at construction per spec.md
// §3 ("a bounded number of concurrent connections"); Allocate returns
// kerr.ErrResourceExhausted once every slot is live.
type Table struct {
	mu    sync.Mutex
	slots []*Slot
	free  []int // indices currently tombstoned, LIFO reuse order
}

// NewTable builds a table of the given fixed capacity, grounded on the
// teacher's hostPool which pre-sizes its idle-connection stack rather than
// growing it unbounded.
func NewTable(capacity int) *Table {
	t := &Table{
		slots: make([]*Slot, capacity),
		free:  make([]int, 0, capacity),
	}
	for i := range t.slots {
		t.slots[i] = newSlot(i)
		t.free = append(t.free, capacity-1-i)
	}
	return t
}

// Capacity returns the table's fixed slot count.
func (t *Table) Capacity() int { return len(t.slots) }

// Allocate claims a free slot for a newly accepted connection, seeding its
// refcount at 1 for the connection's own base hold, per spec.md §4.7's
// refcount rule: "acceptor holds one reference plus one per in-flight
// handler". The base hold is released exactly once the connection's
// lifecycle ends (see server.closeConnection), not per readiness event; a
// per-dispatch AddRef/Release pair around each in-flight handler call is
// layered on top of it.
func (t *Table) Allocate(conn net.Conn, keepAlive time.Duration) (*Slot, error) {
	t.mu.Lock()
	if len(t.free) == 0 {
		t.mu.Unlock()
		return nil, kerr.NewResourceError("connpool.Allocate", "connection table at capacity")
	}
	idx := t.free[len(t.free)-1]
	t.free = t.free[:len(t.free)-1]
	t.mu.Unlock()

	s := t.slots[idx]
	s.mu.Lock()
	s.conn = conn
	s.createdAt = time.Now()
	s.lastActive = s.createdAt
	s.keepAlive = keepAlive
	s.closed.Store(false)
	s.tombstone.Store(false)
	s.refCount.Store(1)
	s.mu.Unlock()

	go runSentinel(t, s)
	return s, nil
}

// Take resolves a readiness-event slot index back into a usable *Slot,
// returning ok=false if the slot has since been tombstoned — the exact
// safety property spec.md's "stale pointer" design note calls for: the
// index always resolves to valid backing memory, but a freed slot is
// never handed back to a caller as live.
func (t *Table) Take(index int) (*Slot, bool) {
	if index < 0 || index >= len(t.slots) {
		return nil, false
	}
	s := t.slots[index]
	if s.tombstone.Load() {
		return nil, false
	}
	return s, true
}

// AddRef increments a slot's reference count; callers (a worker picking up
// a readiness event) must pair this with a Release.
func (t *Table) AddRef(s *Slot) { s.AddRef() }

// Release decrements a slot's reference count and wakes its sentinel so it
// can re-evaluate whether the slot is now eligible to be freed.
func (t *Table) Release(s *Slot) { s.Release() }

// freeSlot tombstones a slot and returns its index to the free list. Called
// only by the slot's own sentinel, once refCount has reached zero and
// either the connection closed or its keep-alive window elapsed.
func (t *Table) freeSlot(s *Slot) {
	s.mu.Lock()
	_ = s.conn.Close()
	s.conn = nil
	s.tombstone.Store(true)
	s.mu.Unlock()

	t.mu.Lock()
	t.free = append(t.free, s.index)
	t.mu.Unlock()
}
