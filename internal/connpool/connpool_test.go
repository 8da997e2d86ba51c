package connpool

import (
	"net"
	"testing"
	"time"
)

func TestAllocateTakeRoundTrip(t *testing.T) {
	table := NewTable(2)
	client, server := net.Pipe()
	defer client.Close()

	slot, err := table.Allocate(server, time.Hour)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	got, ok := table.Take(slot.Index())
	if !ok || got != slot {
		t.Fatalf("expected Take to resolve the same slot, got %v ok=%v", got, ok)
	}
	table.Release(slot) // drop the acceptor's own initial reference
}

func TestTableExhaustionReturnsResourceError(t *testing.T) {
	table := NewTable(1)
	c1, s1 := net.Pipe()
	defer c1.Close()

	if _, err := table.Allocate(s1, time.Hour); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	c2, s2 := net.Pipe()
	defer c2.Close()
	defer s2.Close()
	if _, err := table.Allocate(s2, time.Hour); err == nil {
		t.Fatalf("expected resource-exhaustion error on a full table")
	}
}

func TestSlotFreedAfterCloseAndRefcountZero(t *testing.T) {
	table := NewTable(1)
	client, server := net.Pipe()
	defer client.Close()

	slot, err := table.Allocate(server, time.Hour)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	idx := slot.Index()

	slot.MarkClosed()
	table.Release(slot) // acceptor's reference drops refcount to zero

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := table.Take(idx); !ok {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("slot was never tombstoned after close+zero-refcount")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// The index must be reusable for a fresh connection afterward.
	c2, s2 := net.Pipe()
	defer c2.Close()
	reused, err := table.Allocate(s2, time.Hour)
	if err != nil {
		t.Fatalf("Allocate after free: %v", err)
	}
	if reused.Index() != idx {
		t.Fatalf("expected the single freed slot to be reused, got index %d", reused.Index())
	}
	table.Release(reused)
}

func TestTakeRejectsTombstonedIndex(t *testing.T) {
	table := NewTable(1)
	if _, ok := table.Take(0); ok {
		t.Fatalf("expected Take on a never-allocated slot to fail")
	}
	if _, ok := table.Take(5); ok {
		t.Fatalf("expected Take on an out-of-range index to fail")
	}
}

func TestAddRefKeepsSlotAliveUntilReleased(t *testing.T) {
	table := NewTable(1)
	client, server := net.Pipe()
	defer client.Close()

	slot, err := table.Allocate(server, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	table.AddRef(slot) // simulate a worker picking up the slot

	time.Sleep(100 * time.Millisecond) // past the keep-alive window
	if _, ok := table.Take(slot.Index()); !ok {
		t.Fatalf("slot must not be freed while a handler still holds a reference")
	}

	table.Release(slot) // acceptor's reference
	table.Release(slot) // worker's reference

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := table.Take(slot.Index()); !ok {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("slot was never freed once all references were released past keep-alive")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
