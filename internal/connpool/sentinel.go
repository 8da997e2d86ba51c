package connpool

import (
	"time"

	"github.com/kestrelhttp/kestrel/internal/kconst"
)

// sentinelPollInterval bounds how long the sentinel's timed condition wait
// sleeps before re-checking idle-deadline/refcount even absent a broadcast
// — the keep-alive timeout is time-based, not purely event-driven, so a
// plain cond.Wait (woken only by Release/MarkClosed) isn't enough on its
// own to notice "still zero refs, now past the deadline".
const sentinelPollInterval = kconst.SentinelPollInterval

// runSentinel is the per-slot goroutine spawned by Table.Allocate. It
// enforces spec.md §4.7's keep-alive idle timeout: a slot with zero live
// references is freed once it has either been explicitly closed or sat
// idle past its configured keep-alive window. It exits once the slot has
// been freed.
//
// Grounded on the teacher's pkg/transport/transport.go getFromPool, which
// builds a timed condition-variable wait out of sync.Cond (no native
// timeout) by running cond.Wait in a helper goroutine and racing its
// completion against time.After in a select.
func runSentinel(t *Table, s *Slot) {
	for {
		if s.eligibleForFree() {
			t.freeSlot(s)
			return
		}

		waitOrTimeout(s, sentinelPollInterval)

		if s.tombstone.Load() {
			return
		}
	}
}

// waitOrTimeout blocks on s.cond until either a broadcast arrives (a
// Release or MarkClosed call) or d elapses, whichever comes first. It
// reports whether the wait returned due to a broadcast.
func waitOrTimeout(s *Slot, d time.Duration) bool {
	done := make(chan struct{})
	waiting := make(chan struct{})
	go func() {
		s.mu.Lock()
		close(waiting)
		s.cond.Wait()
		s.mu.Unlock()
		close(done)
	}()
	<-waiting

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		// Nobody may ever broadcast again before the slot is freed and
		// reused, which would leak the helper goroutine parked in
		// cond.Wait. Broadcasting here retires it deterministically;
		// the extra spurious wakeup it causes is harmless.
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
		<-done
		return false
	}
}
