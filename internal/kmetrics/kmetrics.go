// Package kmetrics exposes the atomic counters collaborators are allowed to
// read per spec.md's Non-goals ("any observability beyond counters exposed
// to collaborators"). Shaped after the teacher's timing package, which
// measured request phases with start/end markers; here the phases are
// replaced with monotonically increasing server-lifetime counters.
package kmetrics

import "sync/atomic"

// Counters is a set of atomic counters safe for concurrent use by the
// acceptor, workers, and sentinels.
type Counters struct {
	connectionsAccepted      atomic.Uint64
	connectionsRejectedFull  atomic.Uint64
	connectionsClosedIdle    atomic.Uint64
	connectionsClosedExplicit atomic.Uint64
	requestsHandled          atomic.Uint64
	bytesRead                atomic.Uint64
	bytesWritten             atomic.Uint64
	hpackDecodeErrors        atomic.Uint64
	frameErrors              atomic.Uint64
}

// Snapshot is a point-in-time copy of Counters for a collaborator to inspect.
type Snapshot struct {
	ConnectionsAccepted       uint64
	ConnectionsRejectedFull   uint64
	ConnectionsClosedIdle     uint64
	ConnectionsClosedExplicit uint64
	RequestsHandled           uint64
	BytesRead                 uint64
	BytesWritten              uint64
	HPACKDecodeErrors         uint64
	FrameErrors               uint64
}

func (c *Counters) AcceptedConnection()      { c.connectionsAccepted.Add(1) }
func (c *Counters) RejectedConnectionFull()  { c.connectionsRejectedFull.Add(1) }
func (c *Counters) ClosedIdle()              { c.connectionsClosedIdle.Add(1) }
func (c *Counters) ClosedExplicit()          { c.connectionsClosedExplicit.Add(1) }
func (c *Counters) HandledRequest()          { c.requestsHandled.Add(1) }
func (c *Counters) AddBytesRead(n int)       { c.bytesRead.Add(uint64(n)) }
func (c *Counters) AddBytesWritten(n int)    { c.bytesWritten.Add(uint64(n)) }
func (c *Counters) HPACKDecodeError()        { c.hpackDecodeErrors.Add(1) }
func (c *Counters) FrameError()              { c.frameErrors.Add(1) }

// Snapshot returns a consistent-enough (not atomically joint) read of all
// counters for reporting to a collaborator.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		ConnectionsAccepted:       c.connectionsAccepted.Load(),
		ConnectionsRejectedFull:   c.connectionsRejectedFull.Load(),
		ConnectionsClosedIdle:     c.connectionsClosedIdle.Load(),
		ConnectionsClosedExplicit: c.connectionsClosedExplicit.Load(),
		RequestsHandled:           c.requestsHandled.Load(),
		BytesRead:                 c.bytesRead.Load(),
		BytesWritten:              c.bytesWritten.Load(),
		HPACKDecodeErrors:         c.hpackDecodeErrors.Load(),
		FrameErrors:               c.frameErrors.Load(),
	}
}
