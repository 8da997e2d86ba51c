// Package h2 implements the HTTP/2 connection state machine: client
// preface negotiation, SETTINGS exchange, frame reassembly, per-stream
// state, and HEADERS/CONTINUATION/DATA correlation into Request objects,
// per spec.md §4.4.
//
// Grounded on the teacher's pkg/http2/stream.go (StreamManager's
// map[uint32]*Stream + mutex + isValidStateTransition shape), generalized
// from a client's stream bookkeeping to a server's: streams are created on
// inbound HEADERS rather than outbound request issuance, and the
// transition table matches RFC 7540 §5.1's server-side view.
package h2

import (
	"github.com/kestrelhttp/kestrel/internal/hpack"
)

// StreamState is one of the five states spec.md §4.4 tracks per stream
// (RFC 7540 §5.1's reserved states are never reached by a server that
// never pushes).
type StreamState int

const (
	StreamIdle StreamState = iota
	StreamOpen
	StreamHalfClosedRemote
	StreamHalfClosedLocal
	StreamClosed
)

func isValidStreamTransition(from, to StreamState) bool {
	switch from {
	case StreamIdle:
		return to == StreamOpen || to == StreamClosed
	case StreamOpen:
		return to == StreamHalfClosedRemote || to == StreamHalfClosedLocal || to == StreamClosed
	case StreamHalfClosedRemote:
		return to == StreamClosed
	case StreamHalfClosedLocal:
		return to == StreamClosed
	case StreamClosed:
		return false
	default:
		return false
	}
}

// stream is one HTTP/2 stream's accumulated state, per spec.md §3's Stream
// entry: {id, state, accumulated header list, accumulated DATA body}.
type stream struct {
	id      uint32
	state   StreamState
	headers []hpack.Header
	body    []byte

	headersComplete bool // END_HEADERS seen on the terminal HEADERS/CONTINUATION
}

func newStream(id uint32) *stream {
	return &stream{id: id, state: StreamIdle}
}

// transition moves the stream to 'to' if the transition is legal; an
// illegal transition is silently ignored rather than erroring, matching
// spec.md's stance that stream-level protocol violations are tolerated
// (only connection-scoped violations like DATA on an unknown stream are
// fatal).
func (s *stream) transition(to StreamState) {
	if isValidStreamTransition(s.state, to) {
		s.state = to
	}
}
