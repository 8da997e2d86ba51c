package h2

import (
	"github.com/kestrelhttp/kestrel/internal/frame"
	"github.com/kestrelhttp/kestrel/internal/hpack"
	"github.com/kestrelhttp/kestrel/internal/kconst"
	"github.com/kestrelhttp/kestrel/internal/kerr"
	"github.com/kestrelhttp/kestrel/internal/message"
)

// ConnState is the per-connection (not per-stream) state spec.md §4.4
// names: expect-preface, expect-settings, idle, closed.
type ConnState int

const (
	StateExpectPreface ConnState = iota
	StateExpectSettings
	StateIdle
	StateClosed
)

// EventKind discriminates the sum-typed result of one Process call, per
// spec.md §4.4's "Frame reassembly" paragraph.
type EventKind int

const (
	EventNeedMore EventKind = iota
	EventSettingsProcessed
	EventNewRequest
	EventInvalid
	EventEOF
	// EventHandled covers frame types spec.md documents as "accepted and
	// ignored" (PING, WINDOW_UPDATE, RST_STREAM, GOAWAY, unknown types,
	// and a SETTINGS ACK) — a generalization of "settings-processed" to
	// every frame that completes with no caller-visible effect, since the
	// spec's five named outcomes don't individually enumerate these.
	EventHandled
)

// Event is the result of one Process call.
type Event struct {
	Kind     EventKind
	StreamID uint32
	Err      error
}

// Connection is one HTTP/2 connection's state machine: preface/settings
// negotiation, frame reassembly, the per-stream table, and HPACK codec
// state for both directions.
//
// Grounded on the teacher's pkg/http2/stream.go StreamManager (map +
// mutex-guarded state transitions), generalized to a server's inbound
// HEADERS-driven stream creation; the preface/settings/reassembly
// machinery itself has no teacher analogue (the teacher dials out, it
// never negotiates a server preface) and is built from spec.md §4.4.
type Connection struct {
	state ConnState

	reassembler frame.Reassembler
	frameQueue  []frame.Frame
	prefaceBuf  []byte

	decoder *hpack.Decoder
	encoder *hpack.Encoder

	streams              map[uint32]*stream
	pendingHeaderStream  uint32 // 0 = no HEADERS/CONTINUATION sequence in progress

	outbox [][]byte
}

func NewConnection() *Connection {
	return &Connection{
		state:   StateExpectPreface,
		decoder: hpack.NewDecoder(kconst.DefaultHpackTableSize),
		encoder: hpack.NewEncoder(kconst.DefaultHpackTableSize),
		streams: make(map[uint32]*stream),
	}
}

// DrainOutbound returns and clears any bytes the state machine has queued
// to write back to the peer (SETTINGS replies, SETTINGS/PING ACKs).
func (c *Connection) DrainOutbound() []byte {
	if len(c.outbox) == 0 {
		return nil
	}
	var total int
	for _, b := range c.outbox {
		total += len(b)
	}
	out := make([]byte, 0, total)
	for _, b := range c.outbox {
		out = append(out, b...)
	}
	c.outbox = nil
	return out
}

// Process feeds newly read bytes into the state machine and returns one
// event. Callers loop: call Process(data) once after a socket read, then
// call Process(nil) repeatedly to drain any additional frames already
// buffered from that read, until EventNeedMore signals the buffer is
// fully drained and it's time to read more from the socket.
func (c *Connection) Process(data []byte) Event {
	if c.state == StateClosed {
		return Event{Kind: EventEOF}
	}

	if c.state == StateExpectPreface {
		c.prefaceBuf = append(c.prefaceBuf, data...)
		if len(c.prefaceBuf) < len(kconst.ClientPreface) {
			return Event{Kind: EventNeedMore}
		}
		if string(c.prefaceBuf[:len(kconst.ClientPreface)]) != kconst.ClientPreface {
			c.state = StateClosed
			return Event{Kind: EventInvalid, Err: kerr.NewFrameError("h2.Connection.Process", "invalid client preface", nil)}
		}
		remainder := c.prefaceBuf[len(kconst.ClientPreface):]
		c.prefaceBuf = nil
		c.state = StateExpectSettings
		data = remainder
	} else {
		// Only feed new bytes once per call; if data is empty we're just
		// draining frameQueue from an earlier Push.
	}

	if len(data) > 0 || len(c.frameQueue) == 0 {
		frames, err := c.reassembler.Push(data)
		if err != nil {
			c.state = StateClosed
			return Event{Kind: EventInvalid, Err: err}
		}
		c.frameQueue = append(c.frameQueue, frames...)
	}

	if len(c.frameQueue) == 0 {
		return Event{Kind: EventNeedMore}
	}

	f := c.frameQueue[0]
	c.frameQueue = c.frameQueue[1:]
	return c.handleFrame(f)
}

func (c *Connection) handleFrame(f frame.Frame) Event {
	if c.state == StateExpectSettings {
		return c.handleFirstSettings(f)
	}
	switch f.Type {
	case frame.TypeSettings:
		return c.handleSettings(f)
	case frame.TypePing:
		return c.handlePing(f)
	case frame.TypeWindowUpdate:
		return Event{Kind: EventHandled}
	case frame.TypeHeaders:
		return c.handleHeaders(f)
	case frame.TypeContinuation:
		return c.handleContinuation(f)
	case frame.TypeData:
		return c.handleData(f)
	case frame.TypeRSTStream:
		if s := c.streams[f.StreamID]; s != nil {
			s.transition(StreamClosed)
		}
		return Event{Kind: EventHandled}
	case frame.TypeGoAway:
		return Event{Kind: EventHandled}
	default:
		return Event{Kind: EventHandled}
	}
}

func (c *Connection) handleFirstSettings(f frame.Frame) Event {
	if f.Type != frame.TypeSettings || f.StreamID != 0 || len(f.Payload)%6 != 0 {
		c.state = StateClosed
		return Event{Kind: EventInvalid, Err: kerr.NewFrameError("h2.Connection.handleFirstSettings", "frame-size-error: expected valid SETTINGS as connection preface", nil)}
	}
	c.outbox = append(c.outbox, frame.Pack(frame.Frame{Type: frame.TypeSettings, StreamID: 0}))
	c.state = StateIdle
	return Event{Kind: EventSettingsProcessed}
}

func (c *Connection) handleSettings(f frame.Frame) Event {
	if f.Flags.Has(frame.FlagAck) {
		return Event{Kind: EventHandled}
	}
	if len(f.Payload)%6 != 0 {
		c.state = StateClosed
		return Event{Kind: EventInvalid, Err: kerr.NewFrameError("h2.Connection.handleSettings", "frame-size-error", nil)}
	}
	c.outbox = append(c.outbox, frame.Pack(frame.Frame{Type: frame.TypeSettings, Flags: frame.FlagAck, StreamID: 0}))
	return Event{Kind: EventSettingsProcessed}
}

func (c *Connection) handlePing(f frame.Frame) Event {
	if f.Flags.Has(frame.FlagAck) {
		return Event{Kind: EventHandled}
	}
	if err := frame.ValidatePingPayload(f.Payload); err != nil {
		c.state = StateClosed
		return Event{Kind: EventInvalid, Err: err}
	}
	c.outbox = append(c.outbox, frame.Pack(frame.Frame{
		Type: frame.TypePing, Flags: frame.FlagAck, StreamID: 0, Length: uint32(len(f.Payload)), Payload: f.Payload,
	}))
	return Event{Kind: EventHandled}
}

func (c *Connection) getOrCreateStream(id uint32) *stream {
	s, ok := c.streams[id]
	if !ok {
		s = newStream(id)
		c.streams[id] = s
	}
	return s
}

func (c *Connection) handleHeaders(f frame.Frame) Event {
	hp, err := frame.ParseHeadersPayload(f.Payload, f.Flags)
	if err != nil {
		c.state = StateClosed
		return Event{Kind: EventInvalid, Err: err}
	}

	s := c.getOrCreateStream(f.StreamID)
	s.transition(StreamOpen)
	c.pendingHeaderStream = f.StreamID

	if err := c.decoder.Feed(hp.HeaderBlock); err != nil {
		c.state = StateClosed
		return Event{Kind: EventInvalid, Err: err}
	}

	return c.finishHeaderBlockIfDone(s, f.Flags)
}

func (c *Connection) handleContinuation(f frame.Frame) Event {
	s, ok := c.streams[f.StreamID]
	if !ok || c.pendingHeaderStream != f.StreamID {
		c.state = StateClosed
		return Event{Kind: EventInvalid, Err: kerr.NewFrameError("h2.Connection.handleContinuation", "CONTINUATION targets no pending HEADERS stream", nil)}
	}

	if err := c.decoder.Feed(f.Payload); err != nil {
		c.state = StateClosed
		return Event{Kind: EventInvalid, Err: err}
	}

	return c.finishHeaderBlockIfDone(s, f.Flags)
}

func (c *Connection) finishHeaderBlockIfDone(s *stream, flags frame.Flags) Event {
	if !flags.Has(frame.FlagEndHeaders) {
		return Event{Kind: EventHandled}
	}

	s.headers = append(s.headers, c.decoder.Finish()...)
	s.headersComplete = true
	c.pendingHeaderStream = 0

	if flags.Has(frame.FlagEndStream) {
		s.transition(StreamHalfClosedRemote)
		return Event{Kind: EventNewRequest, StreamID: s.id}
	}
	return Event{Kind: EventHandled}
}

func (c *Connection) handleData(f frame.Frame) Event {
	s, ok := c.streams[f.StreamID]
	if !ok {
		c.state = StateClosed
		return Event{Kind: EventInvalid, Err: kerr.NewFrameError("h2.Connection.handleData", "DATA on unknown stream", nil)}
	}

	s.body = append(s.body, f.Payload...)

	if f.Flags.Has(frame.FlagEndStream) {
		s.transition(StreamHalfClosedRemote)
		return Event{Kind: EventNewRequest, StreamID: s.id}
	}
	return Event{Kind: EventHandled}
}

// Request builds a message.Request from a stream that has emitted
// EventNewRequest, per spec.md §4.4's "Request emission" paragraph.
func (c *Connection) Request(streamID uint32) message.Request {
	s, ok := c.streams[streamID]
	if !ok {
		return message.ErrorRequest(message.VersionHTTP20)
	}
	return emitRequest(s)
}

// Terminate closes the connection state machine; spec.md §4.4 notes GOAWAY
// emission is optional and not sent, so this only flips the state.
func (c *Connection) Terminate() {
	c.state = StateClosed
}

func (c *Connection) State() ConnState { return c.state }
