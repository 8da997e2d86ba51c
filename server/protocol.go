package server

import (
	"bytes"
	"crypto/tls"

	"github.com/kestrelhttp/kestrel/internal/h1"
	"github.com/kestrelhttp/kestrel/internal/h2"
	"github.com/kestrelhttp/kestrel/internal/kconst"
	"github.com/kestrelhttp/kestrel/internal/ktls"
	"github.com/kestrelhttp/kestrel/internal/message"
)

// h2State holds the per-connection HTTP/2 machine.
type h2State struct {
	conn *h2.Connection
}

// serviceConnection drains one readiness event's worth of bytes off a
// connection and feeds them through its protocol pipeline, per spec.md's
// "per-connection on_read drains the socket, feeds bytes into the
// protocol state machine" data flow. Runs on an internal/runtime worker,
// or inline on the goroutine that called OnReadable (the reactor's own)
// when the pool is saturated.
func (s *Server) serviceConnection(cs *connState) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	buf := make([]byte, s.cfg.Runtime.readBufferSize())
	n, err := cs.rw.Read(buf)
	if n > 0 {
		s.counters.AddBytesRead(n)
		cs.slot.Touch()
		s.consume(cs, buf[:n])
	}
	if err != nil {
		s.closeConnection(cs)
	}
}

// consume routes data into the connection's protocol handler, first
// sniffing which protocol is in play if that hasn't been decided yet.
func (s *Server) consume(cs *connState, data []byte) {
	if cs.proto == protoUnknown {
		decided := s.sniffProtocol(cs, data)
		if !decided {
			return
		}
		data = cs.pending
		cs.pending = nil
	}

	switch cs.proto {
	case protoHTTP2:
		s.consumeHTTP2(cs, data)
	case protoHTTP1:
		s.consumeHTTP1(cs, data)
	}
}

// sniffProtocol decides HTTP/1.1 vs HTTP/2 for a connection that hasn't
// picked one yet: TLS connections go by the ALPN result (available once
// the lazy handshake completes on first Read); plaintext connections go
// by whether the client opened with the fixed 24-byte HTTP/2 preface
// (spec.md §4.4's "expect-preface" state), buffering until either a
// mismatch or a full preface is seen.
func (s *Server) sniffProtocol(cs *connState, data []byte) bool {
	cs.pending = append(cs.pending, data...)

	if negotiated, ok := s.alpnProtocol(cs); ok {
		if negotiated == kconst.ALPNH2 {
			cs.proto = protoHTTP2
		} else {
			cs.proto = protoHTTP1
		}
		s.initProtocolState(cs)
		return true
	}

	preface := []byte(kconst.ClientPreface)
	n := len(cs.pending)
	if n > len(preface) {
		n = len(preface)
	}
	if !bytes.Equal(cs.pending[:n], preface[:n]) {
		cs.proto = protoHTTP1
		s.initProtocolState(cs)
		return true
	}
	if len(cs.pending) >= len(preface) {
		cs.proto = protoHTTP2
		s.initProtocolState(cs)
		return true
	}
	return false // still need more bytes to disambiguate
}

func (s *Server) initProtocolState(cs *connState) {
	if cs.proto == protoHTTP2 {
		cs.h2 = &h2State{conn: h2.NewConnection()}
	}
}

// alpnProtocol returns the ALPN-negotiated protocol for a TLS connection,
// or ok=false if cs isn't TLS-wrapped.
func (s *Server) alpnProtocol(cs *connState) (string, bool) {
	t, ok := cs.rw.(*tls.Conn)
	if !ok {
		return "", false
	}
	return ktls.NegotiateALPN(t), true
}

func (s *Server) consumeHTTP1(cs *connState, data []byte) {
	cs.pending = append(cs.pending, data...)
	for {
		req, consumed, complete, err := h1.ParseRequest(cs.pending)
		if err != nil {
			s.closeConnection(cs)
			return
		}
		if !complete {
			return
		}
		cs.pending = cs.pending[consumed:]
		req.Conn = cs.slot

		resp := s.handleRequest(&req, nil)
		if err := s.writeHTTP1Response(cs, resp); err != nil {
			s.closeConnection(cs)
			return
		}
	}
}

func (s *Server) writeHTTP1Response(cs *connState, resp *message.Response) error {
	s.counters.HandledRequest()
	head := h1.SerializeResponseHead(resp.StatusCode, &resp.Headers)
	if _, err := cs.rw.Write(head); err != nil {
		return err
	}
	s.counters.AddBytesWritten(len(head))

	for {
		chunk, ok := resp.NextChunk()
		if !ok {
			return nil
		}
		if len(chunk.Data) > 0 {
			if _, err := cs.rw.Write(chunk.Data); err != nil {
				return err
			}
			s.counters.AddBytesWritten(len(chunk.Data))
		}
		if chunk.Last {
			return nil
		}
	}
}

func (s *Server) consumeHTTP2(cs *connState, data []byte) {
	conn := cs.h2.conn
	ev := conn.Process(data)
	for {
		switch ev.Kind {
		case h2.EventNewRequest:
			req := conn.Request(ev.StreamID)
			req.Conn = cs.slot
			resp := s.handleRequest(&req, nil)
			if err := conn.WriteResponse(cs.rw, ev.StreamID, resp); err != nil {
				s.closeConnection(cs)
				return
			}
			s.counters.HandledRequest()
		case h2.EventInvalid, h2.EventEOF:
			s.flushOutbound(cs, conn)
			s.closeConnection(cs)
			return
		}
		s.flushOutbound(cs, conn)
		if ev.Kind == h2.EventNeedMore {
			return
		}
		ev = conn.Process(nil)
	}
}

func (s *Server) flushOutbound(cs *connState, conn *h2.Connection) {
	if out := conn.DrainOutbound(); len(out) > 0 {
		if _, err := cs.rw.Write(out); err == nil {
			s.counters.AddBytesWritten(len(out))
		}
	}
}

// handleRequest resolves req through the router and invokes the matched
// handler, dispatching to a dedicated goroutine for Async endpoints or a
// named pool when configured, per spec.md §4.9. A handler panic is
// converted into a 500 response rather than propagating; the connection
// is not closed and goes on serving requests.
func (s *Server) handleRequest(req *message.Request, binding map[string]string) *message.Response {
	ep, vars, ok := s.cfg.Router.Find(req)
	if !ok {
		return s.cfg.Router.NotFound(req)
	}
	if binding == nil {
		binding = vars
	}
	return s.invokeHandler(ep, req, binding)
}

func (s *Server) invokeHandler(ep EndpointConfig, req *message.Request, binding map[string]string) (resp *message.Response) {
	run := func() (out *message.Response) {
		defer func() {
			if r := recover(); r != nil {
				out = errorResponse()
			}
		}()
		return ep.Handler(req, binding)
	}

	if !ep.Async && ep.Pool == "" {
		return run()
	}

	done := make(chan *message.Response, 1)
	dispatch := s.pool.Attach
	if ep.Pool != "" {
		if named, ok := s.namedPool(ep.Pool); ok {
			dispatch = func(fn func()) { _ = named.TryDispatch(fn) }
		}
	}
	dispatch(func() { done <- run() })
	return <-done
}

func errorResponse() *message.Response {
	resp := message.NewResponse(message.StatusInternalServerError)
	resp.Body([]byte("internal server error\n"))
	return resp
}

// closeConnection ends a connection's lifecycle: it marks the slot closed
// (so any concurrent watch loop stops driving it), drops the base
// reference Table.Allocate seeded, and forgets the server-side state.
// This is the single release point for that base hold — called at most
// once per connection, since forgetConnection removes it from s.conns and
// OnReadable/serviceConnection can no longer reach it afterward.
func (s *Server) closeConnection(cs *connState) {
	cs.slot.MarkClosed()
	cs.slot.Release()
	s.counters.ClosedExplicit()
	s.forgetConnection(cs)
}
