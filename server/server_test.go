package server

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/kestrelhttp/kestrel/internal/connpool"
	"github.com/kestrelhttp/kestrel/internal/kconst"
	"github.com/kestrelhttp/kestrel/internal/message"
)

// newTestConnState wires a Server's OnAccept-equivalent bookkeeping around
// one half of an in-memory net.Pipe, without going through an Acceptor —
// these tests exercise serviceConnection/consume directly, the same
// boundary a reactor readiness event crosses.
func newTestConnState(t *testing.T, s *Server, conn net.Conn) *connState {
	t.Helper()
	table := connpool.NewTable(1)
	slot, err := table.Allocate(conn, time.Minute)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	cs := &connState{slot: slot, rw: slot.Conn()}
	s.mu.Lock()
	s.conns[slot.Index()] = cs
	s.mu.Unlock()
	return cs
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	r := NewRouter()
	if err := r.Register(EndpointConfig{
		Methods: message.NewSet(message.MethodGET),
		Pattern: "/hello/{name}",
		Handler: func(req *message.Request, binding map[string]string) *message.Response {
			resp := message.NewResponse(message.StatusOK)
			resp.Body([]byte("hello " + binding["name"]))
			return resp
		},
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	s, err := New(Config{Router: r})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// roundTrip writes req on clientConn and reads back whatever the server
// writes in response, from a background goroutine — required because
// net.Pipe is unbuffered and synchronous: the server's serviceConnection
// call does its own Read-then-Write on the same pipe, so the client side
// must be reading concurrently rather than after the fact.
func roundTrip(t *testing.T, clientConn net.Conn, req string) string {
	t.Helper()
	if _, err := clientConn.Write([]byte(req)); err != nil {
		t.Errorf("writing request: %v", err)
		return ""
	}
	// The head and the body arrive in separate writes, so keep reading
	// until the deadline ends the exchange.
	var out []byte
	buf := make([]byte, 256)
	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		n, err := clientConn.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			if len(out) == 0 {
				t.Errorf("reading response: %v", err)
			}
			return string(out)
		}
	}
}

func TestServiceConnectionHandlesHTTP1Request(t *testing.T) {
	s := newTestServer(t)
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()
	cs := newTestConnState(t, s, serverConn)

	respCh := make(chan string, 1)
	go func() { respCh <- roundTrip(t, clientConn, "GET /hello/world HTTP/1.1\r\nHost: example.com\r\n\r\n") }()

	s.serviceConnection(cs)

	got := <-respCh
	if !strings.Contains(got, "200") || !strings.Contains(got, "hello world") {
		t.Fatalf("unexpected response: %q", got)
	}
}

func TestServiceConnectionNotFound(t *testing.T) {
	s := newTestServer(t)
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()
	cs := newTestConnState(t, s, serverConn)

	respCh := make(chan string, 1)
	go func() { respCh <- roundTrip(t, clientConn, "GET /missing HTTP/1.1\r\nHost: example.com\r\n\r\n") }()

	s.serviceConnection(cs)

	got := <-respCh
	if !strings.Contains(got, "404") {
		t.Fatalf("expected a 404 status line, got %q", got)
	}
}

func TestSniffProtocolDetectsHTTP2Preface(t *testing.T) {
	s := newTestServer(t)
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()
	cs := newTestConnState(t, s, serverConn)

	go clientConn.Write([]byte(kconst.ClientPreface))

	s.serviceConnection(cs)

	if cs.proto != protoHTTP2 {
		t.Fatalf("expected protoHTTP2 after seeing the client preface, got %v", cs.proto)
	}
	if cs.h2 == nil {
		t.Fatalf("expected h2 state to be initialized")
	}
}

func TestSniffProtocolFallsBackToHTTP1(t *testing.T) {
	s := newTestServer(t)
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()
	cs := newTestConnState(t, s, serverConn)

	go func() {
		clientConn.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
		// Sniffing falls through into a full HTTP/1.1 request cycle, so the
		// server will write a 404 back (head and body as separate writes);
		// drain it so those writes don't block.
		buf := make([]byte, 256)
		clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
		for {
			if _, err := clientConn.Read(buf); err != nil {
				return
			}
		}
	}()

	s.serviceConnection(cs)

	if cs.proto != protoHTTP1 {
		t.Fatalf("expected protoHTTP1 for a non-preface opener, got %v", cs.proto)
	}
}

func TestInvokeHandlerRecoversFromPanic(t *testing.T) {
	s := newTestServer(t)
	ep := EndpointConfig{
		Handler: func(req *message.Request, binding map[string]string) *message.Response {
			panic("boom")
		},
	}
	resp := s.invokeHandler(ep, &message.Request{}, nil)
	if resp.StatusCode != message.StatusInternalServerError {
		t.Fatalf("expected a 500 from a panicking handler, got %v", resp.StatusCode)
	}
}

func TestInvokeHandlerAsyncRunsOffCallerGoroutine(t *testing.T) {
	s := newTestServer(t)
	s.pool.Start(1)
	defer s.pool.Stop()

	callerGoroutine := make(chan struct{})
	handlerGoroutine := make(chan struct{})
	ep := EndpointConfig{
		Async: true,
		Handler: func(req *message.Request, binding map[string]string) *message.Response {
			close(handlerGoroutine)
			return message.NewResponse(message.StatusOK)
		},
	}
	go func() {
		s.invokeHandler(ep, &message.Request{}, nil)
		close(callerGoroutine)
	}()

	select {
	case <-handlerGoroutine:
	case <-time.After(2 * time.Second):
		t.Fatalf("async handler never ran")
	}
	<-callerGoroutine
}
