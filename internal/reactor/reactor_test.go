package reactor

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/kestrelhttp/kestrel/internal/connpool"
)

type recordingHandler struct {
	accepted  chan *connpool.Slot
	readable  chan *connpool.Slot
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		accepted: make(chan *connpool.Slot, 8),
		readable: make(chan *connpool.Slot, 8),
	}
}

func (h *recordingHandler) OnAccept(slot *connpool.Slot)   { h.accepted <- slot }
func (h *recordingHandler) OnReadable(slot *connpool.Slot) { h.readable <- slot }

func TestAcceptorAcceptsAndNotifiesReadable(t *testing.T) {
	handler := newRecordingHandler()
	a := New(Config{IP: "127.0.0.1", Port: 0, MaxConnections: 8, KeepAlive: time.Minute}, handler)

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run() }()
	defer a.Close()

	addr := a.Addr()
	if addr == nil {
		t.Fatalf("expected a bound address")
	}

	conn, err := net.DialTimeout("tcp", addr.String(), 2*time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	select {
	case slot := <-handler.accepted:
		if slot == nil {
			t.Fatalf("expected a non-nil accepted slot")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("OnAccept was never called")
	}

	if _, err := conn.Write([]byte("ping\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case slot := <-handler.readable:
		r := bufio.NewReader(slot.Conn())
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("ReadString: %v", err)
		}
		if line != "ping\n" {
			t.Fatalf("expected %q, got %q", "ping\n", line)
		}
		slot.MarkClosed()
	case <-time.After(2 * time.Second):
		t.Fatalf("OnReadable was never called")
	}
}
