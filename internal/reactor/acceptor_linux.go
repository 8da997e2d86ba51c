//go:build linux

package reactor

import (
	"errors"
	"net"
	"os"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/kestrelhttp/kestrel/internal/connpool"
	"github.com/kestrelhttp/kestrel/internal/kerr"
)

// epollAcceptor is the edge-triggered Linux reactor, grounded on
// original_source/include/server.hpp's operator()(): a raw non-blocking
// listening socket with SO_REUSEADDR/SO_REUSEPORT/TCP_NODELAY, registered
// into a single epoll instance alongside every accepted client socket
// (EPOLLIN|EPOLLET), with the epoll event's userdata carrying the client's
// connpool slot index rather than a pointer — the source's exact "index
// into connections_, not a raw connection*" design.
type epollAcceptor struct {
	cfg     Config
	handler Handler
	table   *connpool.Table

	listenFD int
	epollFD  int

	mu       sync.Mutex
	closed   bool
	boundTCP *net.TCPAddr
	ready    chan struct{}
}

// New builds the Acceptor appropriate for the current platform.
func New(cfg Config, handler Handler) Acceptor {
	return &epollAcceptor{cfg: cfg, handler: handler, table: newTable(cfg), ready: make(chan struct{})}
}

func (a *epollAcceptor) Run() error {
	if err := a.listen(); err != nil {
		return err
	}
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return kerr.NewIOError("reactor.Run", err)
	}
	a.epollFD = epfd

	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, a.listenFD, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(a.listenFD),
	}); err != nil {
		return kerr.NewIOError("reactor.Run", err)
	}

	return a.loop()
}

// listen reproduces server.hpp's exact socket setup sequence: socket with
// SOCK_STREAM|SOCK_NONBLOCK, SO_REUSEADDR, SO_REUSEPORT, TCP_NODELAY,
// bind, then listen.
func (a *epollAcceptor) listen() error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, unix.IPPROTO_TCP)
	if err != nil {
		return kerr.NewIOError("reactor.listen", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return kerr.NewIOError("reactor.listen", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
		unix.Close(fd)
		return kerr.NewIOError("reactor.listen", err)
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		unix.Close(fd)
		return kerr.NewIOError("reactor.listen", err)
	}

	var addr [4]byte
	if a.cfg.IP != "" {
		ip := net.ParseIP(a.cfg.IP).To4()
		if ip == nil {
			unix.Close(fd)
			return kerr.NewIOError("reactor.listen", errors.New("reactor: IP must be an IPv4 address"))
		}
		copy(addr[:], ip)
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: int(a.cfg.Port), Addr: addr}); err != nil {
		unix.Close(fd)
		return kerr.NewIOError("reactor.listen", err)
	}

	backlog := a.cfg.MaxConnections
	if backlog <= 0 {
		backlog = unix.SOMAXCONN
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return kerr.NewIOError("reactor.listen", err)
	}

	bound, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return kerr.NewIOError("reactor.listen", err)
	}
	if sa4, ok := bound.(*unix.SockaddrInet4); ok {
		a.mu.Lock()
		a.boundTCP = &net.TCPAddr{IP: net.IP(sa4.Addr[:]), Port: sa4.Port}
		a.mu.Unlock()
	}
	close(a.ready)

	a.listenFD = fd
	return nil
}

// Addr blocks until listen() has bound the socket, then returns its address.
func (a *epollAcceptor) Addr() net.Addr {
	<-a.ready
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.boundTCP
}

func (a *epollAcceptor) loop() error {
	events := make([]unix.EpollEvent, a.table.Capacity()+1)
	for {
		n, err := unix.EpollWait(a.epollFD, events, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			a.mu.Lock()
			closed := a.closed
			a.mu.Unlock()
			if closed {
				return nil
			}
			return kerr.NewIOError("reactor.loop", err)
		}

		for i := 0; i < n; i++ {
			ev := events[i]
			if int(ev.Fd) == a.listenFD {
				a.acceptAll()
				continue
			}
			a.dispatchReadable(int(ev.Fd))
		}
	}
}

// acceptAll drains every pending connection on the listening socket until
// accept reports the backlog empty.
func (a *epollAcceptor) acceptAll() {
	for {
		clientFD, _, err := unix.Accept(a.listenFD)
		if err != nil {
			// EAGAIN/EWOULDBLOCK means the listen backlog is drained; any
			// other error here isn't actionable per-connection either, so
			// just stop this batch and wait for the next EPOLLIN.
			return
		}
		unix.SetNonblock(clientFD, true)

		file := os.NewFile(uintptr(clientFD), "kestrel-conn-"+strconv.Itoa(clientFD))
		conn, err := net.FileConn(file)
		if err != nil {
			file.Close()
			continue
		}

		slot, err := a.table.Allocate(conn, a.cfg.keepAlive())
		if err != nil {
			file.Close()
			conn.Close()
			continue
		}
		a.handler.OnAccept(slot)

		// conn holds a dup of clientFD, so the registration made here
		// outlives closing clientFD right after it.
		err = unix.EpollCtl(a.epollFD, unix.EPOLL_CTL_ADD, clientFD, &unix.EpollEvent{
			Events: unix.EPOLLIN | unix.EPOLLET,
			Fd:     int32(slot.Index()),
		})
		file.Close()
		if err != nil {
			a.table.Release(slot)
		}
	}
}

// dispatchReadable resolves a readiness event's slot index back into a
// live slot (Take rejects a stale/tombstoned index outright, per
// spec.md's "index, not pointer" safety property) and hands it to the
// handler. The slot's base hold (seeded by Allocate, released once the
// connection's lifecycle ends) keeps it alive across this call; the
// handler is responsible for holding its own reference across whatever
// asynchronous work it dispatches, since this call returns long before
// that work is done.
func (a *epollAcceptor) dispatchReadable(index int) {
	slot, ok := a.table.Take(index)
	if !ok {
		return
	}
	slot.Touch()
	a.handler.OnReadable(slot)
}

func (a *epollAcceptor) Close() error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	if a.epollFD != 0 {
		unix.Close(a.epollFD)
	}
	if a.listenFD != 0 {
		return unix.Close(a.listenFD)
	}
	return nil
}
