package server

import (
	"crypto/tls"
	"sync"

	"github.com/kestrelhttp/kestrel/internal/connpool"
	"github.com/kestrelhttp/kestrel/internal/kmetrics"
	"github.com/kestrelhttp/kestrel/internal/ktls"
	"github.com/kestrelhttp/kestrel/internal/reactor"
	"github.com/kestrelhttp/kestrel/internal/runtime"
)

// Server is one running HTTP serving engine: an Acceptor feeding a bounded
// worker Pool, a Router resolving matched requests to handlers, and a
// per-slot protocol state (HTTP/1.1 or HTTP/2, chosen by ALPN or by
// sniffing the client preface on cleartext connections).
type Server struct {
	cfg      Config
	acceptor reactor.Acceptor
	pool     *runtime.Pool
	tlsCfg   *tls.Config
	counters kmetrics.Counters

	mu    sync.Mutex
	conns map[int]*connState

	pools map[string]*runtime.Pool
}

// New builds a Server from cfg. cfg.Router must be set; use NewRouter for
// the default gorilla/mux-backed implementation.
func New(cfg Config) (*Server, error) {
	s := &Server{
		cfg:   cfg,
		pool:  runtime.NewPool(cfg.Runtime.workerThreads(), cfg.Runtime.taskQueueDepth()),
		conns: make(map[int]*connState),
		pools: make(map[string]*runtime.Pool, len(cfg.Pools)),
	}
	for name, rc := range cfg.Pools {
		s.pools[name] = runtime.NewPool(rc.workerThreads(), rc.taskQueueDepth())
	}
	if cfg.tlsEnabled() {
		tlsCfg, err := ktls.ServerConfig(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, err
		}
		s.tlsCfg = tlsCfg
	}
	s.acceptor = reactor.New(reactor.Config{
		IP:             cfg.IP,
		Port:           cfg.Port,
		MaxConnections: cfg.maxConnections(),
		KeepAlive:      cfg.keepAlive(),
	}, s)
	return s, nil
}

// ListenAndServe starts the worker pool and blocks running the accept
// loop, per the data flow in spec.md §2: "acceptor produces connection
// slots -> readiness events push tasks to the runtime -> ...".
func (s *Server) ListenAndServe() error {
	s.pool.Start(s.cfg.Runtime.workerThreads())
	for name, rc := range s.cfg.Pools {
		s.pools[name].Start(rc.workerThreads())
	}
	return s.acceptor.Run()
}

// Close stops the accept loop and every worker pool.
func (s *Server) Close() error {
	err := s.acceptor.Close()
	s.pool.Stop()
	for _, p := range s.pools {
		p.Stop()
	}
	return err
}

// namedPool looks up a Pools-configured worker pool by name.
func (s *Server) namedPool(name string) (*runtime.Pool, bool) {
	p, ok := s.pools[name]
	return p, ok
}

// Metrics returns a snapshot of this server's atomic counters (spec.md's
// Non-goals carve-out: "any observability beyond counters exposed to
// collaborators").
func (s *Server) Metrics() kmetrics.Snapshot { return s.counters.Snapshot() }

// connState is the per-connection protocol state the server keeps beside
// a connpool.Slot for as long as the connection lives. Looked up by slot
// index since that's the durable identity readiness events carry.
type connState struct {
	slot *connpool.Slot
	rw   readWriter // slot.Conn(), or a *tls.Conn wrapping it

	mu      sync.Mutex
	proto   protocolKind
	pending []byte // undetermined-protocol or HTTP/1.1 accumulation buffer
	h2      *h2State
}

type protocolKind int

const (
	protoUnknown protocolKind = iota
	protoHTTP1
	protoHTTP2
)

// readWriter is the minimal surface both net.Conn and *tls.Conn satisfy,
// used so TLS and plaintext connections share one code path below.
type readWriter interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// OnAccept implements reactor.Handler. For TLS-enabled servers it wraps
// the raw accepted connection in a server-side TLS conn; the handshake
// itself (and ALPN negotiation) happens lazily on first read, matching
// crypto/tls's own lazy-handshake behavior and avoiding a second blocking
// call on the acceptor's goroutine.
func (s *Server) OnAccept(slot *connpool.Slot) {
	s.counters.AcceptedConnection()

	cs := &connState{slot: slot, rw: slot.Conn()}
	if s.tlsCfg != nil {
		cs.rw = tls.Server(slot.Conn(), s.tlsCfg)
	}

	s.mu.Lock()
	s.conns[slot.Index()] = cs
	s.mu.Unlock()
}

// OnReadable implements reactor.Handler, dispatching the actual read and
// protocol-processing work onto the bounded worker pool so the reactor's
// own goroutine stays free of application logic (spec.md §4.9); when the
// pool is saturated the task runs inline on the calling goroutine. The
// slot reference is held from here until the dispatched task actually
// finishes, not just until it's been enqueued, so the slot can't be
// recycled out from under a task still sitting in the pool's queue.
func (s *Server) OnReadable(slot *connpool.Slot) {
	s.mu.Lock()
	cs, ok := s.conns[slot.Index()]
	s.mu.Unlock()
	if !ok {
		return
	}

	slot.AddRef()
	task := func() {
		defer slot.Release()
		s.serviceConnection(cs)
	}
	if err := s.pool.TryDispatch(task); err != nil {
		// Pool saturated: run inline rather than drop the readiness event.
		task()
	}
}

func (s *Server) forgetConnection(cs *connState) {
	s.mu.Lock()
	delete(s.conns, cs.slot.Index())
	s.mu.Unlock()
}
