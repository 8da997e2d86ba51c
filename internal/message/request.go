// Package message holds the Request/Response data model shared by the
// HTTP/1.1 and HTTP/2 state machines, grounded on
// original_source/include/http/request.hpp and response.hpp.
package message

import (
	"net"

	"github.com/kestrelhttp/kestrel/internal/kctx"
)

// Version tags the protocol a Request/Response travelled over, per
// spec.md §4.5's closed dictionary.
type Version string

const (
	VersionHTTP10 Version = "HTTP/1.0"
	VersionHTTP11 Version = "HTTP/1.1"
	VersionHTTP20 Version = "HTTP/2.0"
)

// ConnInfo is the minimal read-only view of the originating connection a
// Request needs (peer address, socket access for advanced handlers),
// deliberately not the full connpool.Slot type — that would create an
// import cycle and leak lifetime-management methods into handler code.
// original_source/include/http/request.hpp keeps a raw `connection<void>*`
// for the same purpose ("client_->socket()").
type ConnInfo interface {
	RemoteAddr() net.Addr
}

// Request is the decoded form of an inbound HTTP/1.1 or HTTP/2 message,
// per spec.md §3's Request entry.
type Request struct {
	Method  Method
	Path    string // never contains '?'
	Query   QueryParameters
	Version Version
	Headers Headers
	Body    []byte
	Context kctx.Bag
	Conn    ConnInfo
}

// ErrorRequest builds the synthetic "/error GET" fallback request emitted
// when an HTTP/2 stream completes without a usable :path or :method,
// per spec.md §4.4 ("Missing :path or :method → emit a synthetic /error
// GET request rather than crashing").
func ErrorRequest(version Version) Request {
	return Request{
		Method:  MethodGET,
		Path:    "/error",
		Version: version,
	}
}
