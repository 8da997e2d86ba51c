package h2

import (
	"github.com/kestrelhttp/kestrel/internal/message"
)

// emitRequest maps a completed stream's accumulated header list (and body)
// into a message.Request, per spec.md §4.4's "Request emission":
// :method -> method enum, :path -> path (query split off; the path's
// percent-escapes are left as received, not decoded),
// :scheme/:authority carried through as regular headers, remaining
// pseudo- and regular headers preserved in order, body = accumulated
// DATA. Missing :path or :method falls back to the synthetic "/error GET"
// request rather than panicking on a nil method/path.
func emitRequest(s *stream) message.Request {
	var (
		methodStr string
		haveMethod, havePath bool
		path, rawQuery string
	)
	var headers message.Headers

	for _, h := range s.headers {
		switch h.Name {
		case ":method":
			methodStr = h.Value
			haveMethod = true
		case ":path":
			path, rawQuery = message.SplitPathQuery(h.Value)
			havePath = true
		default:
			// :scheme, :authority, and every other pseudo- or regular
			// header is carried through as a plain header, in order.
			headers.Add(h.Name, h.Value)
		}
	}

	if !haveMethod || !havePath {
		req := message.ErrorRequest(message.VersionHTTP20)
		req.Context.Set(streamIDContextKey{}, s.id)
		return req
	}

	method, ok := message.ParseMethod(methodStr)
	if !ok {
		req := message.ErrorRequest(message.VersionHTTP20)
		req.Context.Set(streamIDContextKey{}, s.id)
		return req
	}

	req := message.Request{
		Method:  method,
		Path:    path,
		Query:   message.ParseQuery(rawQuery),
		Version: message.VersionHTTP20,
		Headers: headers,
		Body:    s.body,
	}
	req.Context.Set(streamIDContextKey{}, s.id)
	return req
}

// streamIDContextKey is the type tag under which the originating stream id
// is stashed in a Request's context bag (spec.md §4.4: "context annotated
// with the stream id"), so the response-writing layer can correlate a
// handler's Response back to its HTTP/2 stream.
type streamIDContextKey struct{}

// StreamIDFromRequest retrieves the stream id annotation a Request gained
// during emitRequest, for use by the server layer when it's time to write
// the Response back onto the same stream.
func StreamIDFromRequest(req *message.Request) (uint32, bool) {
	v, ok := req.Context.Get(streamIDContextKey{})
	if !ok {
		return 0, false
	}
	id, ok := v.(uint32)
	return id, ok
}
