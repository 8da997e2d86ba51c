// Package h1 implements the HTTP/1.1 request-line/header/body parser and
// the status-line/header serializer used by the connection lifetime
// engine when a connection did not negotiate HTTP/2 over ALPN.
//
// Grounded on spec.md §4.5 directly, since the teacher (a client library)
// has no server-side request parser to imitate; the Go idiom — byte-slice
// scanning with bytes.IndexByte/bytes.Cut rather than a full tokenizer —
// follows the teacher's general style of explicit, allocation-light
// parsing seen in pkg/client/proxy_parser.go.
package h1

import (
	"bytes"

	"github.com/kestrelhttp/kestrel/internal/kerr"
	"github.com/kestrelhttp/kestrel/internal/message"
)

var crlf = []byte("\r\n")

// ParseRequest parses one complete HTTP/1.1 request out of data, returning
// the Request and the number of bytes consumed. complete=false with a nil
// error signals the caller to buffer more bytes and retry, since reads return arbitrary-length spans just as in the
// HTTP/2 reassembler.
func ParseRequest(data []byte) (req message.Request, consumed int, complete bool, err error) {
	lineEnd := bytes.Index(data, crlf)
	if lineEnd < 0 {
		return message.Request{}, 0, false, nil
	}

	method, target, version, err := parseRequestLine(data[:lineEnd])
	if err != nil {
		return message.Request{}, 0, false, err
	}

	pos := lineEnd + 2
	var headers message.Headers
	for {
		end := bytes.Index(data[pos:], crlf)
		if end < 0 {
			return message.Request{}, 0, false, nil
		}
		if end == 0 {
			pos += 2
			break
		}
		line := data[pos : pos+end]
		key, value, ok := bytes.Cut(line, []byte(":"))
		if !ok {
			return message.Request{}, 0, false, kerr.NewParseError("h1.ParseRequest", "malformed header line")
		}
		headers.Add(string(bytes.TrimSpace(key)), string(bytes.TrimSpace(value)))
		pos += end + 2
	}

	var body []byte
	if method == message.MethodPOST || method == message.MethodPUT {
		body = data[pos:]
		pos = len(data)
	}

	path, rawQuery := message.SplitPathQuery(target)

	req = message.Request{
		Method:  method,
		Path:    path,
		Query:   message.ParseQuery(rawQuery),
		Version: version,
		Headers: headers,
		Body:    body,
	}
	return req, pos, true, nil
}

func parseRequestLine(line []byte) (message.Method, string, message.Version, error) {
	parts := bytes.Split(line, []byte(" "))
	if len(parts) != 3 {
		return 0, "", "", kerr.NewParseError("h1.parseRequestLine", "malformed request line")
	}
	method, ok := message.ParseMethod(string(parts[0]))
	if !ok {
		return 0, "", "", kerr.NewParseError("h1.parseRequestLine", "unknown method")
	}
	version, ok := parseVersion(string(parts[2]))
	if !ok {
		return 0, "", "", kerr.NewParseError("h1.parseRequestLine", "unknown version")
	}
	return method, string(parts[1]), version, nil
}

func parseVersion(s string) (message.Version, bool) {
	switch s {
	case "HTTP/1.0":
		return message.VersionHTTP10, true
	case "HTTP/1.1":
		return message.VersionHTTP11, true
	case "HTTP/2.0":
		return message.Version("HTTP/2.0"), true
	case "HTTP/3.0":
		return message.Version("HTTP/3.0"), true
	}
	return "", false
}
