package h1

import (
	"bytes"
	"strconv"

	"github.com/kestrelhttp/kestrel/internal/message"
)

// SerializeStatusLine writes "HTTP/1.1 200 OK\r\n" for the given response.
func SerializeStatusLine(status message.StatusCode) []byte {
	var buf bytes.Buffer
	buf.WriteString(string(message.VersionHTTP11))
	buf.WriteByte(' ')
	buf.WriteString(strconv.Itoa(int(status)))
	buf.WriteByte(' ')
	buf.WriteString(status.ReasonPhrase())
	buf.Write(crlf)
	return buf.Bytes()
}

// SerializeHeaders writes each header entry as "Key: Value\r\n", in the
// order they were added, followed by the blank line that terminates the
// header section.
func SerializeHeaders(h *message.Headers) []byte {
	var buf bytes.Buffer
	for _, e := range h.Entries() {
		buf.WriteString(e.Key)
		buf.WriteString(": ")
		buf.WriteString(e.Value)
		buf.Write(crlf)
	}
	buf.Write(crlf)
	return buf.Bytes()
}

// SerializeResponseHead combines the status line and headers into the full
// response head, the piece written once before the body's chunk stream.
func SerializeResponseHead(status message.StatusCode, h *message.Headers) []byte {
	return append(SerializeStatusLine(status), SerializeHeaders(h)...)
}
