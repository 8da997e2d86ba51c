package h1

import (
	"strings"
	"testing"

	"github.com/kestrelhttp/kestrel/internal/message"
)

func TestParseRequestGET(t *testing.T) {
	raw := "GET /search?q=go+lang HTTP/1.1\r\nHost: example.com\r\nAccept: */*\r\n\r\n"
	req, consumed, complete, err := ParseRequest([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !complete {
		t.Fatalf("expected complete parse")
	}
	if consumed != len(raw) {
		t.Fatalf("consumed %d want %d", consumed, len(raw))
	}
	if req.Method != message.MethodGET || req.Path != "/search" {
		t.Fatalf("unexpected method/path: %v %q", req.Method, req.Path)
	}
	if v, _ := req.Query.Get("q"); v != "go lang" {
		t.Fatalf("expected query decoded, got %q", v)
	}
	if got := req.Headers.Get("host"); got != "example.com" {
		t.Fatalf("got %q", got)
	}
	if len(req.Body) != 0 {
		t.Fatalf("GET should have empty body")
	}
}

func TestParseRequestPOSTWithBody(t *testing.T) {
	raw := "POST /submit HTTP/1.1\r\nContent-Type: text/plain\r\n\r\nhello world"
	req, _, complete, err := ParseRequest([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !complete {
		t.Fatalf("expected complete parse")
	}
	if string(req.Body) != "hello world" {
		t.Fatalf("got body %q", req.Body)
	}
}

func TestParseRequestIncompleteAwaitsMore(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nHost: x"
	_, _, complete, err := ParseRequest([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if complete {
		t.Fatalf("expected incomplete parse while headers are still arriving")
	}
}

func TestParseRequestRejectsUnknownMethod(t *testing.T) {
	raw := "FOO / HTTP/1.1\r\n\r\n"
	_, _, _, err := ParseRequest([]byte(raw))
	if err == nil {
		t.Fatalf("expected error for unknown method")
	}
}

func TestSerializeResponseHead(t *testing.T) {
	var h message.Headers
	h.Add("Content-Type", "text/plain")
	h.Add("Content-Length", "5")
	out := string(SerializeResponseHead(message.StatusOK, &h))
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("unexpected status line: %q", out)
	}
	if !strings.Contains(out, "Content-Type: text/plain\r\n") {
		t.Fatalf("missing header: %q", out)
	}
	if !strings.HasSuffix(out, "\r\n\r\n") {
		t.Fatalf("missing terminating blank line: %q", out)
	}
}
