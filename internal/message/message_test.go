package message

import (
	"testing"
)

func TestHeadersCaseInsensitiveAndOrdered(t *testing.T) {
	var h Headers
	h.Add("Content-Type", "text/html")
	h.Add("X-Trace", "a")
	h.Add("x-trace", "b")

	if got := h.Get("content-type"); got != "text/html" {
		t.Fatalf("got %q", got)
	}
	if got := h.GetAll("X-TRACE"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got %v", got)
	}
	entries := h.Entries()
	if entries[0].Key != "Content-Type" || entries[1].Key != "X-Trace" {
		t.Fatalf("order not preserved: %v", entries)
	}
}

func TestHeadersSetReplacesAll(t *testing.T) {
	var h Headers
	h.Add("X-A", "1")
	h.Add("x-a", "2")
	h.Set("X-A", "final")
	if got := h.GetAll("X-A"); len(got) != 1 || got[0] != "final" {
		t.Fatalf("got %v", got)
	}
}

func TestParseQueryOrderedDuplicates(t *testing.T) {
	q := ParseQuery("a=1&b=2&a=3")
	if v, _ := q.Get("a"); v != "1" {
		t.Fatalf("Get should return first match, got %q", v)
	}
	if all := q.GetAll("a"); len(all) != 2 || all[0] != "1" || all[1] != "3" {
		t.Fatalf("got %v", all)
	}
	pairs := q.Pairs()
	if len(pairs) != 3 || pairs[2].Key != "a" || pairs[2].Value != "3" {
		t.Fatalf("order not preserved: %v", pairs)
	}
}

func TestSplitPathQuery(t *testing.T) {
	path, raw := SplitPathQuery("/foo/bar?x=1")
	if path != "/foo/bar" || raw != "x=1" {
		t.Fatalf("got %q %q", path, raw)
	}
	path, raw = SplitPathQuery("/no-query")
	if path != "/no-query" || raw != "" {
		t.Fatalf("got %q %q", path, raw)
	}
}

func TestResponseStreamOrderAndFinish(t *testing.T) {
	r := NewResponse(StatusOK)
	finished := 0
	r.On(EventFinish, func(*Response) { finished++ })

	go func() {
		r.Stream([]byte("a"), false)
		r.Stream([]byte("b"), false)
		r.Stream([]byte("c"), true)
	}()

	var got []string
	for {
		c, ok := r.NextChunk()
		if !ok {
			t.Fatalf("unexpected channel close")
		}
		got = append(got, string(c.Data))
		if c.Last {
			break
		}
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("got %v", got)
	}
	if finished != 1 {
		t.Fatalf("expected finish to fire exactly once, fired %d", finished)
	}

	// Finish must not fire a second time even if triggered again.
	r.triggerFinish()
	if finished != 1 {
		t.Fatalf("finish fired again: %d", finished)
	}
}

func TestResponseChunkCallbackInvokedBeforeRead(t *testing.T) {
	r := NewResponse(StatusOK)
	calls := 0
	r.On(EventChunk, func(resp *Response) {
		calls++
		if calls == 1 {
			resp.Stream([]byte("x"), false)
		} else {
			resp.Stream([]byte("y"), true)
		}
	})

	c1, _ := r.NextChunk()
	c2, _ := r.NextChunk()
	if string(c1.Data) != "x" || string(c2.Data) != "y" || !c2.Last {
		t.Fatalf("got %v %v", c1, c2)
	}
	if calls != 2 {
		t.Fatalf("expected callback invoked once per NextChunk, got %d", calls)
	}
}

func TestResponseBodySetsContentLength(t *testing.T) {
	r := NewResponse(StatusOK)
	r.Body([]byte("hello"))
	if got := r.Headers.Get("Content-Length"); got != "5" {
		t.Fatalf("got %q", got)
	}
	c, ok := r.NextChunk()
	if !ok || string(c.Data) != "hello" || !c.Last {
		t.Fatalf("got %v ok=%v", c, ok)
	}
}
