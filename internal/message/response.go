package message

import (
	"strconv"
	"sync"

	"github.com/kestrelhttp/kestrel/internal/kctx"
)

// Event names the two response lifecycle callbacks, per spec.md §4.6.
type Event int

const (
	EventChunk Event = iota
	EventFinish
)

// Chunk is one buffer pulled from a Response's chunk channel, per spec.md
// §3's Chunk buffer entry: {owned byte array, valid length, last flag}.
// Ownership transfers to whoever reads it off the channel.
type Chunk struct {
	Data []byte
	Last bool
}

// Response is the outbound side of the Request/Response pair, per
// spec.md §3 and §4.6. The chunk channel has capacity 1: a Stream call
// blocks until the previous chunk has been drained by the consumer,
// which is what gives the pipeline its "at-most-one outstanding chunk"
// guarantee without extra bookkeeping.
//
// Grounded on original_source/include/http/response.hpp's
// `channel = mpsc<rite::buffer, fifo>` plus its `event(chunk|finish, cb)`/
// `trigger(ev)` pair.
type Response struct {
	StatusCode StatusCode
	Headers    Headers
	Context    kctx.Bag

	ch     chan Chunk
	events [2]func(*Response)

	finishOnce sync.Once
	finished   bool
}

// NewResponse builds a Response with the given status and an empty header
// set, mirroring original_source's two-argument http_response constructor
// (status_code, body) except the body is left to the caller to stream.
func NewResponse(status StatusCode) *Response {
	return &Response{StatusCode: status, ch: make(chan Chunk, 1)}
}

// Body sets a single-chunk response body and marks it as the last chunk,
// the implicit single-buffer usage original_source documents
// ("response.body(val) implicitly sends one buffer").
func (r *Response) Body(data []byte) {
	r.Headers.Set("Content-Length", strconv.Itoa(len(data)))
	r.Stream(data, true)
}

// On registers a callback for ev, overwriting any previous registration.
func (r *Response) On(ev Event, cb func(*Response)) {
	r.events[ev] = cb
}

// Stream enqueues one chunk. It blocks until the previous chunk (if any)
// has been consumed, enforcing the single-outstanding-chunk invariant.
// Setting last=true marks this as the final chunk; the finish event fires
// once the consumer observes it via NextChunk.
func (r *Response) Stream(data []byte, last bool) {
	r.ch <- Chunk{Data: data, Last: last}
}

// NextChunk is the consumer-side pull: it invokes the registered chunk
// callback (if any) to give the handler a chance to lazily produce the
// next buffer under backpressure, then receives the next chunk. ok is
// false only once the chunk channel has been closed; Close does not close
// it, so after Close without a last=true chunk NextChunk blocks.
func (r *Response) NextChunk() (Chunk, bool) {
	if cb := r.events[EventChunk]; cb != nil {
		cb(r)
	}
	c, ok := <-r.ch
	if !ok {
		return Chunk{}, false
	}
	if c.Last {
		r.triggerFinish()
	}
	return c, true
}

// Close abandons the response without a final chunk having been sent,
// still triggering finish exactly once so handler-owned resources are
// released (e.g. on a connection error mid-stream).
func (r *Response) Close() {
	r.triggerFinish()
}

func (r *Response) triggerFinish() {
	r.finishOnce.Do(func() {
		r.finished = true
		if cb := r.events[EventFinish]; cb != nil {
			cb(r)
		}
	})
}
