package h2

import (
	"io"
	"strconv"

	"github.com/kestrelhttp/kestrel/internal/frame"
	"github.com/kestrelhttp/kestrel/internal/hpack"
	"github.com/kestrelhttp/kestrel/internal/kconst"
	"github.com/kestrelhttp/kestrel/internal/message"
)

// WriteResponse serializes resp onto streamID and writes it to w, per
// spec.md §4.4's "Response emission" paragraph: one HEADERS frame with
// END_HEADERS=1 (END_STREAM too if the body is empty), then the chunk
// channel drained and fragmented into DATA frames of at most
// ResponseDataFrameSize bytes, END_STREAM on the final slice of the final
// (last==true) chunk. The stream is marked closed afterward.
func (c *Connection) WriteResponse(w io.Writer, streamID uint32, resp *message.Response) error {
	headers := responseHeaders(resp)
	wire := c.encoder.Encode(nil, headers)

	firstChunk, ok := resp.NextChunk()
	headersOnly := !ok || (len(firstChunk.Data) == 0 && firstChunk.Last)

	headersFlags := frame.FlagEndHeaders
	if headersOnly {
		headersFlags |= frame.FlagEndStream
	}
	if _, err := w.Write(frame.Pack(frame.Frame{
		Type: frame.TypeHeaders, Flags: headersFlags, StreamID: streamID,
		Length: uint32(len(wire)), Payload: wire,
	})); err != nil {
		return err
	}

	if headersOnly {
		c.closeStream(streamID)
		return nil
	}

	chunk := firstChunk
	for {
		if err := writeDataFragments(w, streamID, chunk.Data, chunk.Last); err != nil {
			return err
		}
		if chunk.Last {
			break
		}
		next, ok := resp.NextChunk()
		if !ok {
			break
		}
		chunk = next
	}

	c.closeStream(streamID)
	return nil
}

func (c *Connection) closeStream(streamID uint32) {
	if s, ok := c.streams[streamID]; ok {
		s.transition(StreamHalfClosedLocal)
		s.transition(StreamClosed)
	}
}

// writeDataFragments slices data into ResponseDataFrameSize DATA frames,
// setting END_STREAM only on the final fragment when last is true. An
// empty, non-last chunk produces no frame (nothing to flush yet).
func writeDataFragments(w io.Writer, streamID uint32, data []byte, last bool) error {
	if len(data) == 0 {
		if !last {
			return nil
		}
		_, err := w.Write(frame.Pack(frame.Frame{Type: frame.TypeData, Flags: frame.FlagEndStream, StreamID: streamID}))
		return err
	}

	for offset := 0; offset < len(data); offset += kconst.ResponseDataFrameSize {
		end := offset + kconst.ResponseDataFrameSize
		if end > len(data) {
			end = len(data)
		}
		slice := data[offset:end]
		var flags frame.Flags
		if last && end == len(data) {
			flags |= frame.FlagEndStream
		}
		if _, err := w.Write(frame.Pack(frame.Frame{
			Type: frame.TypeData, Flags: flags, StreamID: streamID,
			Length: uint32(len(slice)), Payload: slice,
		})); err != nil {
			return err
		}
	}
	return nil
}

// responseHeaders builds the pseudo-header + regular-header list for
// encoding, per RFC 7540 §8.1.2.4 (":status" first).
func responseHeaders(resp *message.Response) []hpack.Header {
	headers := []hpack.Header{{Name: ":status", Value: statusString(resp.StatusCode)}}
	for _, e := range resp.Headers.Entries() {
		headers = append(headers, hpack.Header{Name: e.Key, Value: e.Value})
	}
	return headers
}

func statusString(code message.StatusCode) string {
	return strconv.Itoa(int(code))
}
