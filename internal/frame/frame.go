// Package frame implements the RFC 7540 §4.1 generic frame header pack/
// unpack and per-type payload views, plus the across-read reassembly buffer
// described by spec.md §4.3/§4.4.
//
// Grounded on original_source/include/protocols/h2.hpp's frame header
// struct (24-bit length, 8-bit type, 8-bit flags, 31-bit stream id with the
// reserved top bit masked) and the teacher's pkg/http2/frames.go for the
// Go idiom of typed frame structs over a byte-oriented wire representation
// (the teacher wraps golang.org/x/net/http2.FrameHeader; we hand-roll the
// same shape since spec.md §8's testable properties require our own codec).
package frame

import (
	"encoding/binary"

	"github.com/kestrelhttp/kestrel/internal/kconst"
	"github.com/kestrelhttp/kestrel/internal/kerr"
)

// Type identifies a frame's payload interpretation (RFC 7540 §11.2).
type Type uint8

const (
	TypeData         Type = 0x0
	TypeHeaders      Type = 0x1
	TypePriority     Type = 0x2
	TypeRSTStream    Type = 0x3
	TypeSettings     Type = 0x4
	TypePushPromise  Type = 0x5
	TypePing         Type = 0x6
	TypeGoAway       Type = 0x7
	TypeWindowUpdate Type = 0x8
	TypeContinuation Type = 0x9
)

// Flags is a bitset of the flags octet; only a handful of bits are assigned
// per frame type, but the representation is shared across all types.
type Flags uint8

const (
	FlagEndStream  Flags = 0x1
	FlagAck        Flags = 0x1 // SETTINGS/PING reuse bit 0 for ACK.
	FlagEndHeaders Flags = 0x4
	FlagPadded     Flags = 0x8
	FlagPriority   Flags = 0x20
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// headerLen is the fixed 9-octet frame header size (RFC 7540 §4.1).
const headerLen = 9

// Frame is one fully-received frame: the 9-octet header plus exactly
// Length bytes of payload.
type Frame struct {
	Length   uint32 // 24-bit on the wire
	Type     Type
	Flags    Flags
	StreamID uint32 // top bit always 0 after unpacking (reserved bit masked)
	Payload  []byte
}

// Pack serializes f's header and payload into wire bytes. The caller is
// responsible for keeping f.Length == len(f.Payload).
func Pack(f Frame) []byte {
	buf := make([]byte, headerLen+len(f.Payload))
	buf[0] = byte(f.Length >> 16)
	buf[1] = byte(f.Length >> 8)
	buf[2] = byte(f.Length)
	buf[3] = byte(f.Type)
	buf[4] = byte(f.Flags)
	binary.BigEndian.PutUint32(buf[5:9], f.StreamID&0x7fffffff)
	copy(buf[headerLen:], f.Payload)
	return buf
}

// header is the decoded 9-octet frame header, before the payload has
// necessarily all arrived.
type header struct {
	length   uint32
	typ      Type
	flags    Flags
	streamID uint32
}

func unpackHeader(data []byte) (header, error) {
	if len(data) < headerLen {
		return header{}, kerr.NewFrameError("frame.unpackHeader", "invalid: buffer shorter than 9 octets", nil)
	}
	length := uint32(data[0])<<16 | uint32(data[1])<<8 | uint32(data[2])
	return header{
		length:   length,
		typ:      Type(data[3]),
		flags:    Flags(data[4]),
		streamID: binary.BigEndian.Uint32(data[5:9]) & 0x7fffffff,
	}, nil
}

// Reassembler accumulates bytes across arbitrarily sized read() calls and
// yields complete frames, per spec.md §4.4 "Frame reassembly": it owns an
// `unfinished_frame` slot for a header+partial-payload straddling one read.
type Reassembler struct {
	pending []byte // raw bytes not yet attributed to a complete frame
}

// Push appends newly read bytes and returns every frame that can now be
// fully decoded. Any trailing partial frame remains buffered for the next
// Push call. A frame whose declared length exceeds AdvertisedMaxFrameSize
// is a connection error (kerr.KindWireFatal), matching spec.md §4.3.
func (r *Reassembler) Push(data []byte) ([]Frame, error) {
	r.pending = append(r.pending, data...)

	var out []Frame
	for {
		if len(r.pending) < headerLen {
			return out, nil
		}
		h, err := unpackHeader(r.pending)
		if err != nil {
			return out, err
		}
		if h.length > kconst.MaxFrameSize {
			return out, kerr.NewFrameError("frame.Reassembler.Push", "too-big: frame length exceeds 2^24-1", nil)
		}
		if h.length > kconst.AdvertisedMaxFrameSize {
			return out, kerr.NewFrameError("frame.Reassembler.Push", "too-big: frame length exceeds advertised MAX_FRAME_SIZE", nil)
		}

		total := headerLen + int(h.length)
		if len(r.pending) < total {
			return out, nil
		}

		payload := make([]byte, h.length)
		copy(payload, r.pending[headerLen:total])
		out = append(out, Frame{
			Length:   h.length,
			Type:     h.typ,
			Flags:    h.flags,
			StreamID: h.streamID,
			Payload:  payload,
		})
		r.pending = r.pending[total:]
	}
}
