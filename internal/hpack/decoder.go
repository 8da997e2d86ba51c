// Package hpack implements the RFC 7541 header compression codec used by
// the HTTP/2 connection state machine (internal/h2) to turn HEADERS/
// CONTINUATION payloads into ordered header lists and back.
//
// Grounded on original_source/include/protocols/h2/hpack.hpp's
// parser<h2::hpack>/serializer<h2::hpack> split and spec.md §4.2.
package hpack

import (
	"github.com/kestrelhttp/kestrel/internal/huffman"
	"github.com/kestrelhttp/kestrel/internal/kerr"
	"github.com/kestrelhttp/kestrel/internal/varint"
)

// Header is the decoded (or to-be-encoded) representation of one header
// field, exported for use by internal/h2 and internal/message.
type Header struct {
	Name  string
	Value string
}

// Decoder holds the dynamic table state for one HTTP/2 connection and
// accumulates decoded fields across one header block (HEADERS plus any
// CONTINUATION frames). It is re-entrant across frames of a single block —
// call Feed once per frame payload, then Finish on END_HEADERS — but must
// not be fed two streams' blocks interleaved, matching RFC 7540's
// prohibition on interleaving header blocks.
type Decoder struct {
	table *dynamicTable
	pend  []byte // undecoded tail from a previous Feed call
	out   []Header
}

func NewDecoder(maxDynamicSize int) *Decoder {
	return &Decoder{table: newDynamicTable(maxDynamicSize)}
}

// Feed appends data to the decoder's pending buffer and decodes as many
// complete header field representations as possible. A truncated
// representation at the end of data is buffered and completed by a
// subsequent Feed call (the "more" case: wait for CONTINUATION).
func (d *Decoder) Feed(data []byte) error {
	d.pend = append(d.pend, data...)

	for len(d.pend) > 0 {
		n, consumed, err := d.decodeOne(d.pend)
		if err == errMore {
			return nil
		}
		if err != nil {
			return err
		}
		if n != nil {
			d.out = append(d.out, *n)
		}
		d.pend = d.pend[consumed:]
	}
	return nil
}

// Finish returns the header list accumulated since the last Finish (i.e.
// since the start of the current header block) and resets the accumulator
// for the next block. The dynamic table itself persists across blocks.
func (d *Decoder) Finish() []Header {
	out := d.out
	d.out = nil
	return out
}

var errMore = kerr.NewHPACKError("hpack.Decoder", "more: truncated representation, await CONTINUATION", nil)

// decodeOne decodes a single header field representation from the front of
// data, returning the field (nil for a size-update, which emits no header),
// the number of bytes consumed, and an error. errMore signals data is a
// valid-so-far but incomplete prefix.
func (d *Decoder) decodeOne(data []byte) (*Header, int, error) {
	first := data[0]

	switch {
	case first&0x80 != 0: // 1xxxxxxx: indexed header field
		idx, n, err := varint.Decode(data, 7)
		if err != nil {
			return nil, 0, errMore
		}
		h, err := d.lookup(int(idx))
		if err != nil {
			return nil, 0, err
		}
		return &Header{Name: h.Name, Value: h.Value}, n, nil

	case first&0xc0 == 0x40: // 01xxxxxx: literal with incremental indexing
		return d.decodeLiteral(data, 6, true)

	case first&0xe0 == 0x20: // 001xxxxx: dynamic table size update
		size, n, err := varint.Decode(data, 5)
		if err != nil {
			return nil, 0, errMore
		}
		d.table.setMaxSize(int(size))
		return nil, n, nil

	default: // 0000xxxx or 0001xxxx: literal without / never indexed
		return d.decodeLiteral(data, 4, false)
	}
}

func (d *Decoder) decodeLiteral(data []byte, prefixBits uint, index bool) (*Header, int, error) {
	nameIdx, n1, err := varint.Decode(data, prefixBits)
	if err != nil {
		return nil, 0, errMore
	}

	var name string
	pos := n1
	if nameIdx == 0 {
		s, consumed, err := d.decodeString(data[pos:])
		if err != nil {
			return nil, 0, err
		}
		name = s
		pos += consumed
	} else {
		h, err := d.lookup(int(nameIdx))
		if err != nil {
			return nil, 0, err
		}
		name = h.Name
	}

	value, consumed, err := d.decodeString(data[pos:])
	if err != nil {
		return nil, 0, err
	}
	pos += consumed

	h := Header{Name: name, Value: value}
	if index {
		d.table.insert(headerField{Name: name, Value: value})
	}
	return &h, pos, nil
}

// decodeString reads a length-prefixed, optionally Huffman-coded string
// literal per spec.md §4.2: top bit of the length byte is the Huffman flag,
// the remaining 7-bit prefix is the octet length of the encoded string.
func (d *Decoder) decodeString(data []byte) (string, int, error) {
	if len(data) == 0 {
		return "", 0, errMore
	}
	huff := data[0]&0x80 != 0
	length, n, err := varint.Decode(data, 7)
	if err != nil {
		return "", 0, errMore
	}
	end := n + int(length)
	if end > len(data) {
		return "", 0, errMore
	}
	raw := data[n:end]
	if !huff {
		return string(raw), end, nil
	}
	decoded, err := huffman.Decode(raw)
	if err != nil {
		return "", 0, kerr.NewHPACKError("hpack.decodeString", "invalid huffman literal", err)
	}
	return string(decoded), end, nil
}

// lookup resolves a combined static+dynamic index: 1..61 are static,
// 62.. are dynamic (dynamic index i maps to table position i-61).
func (d *Decoder) lookup(idx int) (headerField, error) {
	if idx >= 1 && idx <= staticTableSize {
		return staticTable[idx], nil
	}
	if h, ok := d.table.get(idx - staticTableSize); ok {
		return h, nil
	}
	return headerField{}, kerr.NewHPACKError("hpack.lookup", "unknown-header: index out of range", nil)
}
