package hpack

import (
	"github.com/kestrelhttp/kestrel/internal/huffman"
	"github.com/kestrelhttp/kestrel/internal/varint"
)

// Encoder serializes an ordered header list into an HPACK byte stream. It
// owns its own dynamic table, independent from any peer Decoder instance —
// each direction of an HTTP/2 connection has its own HPACK state.
//
// Grounded on original_source/include/protocols/h2/hpack.hpp's
// serializer<h2::hpack>, including its documented simplification: no
// frequency-based indexing heuristic, just static-table lookup then a
// literal-with-incremental-indexing fallback (spec.md §4.2's Encoder).
type Encoder struct {
	table *dynamicTable
}

func NewEncoder(maxDynamicSize int) *Encoder {
	return &Encoder{table: newDynamicTable(maxDynamicSize)}
}

// Encode appends the HPACK encoding of headers, in order, to dst.
func (e *Encoder) Encode(dst []byte, headers []Header) []byte {
	for _, h := range headers {
		dst = e.encodeOne(dst, h)
	}
	return dst
}

func (e *Encoder) encodeOne(dst []byte, h Header) []byte {
	if idx := findStaticExact(h.Name, h.Value); idx != 0 {
		start := len(dst)
		dst = varint.Encode(dst, 7, uint64(idx))
		dst[start] |= 0x80 // indexed header field
		return dst
	}
	return e.encodeLiteral(dst, h)
}

func (e *Encoder) encodeLiteral(dst []byte, h Header) []byte {
	start := len(dst)
	var nameIdx int
	if idx := findStaticName(h.Name); idx != 0 {
		nameIdx = idx
	}

	dst = varint.Encode(dst, 6, uint64(nameIdx))
	dst[start] |= 0x40 // literal with incremental indexing

	if nameIdx == 0 {
		dst = e.encodeString(dst, h.Name)
	}
	dst = e.encodeString(dst, h.Value)

	e.table.insert(headerField{Name: h.Name, Value: h.Value})
	return dst
}

// encodeString chooses Huffman coding when it is strictly shorter than the
// raw octet form, per spec.md §4.2 ("emit a literal with incremental
// indexing (using Huffman-coded key and value)").
func (e *Encoder) encodeString(dst []byte, s string) []byte {
	raw := []byte(s)
	huffLen := huffman.EncodedLen(raw)

	if huffLen < len(raw) {
		start := len(dst)
		dst = varint.Encode(dst, 7, uint64(huffLen))
		dst[start] |= 0x80
		return huffman.Encode(dst, raw)
	}

	dst = varint.Encode(dst, 7, uint64(len(raw)))
	return append(dst, raw...)
}
