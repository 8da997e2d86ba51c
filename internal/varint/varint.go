// Package varint implements the RFC 7541 §5.1 N-bit prefix integer
// primitives used throughout HPACK: indices, string lengths, and the dynamic
// table size update all share this one encoding.
//
// Grounded on original_source/include/protocols/h2/hpack.hpp's
// variable_integer<N> template, translated from C++'s std::byte/std::span
// style into Go slices.
package varint

import "github.com/kestrelhttp/kestrel/internal/kerr"

// MaxValue is the largest integer this codec accepts, matching spec.md
// §4.1 ("No value > 2^32 − 1 is accepted").
const MaxValue = 1<<32 - 1

// Encode appends the N-bit prefix encoding of v to dst and returns the
// extended slice. The caller is responsible for setting the flag bits in the
// high (8-N) bits of the first byte; Encode only ever sets the low N bits of
// that byte (or all of them, as the continuation marker 2^N-1).
func Encode(dst []byte, n uint, v uint64) []byte {
	max := uint64(1)<<n - 1
	if v < max {
		return append(dst, byte(v))
	}

	dst = append(dst, byte(max))
	v -= max
	for v >= 128 {
		dst = append(dst, byte(v%128)|0x80)
		v /= 128
	}
	return append(dst, byte(v))
}

// Decode reads an N-bit prefix integer from data, which must already have its
// high (8-N) flag bits masked off by the caller (matching spec.md §4.1: "the
// caller masks the flag bits first"). It returns the decoded value and the
// number of bytes consumed. A truncated continuation sequence returns a
// kerr.KindWireFatal error.
func Decode(data []byte, n uint) (value uint64, consumed int, err error) {
	if len(data) == 0 {
		return 0, 0, kerr.NewHPACKError("varint.Decode", "insufficient: empty input", nil)
	}

	max := uint64(1)<<n - 1
	prefix := uint64(data[0]) & max
	if prefix < max {
		return prefix, 1, nil
	}

	value = max
	var shift uint
	for i := 1; ; i++ {
		if i >= len(data) {
			return 0, 0, kerr.NewHPACKError("varint.Decode", "insufficient: truncated continuation", nil)
		}
		b := data[i]
		value += uint64(b&0x7f) << shift
		if value > MaxValue {
			return 0, 0, kerr.NewHPACKError("varint.Decode", "value exceeds 2^32-1", nil)
		}
		shift += 7
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
	}
}
