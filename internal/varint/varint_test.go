package varint

import "testing"

func TestRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 2, 126, 127, 128, 129, 255, 256, 1000, 65535, 1 << 20, MaxValue}
	for _, n := range []uint{4, 5, 6, 7} {
		for _, v := range values {
			enc := Encode(nil, n, v)
			got, consumed, err := Decode(enc, n)
			if err != nil {
				t.Fatalf("n=%d v=%d: decode error: %v", n, v, err)
			}
			if consumed != len(enc) {
				t.Fatalf("n=%d v=%d: consumed %d, want %d", n, v, consumed, len(enc))
			}
			if got != v {
				t.Fatalf("n=%d v=%d: got %d", n, v, got)
			}
		}
	}
}

func TestDecodeInsufficient(t *testing.T) {
	// A continuation byte with the high bit set but no following byte.
	_, _, err := Decode([]byte{0xff, 0x80}, 5)
	if err == nil {
		t.Fatalf("expected insufficient error")
	}
}

func TestSingleByteRange(t *testing.T) {
	// RFC 7541 C.1.1 example: value 10, N=5 prefix, fits in single byte.
	enc := Encode(nil, 5, 10)
	if len(enc) != 1 || enc[0] != 10 {
		t.Fatalf("unexpected encoding: %v", enc)
	}

	// RFC 7541 C.1.2 example: value 1337, N=5 prefix -> 3 bytes: 31, 154, 10.
	enc = Encode(nil, 5, 1337)
	want := []byte{31, 154, 10}
	if len(enc) != len(want) {
		t.Fatalf("got %v want %v", enc, want)
	}
	for i := range want {
		if enc[i] != want[i] {
			t.Fatalf("got %v want %v", enc, want)
		}
	}
}
