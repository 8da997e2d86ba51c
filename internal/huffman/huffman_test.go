package huffman

import (
	"bytes"
	"testing"
)

func TestRoundTripASCII(t *testing.T) {
	samples := []string{
		"",
		"a",
		"www.example.com",
		"no-cache",
		"custom-key",
		"custom-value",
		"/sample/path",
		"302",
		"private",
		"Mon, 21 Oct 2013 20:13:21 GMT",
		"https://www.example.com",
		"The quick brown fox jumps over the lazy dog 1234567890!@#$%^&*()",
	}
	for _, s := range samples {
		enc := Encode(nil, []byte(s))
		if len(enc) != EncodedLen([]byte(s)) {
			t.Fatalf("%q: EncodedLen mismatch: got %d want %d", s, EncodedLen([]byte(s)), len(enc))
		}
		got, err := Decode(enc)
		if err != nil {
			t.Fatalf("%q: decode error: %v", s, err)
		}
		if !bytes.Equal(got, []byte(s)) {
			t.Fatalf("%q: round trip mismatch, got %q", s, got)
		}
	}
}

func TestRoundTripAllBytes(t *testing.T) {
	var all []byte
	for i := 0; i < 256; i++ {
		all = append(all, byte(i))
	}
	enc := Encode(nil, all)
	got, err := Decode(enc)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !bytes.Equal(got, all) {
		t.Fatalf("round trip mismatch over all byte values")
	}
}

// RFC 7541 C.4.1: "www.example.com" Huffman-encodes to this exact sequence.
func TestRFCExampleWWWExampleCom(t *testing.T) {
	want := []byte{
		0xf1, 0xe3, 0xc2, 0xe5, 0xf2, 0x3a, 0x6b, 0xa0, 0xab, 0x90, 0xf4, 0xff,
	}
	enc := Encode(nil, []byte("www.example.com"))
	if !bytes.Equal(enc, want) {
		t.Fatalf("got %x want %x", enc, want)
	}
	got, err := Decode(want)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if string(got) != "www.example.com" {
		t.Fatalf("got %q", got)
	}
}

func TestDecodeRejectsEOSInStream(t *testing.T) {
	// The all-ones 30-bit EOS code followed by zero padding, left-aligned.
	data := []byte{0xff, 0xff, 0xff, 0xfc}
	if _, err := Decode(data); err == nil {
		t.Fatalf("expected error decoding a literal EOS occurrence")
	}
}
