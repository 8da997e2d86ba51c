package frame

import (
	"bytes"
	"testing"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	f := Frame{
		Length:   5,
		Type:     TypeData,
		Flags:    FlagEndStream,
		StreamID: 3,
		Payload:  []byte("hello"),
	}
	wire := Pack(f)

	var r Reassembler
	got, err := r.Push(wire)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(got))
	}
	if got[0].Type != TypeData || got[0].StreamID != 3 || !got[0].Flags.Has(FlagEndStream) {
		t.Fatalf("unexpected frame: %+v", got[0])
	}
	if !bytes.Equal(got[0].Payload, []byte("hello")) {
		t.Fatalf("unexpected payload: %q", got[0].Payload)
	}
}

func TestReservedStreamIDBitDiscarded(t *testing.T) {
	f := Frame{Type: TypePing, StreamID: 0x80000005, Payload: make([]byte, 8)}
	f.Length = uint32(len(f.Payload))
	wire := Pack(f)

	var r Reassembler
	got, err := r.Push(wire)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if got[0].StreamID != 5 {
		t.Fatalf("expected reserved bit masked, got stream id %d", got[0].StreamID)
	}
}

func TestReassemblyAcrossPartialReads(t *testing.T) {
	f := Frame{Type: TypeData, StreamID: 1, Payload: []byte("0123456789")}
	f.Length = uint32(len(f.Payload))
	wire := Pack(f)

	var r Reassembler
	// Feed the frame split across three arbitrary-sized reads.
	got, err := r.Push(wire[:4])
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no complete frames yet, got %v err %v", got, err)
	}
	got, err = r.Push(wire[4:10])
	if err != nil || len(got) != 0 {
		t.Fatalf("expected still no complete frames, got %v err %v", got, err)
	}
	got, err = r.Push(wire[10:])
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if len(got) != 1 || string(got[0].Payload) != "0123456789" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestMultipleFramesInOneRead(t *testing.T) {
	f1 := Frame{Type: TypeData, StreamID: 1, Payload: []byte("a")}
	f1.Length = 1
	f2 := Frame{Type: TypeData, StreamID: 1, Flags: FlagEndStream, Payload: []byte("b")}
	f2.Length = 1

	combined := append(Pack(f1), Pack(f2)...)
	var r Reassembler
	got, err := r.Push(combined)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(got))
	}
	if string(got[0].Payload) != "a" || string(got[1].Payload) != "b" {
		t.Fatalf("unexpected frames: %+v", got)
	}
}

func TestOversizedFrameIsFatal(t *testing.T) {
	// Craft a header claiming a length far beyond AdvertisedMaxFrameSize.
	hdr := []byte{0xff, 0xff, 0xff, byte(TypeData), 0, 0, 0, 0, 1}
	var r Reassembler
	if _, err := r.Push(hdr); err == nil {
		t.Fatalf("expected too-big error")
	}
}

func TestShortBufferAwaitsMore(t *testing.T) {
	var r Reassembler
	got, err := r.Push([]byte{1, 2, 3})
	if err != nil {
		t.Fatalf("short header should just wait for more bytes, got err %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no frames from a 3-byte prefix")
	}
}

func TestParseHeadersPayloadPaddedAndPriority(t *testing.T) {
	// padLen=2, exclusive=true, dependency=7, weight=10, block="hi", pad="xx"
	payload := []byte{2, 0x80, 0, 0, 7, 10, 'h', 'i', 'x', 'x'}
	hp, err := ParseHeadersPayload(payload, FlagPadded|FlagPriority)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !hp.Exclusive || hp.StreamDependency != 7 || hp.Weight != 10 {
		t.Fatalf("unexpected priority fields: %+v", hp)
	}
	if string(hp.HeaderBlock) != "hi" {
		t.Fatalf("unexpected header block: %q", hp.HeaderBlock)
	}
}

func TestParseSettingsPayloadRejectsBadLength(t *testing.T) {
	if _, err := ParseSettingsPayload([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected frame-size-error")
	}
}

func TestValidatePingPayloadLength(t *testing.T) {
	if err := ValidatePingPayload(make([]byte, 8)); err != nil {
		t.Fatalf("8 octets should be valid: %v", err)
	}
	if err := ValidatePingPayload(make([]byte, 4)); err == nil {
		t.Fatalf("expected error for wrong length")
	}
}
