package frame

import (
	"encoding/binary"

	"github.com/kestrelhttp/kestrel/internal/kerr"
)

// HeadersPayload is a HEADERS frame's payload after stripping the optional
// padding and priority fields, per spec.md §4.2's decoder precondition
// ("after stripping pad-length, exclusive, stream-dependency, weight when
// flagged").
type HeadersPayload struct {
	Exclusive        bool
	StreamDependency uint32
	Weight           uint8
	HeaderBlock      []byte
}

// ParseHeadersPayload strips PADDED and PRIORITY framing from a HEADERS (or
// PUSH_PROMISE, which shares the same prefix shape) payload, returning the
// remaining header block fragment bytes to feed to HPACK.
func ParseHeadersPayload(payload []byte, flags Flags) (HeadersPayload, error) {
	var out HeadersPayload
	pos := 0

	var padLen int
	if flags.Has(FlagPadded) {
		if len(payload) < 1 {
			return out, kerr.NewFrameError("frame.ParseHeadersPayload", "invalid: missing pad length", nil)
		}
		padLen = int(payload[0])
		pos = 1
	}

	if flags.Has(FlagPriority) {
		if len(payload) < pos+5 {
			return out, kerr.NewFrameError("frame.ParseHeadersPayload", "invalid: truncated priority fields", nil)
		}
		raw := binary.BigEndian.Uint32(payload[pos : pos+4])
		out.Exclusive = raw&0x80000000 != 0
		out.StreamDependency = raw & 0x7fffffff
		out.Weight = payload[pos+4]
		pos += 5
	}

	end := len(payload) - padLen
	if end < pos {
		return out, kerr.NewFrameError("frame.ParseHeadersPayload", "invalid: pad length exceeds payload", nil)
	}
	out.HeaderBlock = payload[pos:end]
	return out, nil
}

// SettingsParam is one SETTINGS frame identifier/value pair (RFC 7540 §6.5.1).
type SettingsParam struct {
	ID    uint16
	Value uint32
}

// ParseSettingsPayload splits a SETTINGS payload into its 6-octet-per-entry
// parameter list. spec.md §4.4 requires the payload length be divisible by
// 6 for a non-ACK SETTINGS frame; the caller checks that before calling.
func ParseSettingsPayload(payload []byte) ([]SettingsParam, error) {
	if len(payload)%6 != 0 {
		return nil, kerr.NewFrameError("frame.ParseSettingsPayload", "frame-size-error: length not divisible by 6", nil)
	}
	params := make([]SettingsParam, 0, len(payload)/6)
	for i := 0; i < len(payload); i += 6 {
		params = append(params, SettingsParam{
			ID:    binary.BigEndian.Uint16(payload[i : i+2]),
			Value: binary.BigEndian.Uint32(payload[i+2 : i+6]),
		})
	}
	return params, nil
}

// EncodeSettingsPayload packs params back into wire bytes, used when sending
// our own (empty, in this implementation) SETTINGS frame or a SETTINGS ACK
// echo is not needed (ACKs carry an empty payload).
func EncodeSettingsPayload(params []SettingsParam) []byte {
	buf := make([]byte, len(params)*6)
	for i, p := range params {
		binary.BigEndian.PutUint16(buf[i*6:i*6+2], p.ID)
		binary.BigEndian.PutUint32(buf[i*6+2:i*6+6], p.Value)
	}
	return buf
}

// PingPayloadLen is the fixed opaque-data length required for PING frames
// (RFC 7540 §6.7).
const PingPayloadLen = 8

// ValidatePingPayload checks the 8-octet length requirement from spec.md
// §4.4 ("PING ... 8 octets of opaque data required").
func ValidatePingPayload(payload []byte) error {
	if len(payload) != PingPayloadLen {
		return kerr.NewFrameError("frame.ValidatePingPayload", "invalid: PING payload must be 8 octets", nil)
	}
	return nil
}
