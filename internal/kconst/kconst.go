// Package kconst centralizes the magic numbers and default values used
// throughout the engine, following the teacher's one-file constants package.
package kconst

import "time"

// Connection lifetime defaults (data model §3, connection lifetime engine §4.7).
const (
	DefaultKeepAlive      = 5 * time.Second
	DefaultMaxConnections = 4096
	SentinelPollInterval  = 250 * time.Millisecond
)

// HTTP/2 frame and settings limits (§3 "Frame", §4.4, §6).
const (
	// MaxFrameSize is the wire ceiling a 24-bit length field can express.
	MaxFrameSize = 1<<24 - 1

	// AdvertisedMaxFrameSize is the frame-size limit this server enforces on
	// inbound frames. Its SETTINGS frame carries no parameters, so peers
	// assume the RFC 7540 default, which is this same 16 KiB. The source
	// used a fixed 4 MiB cap untied to SETTINGS_MAX_FRAME_SIZE; per spec.md
	// §9 REDESIGN FLAGS this implementation enforces the RFC 7540 default
	// instead.
	AdvertisedMaxFrameSize = 16 * 1024

	// ResponseDataFrameSize is the fragment size used when slicing outbound
	// response chunks into DATA frames (§4.4 response emission).
	ResponseDataFrameSize = 16 * 1024

	DefaultHpackTableSize = 256
	StaticTableSize       = 61

	MaxConcurrentStreams = 128
	SettingsAckTimeout   = 10 * time.Second
	PingTimeout          = 10 * time.Second
)

// Client preface, exactly 24 octets (§4.4 "expect-preface").
const ClientPreface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

// Runtime / worker pool defaults (§4.9, §6).
const (
	DefaultWorkerThreads  = 8
	DefaultReadBufferSize = 32 * 1024
	DefaultTaskQueueDepth = 1024
)

// ALPN protocol identifiers negotiated during the TLS handshake (§6).
const (
	ALPNH2   = "h2"
	ALPNHTTP = "http/1.1"
)
